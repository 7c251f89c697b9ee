package errors_test

import (
	"github.com/rwx-research/flakeguard/internal/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Errors", func() {
	Describe("ConfigurationError", func() {
		It("behaves like an error", func() {
			err := errors.NewConfigurationError("some error %v", "some value")
			Expect(err.Error()).To(Equal("some error some value"))

			configErr, ok := errors.AsConfigurationError(err)

			Expect(ok).To(BeTrue())
			Expect(configErr).To(Equal(err))

			internalErr, ok := errors.AsInternalError(err)

			Expect(ok).To(BeFalse())
			Expect(internalErr.E).To(BeNil())
		})

		It("is found through wrapped errors", func() {
			err := errors.Wrap(errors.NewConfigurationError("missing token"), "unable to create client")

			configErr, ok := errors.AsConfigurationError(err)
			Expect(ok).To(BeTrue())
			Expect(configErr.Error()).To(Equal("missing token"))
		})
	})

	Describe("ExecutionError", func() {
		It("carries an exit code", func() {
			err := errors.NewExecutionError(2, "some error %v", "some value")
			Expect(err.Error()).To(Equal("some error some value"))

			executionErr, ok := errors.AsExecutionError(errors.WithStack(err))

			Expect(ok).To(BeTrue())
			Expect(executionErr.Code).To(Equal(2))

			_, ok = errors.AsInternalError(err)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("InputError", func() {
		It("behaves like an error", func() {
			err := errors.NewInputError("some error %v", "some value")
			Expect(err.Error()).To(Equal("some error some value"))

			inputErr, ok := errors.AsInputError(err)

			Expect(ok).To(BeTrue())
			Expect(inputErr).To(Equal(err))

			systemErr, ok := errors.AsSystemError(err)

			Expect(ok).To(BeFalse())
			Expect(systemErr.E).To(BeNil())
		})
	})

	Describe("InternalError", func() {
		It("behaves like an error", func() {
			err := errors.NewInternalError("some error %v", "some value")
			Expect(err.Error()).To(Equal("some error some value"))

			internalErr, ok := errors.AsInternalError(err)

			Expect(ok).To(BeTrue())
			Expect(internalErr).To(Equal(err))

			systemErr, ok := errors.AsSystemError(err)

			Expect(ok).To(BeFalse())
			Expect(systemErr.E).To(BeNil())
		})
	})

	Describe("SystemError", func() {
		It("behaves like an error", func() {
			err := errors.NewSystemError("some error %v", "some value")
			Expect(err.Error()).To(Equal("some error some value"))

			systemErr, ok := errors.AsSystemError(err)

			Expect(ok).To(BeTrue())
			Expect(systemErr).To(Equal(err))

			internalErr, ok := errors.AsInternalError(err)

			Expect(ok).To(BeFalse())
			Expect(internalErr.E).To(BeNil())
		})
	})
})
