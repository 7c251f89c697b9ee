package remote

import (
	"regexp"
	"time"
)

const (
	defaultHost    = "api.trunk.io"
	defaultTimeout = 30 * time.Second

	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"

	quarantineConfigEndpoint = "/v1/metrics/getQuarantineConfig"
)

var (
	bearerTokenRegexp     = regexp.MustCompile(`Bearer.*`)
	setCookieHeaderRegexp = regexp.MustCompile(`Set-Cookie:.*`)
)
