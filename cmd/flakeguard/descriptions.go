package main

// These constants hold the "long" description of a subcommand. These get printed when running `--help`, for example.
const (
	descriptionFlakeguard = `flakeguard reads the JUnit XML reports of your test runs, checks their quality and
keeps flaky tests from failing your builds by quarantining them.`

	descriptionValidate = `'flakeguard validate' parses the given test reports and lists everything that keeps
them from being used reliably. It exits with 1 if any report is invalid.

Example use:

	flakeguard validate --junit-paths "reports/**/*.xml"`

	descriptionQuarantine = `'flakeguard quarantine' reconciles the failures in the given test reports and exits
successfully if every remaining failure is quarantined. Otherwise, it exits with the exit code of the test run.

Example use:

	bundle exec rspec; flakeguard quarantine --junit-paths "reports/**/*.xml" --exit-code $?`

	descriptionTest = `'flakeguard test' executes a test command and quarantines its failures afterwards. Only
reports written by the command are considered.

Example use:

	flakeguard test --junit-paths "reports/**/*.xml" -- bundle exec rspec`

	descriptionExtract = `'flakeguard extract' writes every test execution found in the given reports to a run
record file. Run record files can be passed to '--junit-paths' like any other report.

Example use:

	flakeguard extract --junit-paths "reports/**/*.xml" --output runs.bin`

	descriptionNormalize = `'flakeguard normalize' writes the given reports back out as JUnit XML, the way
flakeguard understood them.

Example use:

	flakeguard normalize --junit-paths "reports/**/*.xml" --output-dir normalized`
)
