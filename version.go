// Package flakeguard holds build-time metadata for the flakeguard CLI.
package flakeguard

// Version is overwritten at link time via -ldflags.
var Version = "development"
