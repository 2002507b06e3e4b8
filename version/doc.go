// Package version reports build information for the getfnative binary.
//
// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/getfnative/version.Version=1.0.0" ./cmd/getfnative
package version
