// Package version reports which forge build is running.
//
// Values are stamped at link time and fall back to the module build info:
//
//	go build -ldflags "-X github.com/kbukum/forge/version.Version=1.4.0"
package version
