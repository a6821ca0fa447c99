//go:build !cgo_sqlite

package sqlite

import (
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)

func busyTimeoutParam(ms int) string {
	return "_pragma=busy_timeout(" + itoa(ms) + ")"
}
