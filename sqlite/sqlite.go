// Package sqlite selects the SQLite engine driver used by aiodb.
//
// Build modes:
//   - Default: pure Go modernc.org/sqlite, no CGO required
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): mattn/go-sqlite3
//
// Use Open, FileDSN and MemoryDSN instead of sql.Open with a hand-written
// DSN: the two drivers spell the busy timeout parameter differently.
package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// BusyTimeoutMillis is how long a connection waits on a locked database
// before the engine reports SQLITE_BUSY.
const BusyTimeoutMillis = 5000

// DriverName returns the database/sql driver name of the linked engine.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3, "purego" for
// modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO reports whether the CGO implementation is linked in.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a pool on dsn with the linked driver.
func Open(dsn string) (*sql.DB, error) {
	return sql.Open(driverName, dsn)
}

// MustOpen is like Open but panics on error. Intended for tests and init
// code.
func MustOpen(dsn string) *sql.DB {
	db, err := Open(dsn)
	if err != nil {
		panic(fmt.Sprintf("sqlite: failed to open %s: %v", dsn, err))
	}
	return db
}

// FileDSN returns the DSN of the database file at path with the busy
// timeout applied. The path is percent-escaped, so '?', '#' and '%' in
// directory or file names reach the engine unchanged.
func FileDSN(path string) string {
	u := url.URL{Path: path}
	return "file:" + u.EscapedPath() + "?" + busyTimeoutParam(BusyTimeoutMillis)
}

// MemoryDSN returns a DSN for a fresh named in-memory database with a shared
// cache. The database lives as long as one connection to it stays open, so
// pools on it should be capped at a single connection.
func MemoryDSN() string {
	return "file:aiodb-" + uuid.NewString() + "?mode=memory&cache=shared&" + busyTimeoutParam(BusyTimeoutMillis)
}

// Info describes the linked driver.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
	BusyParam  string `json:"busy_param"`
}

// GetInfo returns information about the linked driver.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
		BusyParam:  busyTimeoutParam(BusyTimeoutMillis),
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
