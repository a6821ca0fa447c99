package sqlite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDriverInfo(t *testing.T) {
	info := GetInfo()

	if info.DriverName == "" {
		t.Error("DriverName should not be empty")
	}
	if info.Package == "" {
		t.Error("Package should not be empty")
	}
	if info.DriverName != DriverName() {
		t.Errorf("DriverName mismatch: info=%s, func=%s", info.DriverName, DriverName())
	}
	if info.DriverType != DriverType() {
		t.Errorf("DriverType mismatch: info=%s, func=%s", info.DriverType, DriverType())
	}
	if info.IsCGO != IsCGO() {
		t.Errorf("IsCGO mismatch: info=%v, func=%v", info.IsCGO, IsCGO())
	}
	if !strings.Contains(info.BusyParam, "5000") {
		t.Errorf("BusyParam = %q, want the 5000ms timeout", info.BusyParam)
	}
}

func TestFileDSN(t *testing.T) {
	got := FileDSN("/tmp/x.db")
	if !strings.HasPrefix(got, "file:/tmp/x.db?") {
		t.Fatalf("FileDSN = %q", got)
	}
	if !strings.HasSuffix(got, busyTimeoutParam(BusyTimeoutMillis)) {
		t.Fatalf("FileDSN = %q, missing busy timeout", got)
	}
}

func TestFileDSN_EscapesPath(t *testing.T) {
	got := FileDSN("/tmp/a?b#c%d/x.db")
	if !strings.HasPrefix(got, "file:/tmp/a%3Fb%23c%25d/x.db?") {
		t.Fatalf("FileDSN = %q", got)
	}

	dir := filepath.Join(t.TempDir(), "a?b#c%d")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "t.db")
	db, err := Open(FileDSN(path))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE t (a TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not at %s: %v", path, err)
	}
}

func TestMemoryDSNUnique(t *testing.T) {
	a, b := MemoryDSN(), MemoryDSN()
	if a == b {
		t.Fatalf("MemoryDSN returned %q twice", a)
	}
	if !strings.Contains(a, "mode=memory") || !strings.Contains(a, "cache=shared") {
		t.Fatalf("MemoryDSN = %q", a)
	}
}

func TestOpenFile(t *testing.T) {
	db, err := Open(FileDSN(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE test (id INTEGER PRIMARY KEY, value TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO test (value) VALUES ('hello')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var v string
	if err := db.QueryRow(`SELECT value FROM test WHERE id = 1`).Scan(&v); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v != "hello" {
		t.Errorf("value = %q, want hello", v)
	}

	var busy int
	if err := db.QueryRow(`PRAGMA busy_timeout`).Scan(&busy); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if busy != BusyTimeoutMillis {
		t.Errorf("busy_timeout = %d, want %d", busy, BusyTimeoutMillis)
	}
}

func TestMustOpenMemory(t *testing.T) {
	db := MustOpen(MemoryDSN())
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE t (a TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}
