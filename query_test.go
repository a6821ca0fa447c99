package aiodb

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
)

// fakeHandle builds a DB over the in-test driver without synchronizing.
func fakeHandle[T any](t *testing.T, f *fakeDB) *DB[T] {
	t.Helper()
	s, err := SchemaOf[T]()
	if err != nil {
		t.Fatalf("SchemaOf: %v", err)
	}
	db := &DB[T]{
		name:   "people",
		schema: s,
		pool:   newTestDB(t, f),
		log:    zaptest.NewLogger(t).Sugar(),
	}
	db.SetRetries(1)
	return db
}

func TestWhereClause(t *testing.T) {
	s, _ := SchemaOf[Person]()
	tests := []struct {
		name string
		opts []QueryOption
		want string
	}{
		{"none", nil, ""},
		{"and", []QueryOption{
			{Field: "age", Op: Ge(18)},
			{Field: "married", Op: Eq(true)},
		}, `"Age" >= 18 AND "Married" == 1`},
		{"or", []QueryOption{
			{Field: "Name", Op: Eq("Ada"), Next: Or},
			{Field: "Name", Op: Eq("Bob"), Next: Or},
		}, `"Name" == 'Ada' OR "Name" == 'Bob'`},
		{"all comparisons", []QueryOption{
			{Field: "Age", Op: Ne(1)},
			{Field: "Age", Op: Gt(2)},
			{Field: "Age", Op: Lt(3)},
			{Field: "Age", Op: Le(4)},
		}, `"Age" <> 1 AND "Age" > 2 AND "Age" < 3 AND "Age" <= 4`},
		{"like", []QueryOption{
			{Field: "Name", Op: Contains("da")},
			{Field: "Name", Op: StartsWith("A")},
			{Field: "Name", Op: EndsWith("a")},
		}, `"Name" LIKE '%da%' AND "Name" LIKE 'A%' AND "Name" LIKE '%a'`},
		{"escaping", []QueryOption{
			{Field: "Name", Op: Eq("It's cold")},
		}, `"Name" == 'It''s cold'`},
		{"non-numeric operand on numeric column", []QueryOption{
			{Field: "Age", Op: Eq("old")},
		}, `"Age" == 'old'`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := whereClause(s, tc.opts)
			if err != nil {
				t.Fatalf("whereClause: %v", err)
			}
			if got != tc.want {
				t.Fatalf("\n got %s\nwant %s", got, tc.want)
			}
		})
	}
}

func TestWhereClause_Errors(t *testing.T) {
	s, _ := SchemaOf[Person]()
	_, err := whereClause(s, []QueryOption{{Field: "spouse", Op: Eq("x")}})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("want ErrUnknownField, got %v", err)
	}
	_, err = whereClause(s, []QueryOption{{Field: "Name", Op: Operator{}}})
	if !errors.Is(err, ErrInvalidOperator) {
		t.Fatalf("want ErrInvalidOperator, got %v", err)
	}
}

func TestStatementText(t *testing.T) {
	w := `"Age" >= 18`
	tests := []struct{ got, want string }{
		{selectSQL("people", "", 0), `SELECT * FROM "people" ORDER BY rowid`},
		{selectSQL("people", w, 1), `SELECT * FROM "people" WHERE "Age" >= 18 ORDER BY rowid LIMIT 1`},
		{countSQL("people", w), `SELECT COUNT(*) AS count_total FROM "people" WHERE "Age" >= 18`},
		{deleteSQL("people", ""), `DELETE FROM "people"`},
		{partialUpdateSQL("people", "Age", "5", w), `UPDATE "people" SET "Age" = 5 WHERE "Age" >= 18`},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("\n got %s\nwant %s", tc.got, tc.want)
		}
	}

	s, _ := SchemaOf[Person]()
	q, err := createIndexSQL("people", "by_age", true, []string{"age", "NAME"}, s)
	if err != nil || q != `CREATE UNIQUE INDEX IF NOT EXISTS "by_age" ON "people" ("Age", "Name")` {
		t.Fatalf("createIndexSQL = %s, %v", q, err)
	}
	if _, err := createIndexSQL("people", "x", false, []string{"spouse"}, s); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("want ErrUnknownField, got %v", err)
	}
	if _, err := createIndexSQL("people", "x", false, nil, s); !errors.Is(err, ErrNoColumns) {
		t.Fatalf("want ErrNoColumns, got %v", err)
	}
	if _, err := dropIndexSQL("bad name"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("want ErrInvalidName, got %v", err)
	}
}

func TestBuilderIsValue(t *testing.T) {
	db := fakeHandle[Person](t, &fakeDB{})
	base := db.Query().Field("age").WhereIs(Ge(18))
	a := base.Field("married").WhereIs(Eq(true))
	b := base.Field("married").WhereIs(Eq(false), Or)

	if len(base.Options()) != 1 || len(a.Options()) != 2 || len(b.Options()) != 2 {
		t.Fatalf("lens = %d %d %d", len(base.Options()), len(a.Options()), len(b.Options()))
	}
	if a.Options()[1].Op.Operand != "true" || b.Options()[1].Op.Operand != "false" {
		t.Fatalf("builders share terms: %+v / %+v", a.Options(), b.Options())
	}
	if b.Options()[1].Next != Or {
		t.Fatalf("next = %v want OR", b.Options()[1].Next)
	}

	opts := a.Options()
	opts[0].Field = "mutated"
	if a.Options()[0].Field != "age" {
		t.Fatal("Options must return a copy")
	}

	a.Clear()
	if len(a.Options()) != 0 || len(base.Options()) != 1 {
		t.Fatal("Clear must only reset its receiver")
	}
}

func TestTerminals_SQL(t *testing.T) {
	f := &fakeDB{
		query: func(q string, _ []driver.NamedValue) ([]string, [][]driver.Value, error) {
			if strings.HasPrefix(q, "SELECT COUNT") {
				if strings.Contains(q, "WHERE") {
					return []string{"count_total"}, [][]driver.Value{{int64(2)}}, nil
				}
				return []string{"count_total"}, [][]driver.Value{{int64(3)}}, nil
			}
			return []string{"Name", "Age", "Married"}, [][]driver.Value{
				{"Ada", int64(36), int64(1)},
				{"Bob", int64(40), int64(1)},
			}, nil
		},
		exec: func(string, []driver.NamedValue) (driver.Result, error) {
			return testResult{rows: 2}, nil
		},
	}
	db := fakeHandle[Person](t, f)
	ctx := context.Background()
	married := db.Query().Field("married").WhereIs(Eq(true))

	got, err := married.GetMany(ctx)
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	want := []Person{{"Ada", 36, true}, {"Bob", 40, true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("GetMany (-want +got):\n%s", diff)
	}

	one, err := married.GetOne(ctx)
	if err != nil || one.Name != "Ada" {
		t.Fatalf("GetOne = %+v, %v", one, err)
	}

	n, err := married.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	anyMarried, err := married.Any(ctx)
	if err != nil || !anyMarried {
		t.Fatalf("Any = %v, %v", anyMarried, err)
	}
	all, err := married.All(ctx)
	if err != nil || all {
		t.Fatalf("All = %v, %v (2 of 3 match)", all, err)
	}

	if n, err := married.Update(ctx, Person{Name: "It's", Age: 1}); err != nil || n != 2 {
		t.Fatalf("Update = %d, %v", n, err)
	}
	if n, err := married.PartialUpdate(ctx, "age", "5"); err != nil || n != 2 {
		t.Fatalf("PartialUpdate = %d, %v", n, err)
	}
	if n, err := married.Delete(ctx); err != nil || n != 2 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	if err := db.Insert(ctx, Person{Name: "It's cold", Age: 3, Married: true}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	wantStmts := []string{
		`SELECT * FROM "people" WHERE "Married" == 1 ORDER BY rowid`,
		`SELECT * FROM "people" WHERE "Married" == 1 ORDER BY rowid LIMIT 1`,
		`SELECT COUNT(*) AS count_total FROM "people" WHERE "Married" == 1`,
		`SELECT COUNT(*) AS count_total FROM "people" WHERE "Married" == 1`,
		`SELECT COUNT(*) AS count_total FROM "people" WHERE "Married" == 1`,
		`SELECT COUNT(*) AS count_total FROM "people"`,
		`UPDATE "people" SET "Name" = 'It''s', "Age" = 1, "Married" = 0 WHERE "Married" == 1`,
		`UPDATE "people" SET "Age" = 5 WHERE "Married" == 1`,
		`DELETE FROM "people" WHERE "Married" == 1`,
		`INSERT INTO "people" ("Name", "Age", "Married") VALUES ('It''s cold', 3, 1)`,
	}
	if diff := cmp.Diff(wantStmts, f.statements()); diff != "" {
		t.Fatalf("statements (-want +got):\n%s", diff)
	}
}

func TestAll_TwoIndependentReads(t *testing.T) {
	// Three rows, all married. Another writer inserts a fourth row after
	// the filtered count and before the total count.
	var mu sync.Mutex
	rows := int64(3)
	f := &fakeDB{
		query: func(q string, _ []driver.NamedValue) ([]string, [][]driver.Value, error) {
			mu.Lock()
			defer mu.Unlock()
			n := rows
			if strings.Contains(q, "WHERE") && rows == 3 {
				rows = 4
			}
			return []string{"count_total"}, [][]driver.Value{{n}}, nil
		},
	}
	db := fakeHandle[Person](t, f)
	ctx := context.Background()
	married := db.Query().Field("married").WhereIs(Eq(true))

	all, err := married.All(ctx)
	if err != nil || all {
		t.Fatalf("All = %v, %v; want false with a write between the reads", all, err)
	}

	wantStmts := []string{
		`SELECT COUNT(*) AS count_total FROM "people" WHERE "Married" == 1`,
		`SELECT COUNT(*) AS count_total FROM "people"`,
	}
	if diff := cmp.Diff(wantStmts, f.statements()); diff != "" {
		t.Fatalf("statements (-want +got):\n%s", diff)
	}

	// No further writes: four of four.
	all, err = married.All(ctx)
	if err != nil || !all {
		t.Fatalf("All = %v, %v; want true", all, err)
	}
}

func TestTerminals_ConfigErrorsNotExecuted(t *testing.T) {
	f := &fakeDB{}
	db := fakeHandle[Person](t, f)
	ctx := context.Background()
	bad := db.Query().Field("spouse").WhereIs(Eq("x"))

	if _, err := bad.GetMany(ctx); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("GetMany: %v", err)
	}
	if _, err := bad.Delete(ctx); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Query().PartialUpdate(ctx, "spouse", 1); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("PartialUpdate: %v", err)
	}
	if got := f.statements(); len(got) != 0 {
		t.Fatalf("statements executed: %v", got)
	}
}
