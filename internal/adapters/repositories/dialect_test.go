package repositories

import (
	"testing"
	"time"
)

func TestRebind(t *testing.T) {
	q := "UPDATE orders SET status = ? WHERE id = ? AND driver_id IS NULL"

	if got := SQLite.rebind(q); got != q {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
	want := "UPDATE orders SET status = $1 WHERE id = $2 AND driver_id IS NULL"
	if got := Postgres.rebind(q); got != want {
		t.Fatalf("postgres rebind = %q, want %q", got, want)
	}
}

func TestDialectFor(t *testing.T) {
	if d, err := DialectFor("pgx"); err != nil || d != Postgres {
		t.Fatalf("pgx -> %v, %v", d, err)
	}
	if d, err := DialectFor("sqlite"); err != nil || d != SQLite {
		t.Fatalf("sqlite -> %v, %v", d, err)
	}
	if _, err := DialectFor("mysql"); err == nil {
		t.Fatal("expected error for mysql")
	}
}

func TestSQLTimeScan(t *testing.T) {
	want := time.Date(2026, 1, 1, 12, 30, 0, 0, time.UTC)

	inputs := []any{
		want,
		want.Format(time.RFC3339Nano),
		[]byte("2026-01-01 12:30:00+00:00"),
		"2026-01-01 12:30:00",
	}
	for _, in := range inputs {
		var st sqlTime
		if err := st.Scan(in); err != nil {
			t.Fatalf("scan %v: %v", in, err)
		}
		if !st.Equal(want) {
			t.Fatalf("scan %v = %s, want %s", in, st.Time, want)
		}
	}

	var st sqlTime
	if err := st.Scan(42); err == nil {
		t.Fatal("expected error for int input")
	}
}
