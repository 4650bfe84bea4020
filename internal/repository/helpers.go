package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/estima/internal/domain"
	"github.com/google/uuid"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ensureID assigns a fresh UUID when id is empty.
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

// nullableFloat converts a *float64 to a value suitable for SQLite storage.
func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableBool(v *bool) any {
	if v == nil {
		return nil
	}
	return boolToInt(*v)
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func boolPtr(v sql.NullInt64) *bool {
	if !v.Valid {
		return nil
	}
	b := intToBool(int(v.Int64))
	return &b
}

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts a SQLite integer (0 or 1) to a Go bool.
func intToBool(i int) bool {
	return i != 0
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

// writeErr wraps a write failure, mapping constraint violations to
// domain.ErrValidation.
func writeErr(what string, err error) error {
	msg := err.Error()
	for _, marker := range []string{"UNIQUE constraint", "FOREIGN KEY constraint", "CHECK constraint", "NOT NULL constraint"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%s: %w: %s", what, domain.ErrValidation, msg)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// readErr maps sql.ErrNoRows to a NotFound error for kind/id.
func readErr(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError(kind, id)
	}
	return fmt.Errorf("scanning %s: %w", kind, err)
}

// requireAffected returns NotFound when a keyed write touched no rows.
func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s rows affected: %w", kind, err)
	}
	if n == 0 {
		return domain.NotFoundError(kind, id)
	}
	return nil
}
