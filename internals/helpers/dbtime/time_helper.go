// file: internals/helpers/dbtime/dbtime.go
package dbtime

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ParseDate: "YYYY-MM-DD" → tengah malam UTC, supaya kolom DATE konsisten
// di semua driver (unique index sesi ikut kolom ini).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("format tanggal tidak valid %q (YYYY-MM-DD)", s)
	}
	return NormalizeDate(t), nil
}

// NormalizeDate membuang jam & zona.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// NowUTC dipakai untuk markedAt / editedAt.
func NowUTC() time.Time { return time.Now().UTC() }
