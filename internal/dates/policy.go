package dates

import (
	"fmt"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

// DefaultMaxAgeDays is the default look-back limit for CheckNotTooOld.
const DefaultMaxAgeDays = 365

const (
	isoLayout    = "2006-01-02"
	folderLayout = "2006年01月02日"
)

// CheckNotFuture rejects a day strictly after now's day.
func CheckNotFuture(d, now time.Time) error {
	if Day(d).After(Day(now)) {
		return domain.NewQueryError(domain.ErrInvalidDate,
			fmt.Sprintf("cannot query a future date: %s", FormatISO(d)),
			"use today or a past date")
	}
	return nil
}

// CheckNotTooOld rejects a day more than maxDays before now's day.
// A non-positive maxDays means DefaultMaxAgeDays.
func CheckNotTooOld(d, now time.Time, maxDays int) error {
	if maxDays <= 0 {
		maxDays = DefaultMaxAgeDays
	}
	age := DaysBetween(d, now)
	if age > maxDays {
		return domain.NewQueryError(domain.ErrInvalidDate,
			fmt.Sprintf("date is too old: %s (%d days ago)", FormatISO(d), age),
			fmt.Sprintf("query data from the last %d days", maxDays))
	}
	return nil
}

// DaysBetween counts calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// FolderName renders a day as its snapshot folder name, e.g. 2025年10月10日.
func FolderName(d time.Time) string {
	return d.Format(folderLayout)
}

// ParseFolderName parses a snapshot folder name in loc.
func ParseFolderName(name string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(folderLayout, name, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: folder %q", domain.ErrInvalidDate, name)
	}
	return t, nil
}

// FormatISO renders a day as YYYY-MM-DD.
func FormatISO(d time.Time) string {
	return d.Format(isoLayout)
}

// ParseISO parses a strict YYYY-MM-DD tool argument in loc.
func ParseISO(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(isoLayout, s, loc)
	if err != nil {
		return time.Time{}, domain.NewQueryError(domain.ErrInvalidDate,
			fmt.Sprintf("invalid date: %s", s), "use the YYYY-MM-DD format, e.g. 2025-10-10")
	}
	return t, nil
}
