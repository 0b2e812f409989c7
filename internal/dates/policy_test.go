package dates

import (
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

func TestCheckNotFuture(t *testing.T) {
	if err := CheckNotFuture(day(2025, 10, 15), now); err != nil {
		t.Errorf("today should be allowed: %v", err)
	}
	if err := CheckNotFuture(day(2025, 10, 1), now); err != nil {
		t.Errorf("past should be allowed: %v", err)
	}
	err := CheckNotFuture(day(2025, 10, 16), now)
	if !errors.Is(err, domain.ErrInvalidDate) {
		t.Errorf("expected invalid date for tomorrow, got %v", err)
	}
}

func TestCheckNotTooOld(t *testing.T) {
	tests := []struct {
		name    string
		d       time.Time
		maxDays int
		wantErr bool
	}{
		{"within default", day(2024, 10, 15), 0, false},
		{"past default", day(2024, 10, 14), 0, true},
		{"custom limit ok", day(2025, 10, 8), 7, false},
		{"custom limit exceeded", day(2025, 10, 7), 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckNotTooOld(tt.d, now, tt.maxDays)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckNotTooOld() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFolderName(t *testing.T) {
	d := day(2025, 1, 5)
	if got := FolderName(d); got != "2025年01月05日" {
		t.Errorf("FolderName() = %q", got)
	}

	parsed, err := ParseFolderName("2025年01月05日", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.Equal(d) {
		t.Errorf("ParseFolderName() = %v, want %v", parsed, d)
	}

	if _, err := ParseFolderName("output", time.UTC); !errors.Is(err, domain.ErrInvalidDate) {
		t.Errorf("expected invalid date, got %v", err)
	}
}

func TestParseISO(t *testing.T) {
	d, err := ParseISO("2025-10-10", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if FormatISO(d) != "2025-10-10" {
		t.Errorf("unexpected %v", d)
	}

	for _, bad := range []string{"2025-10-1", "10/10", "2025-02-30", ""} {
		if _, err := ParseISO(bad, time.UTC); !errors.Is(err, domain.ErrInvalidDate) {
			t.Errorf("ParseISO(%q) expected invalid date, got %v", bad, err)
		}
	}
}
