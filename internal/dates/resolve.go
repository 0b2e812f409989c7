// Package dates resolves free-form date expressions into calendar days and
// converts between days and the on-disk folder naming scheme.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

// MaxDaysAgo is the largest accepted "N days ago" offset.
const MaxDaysAgo = 365

const supportedFormats = "supported formats: 今天, 昨天, 前天, 大前天, 3天前, today, yesterday, " +
	"two days before yesterday, 3 days ago, 上周一, 本周三, last monday, this friday, 2025-10-10, 10月10日, 2025年10月10日, 10/10, 2025/10/10"

var relativeDays = map[string]int{
	"今天":                                      0,
	"昨天":                                      1,
	"前天":                                      2,
	"大前天":                                     3,
	"today":                                   0,
	"yesterday":                               1,
	"the day before yesterday":                2,
	"day before yesterday":                    2,
	"two days before yesterday":               3,
	"the day before the day before yesterday": 3,
}

var weekdaysCN = map[string]time.Weekday{
	"一": time.Monday,
	"二": time.Tuesday,
	"三": time.Wednesday,
	"四": time.Thursday,
	"五": time.Friday,
	"六": time.Saturday,
	"日": time.Sunday,
	"天": time.Sunday,
}

var weekdaysEN = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var (
	daysAgoCN   = regexp.MustCompile(`^(\d+)\s*天前`)
	daysAgoEN   = regexp.MustCompile(`^(\d+)\s*days?\s+ago`)
	weekdayCN   = regexp.MustCompile(`^(上|本)周([一二三四五六日天])`)
	weekdayEN   = regexp.MustCompile(`^(last|this)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`)
	isoDate     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
	localized   = regexp.MustCompile(`^(?:(\d{4})年)?(\d{1,2})月(\d{1,2})日`)
	slashedDate = regexp.MustCompile(`^(?:(\d{4})/)?(\d{1,2})/(\d{1,2})`)
)

// Resolve turns a date expression into a calendar day relative to now.
// The result is midnight in now's location. Rules are tried in order and the
// first match wins.
func Resolve(expr string, now time.Time) (time.Time, error) {
	q := strings.ToLower(strings.TrimSpace(expr))
	if q == "" {
		return time.Time{}, domain.NewQueryError(domain.ErrInvalidDate,
			"date expression is empty", "provide a date such as today, yesterday or 2025-10-10")
	}
	today := Day(now)

	if n, ok := relativeDays[q]; ok {
		return today.AddDate(0, 0, -n), nil
	}

	for _, re := range []*regexp.Regexp{daysAgoCN, daysAgoEN} {
		if m := re.FindStringSubmatch(q); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n > MaxDaysAgo {
				return time.Time{}, domain.NewQueryError(domain.ErrDaysOutOfRange,
					fmt.Sprintf("too many days: %s", m[1]),
					fmt.Sprintf("use at most %d days or an absolute date", MaxDaysAgo))
			}
			return today.AddDate(0, 0, -n), nil
		}
	}

	if m := weekdayCN.FindStringSubmatch(q); m != nil {
		return byWeekday(today, weekdaysCN[m[2]], m[1] == "上"), nil
	}
	if m := weekdayEN.FindStringSubmatch(q); m != nil {
		return byWeekday(today, weekdaysEN[m[2]], m[1] == "last"), nil
	}

	if m := isoDate.FindStringSubmatch(q); m != nil {
		return build(m[0], m[1], m[2], m[3], now)
	}
	if m := localized.FindStringSubmatch(q); m != nil {
		return build(m[0], m[1], m[2], m[3], now)
	}
	if m := slashedDate.FindStringSubmatch(q); m != nil {
		return build(m[0], m[1], m[2], m[3], now)
	}

	return time.Time{}, domain.NewQueryError(domain.ErrInvalidDate,
		fmt.Sprintf("unrecognised date expression: %s", expr), supportedFormats)
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// mondayIndex maps Monday..Sunday to 0..6.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// byWeekday walks back from today to the most recent target weekday on or
// before today. Last week's occurrence is a further seven days back.
func byWeekday(today time.Time, target time.Weekday, lastWeek bool) time.Time {
	diff := mondayIndex(today.Weekday()) - mondayIndex(target)
	if diff < 0 {
		diff += 7
	}
	if lastWeek {
		diff += 7
	}
	return today.AddDate(0, 0, -diff)
}

// build validates a numeric date. An omitted year is inferred from now and
// rolled back one year when the month lies after now's month.
func build(matched, year, month, day string, now time.Time) (time.Time, error) {
	invalid := func() (time.Time, error) {
		return time.Time{}, domain.NewQueryError(domain.ErrInvalidDate,
			fmt.Sprintf("invalid date: %s", matched), "check that month and day are in calendar range")
	}

	m, err := strconv.Atoi(month)
	if err != nil {
		return invalid()
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return invalid()
	}

	var y int
	if year != "" {
		if y, err = strconv.Atoi(year); err != nil {
			return invalid()
		}
	} else {
		y = now.Year()
		if m > int(now.Month()) {
			y--
		}
	}

	if m < 1 || m > 12 || d < 1 {
		return invalid()
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, now.Location())
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return invalid()
	}
	return t, nil
}
