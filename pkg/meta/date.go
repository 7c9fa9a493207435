package meta

import (
	"strconv"
	"strings"
	"time"
)

// ParseDate parses an acquisition date written as dd.mm.yy or dd.mm.yyyy and
// an optional HH:MM time. Two-digit years pivot at 69, so 69..99 map to the
// 1900s and 00..68 to the 2000s. Empty or "N/A" input is absent.
func ParseDate(date, hour string) (time.Time, bool) {
	date = strings.TrimSpace(date)
	hour = strings.TrimSpace(hour)
	if date == "" || strings.Contains(date, "N/A") {
		return time.Time{}, false
	}
	// Some writers put both parts in the date field.
	if d, h, ok := strings.Cut(date, " "); ok && hour == "" {
		date, hour = d, strings.TrimSpace(h)
	}

	dmy := strings.Split(date, ".")
	if len(dmy) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(dmy[0])
	month, err2 := strconv.Atoi(dmy[1])
	year, err3 := strconv.Atoi(dmy[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	switch {
	case year >= 69 && year < 100:
		year += 1900
	case year >= 0 && year < 69:
		year += 2000
	}

	var hh, mm int
	if hour != "" && !strings.Contains(hour, "N/A") {
		hs, ms, ok := strings.Cut(hour, ":")
		if !ok {
			return time.Time{}, false
		}
		if i := strings.IndexByte(ms, ':'); i >= 0 {
			ms = ms[:i]
		}
		var err error
		if hh, err = strconv.Atoi(hs); err != nil {
			return time.Time{}, false
		}
		if mm, err = strconv.Atoi(ms); err != nil {
			return time.Time{}, false
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return time.Time{}, false
	}
	ts := time.Date(year, time.Month(month), day, hh, mm, 0, 0, time.UTC)
	if ts.Day() != day {
		return time.Time{}, false
	}
	return ts, true
}
