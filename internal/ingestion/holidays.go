package ingestion

import "time"

// LastNTradingDays returns the last n US equity trading days (most recent first),
// as UTC midnights. Weekends and NYSE full-day holidays are skipped.
func LastNTradingDays(n int, from time.Time) []time.Time {
	out := make([]time.Time, 0, n)
	d := truncateToDate(from)

	for len(out) < n {
		if isTradingDayUS(d) {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, -1)
	}
	return out
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// isTradingDayUS returns true if the exchange is open on d.
func isTradingDayUS(d time.Time) bool {
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, closed := nyseHolidays(d.Year())[truncateToDate(d)]
	return !closed
}

// nyseHolidays lists the full-day closures of a year, already shifted to the observed weekday.
func nyseHolidays(year int) map[time.Time]struct{} {
	days := []time.Time{
		observed(date(year, time.January, 1)),
		nthWeekday(year, time.January, time.Monday, 3),  // Martin Luther King Jr. Day
		nthWeekday(year, time.February, time.Monday, 3), // Washington's Birthday
		easterSunday(year).AddDate(0, 0, -2),            // Good Friday
		lastWeekday(year, time.May, time.Monday),        // Memorial Day
		observed(date(year, time.July, 4)),
		nthWeekday(year, time.September, time.Monday, 1),  // Labor Day
		nthWeekday(year, time.November, time.Thursday, 4), // Thanksgiving
		observed(date(year, time.December, 25)),
	}
	if year >= 2022 {
		days = append(days, observed(date(year, time.June, 19)))
	}

	out := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		out[d] = struct{}{}
	}
	return out
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// observed moves Saturday holidays to Friday and Sunday holidays to Monday.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	d := date(year, month, 1)
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+7*(n-1))
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	d := date(year, month+1, 1).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(wd) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// easterSunday returns the date of Easter Sunday for a given year
// (Meeus/Jones/Butcher algorithm).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return date(year, time.Month(month), day)
}
