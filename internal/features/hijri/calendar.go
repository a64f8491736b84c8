package hijri

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The conversion here uses the tabular (civil) Islamic calendar: a fixed
// 30-year cycle with leap years {2,5,7,10,13,16,18,21,24,26,29}, odd months
// of 30 days, even months of 29, and a 30-day Dhu al-Hijjah in leap years.
// The real Hijri calendar depends on lunar observation, so any computed date
// can differ from the observed one by up to a day. Callers must treat the
// Hijri side as a display mirror and never as the source of truth.

// Epoch is the Julian Day Number of 1 Muharram 1 AH (civil epoch, 16 July 622 CE).
const epochJDN = 1948440

const (
	MinYear = 1
	MaxYear = 9999
)

// Date is a date in the Hijri (AH) calendar.
type Date struct {
	Year  int `json:"year" bson:"year"`
	Month int `json:"month" bson:"month"`
	Day   int `json:"day" bson:"day"`
}

// IsLeapYear reports whether the Hijri year has 355 days under the civil cycle.
func IsLeapYear(year int) bool {
	return (11*year+14)%30 < 11
}

// DaysInMonth returns the number of days in the given Hijri month.
func DaysInMonth(year, month int) int {
	if month%2 == 1 {
		return 30
	}
	if month == 12 && IsLeapYear(year) {
		return 30
	}
	return 29
}

// Valid checks the date against the civil calendar's month lengths.
func (d Date) Valid() bool {
	if d.Year < MinYear || d.Year > MaxYear {
		return false
	}
	if d.Month < 1 || d.Month > 12 {
		return false
	}
	return d.Day >= 1 && d.Day <= DaysInMonth(d.Year, d.Month)
}

// String formats the date as YYYY-MM-DD in the AH calendar.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Parse reads a YYYY-MM-DD Hijri date string and validates it.
func Parse(s string) (Date, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return Date{}, fmt.Errorf("invalid hijri date %q: want YYYY-MM-DD", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("invalid hijri year in %q", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("invalid hijri month in %q", s)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("invalid hijri day in %q", s)
	}
	d := Date{Year: year, Month: month, Day: day}
	if !d.Valid() {
		return Date{}, fmt.Errorf("hijri date %q out of range", s)
	}
	return d, nil
}

// IsValidDateString reports whether s is a well-formed, in-range Hijri date.
func IsValidDateString(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// daysBeforeMonth is the number of days preceding the given month in a Hijri
// year, equal to ceil(29.5 * (month-1)) computed in integers.
func daysBeforeMonth(month int) int {
	return (59*(month-1) + 1) / 2
}

// toJDN converts a Hijri date to its Julian Day Number.
func (d Date) toJDN() int {
	return d.Day + daysBeforeMonth(d.Month) + 354*(d.Year-1) + (3+11*d.Year)/30 + epochJDN - 1
}

// fromJDN converts a Julian Day Number to a Hijri date.
func fromJDN(jdn int) Date {
	year := (30*(jdn-epochJDN) + 10646) / 10631
	dayOfYear := jdn - (Date{Year: year, Month: 1, Day: 1}).toJDN() + 1
	month := 1
	for month < 12 && dayOfYear > daysBeforeMonth(month)+DaysInMonth(year, month) {
		month++
	}
	return Date{
		Year:  year,
		Month: month,
		Day:   dayOfYear - daysBeforeMonth(month),
	}
}

// gregorianToJDN uses the standard Fliegel-Van Flandern formula.
func gregorianToJDN(year, month, day int) int {
	a := (month - 14) / 12
	jdn := (1461 * (year + 4800 + a)) / 4
	jdn += (367 * (month - 2 - 12*a)) / 12
	jdn -= (3 * ((year + 4900 + a) / 100)) / 4
	return jdn + day - 32075
}

// jdnToGregorian inverts gregorianToJDN.
func jdnToGregorian(jdn int) (year, month, day int) {
	l := jdn + 68569
	n := (4 * l) / 146097
	l -= (146097*n + 3) / 4
	i := (4000 * (l + 1)) / 1461001
	l -= (1461*i)/4 - 31
	j := (80 * l) / 2447
	day = l - (2447*j)/80
	l = j / 11
	month = j + 2 - 12*l
	year = 100*(n-49) + i + l
	return year, month, day
}

// ToHijri converts a Gregorian instant to its civil Hijri date. Only the
// calendar date in UTC matters; the time of day is discarded.
func ToHijri(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return fromJDN(gregorianToJDN(y, int(m), d))
}

// ToGregorian converts a Hijri date to midnight UTC of the Gregorian day.
func ToGregorian(d Date) time.Time {
	y, m, day := jdnToGregorian(d.toJDN())
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC)
}
