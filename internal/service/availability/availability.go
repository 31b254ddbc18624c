// Package availability decides whether a doctor works on a given calendar
// date.
//
// Doctors' working days were captured as free text ("Mon", "wednesday ",
// "Thursday"), so matching goes through NormalizeDays, which folds those
// tokens into a WeekdaySet once. Everything downstream is set membership.
package availability

import (
	"strings"
	"time"

	"github.com/jwalitptl/consult-api/internal/model"
	apperrors "github.com/jwalitptl/consult-api/pkg/errors"
)

// WeekdaySet is a bitmask indexed by time.Weekday.
type WeekdaySet uint8

// week lists the days in the order they are shown to patients.
var week = [...]time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	return s | 1<<uint(d)
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

func (s WeekdaySet) Empty() bool {
	return s == 0
}

// Names returns canonical English day names, Monday first.
func (s WeekdaySet) Names() []string {
	names := make([]string, 0, len(week))
	for _, d := range week {
		if s.Has(d) {
			names = append(names, d.String())
		}
	}
	return names
}

// NormalizeDays maps stored tokens onto weekdays. A token names a day when,
// after trimming and lowercasing, the 3-letter form is a prefix of it, it is
// a prefix of the 3-letter form, the full name contains it, or it contains
// the full name. Blank tokens name nothing.
func NormalizeDays(tokens []string) WeekdaySet {
	var s WeekdaySet
	for _, raw := range tokens {
		token := strings.ToLower(strings.TrimSpace(raw))
		if token == "" {
			continue
		}
		for _, d := range week {
			if matches(token, d) {
				s = s.With(d)
			}
		}
	}
	return s
}

func matches(token string, d time.Weekday) bool {
	long := strings.ToLower(d.String())
	short := long[:3]

	return strings.HasPrefix(token, short) ||
		strings.HasPrefix(short, token) ||
		strings.Contains(long, token) ||
		strings.Contains(token, long)
}

// IsAvailable reports whether date falls on one of availableDays. An empty
// list is never available.
func IsAvailable(availableDays []string, date time.Time) bool {
	return NormalizeDays(availableDays).Has(date.Weekday())
}

// Check is IsAvailable with the failure shaped as an Unavailable error that
// names the rejected day.
func Check(availableDays []string, date model.Date) error {
	if IsAvailable(availableDays, date.Time) {
		return nil
	}
	return apperrors.Unavailable(date.Weekday().String())
}

// ParseDate validates a client supplied booking date. loc decides which
// calendar day an RFC3339 timestamp falls on.
func ParseDate(raw string, loc *time.Location) (model.Date, error) {
	date, err := model.ParseDate(raw, loc)
	if err != nil {
		return model.Date{}, apperrors.Validation("invalid date", err)
	}
	return date, nil
}
