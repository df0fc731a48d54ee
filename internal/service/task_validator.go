package service

import (
	"regexp"
	"time"

	apperrors "taskapi/internal/errors"
)

const (
	msgDueDateFormat  = "Date format must be dd-mm-yyyy."
	msgDueDateISO     = "Datetime has wrong format. Use dd-mm-yyyy or ISO-8601."
	msgDueDateInPast  = "The due date cannot be in the past."
	dayMonthYearParse = "2-1-2006"
)

var dayMonthYearPattern = regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`)

// isoLayouts are tried in order; the bool marks layouts that carry an offset.
var isoLayouts = []struct {
	layout    string
	hasOffset bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", false},
}

// TaskValidator validates and normalizes task fields.
type TaskValidator struct {
	loc *time.Location
	now func() time.Time
}

// NewTaskValidator creates a validator that interprets naive dates in loc.
func NewTaskValidator(loc *time.Location) *TaskValidator {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskValidator{loc: loc, now: time.Now}
}

// Location is the default time zone.
func (v *TaskValidator) Location() *time.Location {
	return v.loc
}

// ValidateDueDate parses raw as dd-mm-yyyy or ISO-8601 and rejects dates before today.
// Dates without a time become midnight; values without an offset are placed in the
// default time zone. The result is in UTC.
func (v *TaskValidator) ValidateDueDate(raw string) (time.Time, error) {
	var due time.Time

	if dayMonthYearPattern.MatchString(raw) {
		parsed, err := time.ParseInLocation(dayMonthYearParse, raw, v.loc)
		if err != nil {
			return time.Time{}, apperrors.NewValidationError("due_date", msgDueDateFormat)
		}
		due = parsed
	} else {
		parsed, err := v.parseISO(raw)
		if err != nil {
			return time.Time{}, err
		}
		due = parsed
	}

	if due.Before(v.startOfToday()) {
		return time.Time{}, apperrors.NewValidationError("due_date", msgDueDateInPast)
	}
	return due.UTC(), nil
}

func (v *TaskValidator) parseISO(raw string) (time.Time, error) {
	for _, l := range isoLayouts {
		if l.hasOffset {
			if t, err := time.Parse(l.layout, raw); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(l.layout, raw, v.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("due_date", msgDueDateISO)
}

// ParseDay parses a calendar day given as YYYY-MM-DD or dd-mm-yyyy and returns
// the half-open interval it covers in the default time zone.
func (v *TaskValidator) ParseDay(raw string) (from, to time.Time, ok bool) {
	layout := "2006-01-02"
	if dayMonthYearPattern.MatchString(raw) {
		layout = dayMonthYearParse
	}
	day, err := time.ParseInLocation(layout, raw, v.loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return day.UTC(), day.AddDate(0, 0, 1).UTC(), true
}

func (v *TaskValidator) startOfToday() time.Time {
	now := v.now().In(v.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, v.loc)
}
