package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "taskapi/internal/errors"
)

func fixedValidator(t *testing.T, loc *time.Location, now time.Time) *TaskValidator {
	t.Helper()
	v := NewTaskValidator(loc)
	v.now = func() time.Time { return now }
	return v
}

func TestTaskValidator_ValidateDueDate(t *testing.T) {
	now := time.Date(2026, 10, 16, 15, 30, 0, 0, time.UTC)
	v := fixedValidator(t, time.UTC, now)

	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr string
	}{
		{name: "dd-mm-yyyy future", raw: "17-10-2026", want: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)},
		{name: "dd-mm-yyyy single digits", raw: "1-1-2027", want: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "today as date is midnight and allowed", raw: "16-10-2026", want: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)},
		{name: "earlier today still allowed", raw: "2026-10-16T01:00:00Z", want: time.Date(2026, 10, 16, 1, 0, 0, 0, time.UTC)},
		{name: "rfc3339 with offset", raw: "2026-10-20T12:00:00+02:00", want: time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)},
		{name: "naive iso datetime", raw: "2026-10-20T08:15:00", want: time.Date(2026, 10, 20, 8, 15, 0, 0, time.UTC)},
		{name: "iso date only", raw: "2026-12-01", want: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)},
		{name: "past dd-mm-yyyy", raw: "01-01-2020", wantErr: msgDueDateInPast},
		{name: "yesterday", raw: "2026-10-15T23:59:59Z", wantErr: msgDueDateInPast},
		{name: "impossible day", raw: "31-02-2027", wantErr: msgDueDateFormat},
		{name: "month out of range", raw: "01-13-2027", wantErr: msgDueDateFormat},
		{name: "garbage", raw: "next tuesday", wantErr: msgDueDateISO},
		{name: "empty", raw: "", wantErr: msgDueDateISO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ValidateDueDate(tt.raw)
			if tt.wantErr != "" {
				var verr *apperrors.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantErr, verr.Message)
				assert.Equal(t, "due_date", verr.Field)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestTaskValidator_TodayAtAnyTimeSucceeds(t *testing.T) {
	for _, hour := range []int{0, 9, 23} {
		now := time.Date(2026, 10, 16, hour, 59, 59, 0, time.UTC)
		v := fixedValidator(t, time.UTC, now)
		_, err := v.ValidateDueDate("16-10-2026")
		assert.NoError(t, err, "hour %d", hour)
	}
}

func TestTaskValidator_DefaultTimeZone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 22:00 UTC on the 15th is already the 16th at UTC+3.
	now := time.Date(2026, 10, 15, 22, 0, 0, 0, time.UTC)
	v := fixedValidator(t, loc, now)

	got, err := v.ValidateDueDate("16-10-2026")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 15, 21, 0, 0, 0, time.UTC), got)

	_, err = v.ValidateDueDate("15-10-2026")
	assert.Error(t, err)
}

func TestTaskValidator_ParseDay(t *testing.T) {
	v := NewTaskValidator(time.UTC)

	from, to, ok := v.ParseDay("2026-10-20")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, 24*time.Hour, to.Sub(from))

	from, _, ok = v.ParseDay("20-10-2026")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), from)

	_, _, ok = v.ParseDay("tomorrow")
	assert.False(t, ok)
}
