package policy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, layout string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", layout, time.UTC)
	require.NoError(t, err)
	return ts
}

func dayPtr(d int) *int { return &d }

func mustWindow(t *testing.T, day *int, start, end string) TimeWindow {
	t.Helper()
	w, err := NewTimeWindow(day, start, end)
	require.NoError(t, err)
	return w
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"14:30", 14*3600 + 30*60, false},
		{"23:59:59", secondsPerDay - 1, false},
		{" 07:05:09 ", 7*3600 + 5*60 + 9, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"7:00", 0, true},
		{"noon", 0, true},
		{"12:00:00:00", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDay_StringAndDuration(t *testing.T) {
	tod, err := NewTimeOfDay(9, 5, 3)
	require.NoError(t, err)

	assert.Equal(t, "09:05:03", tod.String())
	assert.Equal(t, 9*time.Hour+5*time.Minute+3*time.Second, tod.Duration())

	back, err := TimeOfDayFromDuration(tod.Duration() + 250*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, tod, back)

	_, err = TimeOfDayFromDuration(24 * time.Hour)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNewTimeWindow_Validation(t *testing.T) {
	_, err := NewTimeWindow(nil, "14:00", "14:00")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "end_time", ve.Field)

	_, err = NewTimeWindow(nil, "22:00", "02:00")
	assert.ErrorIs(t, err, ErrInvalid, "overnight windows are rejected")

	_, err = NewTimeWindow(dayPtr(7), "10:00", "11:00")
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "day_of_week", ve.Field)

	_, err = NewTimeWindow(nil, "bad", "11:00")
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "start_time", ve.Field)

	w, err := NewTimeWindow(dayPtr(0), "10:00", "11:00:30")
	require.NoError(t, err)
	require.NotNil(t, w.Day)
	assert.Equal(t, time.Sunday, *w.Day)
	assert.Equal(t, "11:00:30", w.End.String())
}

func TestIsAccessAllowed_NoWindowsAlwaysBlocked(t *testing.T) {
	start := at(t, "2024-01-01 00:00:00")
	for i := 0; i < 7*24*4; i++ {
		now := start.Add(time.Duration(i) * 15 * time.Minute)
		assert.False(t, IsAccessAllowed(now, nil), "blocked at %s", now)
		assert.False(t, IsAccessAllowed(now, []TimeWindow{}), "blocked at %s", now)
	}
}

func TestIsAccessAllowed_EveryDayWindow(t *testing.T) {
	windows := []TimeWindow{mustWindow(t, nil, "14:00", "14:30")}

	assert.True(t, IsAccessAllowed(at(t, "2024-01-03 14:15:00"), windows))
	assert.False(t, IsAccessAllowed(at(t, "2024-01-03 14:31:00"), windows))
	assert.False(t, IsAccessAllowed(at(t, "2024-01-03 13:59:59"), windows))
}

func TestIsAccessAllowed_BoundsInclusive(t *testing.T) {
	windows := []TimeWindow{mustWindow(t, nil, "09:00", "17:00")}

	assert.True(t, IsAccessAllowed(at(t, "2024-01-03 09:00:00"), windows))
	assert.True(t, IsAccessAllowed(at(t, "2024-01-03 17:00:00"), windows))
	assert.False(t, IsAccessAllowed(at(t, "2024-01-03 17:00:01"), windows))
}

func TestIsAccessAllowed_DaySelector(t *testing.T) {
	// 2024-01-02 is a Tuesday, 2024-01-06 a Saturday.
	windows := []TimeWindow{mustWindow(t, dayPtr(6), "19:00", "21:00")}

	assert.False(t, IsAccessAllowed(at(t, "2024-01-02 20:00:00"), windows))
	assert.True(t, IsAccessAllowed(at(t, "2024-01-06 20:00:00"), windows))
}

func TestIsAccessAllowed_AnyWindowMatches(t *testing.T) {
	windows := []TimeWindow{
		mustWindow(t, dayPtr(1), "08:00", "09:00"),
		mustWindow(t, nil, "12:00", "13:00"),
	}
	reversed := []TimeWindow{windows[1], windows[0]}

	for _, ts := range []string{
		"2024-01-01 08:30:00", // Monday morning
		"2024-01-02 08:30:00", // Tuesday morning
		"2024-01-02 12:30:00",
		"2024-01-02 15:00:00",
	} {
		now := at(t, ts)
		assert.Equal(t, IsAccessAllowed(now, windows), IsAccessAllowed(now, reversed), "order must not matter at %s", ts)
	}

	assert.True(t, IsAccessAllowed(at(t, "2024-01-01 08:30:00"), windows))
	assert.False(t, IsAccessAllowed(at(t, "2024-01-02 08:30:00"), windows))
	assert.True(t, IsAccessAllowed(at(t, "2024-01-02 12:30:00"), windows))
}

func TestIsAccessAllowed_UsesLocationOfNow(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	windows := []TimeWindow{mustWindow(t, nil, "14:00", "14:30")}

	utc := at(t, "2024-01-03 11:15:00")
	assert.False(t, IsAccessAllowed(utc, windows))
	assert.True(t, IsAccessAllowed(utc.In(loc), windows))
}
