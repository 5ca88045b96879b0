package policy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func requestedAt(ts time.Time) Lock {
	return Lock{Active: true, UnlockRequestedAt: &ts}
}

func TestLifecycle_State(t *testing.T) {
	lc := NewLifecycle(DefaultUnlockDelay)

	tests := []struct {
		name string
		lock Lock
		now  time.Time
		want Phase
	}{
		{"inactive", Lock{Active: false}, t0, PhaseInactive},
		{"inactive ignores stray timestamp", Lock{Active: false, UnlockRequestedAt: &t0}, t0, PhaseInactive},
		{"locked", Lock{Active: true}, t0, PhaseLocked},
		{"pending", requestedAt(t0), t0.Add(time.Hour), PhaseUnlockPending},
		{"ready at exactly delay", requestedAt(t0), t0.Add(6 * time.Hour), PhaseUnlockReady},
		{"ready after delay", requestedAt(t0), t0.Add(48 * time.Hour), PhaseUnlockReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lc.State(tt.lock, tt.now).Phase)
		})
	}
}

func TestLifecycle_DefaultDelay(t *testing.T) {
	assert.Equal(t, DefaultUnlockDelay, NewLifecycle(0).Delay())
	assert.Equal(t, DefaultUnlockDelay, Lifecycle{}.Delay())
	assert.Equal(t, 2*time.Hour, NewLifecycle(2*time.Hour).Delay())
}

func TestLifecycle_RemainingDecreasesToZero(t *testing.T) {
	lc := NewLifecycle(DefaultUnlockDelay)
	lock := requestedAt(t0)

	prev := lc.Delay() + 1
	for step := time.Duration(0); step < 6*time.Hour; step += 17 * time.Minute {
		st := lc.Status(lock, t0.Add(step))
		require.NotNil(t, st.Remaining)
		assert.Less(t, *st.Remaining, prev)
		assert.Greater(t, *st.Remaining, time.Duration(0))
		assert.False(t, st.Ready)
		prev = *st.Remaining
	}

	st := lc.Status(lock, t0.Add(6*time.Hour))
	require.NotNil(t, st.Remaining)
	assert.Equal(t, time.Duration(0), *st.Remaining)
	assert.True(t, st.Ready)
	assert.Equal(t, int64(0), *st.RemainingMs())

	st = lc.Status(lock, t0.Add(7*time.Hour))
	assert.Equal(t, time.Duration(0), *st.Remaining, "never negative")
}

func TestLifecycle_LastMillisecondStillCounts(t *testing.T) {
	lc := NewLifecycle(DefaultUnlockDelay)
	lock := requestedAt(t0)
	now := t0.Add(6*time.Hour - 500*time.Microsecond)

	st := lc.Status(lock, now)
	assert.False(t, st.Ready)
	require.NotNil(t, st.RemainingMs())
	assert.Equal(t, int64(1), *st.RemainingMs())

	err := lc.CheckDelete(lock, now)
	var nr *UnlockNotReadyError
	require.True(t, errors.As(err, &nr))
	assert.Equal(t, int64(1), nr.RemainingMs())
	assert.Equal(t, "unlock not ready: 1ms remaining", err.Error())

	_, err = lc.Deactivate(lock, now)
	require.True(t, errors.As(err, &nr))
	assert.Positive(t, nr.RemainingMs())
}

func TestLifecycle_RemainingCappedWhenClockBehind(t *testing.T) {
	lc := NewLifecycle(DefaultUnlockDelay)
	st := lc.State(requestedAt(t0), t0.Add(-time.Minute))
	assert.Equal(t, PhaseUnlockPending, st.Phase)
	assert.Equal(t, DefaultUnlockDelay, st.Remaining)
}

func TestLifecycle_StatusWithoutCooldown(t *testing.T) {
	lc := NewLifecycle(DefaultUnlockDelay)

	locked := lc.Status(Lock{Active: true}, t0)
	assert.True(t, locked.Active)
	assert.Nil(t, locked.UnlockRequestedAt)
	assert.Nil(t, locked.Remaining)
	assert.Nil(t, locked.RemainingMs())
	assert.False(t, locked.Ready)

	inactive := lc.Status(Lock{Active: false}, t0)
	assert.False(t, inactive.Active)
	assert.Nil(t, inactive.Remaining)
}

func TestLifecycle_RequestUnlockIsIdempotent(t *testing.T) {
	lc := NewLifecycle(DefaultUnlockDelay)

	first, changed := lc.RequestUnlock(Lock{Active: true}, t0)
	require.True(t, changed)
	require.NotNil(t, first.UnlockRequestedAt)
	assert.Equal(t, t0, *first.UnlockRequestedAt)

	second, changed := lc.RequestUnlock(first, t0.Add(2*time.Hour))
	assert.False(t, changed)
	assert.Equal(t, t0, *second.UnlockRequestedAt)

	third, changed := lc.RequestUnlock(second, t0.Add(10*time.Hour))
	assert.False(t, changed, "ready stays ready")
	assert.Equal(t, t0, *third.UnlockRequestedAt)
}

func TestLifecycle_RequestUnlockOnInactiveIsNoop(t *testing.T) {
	lc := NewLifecycle(DefaultUnlockDelay)

	next, changed := lc.RequestUnlock(Lock{Active: false}, t0)
	assert.False(t, changed)
	assert.False(t, next.Active)
	assert.Nil(t, next.UnlockRequestedAt)
}

func TestLifecycle_CancelUnlock(t *testing.T) {
	lc := NewLifecycle(DefaultUnlockDelay)

	next, changed := lc.CancelUnlock(requestedAt(t0), t0.Add(time.Hour))
	assert.True(t, changed)
	assert.Equal(t, Lock{Active: true}, next)

	next, changed = lc.CancelUnlock(requestedAt(t0), t0.Add(8*time.Hour))
	assert.True(t, changed, "ready can be cancelled too")
	assert.Equal(t, Lock{Active: true}, next)

	next, changed = lc.CancelUnlock(Lock{Active: true}, t0)
	assert.False(t, changed)
	assert.Equal(t, Lock{Active: true}, next)
}

func TestLifecycle_GatedOperations(t *testing.T) {
	lc := NewLifecycle(DefaultUnlockDelay)

	gates := map[string]func(Lock, time.Time) error{
		"deactivate": func(l Lock, now time.Time) error {
			_, err := lc.Deactivate(l, now)
			return err
		},
		"delete": lc.CheckDelete,
	}

	for name, gate := range gates {
		t.Run(name+" not requested", func(t *testing.T) {
			err := gate(Lock{Active: true}, t0)
			assert.ErrorIs(t, err, ErrUnlockNotRequested)
		})

		t.Run(name+" not ready", func(t *testing.T) {
			err := gate(requestedAt(t0), t0.Add(5*time.Hour))
			var nr *UnlockNotReadyError
			require.True(t, errors.As(err, &nr))
			assert.ErrorIs(t, err, ErrUnlockNotReady)
			assert.Equal(t, int64(3600000), nr.RemainingMs())
		})

		t.Run(name+" ready", func(t *testing.T) {
			assert.NoError(t, gate(requestedAt(t0), t0.Add(6*time.Hour)))
		})
	}
}

func TestLifecycle_DeactivateClearsTimestamp(t *testing.T) {
	lc := NewLifecycle(DefaultUnlockDelay)

	next, err := lc.Deactivate(requestedAt(t0), t0.Add(6*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, Lock{Active: false}, next)

	next, err = lc.Deactivate(Lock{Active: false}, t0)
	require.NoError(t, err, "already inactive")
	assert.Equal(t, Lock{Active: false}, next)
}

func TestLifecycle_DeleteInactiveIsGated(t *testing.T) {
	lc := NewLifecycle(DefaultUnlockDelay)
	assert.ErrorIs(t, lc.CheckDelete(Lock{Active: false}, t0), ErrUnlockNotRequested)
}

func TestLifecycle_CustomDelay(t *testing.T) {
	lc := NewLifecycle(30 * time.Minute)

	err := lc.CheckUnlocked(requestedAt(t0), t0.Add(20*time.Minute))
	var nr *UnlockNotReadyError
	require.True(t, errors.As(err, &nr))
	assert.Equal(t, 10*time.Minute, nr.Remaining)

	assert.NoError(t, lc.CheckUnlocked(requestedAt(t0), t0.Add(30*time.Minute)))
}

func TestReactivate_ClearsTimestamp(t *testing.T) {
	assert.Equal(t, Lock{Active: true}, Reactivate(Lock{Active: false}))
	assert.Equal(t, Lock{Active: true}, Reactivate(requestedAt(t0)))
}

func TestState_LockRoundTrip(t *testing.T) {
	lc := NewLifecycle(DefaultUnlockDelay)
	for _, lock := range []Lock{{Active: false}, {Active: true}, requestedAt(t0)} {
		assert.Equal(t, lock, lc.State(lock, t0.Add(time.Hour)).Lock())
	}
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "locked", PhaseLocked.String())
	assert.Equal(t, "unlock_pending", PhaseUnlockPending.String())
	assert.Equal(t, "unlock_ready", PhaseUnlockReady.String())
	assert.Equal(t, "inactive", PhaseInactive.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
