package policy

import "time"

// DefaultUnlockDelay is the cooldown between requesting an unlock and being
// allowed to deactivate or delete a restriction.
const DefaultUnlockDelay = 6 * time.Hour

// Phase is the lifecycle state of a restriction.
type Phase int

const (
	PhaseInactive Phase = iota
	PhaseLocked
	PhaseUnlockPending
	PhaseUnlockReady
)

func (p Phase) String() string {
	switch p {
	case PhaseInactive:
		return "inactive"
	case PhaseLocked:
		return "locked"
	case PhaseUnlockPending:
		return "unlock_pending"
	case PhaseUnlockReady:
		return "unlock_ready"
	default:
		return "unknown"
	}
}

// Lock is the storage shape of the lifecycle: the active flag and the nullable
// instant at which the cooldown was started. UnlockRequestedAt is never set
// while Active is false.
type Lock struct {
	Active            bool
	UnlockRequestedAt *time.Time
}

// State is the tagged lifecycle view derived from a Lock at a given instant.
// RequestedAt is set only in the pending and ready phases; Remaining is
// non-zero only while pending.
type State struct {
	Phase       Phase
	RequestedAt time.Time
	Remaining   time.Duration
}

// Lock converts the state back to its storage shape.
func (s State) Lock() Lock {
	switch s.Phase {
	case PhaseInactive:
		return Lock{Active: false}
	case PhaseLocked:
		return Lock{Active: true}
	default:
		at := s.RequestedAt
		return Lock{Active: true, UnlockRequestedAt: &at}
	}
}

// Status is the observable lifecycle summary consumed by UI and CLI layers.
// Remaining is nil when no cooldown is in progress.
type Status struct {
	Active            bool
	UnlockRequestedAt *time.Time
	Ready             bool
	Remaining         *time.Duration
}

// RemainingMs returns the remaining cooldown in milliseconds, or nil.
func (s Status) RemainingMs() *int64 {
	if s.Remaining == nil {
		return nil
	}
	ms := ceilMillis(*s.Remaining)
	return &ms
}

// ceilMillis rounds d up to whole milliseconds, so a cooldown that is not
// over never reports 0.
func ceilMillis(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Millisecond - 1) / time.Millisecond)
}

// Lifecycle evaluates unlock transitions for a fixed cooldown delay.
type Lifecycle struct {
	delay time.Duration
}

// NewLifecycle returns a Lifecycle using delay, or DefaultUnlockDelay when delay
// is not positive.
func NewLifecycle(delay time.Duration) Lifecycle {
	if delay <= 0 {
		delay = DefaultUnlockDelay
	}
	return Lifecycle{delay: delay}
}

// Delay returns the configured cooldown.
func (l Lifecycle) Delay() time.Duration {
	if l.delay <= 0 {
		return DefaultUnlockDelay
	}
	return l.delay
}

// State derives the lifecycle phase of lock at now. Readiness is computed by
// subtraction on every call and never stored.
func (l Lifecycle) State(lock Lock, now time.Time) State {
	if !lock.Active {
		return State{Phase: PhaseInactive}
	}
	if lock.UnlockRequestedAt == nil {
		return State{Phase: PhaseLocked}
	}

	requested := *lock.UnlockRequestedAt
	remaining := l.remaining(requested, now)
	if remaining == 0 {
		return State{Phase: PhaseUnlockReady, RequestedAt: requested}
	}
	return State{Phase: PhaseUnlockPending, RequestedAt: requested, Remaining: remaining}
}

// remaining is max(0, delay - (now - requested)), capped at delay when the
// clock reads earlier than the request.
func (l Lifecycle) remaining(requested, now time.Time) time.Duration {
	delay := l.Delay()
	elapsed := now.Sub(requested)
	if elapsed < 0 {
		return delay
	}
	if elapsed >= delay {
		return 0
	}
	return delay - elapsed
}

// Status summarises lock at now.
func (l Lifecycle) Status(lock Lock, now time.Time) Status {
	st := l.State(lock, now)
	out := Status{Active: st.Phase != PhaseInactive}

	switch st.Phase {
	case PhaseUnlockPending:
		at, rem := st.RequestedAt, st.Remaining
		out.UnlockRequestedAt = &at
		out.Remaining = &rem
	case PhaseUnlockReady:
		at, rem := st.RequestedAt, time.Duration(0)
		out.UnlockRequestedAt = &at
		out.Remaining = &rem
		out.Ready = true
	}
	return out
}

// RequestUnlock starts the cooldown. It is idempotent: a cooldown already in
// progress keeps its original start, and an inactive restriction has nothing
// to unlock. changed reports whether the returned lock differs from the input.
func (l Lifecycle) RequestUnlock(lock Lock, now time.Time) (next Lock, changed bool) {
	st := l.State(lock, now)
	if st.Phase != PhaseLocked {
		return st.Lock(), false
	}
	at := now
	return Lock{Active: true, UnlockRequestedAt: &at}, true
}

// CancelUnlock re-arms the lock. Cancelling with no cooldown is a no-op.
func (l Lifecycle) CancelUnlock(lock Lock, now time.Time) (next Lock, changed bool) {
	st := l.State(lock, now)
	switch st.Phase {
	case PhaseUnlockPending, PhaseUnlockReady:
		return Lock{Active: true}, true
	default:
		return st.Lock(), false
	}
}

// CheckUnlocked gates deactivation and deletion. It returns nil only from the
// unlock-ready phase, ErrUnlockNotRequested when no cooldown is in progress,
// and *UnlockNotReadyError carrying the remaining cooldown otherwise.
func (l Lifecycle) CheckUnlocked(lock Lock, now time.Time) error {
	st := l.State(lock, now)
	switch st.Phase {
	case PhaseUnlockReady:
		return nil
	case PhaseUnlockPending:
		return &UnlockNotReadyError{Remaining: st.Remaining}
	default:
		return ErrUnlockNotRequested
	}
}

// Deactivate moves an unlock-ready restriction to inactive, clearing the
// cooldown. Deactivating an already inactive restriction is a no-op.
func (l Lifecycle) Deactivate(lock Lock, now time.Time) (Lock, error) {
	if !lock.Active {
		return Lock{Active: false}, nil
	}
	if err := l.CheckUnlocked(lock, now); err != nil {
		return lock, err
	}
	return Lock{Active: false}, nil
}

// CheckDelete gates removal of a restriction with the same rule as Deactivate.
func (l Lifecycle) CheckDelete(lock Lock, now time.Time) error {
	return l.CheckUnlocked(lock, now)
}

// Reactivate is always permitted and re-arms the lock.
func Reactivate(Lock) Lock {
	return Lock{Active: true}
}
