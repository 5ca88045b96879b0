package policy

import "time"

// Restriction is the part of a blocked site the core reasons about.
type Restriction struct {
	ID                string
	Pattern           string
	Active            bool
	UnlockRequestedAt *time.Time
	Windows           []TimeWindow
}

// Lock returns the lifecycle fields of r.
func (r Restriction) Lock() Lock {
	return Lock{Active: r.Active, UnlockRequestedAt: r.UnlockRequestedAt}
}

// WithLock returns a copy of r carrying lock.
func (r Restriction) WithLock(lock Lock) Restriction {
	r.Active = lock.Active
	r.UnlockRequestedAt = lock.UnlockRequestedAt
	return r
}

// Blocks reports whether r denies navigation at now. Inactive restrictions
// never block.
func Blocks(r Restriction, now time.Time) bool {
	if !r.Active {
		return false
	}
	return !IsAccessAllowed(now, r.Windows)
}

// CanNavigate is the negation of Blocks.
func CanNavigate(r Restriction, now time.Time) bool {
	return !Blocks(r, now)
}

// Decision is the outcome of checking one hostname against a set of restrictions.
type Decision struct {
	Blocked bool
	// Denied lists the ids of the restrictions that block the hostname.
	Denied []string
}

// Decide checks host against every restriction whose pattern matches it.
func Decide(host string, restrictions []Restriction, now time.Time) Decision {
	var d Decision
	for _, r := range restrictions {
		if !MatchesHost(r.Pattern, host) {
			continue
		}
		if Blocks(r, now) {
			d.Blocked = true
			d.Denied = append(d.Denied, r.ID)
		}
	}
	return d
}

// Change is a requested update to a restriction. Nil fields are left untouched.
type Change struct {
	Pattern *string
	Active  *bool
}

// Deactivates reports whether applying c to r turns an active restriction off.
func (c Change) Deactivates(r Restriction) bool {
	return c.Active != nil && !*c.Active && r.Active
}

// ApplyMutation validates c, gates it when it deactivates r, and returns the
// updated restriction. Every successful update leaves UnlockRequestedAt nil:
// a deactivation consumes the cooldown and any other update re-arms the lock.
func (l Lifecycle) ApplyMutation(r Restriction, c Change, now time.Time) (Restriction, error) {
	out := r

	if c.Pattern != nil {
		p, err := NormalizePattern(*c.Pattern)
		if err != nil {
			return r, err
		}
		out.Pattern = p
	}

	if c.Deactivates(r) {
		lock, err := l.Deactivate(r.Lock(), now)
		if err != nil {
			return r, err
		}
		return out.WithLock(lock), nil
	}

	if c.Active != nil && *c.Active {
		return out.WithLock(Reactivate(r.Lock())), nil
	}

	out.UnlockRequestedAt = nil
	return out, nil
}
