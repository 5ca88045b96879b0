package policy

import (
	"fmt"
	"time"
)

// Snapshot is the read-only projection of a user's active restrictions that
// enforcement agents cache. It carries no owner identity and no unlock state.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Rules     []Rule    `json:"rules"`
}

type Rule struct {
	ID      string       `json:"id"`
	Pattern string       `json:"pattern"`
	Windows []WindowSpec `json:"windows"`
}

// WindowSpec is the wire form of a TimeWindow.
type WindowSpec struct {
	ID        string `json:"id"`
	DayOfWeek *int   `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// RuleOf projects an active restriction.
func RuleOf(r Restriction) Rule {
	rule := Rule{ID: r.ID, Pattern: r.Pattern, Windows: make([]WindowSpec, 0, len(r.Windows))}
	for _, w := range r.Windows {
		spec := WindowSpec{ID: w.ID, StartTime: w.Start.String(), EndTime: w.End.String()}
		if w.Day != nil {
			d := int(*w.Day)
			spec.DayOfWeek = &d
		}
		rule.Windows = append(rule.Windows, spec)
	}
	return rule
}

// Restriction rebuilds the active restriction a rule describes.
func (r Rule) Restriction() (Restriction, error) {
	out := Restriction{ID: r.ID, Pattern: r.Pattern, Active: true}
	for _, spec := range r.Windows {
		w, err := NewTimeWindow(spec.DayOfWeek, spec.StartTime, spec.EndTime)
		if err != nil {
			return Restriction{}, fmt.Errorf("rule %s: window %s: %w", r.ID, spec.ID, err)
		}
		w.ID = spec.ID
		out.Windows = append(out.Windows, w)
	}
	return out, nil
}

// Restrictions rebuilds every rule of s.
func (s Snapshot) Restrictions() ([]Restriction, error) {
	out := make([]Restriction, 0, len(s.Rules))
	for _, rule := range s.Rules {
		r, err := rule.Restriction()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
