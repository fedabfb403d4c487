// Package ledger records gamification events: point awards, which are
// never deduplicated, and achievement unlocks, which are.
package ledger

import "time"

type Entry struct {
	Points    int       `json:"points"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Ledger is append-only apart from Reset. The zero value is ready to use.
type Ledger struct {
	Entries      []Entry  `json:"entries"`
	Achievements []string `json:"achievements"`
}

// AwardPoints appends an entry and returns the new running total. Repeated
// reasons are recorded again.
func (l *Ledger) AwardPoints(amount int, reason string) int {
	return l.AwardPointsAt(amount, reason, time.Now().UTC())
}

func (l *Ledger) AwardPointsAt(amount int, reason string, at time.Time) int {
	l.Entries = append(l.Entries, Entry{Points: amount, Reason: reason, Timestamp: at})
	return l.Total()
}

func (l *Ledger) Total() int {
	total := 0
	for _, e := range l.Entries {
		total += e.Points
	}
	return total
}

// Unlock adds id to the achievement set. It returns false when id was
// already unlocked.
func (l *Ledger) Unlock(id string) bool {
	if l.Has(id) {
		return false
	}
	l.Achievements = append(l.Achievements, id)
	return true
}

func (l *Ledger) Has(id string) bool {
	for _, a := range l.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (l *Ledger) Clone() Ledger {
	return Ledger{
		Entries:      append([]Entry(nil), l.Entries...),
		Achievements: append([]string(nil), l.Achievements...),
	}
}

func (l *Ledger) Reset() {
	l.Entries = nil
	l.Achievements = nil
}
