package chat

import "github.com/samber/lo"

// Roster is the ordered participant list of a chat. Every mutating method
// returns a new Roster backed by a fresh slice.
type Roster struct {
	participants []Participant
}

func NewRoster(participants ...Participant) Roster {
	out := make([]Participant, len(participants))
	copy(out, participants)
	return Roster{participants: out}
}

func (r Roster) Len() int { return len(r.participants) }

// All returns a copy of the participants in insertion order.
func (r Roster) All() []Participant {
	out := make([]Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

func (r Roster) Find(id string) (Participant, bool) {
	return lo.Find(r.participants, func(p Participant) bool { return p.ID == id })
}

func (r Roster) Has(id string) bool {
	return lo.ContainsBy(r.participants, func(p Participant) bool { return p.ID == id })
}

// Upsert replaces the participant with the same ID keeping its position, or appends it.
func (r Roster) Upsert(p Participant) Roster {
	next := r.All()
	if _, idx, ok := lo.FindIndexOf(next, func(cur Participant) bool { return cur.ID == p.ID }); ok {
		next[idx] = p
		return Roster{participants: next}
	}
	return Roster{participants: append(next, p)}
}

// Update applies fn to the participant with the given ID.
func (r Roster) Update(id string, fn func(Participant) Participant) (Roster, bool) {
	next := r.All()
	_, idx, ok := lo.FindIndexOf(next, func(cur Participant) bool { return cur.ID == id })
	if !ok {
		return r, false
	}
	next[idx] = fn(next[idx])
	return Roster{participants: next}, true
}

func (r Roster) Remove(id string) Roster {
	return Roster{participants: lo.Reject(r.participants, func(p Participant, _ int) bool { return p.ID == id })}
}

func (r Roster) Commercials() []Participant {
	return lo.Filter(r.participants, func(p Participant, _ int) bool { return p.IsCommercial() })
}

func (r Roster) Visitor() (Participant, bool) {
	return lo.Find(r.participants, func(p Participant) bool { return p.IsVisitor() })
}

func (r Roster) AnyVisitorOnline() bool {
	return lo.ContainsBy(r.participants, func(p Participant) bool { return p.IsVisitor() && p.IsOnline })
}
