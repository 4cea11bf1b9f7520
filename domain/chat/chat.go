// Package chat holds the Chat aggregate: the roster of a support
// conversation, its lifecycle status and the message admission rule.
//
// Chat is a value. Operations never modify the receiver; they return the
// next Chat together with the events describing the change, in the order
// consumers must apply them.
package chat

import (
	"time"

	"github.com/fastygo/livechat/domain"
)

// Message is the part of an incoming message the aggregate needs to admit it.
type Message struct {
	SenderID  string
	Content   string
	CreatedAt time.Time
}

type Chat struct {
	id            string
	companyID     string
	status        Status
	participants  Roster
	lastMessage   *string
	lastMessageAt *time.Time
	createdAt     time.Time
}

// CreatePendingChat opens a chat for a visitor, who is its only participant.
func CreatePendingChat(id, companyID string, visitor Visitor, createdAt time.Time) (Chat, []domain.DomainEvent) {
	c := Chat{
		id:        id,
		companyID: companyID,
		status:    StatusPending,
		participants: NewRoster(Participant{
			ID:          visitor.ID,
			Name:        visitor.Name,
			Role:        RoleVisitor,
			IsOnline:    true,
			IsAnonymous: true,
			AssignedAt:  createdAt,
		}),
		createdAt: createdAt,
	}
	return c, []domain.DomainEvent{ChatCreated{eventBase: newBase(c, createdAt)}}
}

func (c Chat) ID() string { return c.id }

func (c Chat) CompanyID() string { return c.companyID }

func (c Chat) Status() Status { return c.status }

func (c Chat) CreatedAt() time.Time { return c.createdAt }

func (c Chat) Roster() Roster { return c.participants }

func (c Chat) IsClosed() bool { return c.status == StatusClosed }

func (c Chat) LastMessageAt() *time.Time {
	return copyTime(c.lastMessageAt)
}

func (c Chat) LastMessage() (string, bool) {
	if c.lastMessage == nil {
		return "", false
	}
	return *c.lastMessage, true
}

func (c Chat) Participants() []Participant { return c.participants.All() }

func (c Chat) Participant(id string) (Participant, bool) { return c.participants.Find(id) }

func (c Chat) HasParticipant(id string) bool { return c.participants.Has(id) }

func (c Chat) Commercials() []Participant { return c.participants.Commercials() }

func (c Chat) Visitor() (Participant, bool) { return c.participants.Visitor() }

// IsVisitorOnline reports whether some visitor participant is online.
func (c Chat) IsVisitorOnline() bool { return c.participants.AnyVisitorOnline() }

func (c Chat) withRoster(r Roster) Chat {
	c.participants = r
	return c
}

func (c Chat) update(id string, fn func(Participant) Participant) (Chat, Participant, error) {
	before, ok := c.participants.Find(id)
	if !ok {
		return Chat{}, Participant{}, domain.ErrParticipantNotFound.Detail("participant %s in chat %s", id, c.id)
	}
	roster, _ := c.participants.Update(id, fn)
	return c.withRoster(roster), before, nil
}

// ParticipantSeenAt records that a participant is looking at the chat at the given time.
// It emits an event even when nothing changed.
func (c Chat) ParticipantSeenAt(id string, at time.Time) (Chat, []domain.DomainEvent, error) {
	next, before, err := c.update(id, func(p Participant) Participant {
		p.LastSeenAt = timePtr(at)
		p.IsViewing = true
		return p
	})
	if err != nil {
		return Chat{}, nil, err
	}
	return next, []domain.DomainEvent{ParticipantSeenAt{
		eventBase:          newBase(next, at),
		ParticipantID:      id,
		SeenAt:             at,
		PreviousLastSeenAt: copyTime(before.LastSeenAt),
		PreviousIsViewing:  before.IsViewing,
	}}, nil
}

// ParticipantUnseenAt records that a participant stopped looking at the chat.
// It emits an event even when nothing changed.
func (c Chat) ParticipantUnseenAt(id string, at time.Time) (Chat, []domain.DomainEvent, error) {
	next, before, err := c.update(id, func(p Participant) Participant {
		p.LastSeenAt = timePtr(at)
		p.IsViewing = false
		return p
	})
	if err != nil {
		return Chat{}, nil, err
	}
	return next, []domain.DomainEvent{ParticipantUnseenAt{
		eventBase:          newBase(next, at),
		ParticipantID:      id,
		UnseenAt:           at,
		PreviousLastSeenAt: copyTime(before.LastSeenAt),
		PreviousIsViewing:  before.IsViewing,
	}}, nil
}

// AssignCommercial adds the agent to the roster, or promotes an existing
// participant with the same ID to commercial.
func (c Chat) AssignCommercial(commercial Commercial, at time.Time) (Chat, []domain.DomainEvent, error) {
	p, exists := c.participants.Find(commercial.ID)
	if !exists {
		p = Participant{ID: commercial.ID, IsOnline: true}
	}
	p.Name = commercial.Name
	p.Role = RoleCommercial
	p.IsAnonymous = false
	p.AssignedAt = at

	next := c.withRoster(c.participants.Upsert(p))
	assigned, ok := next.participants.Find(commercial.ID)
	if !ok {
		return Chat{}, nil, domain.ErrParticipantNotFound.Detail("participant %s missing after assignment", commercial.ID)
	}
	return next, []domain.DomainEvent{ParticipantAssigned{
		eventBase:   newBase(next, at),
		Participant: participantToPrimitives(assigned),
	}}, nil
}

// RemoveCommercial drops an agent from the roster.
func (c Chat) RemoveCommercial(id string, at time.Time) (Chat, []domain.DomainEvent, error) {
	p, ok := c.participants.Find(id)
	if !ok {
		return Chat{}, nil, domain.ErrParticipantNotFound.Detail("participant %s in chat %s", id, c.id)
	}
	if !p.IsCommercial() {
		return Chat{}, nil, domain.ErrParticipantNotCommercial.Detail("participant %s in chat %s", id, c.id)
	}
	next := c.withRoster(c.participants.Remove(id))
	return next, []domain.DomainEvent{ParticipantUnassigned{
		eventBase:     newBase(next, at),
		ParticipantID: id,
	}}, nil
}

// CanAddMessage applies the admission rule for a new message. A pending chat
// becomes active when a commercial writes; the status event then precedes
// the message event.
func (c Chat) CanAddMessage(msg Message) (Chat, []domain.DomainEvent, error) {
	if c.status == StatusClosed {
		return Chat{}, nil, domain.ErrChatClosed.Detail("chat %s", c.id)
	}
	if c.lastMessageAt != nil && !msg.CreatedAt.After(*c.lastMessageAt) {
		return Chat{}, nil, domain.ErrMessageTooOld.Detail("message at %s, last at %s",
			msg.CreatedAt.Format(time.RFC3339Nano), c.lastMessageAt.Format(time.RFC3339Nano))
	}

	next := c
	content := msg.Content
	next.lastMessage = &content
	next.lastMessageAt = timePtr(msg.CreatedAt)
	if roster, ok := next.participants.Update(msg.SenderID, func(p Participant) Participant {
		p.LastSeenAt = timePtr(msg.CreatedAt)
		return p
	}); ok {
		next.participants = roster
	}

	var events []domain.DomainEvent
	if sender, ok := next.participants.Find(msg.SenderID); ok && sender.IsCommercial() && next.status == StatusPending {
		next.status = StatusActive
		events = append(events, StatusUpdated{
			eventBase: newBase(next, msg.CreatedAt),
			OldStatus: StatusPending,
			NewStatus: StatusActive,
		})
	}
	events = append(events, ChatUpdatedWithNewMessage{
		eventBase:        newBase(next, msg.CreatedAt),
		SenderID:         msg.SenderID,
		Content:          msg.Content,
		MessageCreatedAt: msg.CreatedAt,
	})
	return next, events, nil
}

// Confirm moves a pending chat to active.
func (c Chat) Confirm(at time.Time) (Chat, []domain.DomainEvent, error) {
	if c.status != StatusPending {
		return Chat{}, nil, domain.ErrInvalidStatusTransition.Detail("confirm chat %s in status %s", c.id, c.status)
	}
	next, events := c.transition(StatusActive, at)
	return next, events, nil
}

// Close ends the conversation. No message is admitted afterwards.
func (c Chat) Close(at time.Time) (Chat, []domain.DomainEvent, error) {
	if c.status == StatusClosed {
		return Chat{}, nil, domain.ErrInvalidStatusTransition.Detail("chat %s already closed", c.id)
	}
	next, events := c.transition(StatusClosed, at)
	return next, events, nil
}

func (c Chat) transition(to Status, at time.Time) (Chat, []domain.DomainEvent) {
	next := c
	next.status = to
	return next, []domain.DomainEvent{StatusUpdated{
		eventBase: newBase(next, at),
		OldStatus: c.status,
		NewStatus: to,
	}}
}

// ParticipantOnline flips the online flag. Going online or offline always
// resets viewing, so an unseen event follows the online event.
func (c Chat) ParticipantOnline(id string, online bool, at time.Time) (Chat, []domain.DomainEvent, error) {
	next, before, err := c.update(id, func(p Participant) Participant {
		p.IsOnline = online
		p.IsViewing = false
		p.LastSeenAt = timePtr(at)
		return p
	})
	if err != nil {
		return Chat{}, nil, err
	}
	return next, []domain.DomainEvent{
		ParticipantOnlineStatusUpdated{
			eventBase:        newBase(next, at),
			ParticipantID:    id,
			IsOnline:         online,
			PreviousIsOnline: before.IsOnline,
		},
		// previous values come from the participant before the online flip
		ParticipantUnseenAt{
			eventBase:          newBase(next, at),
			ParticipantID:      id,
			UnseenAt:           at,
			PreviousLastSeenAt: copyTime(before.LastSeenAt),
			PreviousIsViewing:  before.IsViewing,
		},
	}, nil
}

// SetParticipantViewing is a no-op without event when the value does not change.
func (c Chat) SetParticipantViewing(id string, viewing bool, at time.Time) (Chat, []domain.DomainEvent, error) {
	p, ok := c.participants.Find(id)
	if !ok {
		return Chat{}, nil, domain.ErrParticipantNotFound.Detail("participant %s in chat %s", id, c.id)
	}
	if p.IsViewing == viewing {
		return c, nil, nil
	}
	next, _, err := c.update(id, func(p Participant) Participant {
		p.IsViewing = viewing
		return p
	})
	if err != nil {
		return Chat{}, nil, err
	}
	return next, []domain.DomainEvent{ParticipantViewingStatusChanged{
		eventBase:     newBase(next, at),
		ParticipantID: id,
		IsViewing:     viewing,
	}}, nil
}

// SetParticipantTyping is a no-op without event when the value does not change.
func (c Chat) SetParticipantTyping(id string, typing bool, at time.Time) (Chat, []domain.DomainEvent, error) {
	p, ok := c.participants.Find(id)
	if !ok {
		return Chat{}, nil, domain.ErrParticipantNotFound.Detail("participant %s in chat %s", id, c.id)
	}
	if p.IsTyping == typing {
		return c, nil, nil
	}
	next, _, err := c.update(id, func(p Participant) Participant {
		p.IsTyping = typing
		return p
	})
	if err != nil {
		return Chat{}, nil, err
	}
	return next, []domain.DomainEvent{ParticipantTypingStatusChanged{
		eventBase:     newBase(next, at),
		ParticipantID: id,
		IsTyping:      typing,
	}}, nil
}

// UpdateParticipantName is a no-op without event when the name does not change.
func (c Chat) UpdateParticipantName(id, name string, at time.Time) (Chat, []domain.DomainEvent, error) {
	p, ok := c.participants.Find(id)
	if !ok {
		return Chat{}, nil, domain.ErrParticipantNotFound.Detail("participant %s in chat %s", id, c.id)
	}
	if p.Name == name {
		return c, nil, nil
	}
	next, _, err := c.update(id, func(p Participant) Participant {
		p.Name = name
		return p
	})
	if err != nil {
		return Chat{}, nil, err
	}
	return next, []domain.DomainEvent{ParticipantNameUpdated{
		eventBase:     newBase(next, at),
		ParticipantID: id,
		Name:          name,
		PreviousName:  p.Name,
	}}, nil
}
