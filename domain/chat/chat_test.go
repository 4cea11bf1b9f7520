package chat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fastygo/livechat/domain"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func pendingChat(t *testing.T) Chat {
	t.Helper()
	c, events := CreatePendingChat("chat-1", "company-1", Visitor{ID: "visitor-1", Name: "Guest"}, t0)
	require.Len(t, events, 1)
	return c
}

func withCommercial(t *testing.T, c Chat, id string) Chat {
	t.Helper()
	next, _, err := c.AssignCommercial(Commercial{ID: id, Name: "Agent " + id}, t0.Add(time.Second))
	require.NoError(t, err)
	return next
}

func eventNames(events []domain.DomainEvent) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.EventName())
	}
	return names
}

func TestCreatePendingChat(t *testing.T) {
	req := require.New(t)

	c, events := CreatePendingChat("chat-1", "company-1", Visitor{ID: "visitor-1", Name: "Guest"}, t0)

	req.Equal(StatusPending, c.Status())
	req.Len(c.Participants(), 1)
	visitor, ok := c.Visitor()
	req.True(ok)
	req.Equal("visitor-1", visitor.ID)
	req.True(visitor.IsVisitor())
	req.False(visitor.IsCommercial())
	req.True(c.IsVisitorOnline())

	req.Len(events, 1)
	created, ok := events[0].(ChatCreated)
	req.True(ok)
	req.Equal("chat-1", created.AggregateID())
	req.Equal(t0, created.OccurredAt())
	req.Equal(c.ToPrimitives(), created.Snapshot)
}

func TestChat_CanAddMessage(t *testing.T) {
	t.Run("accepts strictly newer messages and rejects older or equal ones", func(t *testing.T) {
		req := require.New(t)
		c := pendingChat(t)

		c, _, err := c.CanAddMessage(Message{SenderID: "visitor-1", Content: "hello", CreatedAt: t0.Add(time.Minute)})
		req.NoError(err)
		last, ok := c.LastMessage()
		req.True(ok)
		req.Equal("hello", last)
		req.Equal(t0.Add(time.Minute), *c.LastMessageAt())

		_, _, err = c.CanAddMessage(Message{SenderID: "visitor-1", Content: "same", CreatedAt: t0.Add(time.Minute)})
		req.ErrorIs(err, domain.ErrMessageTooOld)

		_, _, err = c.CanAddMessage(Message{SenderID: "visitor-1", Content: "older", CreatedAt: t0})
		req.ErrorIs(err, domain.ErrMessageTooOld)

		_, _, err = c.CanAddMessage(Message{SenderID: "visitor-1", Content: "newer", CreatedAt: t0.Add(time.Minute + time.Nanosecond)})
		req.NoError(err)
	})

	t.Run("closed chat rejects every message", func(t *testing.T) {
		req := require.New(t)
		c := pendingChat(t)
		c, _, err := c.Close(t0.Add(time.Second))
		req.NoError(err)

		for _, at := range []time.Time{t0.Add(-time.Hour), t0, t0.Add(time.Hour)} {
			_, _, err = c.CanAddMessage(Message{SenderID: "visitor-1", Content: "x", CreatedAt: at})
			req.ErrorIs(err, domain.ErrChatClosed)
			req.Equal(domain.KindChatClosed, domain.KindOf(err))
		}
	})

	t.Run("commercial message activates a pending chat with status event first", func(t *testing.T) {
		req := require.New(t)
		c := withCommercial(t, pendingChat(t), "agent-1")

		next, events, err := c.CanAddMessage(Message{SenderID: "agent-1", Content: "how can I help?", CreatedAt: t0.Add(time.Minute)})
		req.NoError(err)
		req.Equal(StatusActive, next.Status())
		req.Equal([]string{EventStatusUpdated, EventChatUpdatedWithNewMessage}, eventNames(events))

		status := events[0].(StatusUpdated)
		req.Equal(StatusPending, status.OldStatus)
		req.Equal(StatusActive, status.NewStatus)

		agent, _ := next.Participant("agent-1")
		req.Equal(t0.Add(time.Minute), *agent.LastSeenAt)

		// the receiver is untouched
		req.Equal(StatusPending, c.Status())
		_, ok := c.LastMessage()
		req.False(ok)
	})

	t.Run("visitor message keeps the chat pending", func(t *testing.T) {
		req := require.New(t)
		c := pendingChat(t)

		next, events, err := c.CanAddMessage(Message{SenderID: "visitor-1", Content: "anyone?", CreatedAt: t0.Add(time.Minute)})
		req.NoError(err)
		req.Equal(StatusPending, next.Status())
		req.Equal([]string{EventChatUpdatedWithNewMessage}, eventNames(events))
	})

	t.Run("active chat does not emit status events again", func(t *testing.T) {
		req := require.New(t)
		c := withCommercial(t, pendingChat(t), "agent-1")
		c, _, err := c.CanAddMessage(Message{SenderID: "agent-1", Content: "1", CreatedAt: t0.Add(time.Minute)})
		req.NoError(err)

		_, events, err := c.CanAddMessage(Message{SenderID: "agent-1", Content: "2", CreatedAt: t0.Add(2 * time.Minute)})
		req.NoError(err)
		req.Equal([]string{EventChatUpdatedWithNewMessage}, eventNames(events))
	})
}

func TestChat_Confirm(t *testing.T) {
	req := require.New(t)
	c := pendingChat(t)

	active, events, err := c.Confirm(t0.Add(time.Second))
	req.NoError(err)
	req.Equal(StatusActive, active.Status())
	req.Equal([]string{EventStatusUpdated}, eventNames(events))

	_, _, err = active.Confirm(t0.Add(2 * time.Second))
	req.ErrorIs(err, domain.ErrInvalidStatusTransition)
}

func TestChat_SeenAndUnseen(t *testing.T) {
	t.Run("seen emits on every call", func(t *testing.T) {
		req := require.New(t)
		c := pendingChat(t)
		at := t0.Add(time.Minute)

		c, first, err := c.ParticipantSeenAt("visitor-1", at)
		req.NoError(err)
		c, second, err := c.ParticipantSeenAt("visitor-1", at)
		req.NoError(err)

		req.Len(first, 1)
		req.Len(second, 1)
		seen := second[0].(ParticipantSeenAt)
		req.Equal(at, *seen.PreviousLastSeenAt)
		req.True(seen.PreviousIsViewing)

		p, _ := c.Participant("visitor-1")
		req.True(p.IsViewing)
		req.Equal(at, *p.LastSeenAt)
	})

	t.Run("unseen carries previous values", func(t *testing.T) {
		req := require.New(t)
		c := pendingChat(t)
		c, _, err := c.ParticipantSeenAt("visitor-1", t0.Add(time.Minute))
		req.NoError(err)

		c, events, err := c.ParticipantUnseenAt("visitor-1", t0.Add(2*time.Minute))
		req.NoError(err)
		unseen := events[0].(ParticipantUnseenAt)
		req.Equal(t0.Add(time.Minute), *unseen.PreviousLastSeenAt)
		req.True(unseen.PreviousIsViewing)

		p, _ := c.Participant("visitor-1")
		req.False(p.IsViewing)
	})

	t.Run("unknown participant", func(t *testing.T) {
		req := require.New(t)
		c := pendingChat(t)
		_, _, err := c.ParticipantSeenAt("ghost", t0)
		req.ErrorIs(err, domain.ErrParticipantNotFound)
		_, _, err = c.ParticipantUnseenAt("ghost", t0)
		req.ErrorIs(err, domain.ErrParticipantNotFound)
	})
}

func TestChat_AssignAndRemoveCommercial(t *testing.T) {
	t.Run("assign appends a commercial", func(t *testing.T) {
		req := require.New(t)
		c := pendingChat(t)

		next, events, err := c.AssignCommercial(Commercial{ID: "agent-1", Name: "Alice"}, t0.Add(time.Second))
		req.NoError(err)
		req.Len(next.Participants(), 2)
		req.True(next.HasParticipant("agent-1"))
		req.Len(next.Commercials(), 1)
		req.Equal([]string{EventParticipantAssigned}, eventNames(events))
		assigned := events[0].(ParticipantAssigned)
		req.True(assigned.Participant.IsCommercial)
		req.False(assigned.Participant.IsVisitor)
		req.Len(c.Participants(), 1)
	})

	t.Run("assign promotes an existing participant", func(t *testing.T) {
		req := require.New(t)
		c := pendingChat(t)

		next, _, err := c.AssignCommercial(Commercial{ID: "visitor-1", Name: "Now agent"}, t0.Add(time.Second))
		req.NoError(err)
		req.Len(next.Participants(), 1)
		p, _ := next.Participant("visitor-1")
		req.True(p.IsCommercial())
		req.False(p.IsVisitor())
	})

	t.Run("remove", func(t *testing.T) {
		req := require.New(t)
		c := withCommercial(t, pendingChat(t), "agent-1")

		_, _, err := c.RemoveCommercial("ghost", t0)
		req.ErrorIs(err, domain.ErrParticipantNotFound)

		_, _, err = c.RemoveCommercial("visitor-1", t0)
		req.ErrorIs(err, domain.ErrParticipantNotCommercial)

		next, events, err := c.RemoveCommercial("agent-1", t0.Add(time.Minute))
		req.NoError(err)
		req.False(next.HasParticipant("agent-1"))
		req.Equal([]string{EventParticipantUnassigned}, eventNames(events))
		req.True(c.HasParticipant("agent-1"))
	})
}

func TestChat_ParticipantOnline(t *testing.T) {
	req := require.New(t)
	c := pendingChat(t)
	c, _, err := c.ParticipantSeenAt("visitor-1", t0)
	req.NoError(err)

	next, events, err := c.ParticipantOnline("visitor-1", false, t0.Add(time.Minute))
	req.NoError(err)
	req.Equal([]string{EventParticipantOnlineStatusUpdated, EventParticipantUnseenAt}, eventNames(events))
	req.False(next.IsVisitorOnline())
	p, _ := next.Participant("visitor-1")
	req.False(p.IsViewing)

	online := events[0].(ParticipantOnlineStatusUpdated)
	req.True(online.PreviousIsOnline)
	req.False(online.IsOnline)

	unseen := events[1].(ParticipantUnseenAt)
	req.True(unseen.PreviousIsViewing)
	req.NotNil(unseen.PreviousLastSeenAt)
	req.Equal(t0, *unseen.PreviousLastSeenAt)
	req.Equal(t0.Add(time.Minute), *p.LastSeenAt)
}

func TestChat_IdempotentSetters(t *testing.T) {
	t.Run("viewing", func(t *testing.T) {
		req := require.New(t)
		c := pendingChat(t)

		c, first, err := c.SetParticipantViewing("visitor-1", true, t0)
		req.NoError(err)
		req.Equal([]string{EventParticipantViewingStatusChanged}, eventNames(first))

		_, second, err := c.SetParticipantViewing("visitor-1", true, t0)
		req.NoError(err)
		req.Empty(second)
	})

	t.Run("typing", func(t *testing.T) {
		req := require.New(t)
		c := pendingChat(t)

		_, events, err := c.SetParticipantTyping("visitor-1", false, t0)
		req.NoError(err)
		req.Empty(events)

		_, events, err = c.SetParticipantTyping("visitor-1", true, t0)
		req.NoError(err)
		req.Equal([]string{EventParticipantTypingStatusChanged}, eventNames(events))
	})

	t.Run("name", func(t *testing.T) {
		req := require.New(t)
		c := pendingChat(t)

		_, events, err := c.UpdateParticipantName("visitor-1", "Guest", t0)
		req.NoError(err)
		req.Empty(events)

		next, events, err := c.UpdateParticipantName("visitor-1", "Maria", t0)
		req.NoError(err)
		renamed := events[0].(ParticipantNameUpdated)
		req.Equal("Guest", renamed.PreviousName)
		p, _ := next.Participant("visitor-1")
		req.Equal("Maria", p.Name)

		_, _, err = c.UpdateParticipantName("ghost", "x", t0)
		req.True(errors.Is(err, domain.ErrParticipantNotFound))
	})
}

func TestFromPrimitives(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		req := require.New(t)
		c := withCommercial(t, pendingChat(t), "agent-1")
		c, _, err := c.CanAddMessage(Message{SenderID: "agent-1", Content: "hi", CreatedAt: t0.Add(time.Minute)})
		req.NoError(err)

		restored, err := FromPrimitives(c.ToPrimitives())
		req.NoError(err)
		req.Equal(c.ToPrimitives(), restored.ToPrimitives())
	})

	t.Run("rejects invalid snapshots", func(t *testing.T) {
		req := require.New(t)
		valid := pendingChat(t).ToPrimitives()

		noParticipants := valid
		noParticipants.Participants = nil
		_, err := FromPrimitives(noParticipants)
		req.ErrorIs(err, domain.ErrInvalidPayload)

		badStatus := valid
		badStatus.Status = "PENDING"
		_, err = FromPrimitives(badStatus)
		req.ErrorIs(err, domain.ErrInvalidPayload)

		bothRoles := valid
		bothRoles.Participants = []ParticipantPrimitives{{ID: "p", IsCommercial: true, IsVisitor: true}}
		_, err = FromPrimitives(bothRoles)
		req.ErrorIs(err, domain.ErrInvalidPayload)
	})
}
