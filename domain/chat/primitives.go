package chat

import (
	"time"

	"github.com/samber/lo"

	"github.com/fastygo/livechat/domain"
)

// ParticipantPrimitives is the serializable form of a Participant.
// The role is flattened into the two flags storage and consumers expect.
type ParticipantPrimitives struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	IsCommercial bool       `json:"is_commercial"`
	IsVisitor    bool       `json:"is_visitor"`
	IsOnline     bool       `json:"is_online"`
	IsViewing    bool       `json:"is_viewing"`
	IsTyping     bool       `json:"is_typing"`
	IsAnonymous  bool       `json:"is_anonymous"`
	AssignedAt   time.Time  `json:"assigned_at"`
	LastSeenAt   *time.Time `json:"last_seen_at"`
}

// Primitives is the full snapshot of a Chat.
type Primitives struct {
	ID            string                  `json:"id"`
	CompanyID     string                  `json:"company_id"`
	Status        string                  `json:"status"`
	Participants  []ParticipantPrimitives `json:"participants"`
	LastMessage   *string                 `json:"last_message"`
	LastMessageAt *time.Time              `json:"last_message_at"`
	CreatedAt     time.Time               `json:"created_at"`
}

func participantToPrimitives(p Participant) ParticipantPrimitives {
	return ParticipantPrimitives{
		ID:           p.ID,
		Name:         p.Name,
		IsCommercial: p.IsCommercial(),
		IsVisitor:    p.IsVisitor(),
		IsOnline:     p.IsOnline,
		IsViewing:    p.IsViewing,
		IsTyping:     p.IsTyping,
		IsAnonymous:  p.IsAnonymous,
		AssignedAt:   p.AssignedAt,
		LastSeenAt:   copyTime(p.LastSeenAt),
	}
}

func participantFromPrimitives(p ParticipantPrimitives) (Participant, error) {
	var role Role
	switch {
	case p.IsCommercial && p.IsVisitor:
		return Participant{}, domain.ErrInvalidPayload.Detail("participant %s is both commercial and visitor", p.ID)
	case p.IsCommercial:
		role = RoleCommercial
	case p.IsVisitor:
		role = RoleVisitor
	default:
		return Participant{}, domain.ErrInvalidPayload.Detail("participant %s has no role", p.ID)
	}
	if p.ID == "" {
		return Participant{}, domain.ErrInvalidPayload.Detail("participant without id")
	}
	return Participant{
		ID:          p.ID,
		Name:        p.Name,
		Role:        role,
		IsOnline:    p.IsOnline,
		IsViewing:   p.IsViewing,
		IsTyping:    p.IsTyping,
		IsAnonymous: p.IsAnonymous,
		AssignedAt:  p.AssignedAt,
		LastSeenAt:  copyTime(p.LastSeenAt),
	}, nil
}

// ToPrimitives returns the serializable snapshot of the chat.
func (c Chat) ToPrimitives() Primitives {
	var lastMessage *string
	if c.lastMessage != nil {
		lastMessage = lo.ToPtr(*c.lastMessage)
	}
	return Primitives{
		ID:            c.id,
		CompanyID:     c.companyID,
		Status:        string(c.status),
		Participants:  lo.Map(c.participants.participants, func(p Participant, _ int) ParticipantPrimitives { return participantToPrimitives(p) }),
		LastMessage:   lastMessage,
		LastMessageAt: copyTime(c.lastMessageAt),
		CreatedAt:     c.createdAt,
	}
}

// FromPrimitives rehydrates a chat from storage. It does not emit events.
func FromPrimitives(p Primitives) (Chat, error) {
	if p.ID == "" {
		return Chat{}, domain.ErrInvalidPayload.Detail("chat without id")
	}
	status, err := ParseStatus(p.Status)
	if err != nil {
		return Chat{}, err
	}
	if len(p.Participants) == 0 {
		return Chat{}, domain.ErrInvalidPayload.Detail("chat %s has no participants", p.ID)
	}
	participants := make([]Participant, 0, len(p.Participants))
	for _, pp := range p.Participants {
		participant, err := participantFromPrimitives(pp)
		if err != nil {
			return Chat{}, err
		}
		participants = append(participants, participant)
	}
	var lastMessage *string
	if p.LastMessage != nil {
		lastMessage = lo.ToPtr(*p.LastMessage)
	}
	return Chat{
		id:            p.ID,
		companyID:     p.CompanyID,
		status:        status,
		participants:  NewRoster(participants...),
		lastMessage:   lastMessage,
		lastMessageAt: copyTime(p.LastMessageAt),
		createdAt:     p.CreatedAt,
	}, nil
}
