package chat

import "time"

// Role tells whether a participant is the visitor or a support agent.
type Role string

const (
	RoleVisitor    Role = "visitor"
	RoleCommercial Role = "commercial"
)

func (r Role) IsValid() bool {
	return r == RoleVisitor || r == RoleCommercial
}

// Participant is a member of a chat roster. It is only changed through Chat operations.
type Participant struct {
	ID          string
	Name        string
	Role        Role
	IsOnline    bool
	IsViewing   bool
	IsTyping    bool
	IsAnonymous bool
	AssignedAt  time.Time
	LastSeenAt  *time.Time
}

func (p Participant) IsCommercial() bool { return p.Role == RoleCommercial }

func (p Participant) IsVisitor() bool { return p.Role == RoleVisitor }

// Visitor identifies the anonymous user opening a chat.
type Visitor struct {
	ID   string
	Name string
}

// Commercial identifies a support agent joining a chat.
type Commercial struct {
	ID   string
	Name string
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
