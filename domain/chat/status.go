package chat

import "github.com/fastygo/livechat/domain"

// Status is the lifecycle state of a chat. Values are lowercase everywhere.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusClosed   Status = "closed"
	StatusInactive Status = "inactive"
	StatusArchived Status = "archived"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusClosed, StatusInactive, StatusArchived:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !s.IsValid() {
		return "", domain.ErrInvalidPayload.Detail("unknown chat status %q", value)
	}
	return s, nil
}
