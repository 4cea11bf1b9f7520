package chat

import "time"

const (
	EventChatCreated                     = "chat.created"
	EventParticipantAssigned             = "chat.participant_assigned"
	EventParticipantUnassigned           = "chat.participant_unassigned"
	EventParticipantSeenAt               = "chat.participant_seen_at"
	EventParticipantUnseenAt             = "chat.participant_unseen_at"
	EventParticipantOnlineStatusUpdated  = "chat.participant_online_status_updated"
	EventParticipantViewingStatusChanged = "chat.participant_viewing_status_changed"
	EventParticipantTypingStatusChanged  = "chat.participant_typing_status_changed"
	EventParticipantNameUpdated          = "chat.participant_name_updated"
	EventStatusUpdated                   = "chat.status_updated"
	EventChatUpdatedWithNewMessage       = "chat.updated_with_new_message"
)

// eventBase carries the fields every chat event shares: the chat identity,
// the time of the change and the snapshot of the chat after it.
type eventBase struct {
	ChatID   string     `json:"chat_id"`
	At       time.Time  `json:"occurred_at"`
	Snapshot Primitives `json:"snapshot"`
}

func (e eventBase) AggregateID() string   { return e.ChatID }
func (e eventBase) OccurredAt() time.Time { return e.At }

func newBase(c Chat, at time.Time) eventBase {
	return eventBase{ChatID: c.id, At: at, Snapshot: c.ToPrimitives()}
}

type ChatCreated struct {
	eventBase
}

func (ChatCreated) EventName() string { return EventChatCreated }

type ParticipantAssigned struct {
	eventBase
	Participant ParticipantPrimitives `json:"participant"`
}

func (ParticipantAssigned) EventName() string { return EventParticipantAssigned }

type ParticipantUnassigned struct {
	eventBase
	ParticipantID string `json:"participant_id"`
}

func (ParticipantUnassigned) EventName() string { return EventParticipantUnassigned }

type ParticipantSeenAt struct {
	eventBase
	ParticipantID      string     `json:"participant_id"`
	SeenAt             time.Time  `json:"seen_at"`
	PreviousLastSeenAt *time.Time `json:"previous_last_seen_at"`
	PreviousIsViewing  bool       `json:"previous_is_viewing"`
}

func (ParticipantSeenAt) EventName() string { return EventParticipantSeenAt }

type ParticipantUnseenAt struct {
	eventBase
	ParticipantID      string     `json:"participant_id"`
	UnseenAt           time.Time  `json:"unseen_at"`
	PreviousLastSeenAt *time.Time `json:"previous_last_seen_at"`
	PreviousIsViewing  bool       `json:"previous_is_viewing"`
}

func (ParticipantUnseenAt) EventName() string { return EventParticipantUnseenAt }

type ParticipantOnlineStatusUpdated struct {
	eventBase
	ParticipantID    string `json:"participant_id"`
	IsOnline         bool   `json:"is_online"`
	PreviousIsOnline bool   `json:"previous_is_online"`
}

func (ParticipantOnlineStatusUpdated) EventName() string { return EventParticipantOnlineStatusUpdated }

type ParticipantViewingStatusChanged struct {
	eventBase
	ParticipantID string `json:"participant_id"`
	IsViewing     bool   `json:"is_viewing"`
}

func (ParticipantViewingStatusChanged) EventName() string {
	return EventParticipantViewingStatusChanged
}

type ParticipantTypingStatusChanged struct {
	eventBase
	ParticipantID string `json:"participant_id"`
	IsTyping      bool   `json:"is_typing"`
}

func (ParticipantTypingStatusChanged) EventName() string { return EventParticipantTypingStatusChanged }

type ParticipantNameUpdated struct {
	eventBase
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	PreviousName  string `json:"previous_name"`
}

func (ParticipantNameUpdated) EventName() string { return EventParticipantNameUpdated }

type StatusUpdated struct {
	eventBase
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
}

func (StatusUpdated) EventName() string { return EventStatusUpdated }

type ChatUpdatedWithNewMessage struct {
	eventBase
	SenderID         string    `json:"sender_id"`
	Content          string    `json:"content"`
	MessageCreatedAt time.Time `json:"message_created_at"`
}

func (ChatUpdatedWithNewMessage) EventName() string { return EventChatUpdatedWithNewMessage }
