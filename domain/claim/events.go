package claim

import "time"

const (
	EventClaimCreated  = "claim.created"
	EventClaimReleased = "claim.released"
)

type ClaimCreated struct {
	ClaimID     string    `json:"claim_id"`
	ChatID      string    `json:"chat_id"`
	ComercialID string    `json:"comercial_id"`
	ClaimedAt   time.Time `json:"claimed_at"`
}

func (ClaimCreated) EventName() string       { return EventClaimCreated }
func (e ClaimCreated) AggregateID() string   { return e.ClaimID }
func (e ClaimCreated) OccurredAt() time.Time { return e.ClaimedAt }

type ClaimReleased struct {
	ClaimID     string    `json:"claim_id"`
	ChatID      string    `json:"chat_id"`
	ComercialID string    `json:"comercial_id"`
	ReleasedAt  time.Time `json:"released_at"`
}

func (ClaimReleased) EventName() string       { return EventClaimReleased }
func (e ClaimReleased) AggregateID() string   { return e.ClaimID }
func (e ClaimReleased) OccurredAt() time.Time { return e.ReleasedAt }
