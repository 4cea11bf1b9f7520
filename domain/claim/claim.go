// Package claim models the exclusive right of a commercial to attend a chat.
package claim

import (
	"time"

	"github.com/fastygo/livechat/domain"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusReleased Status = "released"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusReleased
}

// ComercialClaim references its chat and commercial by ID only.
type ComercialClaim struct {
	id          string
	chatID      string
	comercialID string
	claimedAt   time.Time
	releasedAt  *time.Time
	status      Status
}

// Create opens an active claim.
func Create(id, chatID, comercialID string, claimedAt time.Time) (ComercialClaim, []domain.DomainEvent) {
	c := ComercialClaim{
		id:          id,
		chatID:      chatID,
		comercialID: comercialID,
		claimedAt:   claimedAt,
		status:      StatusActive,
	}
	return c, []domain.DomainEvent{ClaimCreated{
		ClaimID:     id,
		ChatID:      chatID,
		ComercialID: comercialID,
		ClaimedAt:   claimedAt,
	}}
}

func (c ComercialClaim) ID() string { return c.id }

func (c ComercialClaim) ChatID() string { return c.chatID }

func (c ComercialClaim) ComercialID() string { return c.comercialID }

func (c ComercialClaim) ClaimedAt() time.Time { return c.claimedAt }

func (c ComercialClaim) Status() Status { return c.status }

func (c ComercialClaim) ReleasedAt() *time.Time {
	if c.releasedAt == nil {
		return nil
	}
	t := *c.releasedAt
	return &t
}

func (c ComercialClaim) IsActive() bool { return c.status == StatusActive }

func (c ComercialClaim) IsReleased() bool { return c.status == StatusReleased }

// CanBeReleasedBy checks ownership before the released state, so a foreign
// commercial always gets ErrUnauthorizedClaimRelease.
func (c ComercialClaim) CanBeReleasedBy(comercialID string) error {
	if c.comercialID != comercialID {
		return domain.ErrUnauthorizedClaimRelease.Detail("claim %s requested by %s", c.id, comercialID)
	}
	if c.IsReleased() {
		return domain.ErrClaimAlreadyReleased.Detail("claim %s", c.id)
	}
	return nil
}

// ReleaseBy returns the released claim. On error the zero value is returned.
func (c ComercialClaim) ReleaseBy(comercialID string, at time.Time) (ComercialClaim, []domain.DomainEvent, error) {
	if err := c.CanBeReleasedBy(comercialID); err != nil {
		return ComercialClaim{}, nil, err
	}
	next := c
	next.status = StatusReleased
	released := at
	next.releasedAt = &released
	return next, []domain.DomainEvent{ClaimReleased{
		ClaimID:     c.id,
		ChatID:      c.chatID,
		ComercialID: c.comercialID,
		ReleasedAt:  at,
	}}, nil
}
