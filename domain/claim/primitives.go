package claim

import (
	"time"

	"github.com/fastygo/livechat/domain"
)

type Primitives struct {
	ID          string     `json:"id"`
	ChatID      string     `json:"chat_id"`
	ComercialID string     `json:"comercial_id"`
	ClaimedAt   time.Time  `json:"claimed_at"`
	ReleasedAt  *time.Time `json:"released_at"`
	Status      string     `json:"status"`
}

func (c ComercialClaim) ToPrimitives() Primitives {
	return Primitives{
		ID:          c.id,
		ChatID:      c.chatID,
		ComercialID: c.comercialID,
		ClaimedAt:   c.claimedAt,
		ReleasedAt:  c.ReleasedAt(),
		Status:      string(c.status),
	}
}

// FromPrimitives rehydrates a claim from storage.
func FromPrimitives(p Primitives) (ComercialClaim, error) {
	status := Status(p.Status)
	if !status.IsValid() {
		return ComercialClaim{}, domain.ErrInvalidPayload.Detail("unknown claim status %q", p.Status)
	}
	if p.ID == "" || p.ChatID == "" || p.ComercialID == "" {
		return ComercialClaim{}, domain.ErrInvalidPayload.Detail("claim %q is missing identifiers", p.ID)
	}
	c := ComercialClaim{
		id:          p.ID,
		chatID:      p.ChatID,
		comercialID: p.ComercialID,
		claimedAt:   p.ClaimedAt,
		status:      status,
	}
	if p.ReleasedAt != nil {
		t := *p.ReleasedAt
		c.releasedAt = &t
	}
	return c, nil
}
