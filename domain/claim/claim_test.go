package claim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/livechat/domain"
)

var claimedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestCreate(t *testing.T) {
	req := require.New(t)

	c, events := Create("claim-1", "chat-1", "agent-1", claimedAt)

	req.True(c.IsActive())
	req.False(c.IsReleased())
	req.Nil(c.ReleasedAt())
	req.Len(events, 1)
	created, ok := events[0].(ClaimCreated)
	req.True(ok)
	req.Equal("claim-1", created.AggregateID())
	req.Equal("chat-1", created.ChatID)
	req.Equal(EventClaimCreated, created.EventName())
}

func TestComercialClaim_Release(t *testing.T) {
	t.Run("owner releases once", func(t *testing.T) {
		req := require.New(t)
		c, _ := Create("claim-1", "chat-1", "agent-1", claimedAt)
		at := claimedAt.Add(time.Hour)

		released, events, err := c.ReleaseBy("agent-1", at)
		req.NoError(err)
		req.True(released.IsReleased())
		req.Equal(at, *released.ReleasedAt())
		req.Equal([]string{EventClaimReleased}, []string{events[0].EventName()})
		req.True(c.IsActive(), "receiver must stay active")

		again, events, err := released.ReleaseBy("agent-1", at.Add(time.Minute))
		req.ErrorIs(err, domain.ErrClaimAlreadyReleased)
		req.Empty(events)
		req.Equal(ComercialClaim{}, again)
	})

	t.Run("foreign commercial is rejected before the released check", func(t *testing.T) {
		req := require.New(t)
		c, _ := Create("claim-1", "chat-1", "agent-1", claimedAt)

		req.ErrorIs(c.CanBeReleasedBy("agent-2"), domain.ErrUnauthorizedClaimRelease)

		released, _, err := c.ReleaseBy("agent-1", claimedAt)
		req.NoError(err)
		req.ErrorIs(released.CanBeReleasedBy("agent-2"), domain.ErrUnauthorizedClaimRelease)
		req.ErrorIs(released.CanBeReleasedBy("agent-1"), domain.ErrClaimAlreadyReleased)
	})
}

func TestFromPrimitives(t *testing.T) {
	req := require.New(t)
	c, _ := Create("claim-1", "chat-1", "agent-1", claimedAt)
	c, _, err := c.ReleaseBy("agent-1", claimedAt.Add(time.Minute))
	req.NoError(err)

	restored, err := FromPrimitives(c.ToPrimitives())
	req.NoError(err)
	req.Equal(c.ToPrimitives(), restored.ToPrimitives())

	bad := c.ToPrimitives()
	bad.Status = "ACTIVE"
	_, err = FromPrimitives(bad)
	req.ErrorIs(err, domain.ErrInvalidPayload)
}

func TestAssignmentService(t *testing.T) {
	svc := NewAssignmentService()
	active, _ := Create("claim-1", "chat-1", "agent-1", claimedAt)
	released, _, err := active.ReleaseBy("agent-1", claimedAt)
	require.NoError(t, err)

	tests := []struct {
		name     string
		existing *ComercialClaim
		wantErr  error
	}{
		{name: "no claim", existing: nil},
		{name: "released claim", existing: &released},
		{name: "active claim", existing: &active, wantErr: domain.ErrComercialCannotBeAssigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CanComercialClaimChat("agent-2", "chat-1", tt.existing)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.ErrorIs(t, svc.CanComercialReleaseClaim("agent-2", active), domain.ErrUnauthorizedClaimRelease)
	assert.NoError(t, svc.CanComercialReleaseClaim("agent-1", active))
	assert.Equal(t, DefaultAssignmentPriority, svc.CalculateAssignmentPriority("agent-1", 0))
	assert.Equal(t, DefaultAssignmentPriority, svc.CalculateAssignmentPriority("agent-1", 42))
}
