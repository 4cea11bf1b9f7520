package repository

import (
	"context"
	"time"
)

type OnlineCommercial struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	LastSeen time.Time `json:"last_seen"`
}

// PresenceRepository tracks which commercials of a company are connected.
// An entry expires when its heartbeat is older than the configured TTL.
type PresenceRepository interface {
	SetOnline(ctx context.Context, companyID string, commercial OnlineCommercial) error
	SetOffline(ctx context.Context, companyID, commercialID string) error
	OnlineCommercials(ctx context.Context, companyID string) ([]OnlineCommercial, error)
	// Sweep drops entries whose heartbeat is older than before and returns how many were removed.
	Sweep(ctx context.Context, before time.Time) (int, error)
}
