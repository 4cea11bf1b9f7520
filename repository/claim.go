package repository

import (
	"context"

	"github.com/fastygo/livechat/domain/claim"
)

// ClaimRepository stores comercial claims. Save must reject a second active
// claim for the same chat with domain.ErrChatAlreadyClaimed.
type ClaimRepository interface {
	Save(ctx context.Context, c claim.ComercialClaim) error
	Update(ctx context.Context, c claim.ComercialClaim) error
	FindByID(ctx context.Context, id string) (claim.ComercialClaim, error)
	// FindActiveClaimForChat returns nil without error when the chat is free.
	FindActiveClaimForChat(ctx context.Context, chatID string) (*claim.ComercialClaim, error)
	FindActiveClaimsByComercial(ctx context.Context, comercialID string) ([]claim.ComercialClaim, error)
	GetActiveChatIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}
