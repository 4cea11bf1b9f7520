package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/livechat/domain"
	"github.com/fastygo/livechat/domain/claim"
	"github.com/fastygo/livechat/repository"
)

const claimColumns = `id, chat_id, comercial_id, status, claimed_at, released_at`

type claimRepository struct {
	pool *pgxpool.Pool
}

// NewClaimRepository returns a Postgres-backed ClaimRepository. Exclusivity of
// active claims relies on the comercial_claims_one_active_per_chat index.
func NewClaimRepository(pool *pgxpool.Pool) repository.ClaimRepository {
	return &claimRepository{pool: pool}
}

func (r *claimRepository) Save(ctx context.Context, c claim.ComercialClaim) error {
	p := c.ToPrimitives()
	if p.ID == "" {
		return domain.ErrInvalidPayload.Detail("claim without id")
	}

	const query = `
	INSERT INTO comercial_claims (id, chat_id, comercial_id, status, claimed_at, released_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query, p.ID, p.ChatID, p.ComercialID, p.Status, p.ClaimedAt, nullTimePtr(p.ReleasedAt))
	return claimWriteError(err, p)
}

func (r *claimRepository) Update(ctx context.Context, c claim.ComercialClaim) error {
	p := c.ToPrimitives()

	const query = `
	UPDATE comercial_claims
	SET status = $2,
		released_at = $3
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, p.ID, p.Status, nullTimePtr(p.ReleasedAt))
	if err != nil {
		return claimWriteError(err, p)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClaimNotFound.Detail("claim %s", p.ID)
	}
	return nil
}

func (r *claimRepository) FindByID(ctx context.Context, id string) (claim.ComercialClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM comercial_claims WHERE id = $1`
	return scanClaim(r.pool.QueryRow(ctx, query, id))
}

func (r *claimRepository) FindActiveClaimForChat(ctx context.Context, chatID string) (*claim.ComercialClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM comercial_claims WHERE chat_id = $1 AND status = 'active'`
	c, err := scanClaim(r.pool.QueryRow(ctx, query, chatID))
	if errors.Is(err, domain.ErrClaimNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *claimRepository) FindActiveClaimsByComercial(ctx context.Context, comercialID string) ([]claim.ComercialClaim, error) {
	query := `SELECT ` + claimColumns + `
	FROM comercial_claims
	WHERE comercial_id = $1 AND status = 'active'
	ORDER BY claimed_at`
	rows, err := r.pool.Query(ctx, query, comercialID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claims []claim.ComercialClaim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func (r *claimRepository) GetActiveChatIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT chat_id FROM comercial_claims WHERE status = 'active' ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *claimRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comercial_claims WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClaimNotFound.Detail("claim %s", id)
	}
	return nil
}

func scanClaim(row rowScanner) (claim.ComercialClaim, error) {
	var p claim.Primitives
	if err := row.Scan(&p.ID, &p.ChatID, &p.ComercialID, &p.Status, &p.ClaimedAt, &p.ReleasedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return claim.ComercialClaim{}, domain.ErrClaimNotFound
		}
		return claim.ComercialClaim{}, err
	}
	return claim.FromPrimitives(p)
}

// activeClaimIndex is the partial unique index allowing one active claim per chat.
const activeClaimIndex = "comercial_claims_one_active_per_chat"

func claimWriteError(err error, p claim.Primitives) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, activeClaimIndex):
		return domain.ErrChatAlreadyClaimed.Detail("chat %s", p.ChatID)
	case isUniqueViolation(err, ""):
		return domain.WrapError(domain.ErrCodeConflict, domain.KindDuplicateID, "claim "+p.ID+" already exists", err)
	default:
		return err
	}
}
