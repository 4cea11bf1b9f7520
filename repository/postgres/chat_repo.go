package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/fastygo/livechat/domain"
	"github.com/fastygo/livechat/domain/chat"
	"github.com/fastygo/livechat/repository"
)

const chatColumns = `id, company_id, status, participants, last_message, last_message_at, created_at`

type chatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository returns a Postgres-backed implementation of ChatRepository.
// The roster is stored as JSONB; participant IDs are denormalized for lookups.
func NewChatRepository(pool *pgxpool.Pool) repository.ChatRepository {
	return &chatRepository{pool: pool}
}

func (r *chatRepository) Save(ctx context.Context, c chat.Chat) error {
	if c.ID() == "" {
		return domain.ErrInvalidPayload.Detail("chat without id")
	}

	p := c.ToPrimitives()
	participants, err := json.Marshal(p.Participants)
	if err != nil {
		return err
	}
	ids := lo.Map(p.Participants, func(pp chat.ParticipantPrimitives, _ int) string { return pp.ID })

	const query = `
	INSERT INTO chats (id, company_id, status, participants, participant_ids, last_message, last_message_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()), NOW())
	ON CONFLICT (id) DO UPDATE
	SET status = EXCLUDED.status,
		participants = EXCLUDED.participants,
		participant_ids = EXCLUDED.participant_ids,
		last_message = EXCLUDED.last_message,
		last_message_at = EXCLUDED.last_message_at,
		updated_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.CompanyID,
		p.Status,
		participants,
		ids,
		p.LastMessage,
		nullTimePtr(p.LastMessageAt),
		nullTime(p.CreatedAt),
	)
	return err
}

func (r *chatRepository) FindByID(ctx context.Context, id string) (chat.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1`
	c, err := scanChat(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, domain.ErrChatNotFound) {
		return chat.Chat{}, domain.ErrChatNotFound.Detail("chat %s", id)
	}
	return c, err
}

func (r *chatRepository) FindOne(ctx context.Context, criteria repository.ChatCriteria) (chat.Chat, error) {
	criteria.Limit = 1
	chats, err := r.Find(ctx, criteria)
	if err != nil {
		return chat.Chat{}, err
	}
	if len(chats) == 0 {
		return chat.Chat{}, domain.ErrChatNotFound
	}
	return chats[0], nil
}

func (r *chatRepository) Find(ctx context.Context, criteria repository.ChatCriteria) ([]chat.Chat, error) {
	cmp, dir := "<", "DESC"
	if criteria.Order == repository.OrderOldest {
		cmp, dir = ">", "ASC"
	}

	var (
		cursorAt interface{}
		cursorID string
	)
	if criteria.Cursor != nil {
		cursorAt = criteria.Cursor.CreatedAt
		cursorID = criteria.Cursor.ID
	}
	statuses := lo.Map(criteria.Statuses, func(s chat.Status, _ int) string { return string(s) })

	query := fmt.Sprintf(`
	SELECT %s
	FROM chats
	WHERE ($1 = '' OR company_id = $1)
	  AND (cardinality($2::text[]) = 0 OR status = ANY($2::text[]))
	  AND ($3 = '' OR $3 = ANY(participant_ids))
	  AND ($4::timestamptz IS NULL OR (created_at, id) %s ($4::timestamptz, $5))
	ORDER BY created_at %s, id %s
	LIMIT $6
	`, chatColumns, cmp, dir, dir)

	rows, err := r.pool.Query(ctx, query,
		criteria.CompanyID,
		statuses,
		criteria.ParticipantID,
		cursorAt,
		cursorID,
		clampLimit(criteria.Limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []chat.Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func (r *chatRepository) FindAll(ctx context.Context) ([]chat.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []chat.Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func scanChat(row rowScanner) (chat.Chat, error) {
	var (
		p            chat.Primitives
		participants []byte
		lastAt       *time.Time
	)

	if err := row.Scan(
		&p.ID,
		&p.CompanyID,
		&p.Status,
		&participants,
		&p.LastMessage,
		&lastAt,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return chat.Chat{}, domain.ErrChatNotFound
		}
		return chat.Chat{}, err
	}

	if err := json.Unmarshal(participants, &p.Participants); err != nil {
		return chat.Chat{}, domain.WrapError(domain.ErrCodeInternal, domain.KindInvalidPayload, "decode participants of chat "+p.ID, err)
	}
	p.LastMessageAt = lastAt
	return chat.FromPrimitives(p)
}
