package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
)

func (r *Repository) GetConversation(
	ctx context.Context,
	tx *sql.Tx,
	convID string,
) (*domain.Conversation, error) {
	if r.Cache != nil && tx == nil {
		conv, err := r.Cache.GetConversation(ctx, convID)
		if err == nil && conv != nil {
			return conv, nil
		}
	}

	conv, err := r.fetchConversation(ctx, tx, `WHERE id = $1`, convID)
	if err != nil {
		return nil, err
	}

	if r.Cache != nil {
		_ = r.Cache.SetConversation(ctx, conv)
	}

	return conv, nil
}

func (r *Repository) GetConversationByLookupKey(
	ctx context.Context,
	tx *sql.Tx,
	key string,
) (*domain.Conversation, error) {
	return r.fetchConversation(ctx, tx, `WHERE lookup_key = $1`, key)
}

func (r *Repository) InsertConversation(
	ctx context.Context,
	tx *sql.Tx,
	conv *domain.Conversation,
) (bool, error) {
	q := r.getter(tx)

	var id string
	err := q.QueryRowContext(ctx, `
		INSERT INTO conversations (id, lookup_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lookup_key) DO NOTHING
		RETURNING id
	`, conv.ID, conv.LookupKey, conv.CreatedAt, conv.UpdatedAt).Scan(&id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *Repository) InsertParticipant(
	ctx context.Context,
	tx *sql.Tx,
	convID, profileID string,
) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO conversation_participants (conversation_id, profile_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, convID, profileID)
	return err
}

func (r *Repository) TouchConversation(
	ctx context.Context,
	tx *sql.Tx,
	convID string,
	at time.Time,
) error {
	q := r.getter(tx)
	res, err := q.ExecContext(ctx, `
		UPDATE conversations
		SET updated_at = GREATEST(updated_at, $2)
		WHERE id = $1
	`, convID, at)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *Repository) fetchConversation(
	ctx context.Context,
	tx *sql.Tx,
	where string,
	arg string,
) (*domain.Conversation, error) {
	q := r.getter(tx)

	var conv domain.Conversation
	err := q.QueryRowContext(ctx, `
		SELECT id, lookup_key, created_at, updated_at
		FROM conversations
	`+where, arg).Scan(
		&conv.ID,
		&conv.LookupKey,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT profile_id
		FROM conversation_participants
		WHERE conversation_id = $1
		ORDER BY joined_at, profile_id
	`, conv.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var profileID string
		if err := rows.Scan(&profileID); err != nil {
			return nil, err
		}
		conv.Participants = append(conv.Participants, profileID)
	}

	return &conv, rows.Err()
}
