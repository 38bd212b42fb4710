package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
)

func (r *Repository) InsertMessage(
	ctx context.Context,
	tx *sql.Tx,
	msg *domain.Message,
) error {
	q := r.getter(tx)
	return q.QueryRowContext(ctx, `
		INSERT INTO messages (conversation_id, sender_id, text, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`,
		msg.ConversationID,
		msg.SenderID,
		msg.Text,
		msg.CreatedAt,
	).Scan(&msg.ID)
}

func (r *Repository) FetchMessages(
	ctx context.Context,
	convID string,
) ([]*domain.Message, error) {

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, conversation_id, sender_id, text, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (r *Repository) LatestMessage(
	ctx context.Context,
	convID string,
) (*domain.Message, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, conversation_id, sender_id, text, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, convID)

	msg, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return msg, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (*domain.Message, error) {
	var msg domain.Message
	if err := s.Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.SenderID,
		&msg.Text,
		&msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &msg, nil
}
