package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
)

// UpsertDraft relies on the (profile_id, conversation_id) primary key, so
// repeated saves from the same editor never produce a second row.
func (r *Repository) UpsertDraft(
	ctx context.Context,
	tx *sql.Tx,
	d *domain.Draft,
) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO message_drafts (profile_id, conversation_id, text, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (profile_id, conversation_id)
		DO UPDATE SET text = EXCLUDED.text, updated_at = EXCLUDED.updated_at
		WHERE message_drafts.text IS DISTINCT FROM EXCLUDED.text
	`, d.ProfileID, d.ConversationID, d.Text, d.UpdatedAt)
	return err
}

func (r *Repository) DeleteDraft(
	ctx context.Context,
	tx *sql.Tx,
	profileID, convID string,
) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		DELETE FROM message_drafts
		WHERE profile_id = $1 AND conversation_id = $2
	`, profileID, convID)
	return err
}

func (r *Repository) GetDraft(
	ctx context.Context,
	profileID, convID string,
) (*domain.Draft, error) {
	var d domain.Draft
	err := r.DB.QueryRowContext(ctx, `
		SELECT profile_id, conversation_id, text, updated_at
		FROM message_drafts
		WHERE profile_id = $1 AND conversation_id = $2
	`, profileID, convID).Scan(&d.ProfileID, &d.ConversationID, &d.Text, &d.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDraftNotFound
		}
		return nil, err
	}
	return &d, nil
}
