package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
)

// Directory reads profiles and accepted connections.
type Directory struct{ DB *sql.DB }

func (d *Directory) GetProfileByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	p := &domain.Profile{}
	var displayName sql.NullString
	err := d.DB.QueryRowContext(ctx, `
		SELECT id, user_id, username, display_name
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(&p.ID, &p.UserID, &p.Username, &displayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	p.DisplayName = displayName.String
	return p, nil
}

func (d *Directory) ListConnectedProfiles(ctx context.Context, profileID string) ([]*domain.Profile, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.username, p.display_name
		FROM connections c
		JOIN profiles p
		  ON p.id = CASE WHEN c.requester_id = $1 THEN c.receiver_id ELSE c.requester_id END
		WHERE c.status = 'accepted'
		  AND (c.requester_id = $1 OR c.receiver_id = $1)
		ORDER BY c.created_at
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func scanProfile(s scanner) (*domain.Profile, error) {
	var p domain.Profile
	var displayName sql.NullString
	if err := s.Scan(&p.ID, &p.UserID, &p.Username, &displayName); err != nil {
		return nil, err
	}
	p.DisplayName = displayName.String
	return &p, nil
}
