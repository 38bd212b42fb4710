package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
)

const (
	PresenceStatusOK      = "ok"
	PresenceStatusIgnored = "ignored"
)

type PresenceResult struct {
	Status    string `json:"status"`
	Available bool   `json:"available"`
}

// SetPresence applies an availability token. Unrecognized tokens change
// nothing and report the stored flag back.
func (s *Service) SetPresence(ctx context.Context, userID, token string) (*PresenceResult, error) {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	value, ok := domain.ParseBoolToken(token)
	if !ok {
		rec, err := s.presence.Get(ctx, profile.ID)
		if err != nil {
			return nil, err
		}
		return &PresenceResult{
			Status:    PresenceStatusIgnored,
			Available: rec != nil && rec.Available,
		}, nil
	}

	if err := s.presence.Set(ctx, profile.ID, value, s.now()); err != nil {
		return nil, err
	}
	return &PresenceResult{Status: PresenceStatusOK, Available: value}, nil
}

// TouchPresence stamps the caller available now.
func (s *Service) TouchPresence(ctx context.Context, userID string) error {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	return s.presence.Set(ctx, profile.ID, true, s.now())
}

// ClearPresence marks the caller unavailable, as on leaving or logging out.
func (s *Service) ClearPresence(ctx context.Context, userID string) error {
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	return s.presence.Set(ctx, profile.ID, false, s.now())
}

// QueryPresence reports online state for every well-formed profile id.
// Malformed ids are skipped; unknown ids are offline.
func (s *Service) QueryPresence(ctx context.Context, ids []string) (map[string]bool, error) {
	valid := lo.Uniq(lo.Filter(ids, func(id string, _ int) bool {
		_, err := uuid.Parse(id)
		return err == nil
	}))

	states := make(map[string]bool, len(valid))
	if len(valid) == 0 {
		return states, nil
	}

	records, err := s.presence.GetMany(ctx, valid)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, id := range valid {
		states[id] = records[id].Online(now, s.ttl)
	}
	return states, nil
}
