package application

import "context"

// SaveDraft stores the caller's unsent text; blank text clears it.
func (s *Service) SaveDraft(ctx context.Context, userID, convID, text string) error {
	profile, conv, err := s.Authorize(ctx, userID, convID)
	if err != nil {
		return err
	}
	return s.conversations.UpsertDraft(ctx, profile.ID, conv.ID, text)
}

func (s *Service) GetDraft(ctx context.Context, userID, convID string) (string, error) {
	profile, conv, err := s.Authorize(ctx, userID, convID)
	if err != nil {
		return "", err
	}
	return s.conversations.GetDraft(ctx, profile.ID, conv.ID)
}
