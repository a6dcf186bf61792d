package domain

import "context"

// IdentifierService exposes admin operations over issued GenIDs.
type IdentifierService struct {
	repo  IdentifierRepository
	cache ProfileCache
}

// NewIdentifierService constructs an IdentifierService.
func NewIdentifierService(repo IdentifierRepository, cache ProfileCache) *IdentifierService {
	return &IdentifierService{repo: repo, cache: cache}
}

// List returns every identifier joined with its owner, newest first.
func (s *IdentifierService) List(ctx context.Context) ([]IdentifierWithOwner, error) {
	return s.repo.ListIdentifiers(ctx)
}

// ForUser returns the user's identifier or ErrIdentifierNotFound.
func (s *IdentifierService) ForUser(ctx context.Context, userID string) (*Identifier, error) {
	identifier, err := s.repo.GetIdentifierByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if identifier == nil {
		return nil, ErrIdentifierNotFound
	}
	return identifier, nil
}

// Delete removes an identifier by id so its owner can be issued a new one.
func (s *IdentifierService) Delete(ctx context.Context, id string) (*Identifier, error) {
	removed, err := s.repo.DeleteIdentifier(ctx, id)
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, removed.UserID)
	return removed, nil
}
