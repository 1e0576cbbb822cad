package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dentwise/dentwise/internal/platform/auth"
)

// ProfileFetcher fetches profile attributes from the identity provider.
// Called at most once per EnsureUser invocation.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, externalID string) (*auth.Profile, error)
}

type Service struct {
	users    UserRepository
	profiles ProfileFetcher
	logger   zerolog.Logger
}

func NewService(users UserRepository, profiles ProfileFetcher, logger zerolog.Logger) *Service {
	return &Service{users: users, profiles: profiles, logger: logger}
}

// EnsureUser returns the local user for the given external id, creating one
// on first sight. The create is idempotent under concurrent first-time calls:
// losing the unique-constraint race falls back to re-reading the surviving
// row. The provider profile fetch is skipped entirely when the row already
// exists.
func (s *Service) EnsureUser(ctx context.Context, externalID string) (*User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("external id is required")
	}

	u, err := s.users.GetByExternalID(ctx, externalID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	profile, err := s.profiles.FetchProfile(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("fetch profile for %s: %w", externalID, err)
	}

	u = &User{
		ExternalID: externalID,
		Email:      profile.Email,
		FirstName:  profile.FirstName,
		LastName:   profile.LastName,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateExternalID) {
			// Lost the first-creation race; the other writer's row wins.
			return s.users.GetByExternalID(ctx, externalID)
		}
		return nil, err
	}

	s.logger.Info().Str("external_id", externalID).Str("user_id", u.ID.String()).Msg("created local user")
	return u, nil
}

// GetUser looks up a local user without creating one. Callers that must not
// auto-create (booking) use this instead of EnsureUser.
func (s *Service) GetUser(ctx context.Context, externalID string) (*User, error) {
	return s.users.GetByExternalID(ctx, externalID)
}
