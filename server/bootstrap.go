package server

import (
	"fmt"

	"github.com/jrsteele09/fnb-console/internal/config"
	apperrors "github.com/jrsteele09/fnb-console/internal/errors"
	"github.com/jrsteele09/fnb-console/users"
)

// InitialiseSystem creates the configured development user when it does not exist yet.
// Each name in the seed client list becomes a client account, numbered from 1.
func (s *Server) InitialiseSystem(cfg config.BackendConfig) error {
	username := cfg.GetSeedUsername()
	if username == "" {
		return nil
	}

	existing, err := s.users.GetByUsername(username)
	switch {
	case err == nil:
		s.logger.Debug().Str("username", existing.Username).Msg("Bootstrap: seed user already exists")
		return nil
	case !apperrors.Is(err, apperrors.ErrUserNotFound):
		return fmt.Errorf("failed to look up seed user: %w", err)
	}

	hash, err := users.HashPassword(cfg.GetSeedPassword())
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	var clients []users.ClientAccount
	for i, name := range cfg.GetSeedClients() {
		clients = append(clients, users.ClientAccount{
			ClientID:       int64(i + 1),
			ClientUsername: name,
			Alias:          name,
		})
	}

	user := &users.User{
		Username:     username,
		PasswordHash: hash,
		Clients:      clients,
		Permissions:  defaultPermissions(),
	}
	if err := s.users.Upsert(user); err != nil {
		return fmt.Errorf("failed to create seed user: %w", err)
	}

	s.logger.Info().
		Str("username", username).
		Int("clients", len(clients)).
		Msg("Bootstrap: seed user created")
	return nil
}

// defaultPermissions grants full access to every resource collection.
func defaultPermissions() map[string]any {
	perms := map[string]any{"is_admin": true}
	for _, name := range resourceCollections() {
		perms[name] = []string{"view", "add", "change", "delete"}
	}
	return perms
}
