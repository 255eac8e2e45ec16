package ledger

import (
	"context"

	"github.com/hugohenrick/pdv-sync/internal/domain/user"
)

// CreateUser cadastra um usuário
func (s *Service) CreateUser(ctx context.Context, name, email string, role user.Role) (*user.User, error) {
	u, err := user.NewUser(s.newID(), name, email, role, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("Usuário criado", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// GetUser busca um usuário pelo ID
func (s *Service) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.store.FindUserByID(ctx, id)
}

// ListUsers lista os usuários
func (s *Service) ListUsers(ctx context.Context) ([]*user.User, error) {
	return s.store.ListUsers(ctx)
}
