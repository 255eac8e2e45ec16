package user

import (
	"context"
)

// Repository define a interface para operações de repositório de usuários
type Repository interface {
	// CreateUser cria um novo usuário
	CreateUser(ctx context.Context, u *User) error

	// FindUserByID busca um usuário pelo ID
	FindUserByID(ctx context.Context, id string) (*User, error)

	// ListUsers lista os usuários ordenados por nome
	ListUsers(ctx context.Context) ([]*User, error)
}
