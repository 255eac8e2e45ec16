package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hugohenrick/pdv-sync/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository implementa a interface user.Repository usando PostgreSQL
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository cria uma nova instância de UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser implementa user.Repository.CreateUser
func (r *UserRepository) CreateUser(ctx context.Context, u *user.User) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO users (id, name, email, role, created_at) VALUES ($1, $2, $3, $4, $5)",
		u.ID, u.Name, u.Email, string(u.Role), u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return user.ErrDuplicateEmail
		}
		return fmt.Errorf("falha ao inserir usuário: %w", err)
	}
	return nil
}

// FindUserByID implementa user.Repository.FindUserByID
func (r *UserRepository) FindUserByID(ctx context.Context, id string) (*user.User, error) {
	if !isUUID(id) {
		return nil, user.ErrUserNotFound
	}

	var u user.User
	var role string
	err := r.db.QueryRow(ctx,
		"SELECT id, name, email, role, created_at FROM users WHERE id = $1", id,
	).Scan(&u.ID, &u.Name, &u.Email, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("falha ao buscar usuário: %w", err)
	}
	u.Role = user.Role(role)

	return &u, nil
}

// ListUsers implementa user.Repository.ListUsers
func (r *UserRepository) ListUsers(ctx context.Context) ([]*user.User, error) {
	rows, err := r.db.Query(ctx, "SELECT id, name, email, role, created_at FROM users ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("falha ao listar usuários: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		var u user.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("falha ao ler usuário: %w", err)
		}
		u.Role = user.Role(role)
		users = append(users, &u)
	}

	return users, rows.Err()
}
