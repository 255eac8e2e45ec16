package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Role representa o papel/função do usuário
type Role string

// Constantes para Role
const (
	RoleAdmin  Role = "admin"  // Acesso total, inclusive a custos e lucro
	RoleEditor Role = "editor" // Cadastra produtos e registra vendas
	RoleViewer Role = "viewer" // Somente leitura
)

// Erros do domínio de usuários
var (
	ErrEmptyName      = errors.New("nome do usuário não pode ser vazio")
	ErrInvalidEmail   = errors.New("email inválido")
	ErrInvalidRole    = errors.New("papel de usuário inválido")
	ErrUserNotFound   = errors.New("usuário não encontrado")
	ErrDuplicateEmail = errors.New("usuário com mesmo email já existe")
)

// User representa um operador que pode registrar vendas
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid verifica se o papel é conhecido
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// CanSeeCosts indica se o papel pode ver preço de compra e lucro
func (r Role) CanSeeCosts() bool {
	return r == RoleAdmin
}

// CanEdit indica se o papel pode alterar cadastros
func (r Role) CanEdit() bool {
	return r == RoleAdmin || r == RoleEditor
}

// IsAdmin verifica se o usuário é um administrador
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NewUser cria um usuário validando nome, email e papel
func NewUser(id, name, email string, role Role, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	if role == "" {
		role = RoleViewer
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	return &User{
		ID:        id,
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
	}, nil
}
