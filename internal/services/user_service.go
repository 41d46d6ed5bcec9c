package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/rudigital/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultUsersPage = 20
	maxUsersPage     = 50
)

type UserPage struct {
	Total    int              `json:"total"`
	Pagina   int              `json:"pagina"`
	Limite   int              `json:"limite"`
	Usuarios []models.Usuario `json:"usuarios"`
}

// UserUpdate holds the fields an administrator may change on an account.
type UserUpdate struct {
	Tipo  *string `json:"tipo,omitempty" example:"admin"`
	Ativo *bool   `json:"ativo,omitempty" example:"true"`
}

// AdminSeed describes the administrator account created by the createadmin
// command.
type AdminSeed struct {
	Matricula string `validate:"required,max=20"`
	Nome      string `validate:"required,max=120"`
	Email     string `validate:"required,email"`
	Senha     string `validate:"required,min=8"`
}

type UserService struct {
	db         *sql.DB
	bcryptCost int
	validator  *ValidationHelper
}

func NewUserService(db *sql.DB, bcryptCost int) *UserService {
	return &UserService{db: db, bcryptCost: bcryptCost, validator: NewValidationHelper()}
}

// ListUsers pages through accounts ordered by name. search matches name or
// email case-insensitively.
func (s *UserService) ListUsers(ctx context.Context, page, limit int, search string) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit == 0 {
		limit = defaultUsersPage
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxUsersPage {
		limit = maxUsersPage
	}

	where := ""
	var args []any
	if search = strings.TrimSpace(search); search != "" {
		args = append(args, "%"+search+"%")
		where = "WHERE nome ILIKE $1 OR email ILIKE $1"
	}

	result := &UserPage{Pagina: page, Limite: limit, Usuarios: []models.Usuario{}}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM usuarios "+where, args...).Scan(&result.Total); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`
		SELECT id, matricula, nome, email, COALESCE(curso, ''), saldo, tipo, ativo, criado_em
		FROM usuarios
		%s
		ORDER BY nome
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.Usuario
		if err := rows.Scan(&u.ID, &u.Matricula, &u.Nome, &u.Email, &u.Curso, &u.Saldo, &u.Tipo, &u.Ativo, &u.CriadoEm); err != nil {
			return nil, err
		}
		result.Usuarios = append(result.Usuarios, u)
	}
	return result, rows.Err()
}

// UpdateUser changes the role or active flag of an account. Accounts are
// never deleted, only deactivated.
func (s *UserService) UpdateUser(ctx context.Context, id int64, upd UserUpdate) error {
	var sets []string
	var args []any

	if upd.Tipo != nil {
		if *upd.Tipo != models.TipoEstudante && *upd.Tipo != models.TipoAdmin {
			return NewValidationError("Tipo inválido. Use 'estudante' ou 'admin'.")
		}
		args = append(args, *upd.Tipo)
		sets = append(sets, fmt.Sprintf("tipo = $%d", len(args)))
	}
	if upd.Ativo != nil {
		args = append(args, *upd.Ativo)
		sets = append(sets, fmt.Sprintf("ativo = $%d", len(args)))
	}
	if len(sets) == 0 {
		return NewValidationError("Nenhum campo válido para atualizar (tipo, ativo).")
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE usuarios SET %s, atualizado_em = NOW() WHERE id = $%d", strings.Join(sets, ", "), len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SeedAdmin creates the administrator account, or resets the password and
// role of an existing account with the same email.
func (s *UserService) SeedAdmin(ctx context.Context, seed AdminSeed) (int64, error) {
	if vErr := s.validator.Validate(seed); vErr != nil {
		return 0, vErr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Senha), s.bcryptCost)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO usuarios (matricula, nome, email, senha_hash, tipo, ativo)
		VALUES ($1, $2, $3, $4, 'admin', TRUE)
		ON CONFLICT (email) DO UPDATE SET
			senha_hash = EXCLUDED.senha_hash,
			tipo = 'admin',
			ativo = TRUE,
			atualizado_em = NOW()
		RETURNING id`, seed.Matricula, seed.Nome, seed.Email, string(hash)).Scan(&id)
	if isUniqueViolation(err) {
		return 0, &ConflictError{Message: fmt.Sprintf("Matrícula %s já está em uso.", seed.Matricula)}
	}
	if err != nil {
		return 0, fmt.Errorf("seed admin: %w", err)
	}

	log.Printf("[ADMIN] Administrator %s ready with id %d", seed.Email, id)
	return id, nil
}
