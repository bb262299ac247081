package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema cria as tabelas se não existirem.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return domain.Storage("ensure_schema", err)
	}
	return nil
}

// uniqueViolation é o SQLSTATE de violação de unicidade.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// validID evita mandar ao banco ids que não são uuid (ex.: ids do fallback em memória).
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Accounts implementa store.AccountRepository em Postgres.
type Accounts struct{ db *sql.DB }

var _ store.AccountRepository = (*Accounts)(nil)

func NewAccounts(db *sql.DB) *Accounts { return &Accounts{db: db} }

const accountCols = `id, username, email, password_hash, role, points, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*domain.Account, error) {
	var a domain.Account
	var role string
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &role, &a.Points, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	return &a, nil
}

// Create insere a conta com id uuid gerado localmente.
func (p *Accounts) Create(ctx context.Context, a *domain.Account) error {
	a.Normalize()
	if err := a.Validate(); err != nil {
		return err
	}
	id := uuid.NewString()
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, role, points)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		id, a.Username, a.Email, a.PasswordHash, string(a.Role), a.Points,
	)
	if err := row.Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return domain.Storage("insert account", err)
	}
	a.ID = id
	return nil
}

func (p *Accounts) Get(ctx context.Context, id string) (*domain.Account, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	a, err := scanAccount(p.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("get account", err)
	}
	return a, nil
}

// FindByLogin busca por email (case-insensitive) ou username.
func (p *Accounts) FindByLogin(ctx context.Context, login string) (*domain.Account, error) {
	login = strings.TrimSpace(login)
	a, err := scanAccount(p.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE email=$1 OR username=$2 LIMIT 1`,
		strings.ToLower(login), login))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("find account", err)
	}
	return a, nil
}

func (p *Accounts) List(ctx context.Context, f store.AccountFilter) ([]domain.Account, error) {
	q := `SELECT ` + accountCols + ` FROM accounts ORDER BY created_at DESC`
	if f.SortByPoints {
		q = `SELECT ` + accountCols + ` FROM accounts ORDER BY points DESC, created_at ASC`
	}
	args := []any{}
	if f.Limit > 0 {
		q += ` LIMIT $1`
		args = append(args, f.Limit)
	}
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, domain.Storage("list accounts", err)
	}
	defer rows.Close()
	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, domain.Storage("scan account", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Storage("list accounts", err)
	}
	return out, nil
}

// AdjustBalance aplica delta com um único UPDATE condicional (sem load-mutate-save).
// Se nenhuma linha for afetada, distingue conta inexistente de saldo insuficiente.
func (p *Accounts) AdjustBalance(ctx context.Context, id string, delta int64) (int64, error) {
	if !validID(id) {
		return 0, domain.ErrNotFound
	}
	var balance int64
	err := p.db.QueryRowContext(ctx, `
		UPDATE accounts SET points = points + $1, updated_at = NOW()
		WHERE id=$2 AND points + $1 >= 0
		RETURNING points`, delta, id).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, domain.Storage("adjust balance", err)
	}
	if err := p.db.QueryRowContext(ctx, `SELECT points FROM accounts WHERE id=$1`, id).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, domain.Storage("adjust balance", err)
	}
	return balance, domain.ErrInsufficientFunds
}

func (p *Accounts) SetBalance(ctx context.Context, id string, points int64) (*domain.Account, error) {
	if points < 0 {
		return nil, domain.Invalid("points", "must not be negative")
	}
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	a, err := scanAccount(p.db.QueryRowContext(ctx, `
		UPDATE accounts SET points=$1, updated_at=NOW() WHERE id=$2
		RETURNING `+accountCols, points, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("set balance", err)
	}
	return a, nil
}
