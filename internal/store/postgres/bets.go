package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/store"
)

// Bets implementa store.BetRepository em Postgres.
type Bets struct{ db *sql.DB }

var _ store.BetRepository = (*Bets)(nil)

func NewBets(db *sql.DB) *Bets { return &Bets{db: db} }

const betCols = `id, user_id, type, COALESCE(match_id,''), COALESCE(tournament_id,''), selection, selection_name, amount, status, created_at, updated_at`

func scanBet(row interface{ Scan(...any) error }) (*domain.Bet, error) {
	var b domain.Bet
	var typ, status string
	if err := row.Scan(&b.ID, &b.UserID, &typ, &b.MatchID, &b.TournamentID, &b.Selection,
		&b.SelectionName, &b.Amount, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Type = domain.EventType(typ)
	b.Status = domain.BetStatus(status)
	return &b, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Create insere a aposta (status pending por padrão).
func (p *Bets) Create(ctx context.Context, b *domain.Bet) error {
	if err := b.Validate(); err != nil {
		return err
	}
	id := uuid.NewString()
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO bets (id,user_id,type,match_id,tournament_id,selection,selection_name,amount,status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		id, b.UserID, string(b.Type), nullable(b.MatchID), nullable(b.TournamentID),
		b.Selection, b.SelectionName, b.Amount, string(b.Status),
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return domain.Storage("insert bet", err)
	}
	b.ID = id
	return nil
}

func (p *Bets) Get(ctx context.Context, id string) (*domain.Bet, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	b, err := scanBet(p.db.QueryRowContext(ctx, `SELECT `+betCols+` FROM bets WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("get bet", err)
	}
	return b, nil
}

func (p *Bets) List(ctx context.Context, f domain.BetFilter) ([]domain.Bet, error) {
	var where []string
	var args []any
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		where = append(where, col+"=$"+strconv.Itoa(len(args)))
	}
	add("user_id", f.UserID)
	add("status", string(f.Status))
	add("type", string(f.Type))
	add("match_id", f.MatchID)
	add("tournament_id", f.TournamentID)

	q := `SELECT ` + betCols + ` FROM bets`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC`

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, domain.Storage("list bets", err)
	}
	defer rows.Close()
	var out []domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, domain.Storage("scan bet", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Storage("list bets", err)
	}
	return out, nil
}

// explainMiss diz por que um update condicional não afetou linhas:
// aposta inexistente, já resolvida, ou alterada por outra chamada.
func (p *Bets) explainMiss(ctx context.Context, id string) error {
	var status string
	err := p.db.QueryRowContext(ctx, `SELECT status FROM bets WHERE id=$1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return domain.Storage("get bet status", err)
	}
	if domain.BetStatus(status) == domain.BetPending {
		return domain.ErrConflict
	}
	return domain.ErrNotPending
}

// Resolve move pending -> won|lost numa única instrução; concorrentes perdem com ErrNotPending.
func (p *Bets) Resolve(ctx context.Context, id string, status domain.BetStatus) (*domain.Bet, error) {
	if !status.Terminal() {
		return nil, domain.Invalid("status", "must be won or lost")
	}
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	b, err := scanBet(p.db.QueryRowContext(ctx, `
		UPDATE bets SET status=$1, updated_at=NOW()
		WHERE id=$2 AND status='pending'
		RETURNING `+betCols, string(status), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, p.explainMiss(ctx, id)
	}
	if err != nil {
		return nil, domain.Storage("resolve bet", err)
	}
	return b, nil
}

// UpdateStake troca from por to; a condição em amount impede que duas
// alterações concorrentes partam do mesmo stake.
func (p *Bets) UpdateStake(ctx context.Context, id string, from, to int64) (*domain.Bet, error) {
	if to < domain.MinStake {
		return nil, domain.Invalid("amount", "minimum bet is %d points", domain.MinStake)
	}
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	b, err := scanBet(p.db.QueryRowContext(ctx, `
		UPDATE bets SET amount=$1, updated_at=NOW()
		WHERE id=$2 AND status='pending' AND amount=$3
		RETURNING `+betCols, to, id, from))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, p.explainMiss(ctx, id)
	}
	if err != nil {
		return nil, domain.Storage("update stake", err)
	}
	return b, nil
}

func (p *Bets) DeletePending(ctx context.Context, id string) (*domain.Bet, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	b, err := scanBet(p.db.QueryRowContext(ctx, `
		DELETE FROM bets WHERE id=$1 AND status='pending'
		RETURNING `+betCols, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, p.explainMiss(ctx, id)
	}
	if err != nil {
		return nil, domain.Storage("delete bet", err)
	}
	return b, nil
}
