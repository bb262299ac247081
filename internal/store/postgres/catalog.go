package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/store"
)

// Rankings implementa store.RankingRepository; os jogadores ficam num JSONB por tipo.
type Rankings struct{ db *sql.DB }

var _ store.RankingRepository = (*Rankings)(nil)

func NewRankings(db *sql.DB) *Rankings { return &Rankings{db: db} }

func scanRanking(row interface{ Scan(...any) error }) (*domain.Ranking, error) {
	var (
		r       domain.Ranking
		typ     string
		players []byte
	)
	if err := row.Scan(&typ, &players, &r.LastUpdated); err != nil {
		return nil, err
	}
	r.Type = domain.RankingType(typ)
	if err := json.Unmarshal(players, &r.Players); err != nil {
		return nil, err
	}
	return &r, nil
}

func (p *Rankings) List(ctx context.Context) ([]domain.Ranking, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT type, players, last_updated FROM rankings ORDER BY type`)
	if err != nil {
		return nil, domain.Storage("list rankings", err)
	}
	defer rows.Close()
	var out []domain.Ranking
	for rows.Next() {
		r, err := scanRanking(rows)
		if err != nil {
			return nil, domain.Storage("scan ranking", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Storage("list rankings", err)
	}
	return out, nil
}

func (p *Rankings) Get(ctx context.Context, t domain.RankingType) (*domain.Ranking, error) {
	r, err := scanRanking(p.db.QueryRowContext(ctx,
		`SELECT type, players, last_updated FROM rankings WHERE type=$1`, string(t)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("get ranking", err)
	}
	return r, nil
}

func (p *Rankings) Replace(ctx context.Context, r *domain.Ranking) error {
	if err := r.Validate(); err != nil {
		return err
	}
	// lib/pq envia []byte como bytea; JSONB vai como texto
	players, err := json.Marshal(r.Players)
	if err != nil {
		return domain.Storage("encode ranking", err)
	}
	err = p.db.QueryRowContext(ctx, `
		INSERT INTO rankings (type, players, last_updated) VALUES ($1, $2, NOW())
		ON CONFLICT (type) DO UPDATE SET players=EXCLUDED.players, last_updated=EXCLUDED.last_updated
		RETURNING last_updated`, string(r.Type), string(players)).Scan(&r.LastUpdated)
	if err != nil {
		return domain.Storage("replace ranking", err)
	}
	return nil
}

// Events implementa store.EventRepository; cada evento é um documento JSONB
// chaveado por (type, id), com status em coluna para consulta.
type Events struct{ db *sql.DB }

var _ store.EventRepository = (*Events)(nil)

func NewEvents(db *sql.DB) *Events { return &Events{db: db} }

func (p *Events) save(ctx context.Context, typ domain.EventType, id string, status domain.EventStatus, v any) error {
	if id == "" {
		return domain.Invalid("id", "is required")
	}
	doc, err := json.Marshal(v)
	if err != nil {
		return domain.Storage("encode event", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO events (type, id, status, doc, updated_at) VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (type, id) DO UPDATE SET status=EXCLUDED.status, doc=EXCLUDED.doc, updated_at=NOW()`,
		string(typ), id, string(status), string(doc))
	if err != nil {
		return domain.Storage("save event", err)
	}
	return nil
}

func (p *Events) remove(ctx context.Context, typ domain.EventType, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM events WHERE type=$1 AND id=$2`, string(typ), id)
	if err != nil {
		return domain.Storage("delete event", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// load decodifica os documentos do tipo em ordem de id.
func load[T any](ctx context.Context, db *sql.DB, typ domain.EventType) ([]T, error) {
	rows, err := db.QueryContext(ctx, `SELECT doc FROM events WHERE type=$1 ORDER BY id`, string(typ))
	if err != nil {
		return nil, domain.Storage("list events", err)
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, domain.Storage("scan event", err)
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, domain.Storage("decode event", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Storage("list events", err)
	}
	return out, nil
}

func (p *Events) SaveMatch(ctx context.Context, m *domain.Match) error {
	return p.save(ctx, domain.EventTennis, m.ID, m.Status, m)
}

func (p *Events) SaveTournament(ctx context.Context, t *domain.Tournament) error {
	return p.save(ctx, domain.EventGolf, t.ID, t.Status, t)
}

func (p *Events) DeleteMatch(ctx context.Context, id string) error {
	return p.remove(ctx, domain.EventTennis, id)
}

func (p *Events) DeleteTournament(ctx context.Context, id string) error {
	return p.remove(ctx, domain.EventGolf, id)
}

func (p *Events) Matches(ctx context.Context) ([]domain.Match, error) {
	return load[domain.Match](ctx, p.db, domain.EventTennis)
}

func (p *Events) Tournaments(ctx context.Context) ([]domain.Tournament, error) {
	return load[domain.Tournament](ctx, p.db, domain.EventGolf)
}
