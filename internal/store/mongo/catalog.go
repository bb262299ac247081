package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/store"
)

type rankingDoc struct {
	Type        string                `bson:"type"`
	Players     []domain.RankingEntry `bson:"players"`
	LastUpdated time.Time             `bson:"lastUpdated"`
}

func (d rankingDoc) toDomain() domain.Ranking {
	return domain.Ranking{Type: domain.RankingType(d.Type), Players: d.Players, LastUpdated: d.LastUpdated}
}

// Rankings implementa store.RankingRepository sobre a coleção rankings.
type Rankings struct {
	c   *mongo.Collection
	now func() time.Time
}

var _ store.RankingRepository = (*Rankings)(nil)

func NewRankings(db *mongo.Database) *Rankings {
	return &Rankings{c: db.Collection(rankingsCollection), now: time.Now}
}

func (r *Rankings) List(ctx context.Context) ([]domain.Ranking, error) {
	cur, err := r.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "type", Value: 1}}))
	if err != nil {
		return nil, domain.Storage("list rankings", err)
	}
	var docs []rankingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.Storage("decode rankings", err)
	}
	out := make([]domain.Ranking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *Rankings) Get(ctx context.Context, t domain.RankingType) (*domain.Ranking, error) {
	var doc rankingDoc
	if err := r.c.FindOne(ctx, bson.M{"type": string(t)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Storage("get ranking", err)
	}
	out := doc.toDomain()
	return &out, nil
}

func (r *Rankings) Replace(ctx context.Context, rk *domain.Ranking) error {
	if err := rk.Validate(); err != nil {
		return err
	}
	rk.LastUpdated = r.now().UTC()
	_, err := r.c.ReplaceOne(ctx, bson.M{"type": string(rk.Type)},
		rankingDoc{Type: string(rk.Type), Players: rk.Players, LastUpdated: rk.LastUpdated},
		options.Replace().SetUpsert(true))
	if err != nil {
		return domain.Storage("replace ranking", err)
	}
	return nil
}

type matchDoc struct {
	ID         string            `bson:"_id"`
	Tournament string            `bson:"tournament"`
	Player1    domain.Player     `bson:"player1"`
	Player2    domain.Player     `bson:"player2"`
	Sets       []domain.SetScore `bson:"sets"`
	Status     string            `bson:"status"`
	Minutes    int               `bson:"minutes"`
	StartTime  time.Time         `bson:"startTime"`
	Winner     int               `bson:"winner,omitempty"`
	CreatedAt  time.Time         `bson:"createdAt"`
	UpdatedAt  time.Time         `bson:"updatedAt"`
}

func newMatchDoc(m *domain.Match) matchDoc {
	return matchDoc{
		ID: m.ID, Tournament: m.Tournament, Player1: m.Player1, Player2: m.Player2,
		Sets: m.Sets, Status: string(m.Status), Minutes: m.Minutes, StartTime: m.StartTime,
		Winner: m.Winner, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func (d matchDoc) toDomain() domain.Match {
	return domain.Match{
		ID: d.ID, Tournament: d.Tournament, Player1: d.Player1, Player2: d.Player2,
		Sets: d.Sets, Status: domain.EventStatus(d.Status), Minutes: d.Minutes, StartTime: d.StartTime,
		Winner: d.Winner, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type tournamentDoc struct {
	ID          string                    `bson:"_id"`
	Name        string                    `bson:"name"`
	Location    string                    `bson:"location"`
	Status      string                    `bson:"status"`
	Round       int                       `bson:"round"`
	TotalRounds int                       `bson:"totalRounds"`
	Hole        int                       `bson:"hole"`
	Leaderboard []domain.LeaderboardEntry `bson:"leaderboard"`
	StartTime   time.Time                 `bson:"startTime"`
	Winner      int                       `bson:"winner,omitempty"`
	CreatedAt   time.Time                 `bson:"createdAt"`
	UpdatedAt   time.Time                 `bson:"updatedAt"`
}

func newTournamentDoc(t *domain.Tournament) tournamentDoc {
	return tournamentDoc{
		ID: t.ID, Name: t.Name, Location: t.Location, Status: string(t.Status),
		Round: t.Round, TotalRounds: t.TotalRounds, Hole: t.Hole, Leaderboard: t.Leaderboard,
		StartTime: t.StartTime, Winner: t.Winner, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}
}

func (d tournamentDoc) toDomain() domain.Tournament {
	return domain.Tournament{
		ID: d.ID, Name: d.Name, Location: d.Location, Status: domain.EventStatus(d.Status),
		Round: d.Round, TotalRounds: d.TotalRounds, Hole: d.Hole, Leaderboard: d.Leaderboard,
		StartTime: d.StartTime, Winner: d.Winner, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

// Events implementa store.EventRepository sobre as coleções matches e tournaments.
// O _id é o id do catálogo.
type Events struct {
	matches     *mongo.Collection
	tournaments *mongo.Collection
}

var _ store.EventRepository = (*Events)(nil)

func NewEvents(db *mongo.Database) *Events {
	return &Events{matches: db.Collection(matchesCollection), tournaments: db.Collection(tournamentsCollection)}
}

func upsert(ctx context.Context, c *mongo.Collection, id string, doc any) error {
	if id == "" {
		return domain.Invalid("id", "is required")
	}
	if _, err := c.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true)); err != nil {
		return domain.Storage("save event", err)
	}
	return nil
}

func remove(ctx context.Context, c *mongo.Collection, id string) error {
	res, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return domain.Storage("delete event", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Events) SaveMatch(ctx context.Context, m *domain.Match) error {
	return upsert(ctx, r.matches, m.ID, newMatchDoc(m))
}

func (r *Events) SaveTournament(ctx context.Context, t *domain.Tournament) error {
	return upsert(ctx, r.tournaments, t.ID, newTournamentDoc(t))
}

func (r *Events) DeleteMatch(ctx context.Context, id string) error {
	return remove(ctx, r.matches, id)
}

func (r *Events) DeleteTournament(ctx context.Context, id string) error {
	return remove(ctx, r.tournaments, id)
}

func (r *Events) Matches(ctx context.Context) ([]domain.Match, error) {
	cur, err := r.matches.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, domain.Storage("list matches", err)
	}
	var docs []matchDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.Storage("decode matches", err)
	}
	out := make([]domain.Match, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *Events) Tournaments(ctx context.Context) ([]domain.Tournament, error) {
	cur, err := r.tournaments.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, domain.Storage("list tournaments", err)
	}
	var docs []tournamentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.Storage("decode tournaments", err)
	}
	out := make([]domain.Tournament, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
