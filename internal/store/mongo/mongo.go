// Package mongo implementa os repositórios duráveis sobre MongoDB.
package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/store"
)

const (
	usersCollection       = "users"
	betsCollection        = "bets"
	rankingsCollection    = "rankings"
	matchesCollection     = "matches"
	tournamentsCollection = "tournaments"
)

// EnsureIndexes cria os índices usados pelas consultas e as restrições de unicidade.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "points", Value: -1}}},
	})
	if err != nil {
		return domain.Storage("ensure user indexes", err)
	}
	_, err = db.Collection(betsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return domain.Storage("ensure bet indexes", err)
	}
	// um ranking por tipo
	_, err = db.Collection(rankingsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "type", Value: 1}}, Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return domain.Storage("ensure ranking indexes", err)
	}
	for _, c := range []string{matchesCollection, tournamentsCollection} {
		if _, err := db.Collection(c).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "status", Value: 1}},
		}); err != nil {
			return domain.Storage("ensure event indexes", err)
		}
	}
	return nil
}

// objectID converte o id; ids que não são ObjectID não existem aqui.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

type accountDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	Points    int64              `bson:"points"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         domain.Role(d.Role),
		Points:       d.Points,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// Accounts implementa store.AccountRepository sobre a coleção users.
type Accounts struct {
	c   *mongo.Collection
	now func() time.Time
}

var _ store.AccountRepository = (*Accounts)(nil)

func NewAccounts(db *mongo.Database) *Accounts {
	return &Accounts{c: db.Collection(usersCollection), now: time.Now}
}

func (r *Accounts) Create(ctx context.Context, a *domain.Account) error {
	a.Normalize()
	if err := a.Validate(); err != nil {
		return err
	}
	now := r.now().UTC()
	doc := accountDoc{
		ID:        primitive.NewObjectID(),
		Username:  a.Username,
		Email:     a.Email,
		Password:  a.PasswordHash,
		Role:      string(a.Role),
		Points:    a.Points,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.c.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicate
		}
		return domain.Storage("insert user", err)
	}
	a.ID = doc.ID.Hex()
	a.CreatedAt, a.UpdatedAt = now, now
	return nil
}

func (r *Accounts) findOne(ctx context.Context, op string, filter bson.M) (*domain.Account, error) {
	var doc accountDoc
	if err := r.c.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Storage(op, err)
	}
	return doc.toDomain(), nil
}

func (r *Accounts) Get(ctx context.Context, id string) (*domain.Account, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, "get user", bson.M{"_id": oid})
}

func (r *Accounts) FindByLogin(ctx context.Context, login string) (*domain.Account, error) {
	login = strings.TrimSpace(login)
	return r.findOne(ctx, "find user", bson.M{"$or": []bson.M{
		{"email": strings.ToLower(login)},
		{"username": login},
	}})
}

func (r *Accounts) List(ctx context.Context, f store.AccountFilter) ([]domain.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.SortByPoints {
		opts.SetSort(bson.D{{Key: "points", Value: -1}, {Key: "createdAt", Value: 1}})
	}
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := r.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, domain.Storage("list users", err)
	}
	var docs []accountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.Storage("decode users", err)
	}
	out := make([]domain.Account, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toDomain())
	}
	return out, nil
}

// AdjustBalance usa $inc condicionado a points >= -delta; a checagem e a escrita são uma só operação.
func (r *Accounts) AdjustBalance(ctx context.Context, id string, delta int64) (int64, error) {
	oid, ok := objectID(id)
	if !ok {
		return 0, domain.ErrNotFound
	}
	filter := bson.M{"_id": oid}
	if delta < 0 {
		filter["points"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"points": delta},
		"$set": bson.M{"updatedAt": r.now().UTC()},
	}
	var doc accountDoc
	err := r.c.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err == nil {
		return doc.Points, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, domain.Storage("adjust balance", err)
	}
	cur, err := r.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return cur.Points, domain.ErrInsufficientFunds
}

func (r *Accounts) SetBalance(ctx context.Context, id string, points int64) (*domain.Account, error) {
	if points < 0 {
		return nil, domain.Invalid("points", "must not be negative")
	}
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	var doc accountDoc
	err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"points": points, "updatedAt": r.now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("set balance", err)
	}
	return doc.toDomain(), nil
}

type betDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	UserID        string             `bson:"userId"`
	Type          string             `bson:"type"`
	MatchID       string             `bson:"matchId,omitempty"`
	TournamentID  string             `bson:"tournamentId,omitempty"`
	Selection     int                `bson:"selection"`
	SelectionName string             `bson:"selectionName"`
	Amount        int64              `bson:"amount"`
	Status        string             `bson:"status"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d betDoc) toDomain() *domain.Bet {
	return &domain.Bet{
		ID:            d.ID.Hex(),
		UserID:        d.UserID,
		Type:          domain.EventType(d.Type),
		MatchID:       d.MatchID,
		TournamentID:  d.TournamentID,
		Selection:     d.Selection,
		SelectionName: d.SelectionName,
		Amount:        d.Amount,
		Status:        domain.BetStatus(d.Status),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// Bets implementa store.BetRepository sobre a coleção bets.
type Bets struct {
	c   *mongo.Collection
	now func() time.Time
}

var _ store.BetRepository = (*Bets)(nil)

func NewBets(db *mongo.Database) *Bets {
	return &Bets{c: db.Collection(betsCollection), now: time.Now}
}

func (r *Bets) Create(ctx context.Context, b *domain.Bet) error {
	if err := b.Validate(); err != nil {
		return err
	}
	now := r.now().UTC()
	doc := betDoc{
		ID:            primitive.NewObjectID(),
		UserID:        b.UserID,
		Type:          string(b.Type),
		MatchID:       b.MatchID,
		TournamentID:  b.TournamentID,
		Selection:     b.Selection,
		SelectionName: b.SelectionName,
		Amount:        b.Amount,
		Status:        string(b.Status),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := r.c.InsertOne(ctx, doc); err != nil {
		return domain.Storage("insert bet", err)
	}
	b.ID = doc.ID.Hex()
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

func (r *Bets) Get(ctx context.Context, id string) (*domain.Bet, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	var doc betDoc
	if err := r.c.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Storage("get bet", err)
	}
	return doc.toDomain(), nil
}

func betQuery(f domain.BetFilter) bson.M {
	q := bson.M{}
	set := func(key, val string) {
		if val != "" {
			q[key] = val
		}
	}
	set("userId", f.UserID)
	set("status", string(f.Status))
	set("type", string(f.Type))
	set("matchId", f.MatchID)
	set("tournamentId", f.TournamentID)
	return q
}

func (r *Bets) List(ctx context.Context, f domain.BetFilter) ([]domain.Bet, error) {
	cur, err := r.c.Find(ctx, betQuery(f), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, domain.Storage("list bets", err)
	}
	var docs []betDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.Storage("decode bets", err)
	}
	out := make([]domain.Bet, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toDomain())
	}
	return out, nil
}

// updatePending aplica update somente se a aposta ainda estiver pending
// (e casar com as condições extras de where).
func (r *Bets) updatePending(ctx context.Context, op, id string, where, set bson.M) (*domain.Bet, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	filter := bson.M{"_id": oid, "status": string(domain.BetPending)}
	for k, v := range where {
		filter[k] = v
	}
	set["updatedAt"] = r.now().UTC()
	var doc betDoc
	err := r.c.FindOneAndUpdate(ctx, filter,
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.explainMiss(ctx, id)
	}
	if err != nil {
		return nil, domain.Storage(op, err)
	}
	return doc.toDomain(), nil
}

// explainMiss diz por que o filtro condicional não casou.
func (r *Bets) explainMiss(ctx context.Context, id string) error {
	b, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if b.Status == domain.BetPending {
		return domain.ErrConflict
	}
	return domain.ErrNotPending
}

func (r *Bets) Resolve(ctx context.Context, id string, status domain.BetStatus) (*domain.Bet, error) {
	if !status.Terminal() {
		return nil, domain.Invalid("status", "must be won or lost")
	}
	return r.updatePending(ctx, "resolve bet", id, nil, bson.M{"status": string(status)})
}

func (r *Bets) UpdateStake(ctx context.Context, id string, from, to int64) (*domain.Bet, error) {
	if to < domain.MinStake {
		return nil, domain.Invalid("amount", "minimum bet is %d points", domain.MinStake)
	}
	return r.updatePending(ctx, "update stake", id, bson.M{"amount": from}, bson.M{"amount": to})
}

func (r *Bets) DeletePending(ctx context.Context, id string) (*domain.Bet, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	var doc betDoc
	err := r.c.FindOneAndDelete(ctx, bson.M{"_id": oid, "status": string(domain.BetPending)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.explainMiss(ctx, id)
	}
	if err != nil {
		return nil, domain.Storage("delete bet", err)
	}
	return doc.toDomain(), nil
}
