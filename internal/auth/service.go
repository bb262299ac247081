package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/store"
)

// LeaderboardSize limita o ranking público.
const LeaderboardSize = 100

// Accounts é o subconjunto do seletor de contas usado pela autenticação.
type Accounts interface {
	Create(ctx context.Context, a *domain.Account) (store.Backend, error)
	Get(ctx context.Context, id string) (*domain.Account, store.Backend, error)
	FindByLogin(ctx context.Context, login string) (*domain.Account, store.Backend, error)
	List(ctx context.Context, f store.AccountFilter) ([]domain.Account, store.Backend, error)
	SetBalance(ctx context.Context, id string, points int64) (*domain.Account, store.Backend, error)
}

type Service struct {
	accounts       Accounts
	tokens         *Tokens
	startingPoints int64
	log            *zap.Logger
}

// NewService monta o serviço de contas. startingPoints <= 0 usa domain.StartingPoints.
func NewService(accounts Accounts, tokens *Tokens, startingPoints int64, log *zap.Logger) *Service {
	if startingPoints <= 0 {
		startingPoints = domain.StartingPoints
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{accounts: accounts, tokens: tokens, startingPoints: startingPoints, log: log}
}

// Tokens expõe o emissor para o middleware HTTP.
func (s *Service) Tokens() *Tokens { return s.tokens }

// Session é a conta autenticada com seu token.
type Session struct {
	Account   domain.Account
	Token     string
	ExpiresAt time.Time
	Source    store.Backend
}

type RegisterInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type pointsInput struct {
	Points *int64 `json:"points" validate:"required,gte=0"`
}

type loginInput struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register cria a conta com o saldo inicial e já devolve o token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Username, in.Email = strings.TrimSpace(in.Username), strings.TrimSpace(in.Email)
	if err := domain.Check(in); err != nil {
		return nil, err
	}
	acc := domain.Account{
		Username: in.Username,
		Email:    in.Email,
		Role:     domain.RoleUser,
		Points:   s.startingPoints,
	}
	acc.Normalize()
	if err := acc.Validate(); err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	acc.PasswordHash = hash

	source, err := s.accounts.Create(ctx, &acc)
	if errors.Is(err, domain.ErrDuplicate) {
		return nil, fmt.Errorf("%w: email or username already registered", domain.ErrDuplicate)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("account registered",
		zap.String("userId", acc.ID),
		zap.String("username", acc.Username),
		zap.String("source", string(source)),
	)
	return s.session(&acc, source)
}

// Login aceita email ou username.
func (s *Service) Login(ctx context.Context, login, password string) (*Session, error) {
	login = strings.TrimSpace(login)
	if err := domain.Check(loginInput{Login: login, Password: password}); err != nil {
		return nil, err
	}
	acc, source, err := s.accounts.FindByLogin(ctx, login)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !CheckPassword(acc.PasswordHash, password)) {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("login", zap.String("userId", acc.ID), zap.String("source", string(source)))
	return s.session(acc, source)
}

func (s *Service) session(acc *domain.Account, source store.Backend) (*Session, error) {
	token, exp, err := s.tokens.Issue(acc)
	if err != nil {
		return nil, err
	}
	return &Session{Account: *acc, Token: token, ExpiresAt: exp, Source: source}, nil
}

// Me devolve a conta do token.
func (s *Service) Me(ctx context.Context, c *Claims) (*domain.Account, store.Backend, error) {
	if c == nil {
		return nil, "", fmt.Errorf("%w: authentication required", domain.ErrUnauthorized)
	}
	return s.accounts.Get(ctx, c.UserID)
}

// Users lista todas as contas (mais recentes primeiro); exige CapReadUsers.
func (s *Service) Users(ctx context.Context, c *Claims) ([]domain.Account, store.Backend, error) {
	if err := c.Require(CapReadUsers); err != nil {
		return nil, "", err
	}
	return s.accounts.List(ctx, store.AccountFilter{})
}

// Leaderboard é o ranking público por pontos.
func (s *Service) Leaderboard(ctx context.Context) ([]domain.LeaderboardRow, store.Backend, error) {
	accs, source, err := s.accounts.List(ctx, store.AccountFilter{SortByPoints: true, Limit: LeaderboardSize})
	if err != nil {
		return nil, source, err
	}
	rows := make([]domain.LeaderboardRow, 0, len(accs))
	for i, a := range accs {
		rows = append(rows, domain.LeaderboardRow{
			Rank:     i + 1,
			Username: a.Username,
			Email:    a.Email,
			Points:   a.Points,
			Role:     a.Role,
		})
	}
	return rows, source, nil
}

// SetPoints sobrescreve o saldo; só o próprio dono pode.
func (s *Service) SetPoints(ctx context.Context, c *Claims, id string, points *int64) (*domain.Account, store.Backend, error) {
	if c == nil {
		return nil, "", fmt.Errorf("%w: authentication required", domain.ErrUnauthorized)
	}
	if c.UserID != id {
		return nil, "", fmt.Errorf("%w: you can only update your own points", domain.ErrForbidden)
	}
	if err := domain.Check(pointsInput{Points: points}); err != nil {
		return nil, "", err
	}
	acc, source, err := s.accounts.SetBalance(ctx, id, *points)
	if err != nil {
		return nil, source, err
	}
	s.log.Info("points overwritten", zap.String("userId", id), zap.Int64("points", *points))
	return acc, source, nil
}

// DemoUser é uma conta de demonstração criada no boot.
type DemoUser struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// DemoUsers são as contas padrão do backend em memória.
var DemoUsers = []DemoUser{
	{Username: "admin", Email: "admin@aceputt.com", Password: "admin123", Role: domain.RoleAdmin},
	{Username: "demo", Email: "demo@aceputt.com", Password: "demo123", Role: domain.RoleUser},
}

// SeedDemoUsers grava as contas de demonstração direto no repositório
// (normalmente o de memória). Contas já existentes são ignoradas.
func SeedDemoUsers(ctx context.Context, repo store.AccountRepository, points int64, log *zap.Logger) (int, error) {
	if points <= 0 {
		points = domain.StartingPoints
	}
	created := 0
	for _, u := range DemoUsers {
		hash, err := HashPassword(u.Password)
		if err != nil {
			return created, err
		}
		acc := domain.Account{
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: hash,
			Role:         u.Role,
			Points:       points,
		}
		err = repo.Create(ctx, &acc)
		if errors.Is(err, domain.ErrDuplicate) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", u.Username, err)
		}
		created++
	}
	if log != nil {
		log.Info("demo users seeded", zap.Int("created", created))
	}
	return created, nil
}
