package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/radieske/ace-putt-platform/internal/auth"
	"github.com/radieske/ace-putt-platform/internal/feed"
	"github.com/radieske/ace-putt-platform/internal/ledger"
	"github.com/radieske/ace-putt-platform/internal/store"
)

// API expõe os endpoints REST da plataforma sob /api e o websocket em /ws.
type API struct {
	Ledger      *ledger.Service
	Auth        *auth.Service
	Catalog     *feed.Catalog
	Rankings    *store.FallbackRankings
	WS          http.HandlerFunc // nil desabilita /ws
	CORSOrigins []string         // vazio = qualquer origem
	Log         *zap.Logger

	started time.Time
}

// Router monta o roteador chi com CORS, recover e log de requisições.
func (a *API) Router() http.Handler {
	if a.Log == nil {
		a.Log = zap.NewNop()
	}
	a.started = time.Now()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.requestLogger)

	r.Get("/", a.index)
	r.Get("/api/health", a.health)
	if a.WS != nil {
		r.Get("/ws", a.WS)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", a.register)
		r.Post("/login", a.login)
		r.Get("/leaderboard", a.leaderboard)
		r.Group(func(r chi.Router) {
			r.Use(a.authenticate)
			r.Get("/me", a.me)
			r.Get("/users", a.users)
			r.Patch("/users/{id}", a.setPoints)
		})
	})

	r.Route("/api/bets", func(r chi.Router) {
		r.Use(a.authenticate)
		r.Get("/", a.listBets)
		r.Post("/", a.placeBet)
		r.Get("/{id}", a.getBet)
		r.Patch("/{id}", a.patchBet)
		r.Delete("/{id}", a.cancelBet)
		r.Post("/{id}/settle", a.settleBet)
	})

	r.Route("/api/matches", func(r chi.Router) {
		r.Get("/", a.listMatches)
		r.Get("/{id}", a.getMatch)
		r.Group(func(r chi.Router) {
			r.Use(a.authenticate, a.require(auth.CapManageEvents))
			r.Post("/", a.createMatch)
			r.Patch("/{id}", a.patchMatch)
			r.Delete("/{id}", a.deleteMatch)
		})
	})

	r.Route("/api/tournaments", func(r chi.Router) {
		r.Get("/", a.listTournaments)
		r.Get("/{id}", a.getTournament)
		r.Group(func(r chi.Router) {
			r.Use(a.authenticate, a.require(auth.CapManageEvents))
			r.Post("/", a.createTournament)
			r.Patch("/{id}", a.patchTournament)
			r.Delete("/{id}", a.deleteTournament)
		})
	})

	r.Route("/api/rankings", func(r chi.Router) {
		r.Get("/", a.listRankings)
		r.Get("/{type}", a.getRanking)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(a.authenticate)
		r.With(a.require(auth.CapDashboard)).Get("/dashboard", a.dashboard)
		r.With(a.require(auth.CapManageEvents)).Delete("/matches/{id}", a.deleteMatch)
		r.With(a.require(auth.CapManageEvents)).Delete("/tournaments/{id}", a.deleteTournament)
		r.With(a.require(auth.CapManageEvents)).Put("/rankings/{type}", a.replaceRanking)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorEnvelope("endpoint not found", r.Method+" "+r.URL.Path))
	})

	return a.cors().Handler(r)
}

func (a *API) cors() *cors.Cors {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}
	if len(a.CORSOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = a.CORSOrigins
	}
	return cors.New(opts)
}

// requestLogger registra método, rota, status e latência de cada requisição
func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.Log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// authenticate exige "Authorization: Bearer <token>" e grava as claims no contexto
func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.Auth.Tokens().Parse(bearerToken(r))
		if err != nil {
			a.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	})
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// require barra quem não tem a permissão (usar depois de authenticate)
func (a *API) require(c auth.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := auth.FromContext(r.Context())
			if err := claims.Require(c); err != nil {
				a.writeError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
