package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/ace-putt-platform/internal/domain"
)

// ProviderEvents é o payload de GET {PROVIDER_URL}/v1/events.
type ProviderEvents struct {
	Matches     []domain.Match      `json:"matches"`
	Tournaments []domain.Tournament `json:"tournaments"`
}

// Empty indica que o provedor não trouxe nada aproveitável.
func (p *ProviderEvents) Empty() bool {
	return p == nil || (len(p.Matches) == 0 && len(p.Tournaments) == 0)
}

// ProviderClient busca eventos num provedor externo de dados esportivos.
type ProviderClient struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewProviderClient(baseURL string, log *zap.Logger) *ProviderClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProviderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
		log:     log,
	}
}

// Fetch devolve nil quando o provedor não está configurado, falha ou vem vazio:
// o chamador usa as fixtures nesse caso.
func (p *ProviderClient) Fetch(ctx context.Context) *ProviderEvents {
	if p == nil || p.baseURL == "" {
		return nil
	}
	events, err := p.fetch(ctx)
	if err != nil {
		p.log.Warn("provider unavailable, using fixtures", zap.String("url", p.baseURL), zap.Error(err))
		return nil
	}
	if events.Empty() {
		p.log.Warn("provider returned no events, using fixtures", zap.String("url", p.baseURL))
		return nil
	}
	return events
}

func (p *ProviderClient) fetch(ctx context.Context) (*ProviderEvents, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/events", nil)
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider status %d", resp.StatusCode)
	}
	var out ProviderEvents
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode provider events: %w", err)
	}
	return &out, nil
}

// ProviderHandler serve o catálogo no formato que ProviderClient consome
// (usado pelo provider-simulator).
func ProviderHandler(c *Catalog, served func()) http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/events", func(w http.ResponseWriter, _ *http.Request) {
		if served != nil {
			served()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ProviderEvents{
			Matches:     c.Matches(MatchFilter{}),
			Tournaments: c.Tournaments(TournamentFilter{}),
		})
	})
	return r
}
