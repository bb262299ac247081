package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/radieske/ace-putt-platform/internal/domain"
	"github.com/radieske/ace-putt-platform/internal/store"
)

// Collectors agrupa as métricas de negócio da API.
// Implementa store.Observer e os gravadores usados por ledger, feed e ws.
type Collectors struct {
	storeOps       *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	betsPlaced     *prometheus.CounterVec
	settlements    *prometheus.CounterVec
	pointsCredited prometheus.Counter
	feedTicks      prometheus.Counter
	eventsFinished *prometheus.CounterVec
	wsConnections  prometheus.Gauge
}

var _ store.Observer = (*Collectors)(nil)

// NewCollectors registra as métricas em reg (prometheus.DefaultRegisterer no main,
// prometheus.NewRegistry() em testes).
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "store_operations_total", Help: "operações por entidade, op e backend que atendeu",
		}, []string{"entity", "op", "backend"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "store_fallbacks_total", Help: "desvios do durável para memória por motivo",
		}, []string{"entity", "op", "reason"}),
		betsPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bets_placed_total", Help: "apostas criadas por tipo de evento",
		}, []string{"type"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bets_settled_total", Help: "liquidações por resultado",
		}, []string{"result"}),
		pointsCredited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "points_credited_total", Help: "pontos creditados em apostas vencedoras",
		}),
		feedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feed_ticks_total", Help: "ciclos do simulador de eventos",
		}),
		eventsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_events_finished_total", Help: "eventos encerrados por tipo",
		}, []string{"type"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ws_active_connections", Help: "conexões websocket ativas",
		}),
	}
	reg.MustRegister(c.storeOps, c.fallbacks, c.betsPlaced, c.settlements,
		c.pointsCredited, c.feedTicks, c.eventsFinished, c.wsConnections)
	return c
}

func (c *Collectors) Served(entity, op string, b store.Backend) {
	c.storeOps.WithLabelValues(entity, op, string(b)).Inc()
}

func (c *Collectors) FellBack(entity, op, reason string) {
	c.fallbacks.WithLabelValues(entity, op, reason).Inc()
}

func (c *Collectors) BetPlaced(t domain.EventType) {
	c.betsPlaced.WithLabelValues(string(t)).Inc()
}

func (c *Collectors) BetSettled(status domain.BetStatus, credited int64) {
	c.settlements.WithLabelValues(string(status)).Inc()
	if credited > 0 {
		c.pointsCredited.Add(float64(credited))
	}
}

func (c *Collectors) FeedTick() { c.feedTicks.Inc() }

func (c *Collectors) EventFinished(t domain.EventType) {
	c.eventsFinished.WithLabelValues(string(t)).Inc()
}

// WSConnections soma delta ao gauge (+1 conecta, -1 desconecta).
func (c *Collectors) WSConnections(delta int) {
	c.wsConnections.Add(float64(delta))
}
