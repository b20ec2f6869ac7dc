package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"questhub/core/events"
)

type QuestMetrics struct {
	eventsEmitted   *prometheus.CounterVec
	spacesCreated   prometheus.Counter
	questsStarted   prometheus.Counter
	questsCompleted prometheus.Counter
	rewardsMinted   prometheus.Counter
	rpcRequests     *prometheus.CounterVec
	rpcDuration     *prometheus.HistogramVec
}

var (
	questOnce     sync.Once
	questRegistry *QuestMetrics
)

func Quests() *QuestMetrics {
	questOnce.Do(func() {
		questRegistry = &QuestMetrics{
			eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "quests_events_emitted_total",
				Help: "Count of ledger events emitted by event type.",
			}, []string{"type"}),
			spacesCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "quests_spaces_created_total",
				Help: "Count of spaces created from creation credits.",
			}),
			questsStarted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "quests_started_total",
				Help: "Count of quests opened by users.",
			}),
			questsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "quests_completed_total",
				Help: "Count of quest completions attested by the verifier.",
			}),
			rewardsMinted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "quests_rewards_minted_total",
				Help: "Count of journey rewards issued.",
			}),
			rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "quests_rpc_requests_total",
				Help: "Count of RPC requests by method and outcome.",
			}, []string{"method", "outcome"}),
			rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "quests_rpc_duration_seconds",
				Help:    "RPC handler latency by method.",
				Buckets: prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			questRegistry.eventsEmitted,
			questRegistry.spacesCreated,
			questRegistry.questsStarted,
			questRegistry.questsCompleted,
			questRegistry.rewardsMinted,
			questRegistry.rpcRequests,
			questRegistry.rpcDuration,
		)
	})
	return questRegistry
}

func (m *QuestMetrics) ObserveRPC(method, outcome string, seconds float64) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.rpcRequests.WithLabelValues(method, outcome).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(seconds)
}

// Emitter returns an events.Emitter that counts emitted events per type, for
// fan-out alongside the persistent journal.
func (m *QuestMetrics) Emitter() events.Emitter {
	return metricsEmitter{m: m}
}

type metricsEmitter struct {
	m *QuestMetrics
}

func (e metricsEmitter) Emit(event events.Event) {
	if e.m == nil || event == nil {
		return
	}
	kind := event.EventType()
	e.m.eventsEmitted.WithLabelValues(kind).Inc()
	switch kind {
	case events.TypeSpaceCreated:
		e.m.spacesCreated.Inc()
	case events.TypeQuestStarted:
		e.m.questsStarted.Inc()
	case events.TypeQuestCompleted:
		e.m.questsCompleted.Inc()
	case events.TypeJourneyCompleted:
		e.m.rewardsMinted.Inc()
	}
}
