package ingest

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	heartbeatsAccepted     prometheus.Counter
	heartbeatsDeduplicated prometheus.Counter
	sessionsCommitted      prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		heartbeatsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stattrack",
			Subsystem: "ingest",
			Name:      "heartbeats_accepted_total",
			Help:      "Heartbeats accepted into durably persisted chunks, including duplicates.",
		}),
		heartbeatsDeduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stattrack",
			Subsystem: "ingest",
			Name:      "heartbeats_deduplicated_total",
			Help:      "Heartbeats skipped by the uniqueness constraint on (user, entity, time).",
		}),
		sessionsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stattrack",
			Subsystem: "ingest",
			Name:      "sessions_committed_total",
			Help:      "Reconstructed coding sessions persisted with their summary increment.",
		}),
	}
}

func (m *metrics) register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.heartbeatsAccepted,
		m.heartbeatsDeduplicated,
		m.sessionsCommitted,
	)
}
