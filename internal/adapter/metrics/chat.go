package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics tracks calls made to the chat platform API.
type ChatMetrics struct {
	Requests *prometheus.CounterVec
	Retries  *prometheus.CounterVec
}

// NewChatMetrics creates and registers chat API metrics on the given registry.
func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total number of chat API calls, by operation and result.",
		}, []string{"operation", "result"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "retries_total",
			Help:      "Total number of retried chat API calls, by operation.",
		}, []string{"operation"}),
	}

	reg.MustRegister(m.Requests, m.Retries)
	return m
}
