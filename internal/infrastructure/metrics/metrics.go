package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics defines our Prometheus metrics for the fan-out path.
type Metrics struct {
	EventsPublished *prometheus.CounterVec
	EventsConsumed  *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec
	PushesDelivered prometheus.Counter
	PushFailures    prometheus.Counter
	ActiveEmitters  prometheus.Gauge
	ActiveConsumers prometheus.Gauge
	AlarmsSwept     prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the collectors on reg; pass a fresh registry to keep
// collector names from colliding across instances.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "petmeet_events_published_total",
			Help: "Events published to the broker, by exchange.",
		}, []string{"exchange"}),
		EventsConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "petmeet_events_consumed_total",
			Help: "Events consumed from the broker, by kind.",
		}, []string{"kind"}),
		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "petmeet_events_dropped_total",
			Help: "Events dropped as undecodable, by kind.",
		}, []string{"kind"}),
		PushesDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "petmeet_pushes_delivered_total",
			Help: "SSE frames successfully written to emitters.",
		}),
		PushFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "petmeet_push_failures_total",
			Help: "SSE frame writes that failed and pruned an emitter.",
		}),
		ActiveEmitters: factory.NewGauge(prometheus.GaugeOpts{
			Name: "petmeet_active_emitters",
			Help: "Live streaming connections in the emitter registry.",
		}),
		ActiveConsumers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "petmeet_active_consumers",
			Help: "Live broker subscriptions in the consumer registry.",
		}),
		AlarmsSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "petmeet_alarms_swept_total",
			Help: "Alarms removed by the retention sweeper.",
		}),
	}
}
