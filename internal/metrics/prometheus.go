package metrics

import (
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "aniguessr"

// Prometheus is a Recorder backed by Prometheus collectors.
type Prometheus struct {
	sessions    *prom.CounterVec
	guesses     *prom.CounterVec
	loadSeconds *prom.HistogramVec
	entities    prom.Gauge
	attributes  prom.Gauge
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prom.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		sessions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Sessions that reached a terminal state",
		}, []string{"status"}),
		guesses: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "guesses_total",
			Help:      "Guesses by outcome",
		}, []string{"result"}),
		loadSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_load_seconds",
			Help:      "Catalog load duration in seconds",
			Buckets:   prom.DefBuckets,
		}, []string{"success"}),
		entities: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_entities",
			Help:      "Entities in the active catalog",
		}),
		attributes: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_attributes",
			Help:      "Distinct attribute labels in the active catalog",
		}),
	}
	for _, c := range []prom.Collector{p.sessions, p.guesses, p.loadSeconds, p.entities, p.attributes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) IncSession(status string) { p.sessions.WithLabelValues(status).Inc() }

func (p *Prometheus) IncGuess(result string) { p.guesses.WithLabelValues(result).Inc() }

func (p *Prometheus) ObserveCatalogLoad(seconds float64, success bool) {
	p.loadSeconds.WithLabelValues(strconv.FormatBool(success)).Observe(seconds)
}

func (p *Prometheus) SetCatalogSize(entities, attributes int) {
	p.entities.Set(float64(entities))
	p.attributes.Set(float64(attributes))
}
