package prometheus

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/squareup/shardmerge/conf"
	"github.com/squareup/shardmerge/errors"
	"github.com/squareup/shardmerge/metrics"
)

// Factory creates counters in its own registry, so several engines can live in one process, and exports that
// registry over HTTP between Start and Stop.
type Factory struct {
	config     conf.Config
	lock       sync.Mutex
	registry   *prometheus.Registry
	httpServer *http.Server
	started    bool
}

func NewFactory(config conf.Config) *Factory {
	registry := prometheus.NewRegistry()
	return &Factory{config: config, registry: registry}
}

var _ metrics.Factory = &Factory{}

func (f *Factory) CreateCounter(name string, description string) (metrics.Counter, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: description,
	})
	if err := f.registry.Register(counter); err != nil {
		return nil, errors.WithStack(err)
	}
	return &Counter{pCounter: counter}, nil
}

func (f *Factory) CreateCounterVec(name string, description string, labelNames ...string) (metrics.CounterVec, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: description,
	}, labelNames)
	if err := f.registry.Register(vec); err != nil {
		return nil, errors.WithStack(err)
	}
	return &CounterVec{pVec: vec}, nil
}

// Handler serves the factory's registry in the Prometheus exposition format.
func (f *Factory) Handler() http.Handler {
	return promhttp.HandlerFor(f.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry, mostly for tests.
func (f *Factory) Gatherer() prometheus.Gatherer {
	return f.registry
}

func (f *Factory) Start() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.started {
		return errors.New("already started")
	}
	metricsListenAddr := conf.DefaultMetricsHTTPListenAddr
	if f.config.MetricsHTTPListenAddr != "" {
		metricsListenAddr = f.config.MetricsHTTPListenAddr
	}
	f.httpServer = &http.Server{Addr: metricsListenAddr, Handler: f.Handler()}
	f.started = true
	go func(srv *http.Server) {
		log.Debugf("starting prometheus http server on address %s", metricsListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("prometheus http export server failed to listen %v", err)
		}
	}(f.httpServer)
	return nil
}

func (f *Factory) Stop() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.started {
		return errors.New("not started")
	}
	f.started = false
	if f.httpServer != nil {
		return f.httpServer.Close()
	}
	return nil
}

type Counter struct {
	pCounter prometheus.Counter
}

func (c *Counter) Inc() {
	c.pCounter.Inc()
}

func (c *Counter) Add(delta float64) {
	c.pCounter.Add(delta)
}

type CounterVec struct {
	pVec *prometheus.CounterVec
}

func (c *CounterVec) WithLabelValues(labelValues ...string) metrics.Counter {
	return &Counter{pCounter: c.pVec.WithLabelValues(labelValues...)}
}
