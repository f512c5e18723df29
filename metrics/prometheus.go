// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package metrics

import (
	"net/http"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wikipath"

// PrometheusRecorder implements Recorder on a dedicated registry.
type PrometheusRecorder struct {
	registry      *prom.Registry
	storeTotal    *prom.CounterVec
	storeSeconds  *prom.HistogramVec
	searchTotal   *prom.CounterVec
	searchSeconds *prom.HistogramVec
	ticks         *prom.CounterVec
	cacheLookups  *prom.CounterVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates a recorder with its own registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prom.NewRegistry()
	factory := promauto.With(registry)
	return &PrometheusRecorder{
		registry: registry,
		storeTotal: factory.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "store_ops_total",
			Help:      "Total number of link store operations",
		}, []string{"op", "success"}),
		storeSeconds: factory.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "store_op_seconds",
			Help:      "Link store operation duration in seconds",
			Buckets:   prom.DefBuckets,
		}, []string{"op", "success"}),
		searchTotal: factory.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of search sessions by outcome",
		}, []string{"outcome"}),
		searchSeconds: factory.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "search_seconds",
			Help:      "Search session duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
		}, []string{"outcome"}),
		ticks: factory.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of node expansions per direction",
		}, []string{"direction"}),
		cacheLookups: factory.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache and result",
		}, []string{"cache", "hit"}),
	}
}

func (p *PrometheusRecorder) IncStoreOpTotal(op string, success bool) {
	p.storeTotal.WithLabelValues(op, strconv.FormatBool(success)).Inc()
}

func (p *PrometheusRecorder) ObserveStoreOpSeconds(op string, success bool, seconds float64) {
	p.storeSeconds.WithLabelValues(op, strconv.FormatBool(success)).Observe(seconds)
}

func (p *PrometheusRecorder) IncSearchTotal(outcome string) {
	p.searchTotal.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveSearchSeconds(outcome string, seconds float64) {
	p.searchSeconds.WithLabelValues(outcome).Observe(seconds)
}

func (p *PrometheusRecorder) IncTicks(direction string) {
	p.ticks.WithLabelValues(direction).Inc()
}

func (p *PrometheusRecorder) IncCacheLookup(cache string, hit bool) {
	p.cacheLookups.WithLabelValues(cache, strconv.FormatBool(hit)).Inc()
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

// Handler returns an HTTP handler exposing the recorder's metrics.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// EnablePrometheus installs a fresh PrometheusRecorder as the default
// recorder and returns it.
func EnablePrometheus() *PrometheusRecorder {
	p := NewPrometheusRecorder()
	SetRecorder(p)
	return p
}
