package studio

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"anime-studio-server/modules/common/model"
)

const metricsNamespace = "anime_studio"

// Metrics - 모드별 시도 카운터 (Prometheus로도 노출)
type Metrics struct {
	mutex     sync.RWMutex
	startTime time.Time
	modes     map[model.Mode]*ModeMetrics

	connections ConnectionCounter

	registry        *prometheus.Registry
	attemptsTotal   *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// ConnectionCounter - 시도 카운터와 함께 보고할 페이지 연결 수
type ConnectionCounter interface {
	ClientCount() int
	TotalConnections() int
}

type ModeMetrics struct {
	Started   int `json:"started"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	KeyErrors int `json:"keyErrors"`
}

// NewMetrics - registry에 collector 등록 (nil이면 전용 registry 생성)
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		startTime: time.Now(),
		modes: map[model.Mode]*ModeMetrics{
			model.ModeImage: {},
			model.ModeVideo: {},
		},
		registry: registry,
		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "generation",
				Name:      "attempts_total",
				Help:      "Generation attempts by mode and outcome",
			},
			[]string{"mode", "outcome"}, // outcome: started, succeeded, failed, api_key_error
		),
		attemptDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "generation",
				Name:      "attempt_duration_seconds",
				Help:      "Time from submission to outcome",
				Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"mode"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "generation",
				Name:      "in_flight",
				Help:      "Attempts currently running",
			},
		),
	}
	registry.MustRegister(m.attemptsTotal, m.attemptDuration, m.inFlight)
	return m
}

func (m *Metrics) started(mode model.Mode) {
	m.attemptsTotal.WithLabelValues(string(mode), "started").Inc()
	m.inFlight.Inc()
	m.update(mode, func(mm *ModeMetrics) { mm.Started++ })
}

func (m *Metrics) succeeded(mode model.Mode, elapsed time.Duration) {
	m.finished(mode, "succeeded", elapsed)
	m.update(mode, func(mm *ModeMetrics) { mm.Succeeded++ })
}

func (m *Metrics) failed(mode model.Mode, keyError bool, elapsed time.Duration) {
	outcome := "failed"
	if keyError {
		outcome = "api_key_error"
	}
	m.finished(mode, outcome, elapsed)
	m.update(mode, func(mm *ModeMetrics) {
		mm.Failed++
		if keyError {
			mm.KeyErrors++
		}
	})
}

func (m *Metrics) finished(mode model.Mode, outcome string, elapsed time.Duration) {
	m.attemptsTotal.WithLabelValues(string(mode), outcome).Inc()
	m.attemptDuration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
	m.inFlight.Dec()
}

func (m *Metrics) update(mode model.Mode, fn func(*ModeMetrics)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	mm, ok := m.modes[mode]
	if !ok {
		mm = &ModeMetrics{}
		m.modes[mode] = mm
	}
	fn(mm)
}

// Snapshot - 모드별 카운터 복사본
func (m *Metrics) Snapshot() map[model.Mode]ModeMetrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := make(map[model.Mode]ModeMetrics, len(m.modes))
	for mode, mm := range m.modes {
		out[mode] = *mm
	}
	return out
}

func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// PrometheusHandler - registry를 Prometheus 텍스트 포맷으로 노출
func (m *Metrics) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TrackConnections - 연결 수를 JSON 메트릭과 websocket gauge로 보고
func (m *Metrics) TrackConnections(c ConnectionCounter) {
	m.mutex.Lock()
	m.connections = c
	m.mutex.Unlock()

	m.registry.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "websocket",
				Name:      "clients",
				Help:      "Pages currently connected",
			},
			func() float64 { return float64(c.ClientCount()) },
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "websocket",
				Name:      "connections_total",
				Help:      "Pages connected since start-up",
			},
			func() float64 { return float64(c.TotalConnections()) },
		),
	)
}

// Connections - 연결 수 반환 (TrackConnections 전에는 ok=false)
func (m *Metrics) Connections() (clients, total int, ok bool) {
	m.mutex.RLock()
	c := m.connections
	m.mutex.RUnlock()
	if c == nil {
		return 0, 0, false
	}
	return c.ClientCount(), c.TotalConnections(), true
}
