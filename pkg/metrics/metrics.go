package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Коллекторы регистрируются в default registry при импорте пакета.
var (
	TicksIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "digitbot",
		Subsystem: "feed",
		Name:      "ticks_total",
		Help:      "Ticks appended to digit history.",
	})
	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "digitbot",
		Subsystem: "feed",
		Name:      "decode_errors_total",
		Help:      "Feed frames that failed to decode.",
	})
	FeedReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "digitbot",
		Subsystem: "feed",
		Name:      "reconnects_total",
		Help:      "Feed reconnect attempts after a failure.",
	})
	FeedConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "digitbot",
		Subsystem: "feed",
		Name:      "connected",
		Help:      "1 while the feed is subscribed.",
	})
	HistoryLength = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "digitbot",
		Subsystem: "history",
		Name:      "length",
		Help:      "Digits currently held in history.",
	})
	ActiveBots = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "digitbot",
		Subsystem: "bots",
		Name:      "active",
		Help:      "Running bot instances.",
	})
	Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "digitbot",
		Subsystem: "bots",
		Name:      "evaluations_total",
		Help:      "Strategy evaluations.",
	}, []string{"strategy"})
	SignalsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "digitbot",
		Subsystem: "bots",
		Name:      "signals_total",
		Help:      "Signals produced by strategies.",
	}, []string{"strategy", "action"})
	SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "digitbot",
		Subsystem: "sink",
		Name:      "errors_total",
		Help:      "Signal sink publish failures.",
	}, []string{"sink"})
	EvalDurationSec = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "digitbot",
		Subsystem: "bots",
		Name:      "evaluation_seconds",
		Help:      "Strategy evaluation latency.",
		Buckets:   []float64{.00001, .0001, .001, .01, .1},
	}, []string{"strategy"})
)
