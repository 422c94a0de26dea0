package bounty

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/weisyn/bounty/pkg/types"
)

// 操作结果标签
const (
	outcomeSuccess   = "success"
	outcomeCancelled = "cancelled"
)

// Metrics 协调器指标，nil 时所有记录方法为空操作
type Metrics struct {
	operations      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	reconciliations *prometheus.CounterVec
	watched         prometheus.Gauge
}

// NewMetrics 在 reg 上注册协调器指标，reg 为 nil 时使用独立的注册表
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		// 操作次数（按动作与结果）
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bounty",
			Name:      "operations_total",
			Help:      "Total number of bounty operations by action and outcome",
		}, []string{"action", "outcome"}),

		// 操作耗时，包含签名与确认等待
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bounty",
			Name:      "operation_duration_seconds",
			Help:      "Duration of bounty operations in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"action"}),

		// 失败后的对账结果
		reconciliations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bounty",
			Name:      "reconciliations_total",
			Help:      "Total number of post-failure reconciliations by action and result",
		}, []string{"action", "result"}),

		watched: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "bounty",
			Name:      "watched",
			Help:      "Number of bounties tracked by the watcher",
		}),
	}
}

func (m *Metrics) observe(action types.Action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(string(action), outcome).Inc()
	m.duration.WithLabelValues(string(action)).Observe(elapsed.Seconds())
}

func (m *Metrics) reconciled(action types.Action, result string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(string(action), result).Inc()
}

// SetWatched 更新被监视的赏金数量
func (m *Metrics) SetWatched(n int) {
	if m == nil {
		return
	}
	m.watched.Set(float64(n))
}

func outcomeOf(err error) string {
	if oe, ok := AsOperationError(err); ok {
		return string(oe.Kind)
	}
	if err != nil {
		return "error"
	}
	return outcomeSuccess
}
