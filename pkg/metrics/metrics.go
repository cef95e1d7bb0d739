// Package metrics 提供 Prometheus helper，包含本服务的业务指标模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/positionkeeping/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// 消费的交易事件计数
	TradesConsumedTotal prometheus.Counter
	// 持仓更新计数
	PositionsUpdatedTotal prometheus.Counter
	// 持仓计算耗时
	PositionCalcDuration prometheus.Histogram
	// 乐观锁冲突重试计数
	SaveConflictsTotal prometheus.Counter
	// 死信消息计数
	DeadLetteredTotal prometheus.Counter
	// 缓存刷新失败计数
	CacheRefreshFailuresTotal prometheus.Counter
	// 事件发布失败计数
	PublishFailuresTotal prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		TradesConsumedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "trades_consumed_total",
			Help:      "Total trade events consumed",
		}),
		PositionsUpdatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "positions_updated_total",
			Help:      "Total positions updated",
		}),
		PositionCalcDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "position_calc_duration_seconds",
			Help:      "Position update duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		SaveConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "save_conflicts_total",
			Help:      "Total optimistic locking conflicts on save",
		}),
		DeadLetteredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "dead_lettered_total",
			Help:      "Total messages routed to the dead letter topic",
		}),
		CacheRefreshFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "cache_refresh_failures_total",
			Help:      "Total position cache refresh failures",
		}),
		PublishFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "publish_failures_total",
			Help:      "Total position event publish failures",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	metrics := []prometheus.Collector{
		m.TradesConsumedTotal,
		m.PositionsUpdatedTotal,
		m.PositionCalcDuration,
		m.SaveConflictsTotal,
		m.DeadLetteredTotal,
		m.CacheRefreshFailuresTotal,
		m.PublishFailuresTotal,
	}

	for _, metric := range metrics {
		if err := prometheus.DefaultRegisterer.Register(metric); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}
