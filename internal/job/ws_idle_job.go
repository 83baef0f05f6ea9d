package job

import (
	"context"
	log "log/slog"
	"time"
)

// IdleSweeper 由 ws.Registry 实现
type IdleSweeper interface {
	SweepIdle(ctx context.Context) int
	OnlineCount() int
}

// WsIdleJob 周期性检查空闲长连接，是否驱逐由 Registry 的空闲策略决定
type WsIdleJob struct {
	registry IdleSweeper
	timeout  time.Duration
}

func NewWsIdleJob(registry IdleSweeper) *WsIdleJob {
	return &WsIdleJob{
		registry: registry,
		timeout:  30 * time.Second,
	}
}

func (s *WsIdleJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	evicted := s.registry.SweepIdle(ctx)
	if evicted > 0 {
		log.Info("ws idle sweep finished", "evicted", evicted, "online", s.registry.OnlineCount())
		return
	}
	log.Debug("ws idle sweep finished", "online", s.registry.OnlineCount())
}
