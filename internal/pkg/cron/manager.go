package cron

import (
	"Herald/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

const defaultSweepSpec = "@every 1m"

type Manager struct {
	engine    *cron.Cron
	sweepSpec string
	wsIdleJob *job.WsIdleJob
}

func NewCronManager(sweepSpec string, wsIdleJob *job.WsIdleJob) *Manager {
	if sweepSpec == "" {
		sweepSpec = defaultSweepSpec
	}
	return &Manager{
		engine:    cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		sweepSpec: sweepSpec,
		wsIdleJob: wsIdleJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.sweepSpec, cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(s.wsIdleJob)); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Entries() int {
	return len(s.engine.Entries())
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动", "sweepSpec", s.sweepSpec)
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
