// Package scheduler triggers ingestion cycles on a cron spec or on demand.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/repository"
	"github.com/connecta/gig-scraper/internal/usecase"
)

// Scheduler wraps robfig/cron around an ingestion cycle.
type Scheduler struct {
	cron      *cron.Cron
	ingestion usecase.Ingestion
	spec      string
	logger    *zap.Logger

	ctx context.Context
	wg  sync.WaitGroup
}

// New creates a scheduler for spec, a standard five-field cron expression.
func New(ingestion usecase.Ingestion, spec string, logger *zap.Logger) *Scheduler {
	cronLog := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog))),
		ingestion: ingestion,
		spec:      spec,
		logger:    logger,
		ctx:       context.Background(),
	}
}

// Start registers the job and starts the cron loop. runImmediately also fires
// one cycle right away so the feed is populated without waiting for a tick.
func (s *Scheduler) Start(ctx context.Context, runImmediately bool) error {
	s.ctx = ctx
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx, "cron") }); err != nil {
		return fmt.Errorf("cron.AddFunc %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))

	if runImmediately {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(ctx, "startup")
		}()
	}
	return nil
}

// RunNow starts a cycle in the background. It returns ErrRunInProgress when a
// cycle is already running.
func (s *Scheduler) RunNow() error {
	if s.ingestion.IsRunning() {
		return repository.ErrRunInProgress
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(s.ctx, "manual")
	}()
	return nil
}

func (s *Scheduler) IsRunning() bool { return s.ingestion.IsRunning() }

// Stop halts the cron loop and waits for in-flight cycles to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// run executes one cycle. Panics are recovered here so startup and manual
// cycles, which bypass the cron chain, cannot take the process down.
func (s *Scheduler) run(ctx context.Context, trigger string) {
	log := s.logger.With(zap.String("trigger", trigger))
	defer func() {
		if r := recover(); r != nil {
			log.Error("ingestion cycle panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	log.Info("ingestion cycle triggered")
	err := s.ingestion.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrRunInProgress):
		log.Warn("ingestion cycle skipped, previous cycle still running")
	case errors.Is(err, context.Canceled):
		log.Info("ingestion cycle cancelled")
	default:
		log.Error("ingestion cycle failed", zap.Error(err))
	}
}
