package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a unit of background work
type Job interface {
	Name() string
	Run() error
}

// Scheduler runs jobs on cron schedules
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Logger
}

// New creates a scheduler. A job still running when its next tick fires is skipped.
func New(log *logrus.Logger) *Scheduler {
	cronLog := cron.PrintfLogger(log.WithField("component", "cron"))
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		log: log,
	}
}

// Schedule registers job under a five-field cron spec
func (s *Scheduler) Schedule(spec string, job Job) error {
	if _, err := s.cron.AddJob(spec, cron.FuncJob(func() { _ = s.run(job) })); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", job.Name(), err)
	}
	s.log.Infof("Job %s scheduled at %q", job.Name(), spec)
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunNow runs job once outside its schedule
func (s *Scheduler) RunNow(job Job) error {
	return s.run(job)
}

func (s *Scheduler) run(job Job) error {
	start := time.Now()
	err := job.Run()
	entry := s.log.WithFields(logrus.Fields{
		"job":      job.Name(),
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.Errorf("Job failed: %v", err)
		return err
	}
	entry.Info("Job finished")
	return nil
}
