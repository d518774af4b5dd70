package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ethanadams/sigv4probe/internal/config"
	"github.com/ethanadams/sigv4probe/internal/jitter"
	"github.com/ethanadams/sigv4probe/internal/probe"
	"github.com/robfig/cron/v3"
)

// Scheduler manages scheduled probe execution
type Scheduler struct {
	cron    *cron.Cron
	runners map[string]probe.Runner
	config  *config.Config
}

// New creates a new scheduler
func New(cfg *config.Config, runners map[string]probe.Runner) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		runners: runners,
		config:  cfg,
	}
}

// Start begins scheduling probes
func (s *Scheduler) Start(ctx context.Context) error {
	enabledCount := 0

	for _, p := range s.config.Probes {
		if !p.Enabled {
			log.Printf("Skipping disabled probe: %s", p.Name)
			continue
		}

		probeCopy := p

		executorType := probeCopy.GetExecutor()
		runner, ok := s.runners[executorType]
		if !ok {
			log.Printf("Skipping probe %s: unknown executor type '%s'", probeCopy.Name, executorType)
			continue
		}

		probeType := "single-step"
		if len(probeCopy.Steps) > 1 {
			probeType = fmt.Sprintf("%d-step", len(probeCopy.Steps))
		}

		effectiveJitter := probeCopy.GetProbeJitter(s.config.Jitter)
		var maxJitter time.Duration
		if effectiveJitter.IsEnabled() {
			scheduleInterval, _ := config.ParseCronInterval(probeCopy.Schedule)
			maxJitter, _ = effectiveJitter.ParseMaxJitter(scheduleInterval)
		}

		probeMaxJitter := maxJitter

		entryID, err := s.cron.AddFunc(p.Schedule, func() {
			if probeMaxJitter > 0 {
				if err := jitter.Apply(ctx, probeMaxJitter, fmt.Sprintf("probe %s", probeCopy.Name)); err != nil {
					log.Printf("Probe %s jitter interrupted: %v", probeCopy.Name, err)
					return
				}
			}

			log.Printf("Scheduled execution: %s (executor: %s)", probeCopy.Name, executorType)
			if err := runner.RunProbe(ctx, &probeCopy); err != nil {
				log.Printf("Probe %s failed: %v", probeCopy.Name, err)
			}
		})

		if err != nil {
			return err
		}

		enabledCount++
		if probeMaxJitter > 0 {
			log.Printf("Scheduled probe: %s (%s, executor: %s, schedule: %s, jitter: max %v, entry ID: %d)",
				p.Name, probeType, executorType, p.Schedule, probeMaxJitter, entryID)
		} else {
			log.Printf("Scheduled probe: %s (%s, executor: %s, schedule: %s, entry ID: %d)",
				p.Name, probeType, executorType, p.Schedule, entryID)
		}
	}

	if enabledCount == 0 {
		log.Println("Warning: No probes enabled in configuration")
	} else {
		log.Printf("Successfully scheduled %d probe(s)", enabledCount)
	}

	s.cron.Start()
	log.Println("Scheduler started")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

// RunNow immediately runs a specific probe (useful for manual testing)
func (s *Scheduler) RunNow(ctx context.Context, probeName string) error {
	for _, p := range s.config.Probes {
		if p.Name == probeName {
			executorType := p.GetExecutor()
			runner, ok := s.runners[executorType]
			if !ok {
				return fmt.Errorf("unknown executor type '%s' for probe %s", executorType, probeName)
			}
			log.Printf("Running probe on demand: %s (executor: %s)", probeName, executorType)
			return runner.RunProbe(ctx, &p)
		}
	}
	return fmt.Errorf("probe not found: %s", probeName)
}
