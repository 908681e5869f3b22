package service

import (
	"context"
	"log"
	"sync"
	"time"

	"finrecon/internal/port"
)

// ReconQueueConfig holds settings for the reconciliation queue worker.
type ReconQueueConfig struct {
	PollInterval time.Duration
	Concurrency  int
	RunTimeout   time.Duration
}

// ReconQueueWorker polls for queued runs and dispatches them for matching.
type ReconQueueWorker struct {
	runRepo      port.RunRepository
	reconService ReconService
	cfg          ReconQueueConfig
	wg           sync.WaitGroup
}

// NewReconQueueWorker creates a new ReconQueueWorker.
func NewReconQueueWorker(runRepo port.RunRepository, reconService ReconService, cfg ReconQueueConfig) *ReconQueueWorker {
	return &ReconQueueWorker{
		runRepo:      runRepo,
		reconService: reconService,
		cfg:          cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight matching goroutines have finished.
func (w *ReconQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("reconQueueWorker: started (poll=%s, concurrency=%d, runTimeout=%s)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.RunTimeout)

	for {
		select {
		case <-ctx.Done():
			log.Printf("reconQueueWorker: shutting down, waiting for in-flight runs...")
			w.wg.Wait()
			log.Printf("reconQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			runs, err := w.runRepo.ClaimQueued(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					// Context canceled during poll, exit via the next select
					continue
				}
				log.Printf("reconQueueWorker: ClaimQueued error: %v", err)
				continue
			}

			for i := range runs {
				run := runs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight runs complete even during shutdown.
					runCtx, cancel := context.WithTimeout(context.Background(), w.cfg.RunTimeout)
					defer cancel()

					log.Printf("reconQueueWorker: dispatching run %s (period %s)", run.ID, run.ReturnPeriod)
					if err := w.reconService.Execute(runCtx, run.ID); err != nil {
						log.Printf("reconQueueWorker: run %s failed: %v", run.ID, err)
					}
				}()
			}
		}
	}
}
