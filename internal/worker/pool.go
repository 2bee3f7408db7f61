// Package worker provides background preview analysis for matched tracks.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haneul-labs/moodshift/internal/core/ports"
)

// Job asks for one track preview to be analyzed.
type Job struct {
	TrackKey   string
	PreviewURL string
}

// Pool manages background workers that download matched-track previews and
// persist their RMS energy. The queue is bounded; a full queue drops jobs
// rather than blocking the request path.
type Pool struct {
	store ports.RecommendationStore
	log   *logrus.Logger
	jobs  chan Job
	wg    sync.WaitGroup
}

// NewPool creates a worker pool with the given queue size.
func NewPool(store ports.RecommendationStore, queueSize int, log *logrus.Logger) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{store: store, log: log, jobs: make(chan Job, queueSize)}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop waits for workers to finish after closing the queue.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) {
	select {
	case p.jobs <- job:
	default:
		p.log.WithField("track", job.TrackKey).Warn("preview queue full, dropping job")
	}
}

func (p *Pool) processJob(job Job) {
	if job.PreviewURL == "" {
		return
	}

	energy, err := AnalyzePreviewFunc(job.PreviewURL)
	if err != nil {
		p.log.WithError(err).WithField("track", job.TrackKey).Warn("preview analysis failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.store.RecordPreviewEnergy(ctx, job.TrackKey, energy); err != nil {
		p.log.WithError(err).WithField("track", job.TrackKey).Warn("preview energy write failed")
		return
	}
	p.log.WithFields(logrus.Fields{"track": job.TrackKey, "energy": energy}).Debug("preview analyzed")
}
