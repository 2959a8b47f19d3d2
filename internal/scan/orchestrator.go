// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/ferrex/mediaserver/internal/ids"
	"github.com/ferrex/mediaserver/internal/logging"
	"github.com/ferrex/mediaserver/internal/metrics"
)

// ScanState is the lifecycle state of one orchestrated scan.
type ScanState string

const (
	ScanStatePending   ScanState = "pending"
	ScanStateScanning  ScanState = "scanning"
	ScanStatePaused    ScanState = "paused"
	ScanStateCompleted ScanState = "completed"
	ScanStateFailed    ScanState = "failed"
	ScanStateCancelled ScanState = "cancelled"
)

func (s ScanState) terminal() bool {
	return s == ScanStateCompleted || s == ScanStateFailed || s == ScanStateCancelled
}

// Progress is a point-in-time snapshot of one scan's status.
type Progress struct {
	TotalFoldersSeen int
	FoldersDone      int
	FilesDiscovered  int
	CurrentPath      string
	StartedAt        time.Time
	UpdatedAt        time.Time
	State            ScanState
}

// Sink receives MediaFileDiscovered events published by folder scan
// actors. The HTTP Surface / analysis stage supplies an implementation;
// this package owns only the publish side.
type Sink interface {
	Publish(event MediaFileDiscovered)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(MediaFileDiscovered)

// Publish implements Sink.
func (f SinkFunc) Publish(event MediaFileDiscovered) { f(event) }

// OrchestratorConfig bounds the orchestrator's concurrency and retry
// behavior. Mirrors config.ScanConfig.
type OrchestratorConfig struct {
	FolderConcurrency         int
	RetryMaxAttempts          int
	RetryInitialBackoff       time.Duration
	RetryMaxBackoff           time.Duration
	CircuitBreakerThreshold   uint32
	CircuitBreakerOpenTimeout time.Duration
}

// DefaultOrchestratorConfig returns sensible defaults matching
// config.defaultConfig's Scan section.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		FolderConcurrency:         8,
		RetryMaxAttempts:          5,
		RetryInitialBackoff:       2 * time.Second,
		RetryMaxBackoff:           5 * time.Minute,
		CircuitBreakerThreshold:   5,
		CircuitBreakerOpenTimeout: 30 * time.Second,
	}
}

// scanState is the orchestrator's internal bookkeeping for one active
// or finished scan.
type scanState struct {
	id        string
	libraryID ids.LibraryID
	progress  Progress
	paused    bool
	cancelled bool
	wg        sync.WaitGroup
}

// Orchestrator spawns and coordinates Folder Scan Actors. It implements
// suture.Service so it can run under internal/supervisor's scan layer.
type Orchestrator struct {
	cfg    OrchestratorConfig
	sink   Sink
	actor  *FolderScanActor
	logger *logging.EventLogger

	mu          sync.Mutex
	scans       map[string]*scanState
	byLibrary   map[ids.LibraryID]string // libraryID -> active non-terminal scan id
	breakers    map[ids.LibraryID]*gobreaker.CircuitBreaker[any]
	sem         chan struct{}
}

// NewOrchestrator creates a Scan Orchestrator bounded by cfg's folder
// concurrency, publishing discovered files to sink.
func NewOrchestrator(cfg OrchestratorConfig, sink Sink) *Orchestrator {
	if cfg.FolderConcurrency < 1 {
		cfg.FolderConcurrency = 1
	}
	return &Orchestrator{
		cfg:       cfg,
		sink:      sink,
		actor:     NewFolderScanActor(),
		logger:    logging.NewEventLogger(),
		scans:     make(map[string]*scanState),
		byLibrary: make(map[ids.LibraryID]string),
		breakers:  make(map[ids.LibraryID]*gobreaker.CircuitBreaker[any]),
		sem:       make(chan struct{}, cfg.FolderConcurrency),
	}
}

// ErrScanNotFound is returned when a scan ID is unknown.
var ErrScanNotFound = errors.New("scan not found")

// ErrScanTerminal is returned when pause/resume is attempted on a scan
// that has already reached a terminal state.
var ErrScanTerminal = errors.New("scan has already finished")

func (o *Orchestrator) breakerFor(libraryID ids.LibraryID) *gobreaker.CircuitBreaker[any] {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cb, ok := o.breakers[libraryID]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "scan-folder-" + libraryID.String(),
		MaxRequests: 1,
		Interval:    0,
		Timeout:     o.cfg.CircuitBreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.cfg.CircuitBreakerThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerTransitions.WithLabelValues(name, breakerStateString(from), breakerStateString(to)).Inc()
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
		},
	})
	o.breakers[libraryID] = cb
	return cb
}

func breakerStateFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// StartScan begins a scan of roots (each a library-root folder to be
// treated as a Series or Movie root per kind) for libraryID. If an
// active non-terminal scan already exists for libraryID, its ID is
// returned instead of starting a second scan (spec.md reentrancy rule).
func (o *Orchestrator) StartScan(ctx context.Context, libraryID ids.LibraryID, roots []string, kind NodeKind) (string, error) {
	o.mu.Lock()
	if existingID, ok := o.byLibrary[libraryID]; ok {
		if st, ok := o.scans[existingID]; ok && !st.progress.State.terminal() {
			o.mu.Unlock()
			return existingID, nil
		}
	}

	scanID := uuid.NewString()
	st := &scanState{
		id:        scanID,
		libraryID: libraryID,
		progress: Progress{
			State:     ScanStatePending,
			StartedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	o.scans[scanID] = st
	o.byLibrary[libraryID] = scanID
	o.mu.Unlock()

	contexts := make([]ScanContext, 0, len(roots))
	for _, root := range roots {
		var sc ScanContext
		var err error
		switch kind {
		case NodeKindSeries:
			sc, err = NewSeriesFolderScanContext(libraryID, root)
		default:
			sc, err = NewMovieFolderScanContext(libraryID, root, root)
		}
		if err != nil {
			o.logger.Error("skipping invalid scan root", "root", root, "error", err.Error())
			continue
		}
		contexts = append(contexts, sc)
	}

	o.setState(st, ScanStateScanning)
	go o.drive(ctx, st, contexts)

	return scanID, nil
}

func (o *Orchestrator) setState(st *scanState, s ScanState) {
	o.mu.Lock()
	st.progress.State = s
	st.progress.UpdatedAt = time.Now()
	o.mu.Unlock()
}

// drive pumps the work queue for one scan, honoring pause/cancel and
// the configured concurrency bound.
func (o *Orchestrator) drive(ctx context.Context, st *scanState, initial []ScanContext) {
	queue := make([]FolderScanJob, 0, len(initial))
	for _, sc := range initial {
		queue = append(queue, FolderScanJob{Context: sc, ScanReason: ScanReasonInitial})
	}

	var queueMu sync.Mutex
	var failedMu sync.Mutex
	var failed bool

	for {
		queueMu.Lock()
		if len(queue) == 0 {
			queueMu.Unlock()
			break
		}
		o.mu.Lock()
		paused := st.paused
		cancelled := st.cancelled
		o.mu.Unlock()
		if cancelled {
			queueMu.Unlock()
			break
		}
		if paused {
			queueMu.Unlock()
			time.Sleep(50 * time.Millisecond)
			continue
		}
		job := queue[0]
		queue = queue[1:]
		queueMu.Unlock()

		o.mu.Lock()
		st.progress.TotalFoldersSeen++
		st.progress.CurrentPath = job.Context.Path()
		o.mu.Unlock()
		metrics.SetActiveFolderJobs(st.libraryID.String(), len(o.sem))

		st.wg.Add(1)
		o.sem <- struct{}{}
		go func(job FolderScanJob) {
			defer st.wg.Done()
			defer func() { <-o.sem }()

			summary, err := o.runWithRetry(ctx, job)

			o.mu.Lock()
			cancelled := st.cancelled
			o.mu.Unlock()
			if cancelled {
				return // discard discoveries after cancel
			}

			if err != nil {
				var invalid *InvalidMedia
				if errors.As(err, &invalid) {
					failedMu.Lock()
					failed = true
					failedMu.Unlock()
					o.logger.Error("folder job failed structural validation", "path", job.Context.Path(), "error", err.Error())
				} else {
					o.logger.Warn("folder job exhausted retries", "path", job.Context.Path(), "error", err.Error())
				}
				o.mu.Lock()
				st.progress.FoldersDone++
				o.mu.Unlock()
				return
			}

			for _, f := range summary.DiscoveredFiles {
				if o.sink != nil {
					o.sink.Publish(f)
				}
			}

			queueMu.Lock()
			for _, child := range summary.EnqueuedSubfolders {
				queue = append(queue, FolderScanJob{Context: child, ScanReason: job.ScanReason})
			}
			queueMu.Unlock()

			o.mu.Lock()
			st.progress.FoldersDone++
			st.progress.FilesDiscovered += len(summary.DiscoveredFiles)
			o.mu.Unlock()
		}(job)
	}

	st.wg.Wait()

	failedMu.Lock()
	didFail := failed
	failedMu.Unlock()

	o.mu.Lock()
	switch {
	case st.cancelled:
		st.progress.State = ScanStateCancelled
	case didFail:
		st.progress.State = ScanStateFailed
	default:
		st.progress.State = ScanStateCompleted
	}
	st.progress.UpdatedAt = time.Now()
	o.mu.Unlock()
}

// runWithRetry executes one folder job, retrying transient failures up
// to cfg.RetryMaxAttempts with exponential backoff, guarded by a
// per-library circuit breaker. Structural InvalidMedia errors are never
// retried.
func (o *Orchestrator) runWithRetry(ctx context.Context, job FolderScanJob) (*FolderScanSummary, error) {
	cb := o.breakerFor(job.Context.LibraryID())
	backoff := o.cfg.RetryInitialBackoff

	var lastErr error
	for attempt := 0; attempt <= o.cfg.RetryMaxAttempts; attempt++ {
		result, err := cb.Execute(func() (any, error) {
			return o.actor.Run(ctx, job)
		})
		if err == nil {
			return result.(*FolderScanSummary), nil
		}

		var invalid *InvalidMedia
		if errors.As(err, &invalid) {
			return nil, err
		}

		lastErr = err
		if attempt == o.cfg.RetryMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > o.cfg.RetryMaxBackoff {
			backoff = o.cfg.RetryMaxBackoff
		}
	}
	return nil, fmt.Errorf("folder job failed after %d attempts: %w", o.cfg.RetryMaxAttempts+1, lastErr)
}

// Pause freezes admission of new folder jobs for scanID. In-flight jobs
// run to completion.
func (o *Orchestrator) Pause(scanID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.scans[scanID]
	if !ok {
		return ErrScanNotFound
	}
	if st.progress.State.terminal() {
		return ErrScanTerminal
	}
	st.paused = true
	st.progress.State = ScanStatePaused
	st.progress.UpdatedAt = time.Now()
	metrics.ScanOrchestratorPauses.Inc()
	return nil
}

// Resume reopens admission of new folder jobs for scanID.
func (o *Orchestrator) Resume(scanID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.scans[scanID]
	if !ok {
		return ErrScanNotFound
	}
	if st.progress.State.terminal() {
		return ErrScanTerminal
	}
	st.paused = false
	st.progress.State = ScanStateScanning
	st.progress.UpdatedAt = time.Now()
	return nil
}

// Cancel aborts admission and marks the scan to drain without emitting
// subsequent discoveries. The scan reports Cancelled once the in-flight
// set drains.
func (o *Orchestrator) Cancel(scanID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.scans[scanID]
	if !ok {
		return ErrScanNotFound
	}
	if st.progress.State.terminal() {
		return ErrScanTerminal
	}
	st.cancelled = true
	st.paused = false
	return nil
}

// Progress returns a snapshot of scanID's current status.
func (o *Orchestrator) Progress(scanID string) (Progress, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.scans[scanID]
	if !ok {
		return Progress{}, ErrScanNotFound
	}
	return st.progress, nil
}

// Serve implements suture.Service. It blocks until ctx is canceled,
// cancelling any in-flight scans on shutdown.
func (o *Orchestrator) Serve(ctx context.Context) error {
	<-ctx.Done()
	o.mu.Lock()
	for _, st := range o.scans {
		if !st.progress.State.terminal() {
			st.cancelled = true
		}
	}
	o.mu.Unlock()
	return ctx.Err()
}

// String implements fmt.Stringer for suture's logging.
func (o *Orchestrator) String() string { return "scan-orchestrator" }
