package playlistcache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/m1k1o/go-streamgate/pkg/blobstore"
)

// StartSweeper starts periodic retention sweep, if not running already.
func (m *ManagerCtx) StartSweeper() {
	m.sweeperMu.Lock()
	defer m.sweeperMu.Unlock()

	if m.sweeper {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	m.sweeper = true
	m.cancel = cancel
	m.shutdown = make(chan struct{})
	m.done = make(chan struct{})

	go func(shutdown, done chan struct{}) {
		defer close(done)

		m.logger.Info().
			Dur("interval", m.config.SweepInterval).
			Dur("retention", m.config.Retention).
			Msg("sweeper started")

		if m.config.SweepOnStart {
			m.runSweep(ctx)
		}

		ticker := time.NewTicker(m.config.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				m.runSweep(ctx)
			}
		}
	}(m.shutdown, m.done)
}

// Shutdown stops sweeper and waits for running sweep to be cancelled.
func (m *ManagerCtx) Shutdown() {
	m.sweeperMu.Lock()
	defer m.sweeperMu.Unlock()

	if !m.sweeper {
		return
	}

	m.sweeper = false
	m.cancel()
	close(m.shutdown)
	<-m.done

	m.logger.Info().Msg("sweeper stopped")
}

func (m *ManagerCtx) runSweep(ctx context.Context) {
	_, err := m.Sweep(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("skipping sweep")
	}
}

// Sweep deletes every entry that was created before retention window. Failures
// of single entries are collected in report and do not stop the sweep.
func (m *ManagerCtx) Sweep(ctx context.Context) (*SweepReport, error) {
	// at most one sweep at a time
	if !m.sweepActive.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer m.sweepActive.Store(false)

	started := m.config.Clock()
	report := &SweepReport{
		RunID:  uuid.NewString(),
		Cutoff: started.Add(-m.config.Retention),
	}

	logger := m.logger.With().Str("run", report.RunID).Logger()
	logger.Info().
		Str("cutoff", humanize.Time(report.Cutoff)).
		Msg("performing sweep")

	var pc panics.Catcher
	pc.Try(func() {
		m.sweep(ctx, report, logger)
	})

	if r := pc.Recovered(); r != nil {
		logger.Error().Str("stack", string(r.Stack)).Msgf("sweep panicked: %v", r.Value)
		report.Err = multierr.Append(report.Err, r.AsError())
	}

	logger.Info().
		Int("listed", report.Listed).
		Int("expired", report.Expired).
		Int("deleted", report.Deleted).
		Int("failed", report.Failed).
		Dur("took", time.Since(started)).
		Msg("sweep finished")

	return report, nil
}

func (m *ManagerCtx) sweep(ctx context.Context, report *SweepReport, logger zerolog.Logger) {
	limit := rate.Inf
	if m.config.SweepDeleteRate > 0 {
		limit = rate.Limit(m.config.SweepDeleteRate)
	}
	limiter := rate.NewLimiter(limit, 1)

	cursor := ""
	for {
		listCtx, cancel := context.WithTimeout(ctx, m.config.StoreTimeout)
		res, err := m.store.List(listCtx, blobstore.ListOptions{
			Prefix: m.config.Namespace,
			Limit:  m.config.SweepPageSize,
			Cursor: cursor,
		})
		cancel()

		if err != nil {
			logger.Err(err).Msg("unable to list entries")
			report.Err = multierr.Append(report.Err, fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
			return
		}

		report.Listed += len(res.Blobs)

		for _, blob := range res.Blobs {
			if !blob.UploadedAt.Before(report.Cutoff) {
				continue
			}

			report.Expired++

			if err := limiter.Wait(ctx); err != nil {
				report.Err = multierr.Append(report.Err, err)
				return
			}

			if err := m.deleteEntry(ctx, blob); err != nil {
				err = fmt.Errorf("%w: %s: %w", ErrSweepEntryDelete, blob.Pathname, err)
				logger.Warn().Err(err).Msg("unable to delete expired entry")

				report.Failed++
				report.Err = multierr.Append(report.Err, err)
				continue
			}

			report.Deleted++
			logger.Debug().
				Str("pathname", blob.Pathname).
				Str("age", humanize.Time(blob.UploadedAt)).
				Msg("deleted expired entry")
		}

		if !res.HasMore || res.Cursor == "" {
			return
		}

		cursor = res.Cursor
	}
}

func (m *ManagerCtx) deleteEntry(ctx context.Context, blob blobstore.Blob) error {
	ctx, cancel := context.WithTimeout(ctx, m.config.StoreTimeout)
	defer cancel()

	if err := m.store.Delete(ctx, blob.URL); err != nil {
		return err
	}

	m.removeFromMemo(strings.TrimPrefix(blob.Pathname, m.config.Namespace))
	return nil
}
