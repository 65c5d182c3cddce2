// Package scheduler drives the whole pipeline from a single goroutine:
// the interval tick, the daily report, and on-demand report requests all
// run on one timeline, so archive writes and report reads can never
// interleave.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nntexpressinc/safetybot/internal/report"
	"github.com/nntexpressinc/safetybot/internal/store"
)

// CycleRunner executes one ingestion tick.
type CycleRunner interface {
	Run(ctx context.Context) error
}

// ReportBuilder renders one date's archived records, returning nil for an
// empty partition.
type ReportBuilder interface {
	Build(date string) (*report.Document, error)
}

// Messenger is the outbound surface the scheduler drives.
type Messenger interface {
	SendMessage(text string) error
	SendDocument(path, caption string) error
}

// HealthChecker is implemented by messengers that can verify their own
// connectivity; the scheduler reports it periodically when available.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// After this many straight failed ticks an operator notice goes out.
const failureNoticeThreshold = 5

type Scheduler struct {
	cycle     CycleRunner
	builder   ReportBuilder
	messenger Messenger

	interval     time.Duration
	dailyAt      string
	healthEvery  time.Duration
	loc          *time.Location
	requests     chan string
	logger       *slog.Logger
	now          func() time.Time

	consecutiveFailures int
	lastSuccess         time.Time
}

func New(
	cycle CycleRunner,
	builder ReportBuilder,
	messenger Messenger,
	interval time.Duration,
	dailyAt string,
	loc *time.Location,
	logger *slog.Logger,
) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cycle:       cycle,
		builder:     builder,
		messenger:   messenger,
		interval:    interval,
		dailyAt:     dailyAt,
		healthEvery: time.Hour,
		loc:         loc,
		requests:    make(chan string, 8),
		logger:      logger,
		now:         time.Now,
	}
}

// RequestReport enqueues an on-demand report for date without blocking.
// Returns false when the queue is full.
func (s *Scheduler) RequestReport(date string) bool {
	select {
	case s.requests <- date:
		return true
	default:
		s.logger.Warn("report request dropped, queue full", "date", date)
		return false
	}
}

// Run services all triggers until the context is cancelled. An initial
// tick runs immediately.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started",
		"interval", s.interval,
		"daily_report_at", s.dailyAt,
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	daily := time.NewTimer(time.Until(s.nextDaily(s.now())))
	defer daily.Stop()

	health := time.NewTicker(s.healthEvery)
	defer health.Stop()

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return

		case <-ticker.C:
			s.runCycle(ctx)

		case <-daily.C:
			s.runReport(store.DateKey(s.now().In(s.loc)))
			daily.Reset(time.Until(s.nextDaily(s.now())))

		case date := <-s.requests:
			s.logger.Info("on-demand report requested", "date", date)
			s.runReport(date)

		case <-health.C:
			s.runHealthCheck(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	err := s.cycle.Run(ctx)
	if err == nil {
		s.consecutiveFailures = 0
		s.lastSuccess = s.now()
		return
	}

	s.consecutiveFailures++
	s.logger.Error("ingestion tick failed",
		"error", err,
		"consecutive_failures", s.consecutiveFailures,
	)

	if errors.Is(err, store.ErrStorageUnavailable) {
		s.notify(fmt.Sprintf("Storage failure during ingestion: %v\nThe tick was aborted and will retry on the next interval.", err))
	}
	if s.consecutiveFailures == failureNoticeThreshold {
		s.notify(fmt.Sprintf("Ingestion has failed %d consecutive times. Last error: %v", s.consecutiveFailures, err))
	}
}

// runReport builds and delivers the report for one date. The rendered
// artifact lives exactly from build to sent-or-failed; it is removed on
// every exit path.
func (s *Scheduler) runReport(date string) {
	doc, err := s.builder.Build(date)
	if err != nil {
		s.logger.Error("report build failed", "date", date, "error", err)
		s.notify(fmt.Sprintf("Could not build the report for %s: %v", date, err))
		return
	}
	if doc == nil {
		if err := s.messenger.SendMessage(fmt.Sprintf("No safety events recorded for %s.", date)); err != nil {
			s.logger.Error("no-events notice failed", "date", date, "error", err)
		}
		return
	}
	defer func() {
		if err := os.Remove(doc.Path); err != nil {
			s.logger.Warn("could not remove report artifact", "path", doc.Path, "error", err)
		}
	}()

	caption := fmt.Sprintf("Safety report for %s (%d events)", date, doc.Rows)
	if err := s.messenger.SendDocument(doc.Path, caption); err != nil {
		s.logger.Error("report delivery failed", "date", date, "error", err)
	}
}

func (s *Scheduler) runHealthCheck(ctx context.Context) {
	hc, ok := s.messenger.(HealthChecker)
	if !ok {
		return
	}

	lastCheck := "never"
	if !s.lastSuccess.IsZero() {
		lastCheck = fmt.Sprintf("%.1f minutes ago", s.now().Sub(s.lastSuccess).Minutes())
	}

	status := "healthy"
	if err := hc.Healthy(ctx); err != nil {
		status = fmt.Sprintf("degraded (%v)", err)
	}

	s.notify(fmt.Sprintf("Safetybot health: %s\nLast successful check: %s\nConsecutive failures: %d",
		status, lastCheck, s.consecutiveFailures))
}

func (s *Scheduler) notify(text string) {
	if err := s.messenger.SendMessage(text); err != nil {
		s.logger.Error("operator notice failed", "error", err)
	}
}

// nextDaily returns the next wall-clock occurrence of dailyAt in the
// configured zone.
func (s *Scheduler) nextDaily(now time.Time) time.Time {
	at, err := time.Parse("15:04", s.dailyAt)
	if err != nil {
		// Validated at config load; fall back to end of day if it slips through.
		at, _ = time.Parse("15:04", "23:59")
	}

	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), at.Hour(), at.Minute(), 0, 0, s.loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
