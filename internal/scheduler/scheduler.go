package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cankoe/filepulse/internal/frequency"
	"github.com/cankoe/filepulse/internal/mailer"
	"github.com/cankoe/filepulse/internal/models"

	"github.com/rs/zerolog/log"
)

const DefaultPollInterval = 30 * time.Second

// Mailer sends the newest report to a recipient list.
type Mailer interface {
	SendLatest(ctx context.Context, kind models.DeliveryKind, recipients []string) (models.Report, error)
}

// Locker claims an occurrence so that processes sharing it send only once.
type Locker interface {
	Acquire(ctx context.Context, key string) (bool, error)
}

// Params are the user-supplied schedule settings. Only the date part of
// StartDate is used.
type Params struct {
	StartDate time.Time
	Hour      int
	Minute    int
	Frequency frequency.Frequency
}

func (p Params) validate() error {
	if !p.Frequency.Valid() {
		return fmt.Errorf("%w: %d", frequency.ErrUnknown, int(p.Frequency))
	}
	return frequency.ValidateClock(p.Hour, p.Minute)
}

// Status is a snapshot of the scheduler.
type Status struct {
	Running   bool       `json:"running"`
	StartDate string     `json:"start_date,omitempty"`
	StartTime string     `json:"start_time,omitempty"`
	Frequency string     `json:"frequency,omitempty"`
	RRule     string     `json:"rrule,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

func (s Status) String() string {
	if !s.Running || s.NextRun == nil {
		return "Status: Not scheduled"
	}
	return fmt.Sprintf("Status: Running | Next run: %s | Frequency: %s",
		s.NextRun.Format("2006-01-02 15:04:05"), s.Frequency)
}

type state struct {
	params  Params
	rrule   string
	nextRun time.Time
	lastRun time.Time
	lastErr string
}

// Scheduler mails the newest report on a frequency. At most one poll loop
// runs at a time; Start replaces the running schedule and Stop waits for the
// loop to exit.
type Scheduler struct {
	mailer     Mailer
	recipients func() []string
	locker     Locker
	interval   time.Duration
	nowFn      func() time.Time

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	mu    sync.Mutex
	state *state
}

type Option func(*Scheduler)

func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLocker(l Locker) Option {
	return func(s *Scheduler) { s.locker = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.nowFn = now }
}

// New creates a stopped scheduler. recipients is read at every send.
func New(m Mailer, recipients func() []string, opts ...Option) *Scheduler {
	s := &Scheduler{
		mailer:     m,
		recipients: recipients,
		interval:   DefaultPollInterval,
		nowFn:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start stops any running schedule and starts a new one. If the start
// date and time are already in the past the first run is computed from now.
func (s *Scheduler) Start(p Params) (Status, error) {
	if err := p.validate(); err != nil {
		return Status{}, err
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.stopLocked()

	now := s.nowFn()
	first := time.Date(p.StartDate.Year(), p.StartDate.Month(), p.StartDate.Day(), p.Hour, p.Minute, 0, 0, now.Location())
	if first.Before(now) {
		next, err := frequency.NextRun(now, p.Frequency, p.Hour, p.Minute)
		if err != nil {
			return Status{}, err
		}
		first = next
	}

	rr, err := frequency.RRule(p.Frequency, p.Hour, p.Minute)
	if err != nil {
		log.Warn().Err(err).Str("frequency", p.Frequency.String()).Msg("Could not describe schedule as RRULE")
	}

	st := &state{params: p, rrule: rr, nextRun: first}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go s.loop(ctx, st, done)

	log.Info().Str("frequency", p.Frequency.String()).Time("next_run", first).
		Dur("poll_interval", s.interval).Msg("Scheduler started")
	return s.Status(), nil
}

// Stop cancels the running schedule, waits for its loop to exit and
// clears the schedule. It is a no-op when stopped.
func (s *Scheduler) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil

	s.mu.Lock()
	s.state = nil
	s.mu.Unlock()
	log.Info().Msg("Scheduler stopped")
}

// Running reports whether a schedule is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != nil
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	if st == nil {
		return Status{}
	}
	out := Status{
		Running:   true,
		StartDate: st.params.StartDate.Format("2006-01-02"),
		StartTime: fmt.Sprintf("%02d:%02d", st.params.Hour, st.params.Minute),
		Frequency: st.params.Frequency.String(),
		RRule:     st.rrule,
		LastError: st.lastErr,
	}
	next := st.nextRun
	out.NextRun = &next
	if !st.lastRun.IsZero() {
		last := st.lastRun
		out.LastRun = &last
	}
	return out
}

func (s *Scheduler) loop(ctx context.Context, st *state, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.tick(ctx, st)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, st *state) {
	now := s.nowFn()

	s.mu.Lock()
	occurrence := st.nextRun
	s.mu.Unlock()
	if now.Before(occurrence) {
		return
	}

	sendErr := s.dispatch(ctx, occurrence)

	// params never change after Start, so NextRun cannot fail here
	next, err := frequency.NextRun(now, st.params.Frequency, st.params.Hour, st.params.Minute)
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute next run")
		return
	}

	s.mu.Lock()
	st.lastRun = now
	st.nextRun = next
	st.lastErr = ""
	if sendErr != nil {
		st.lastErr = sendErr.Error()
	}
	s.mu.Unlock()

	log.Info().Time("next_run", next).Msg("Next scheduled send computed")
}

func (s *Scheduler) dispatch(ctx context.Context, occurrence time.Time) error {
	recipients := s.recipients()
	if len(recipients) == 0 {
		log.Warn().Msg("No email recipients configured, skipping scheduled send")
		return mailer.ErrNoRecipients
	}

	if s.locker != nil {
		key := "scheduled:" + strconv.FormatInt(occurrence.Unix(), 10)
		ok, err := s.locker.Acquire(ctx, key)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("lock_key", key).Msg("Send lock unavailable, sending anyway")
		case !ok:
			log.Info().Str("lock_key", key).Msg("Occurrence already sent by another process, skipping")
			return nil
		}
	}

	report, err := s.mailer.SendLatest(ctx, models.DeliveryScheduled, recipients)
	switch {
	case errors.Is(err, mailer.ErrNoReports):
		log.Warn().Msg("No reports available to send, skipping scheduled send")
	case errors.Is(err, mailer.ErrReportMissing):
		log.Warn().Err(err).Msg("Report file not found, skipping scheduled send")
	case err != nil:
		log.Error().Err(err).Int("failed", len(mailer.FailedRecipients(err))).Msg("Scheduled email failed")
	default:
		log.Info().Str("report", report.Path).Int("recipients", len(recipients)).Msg("Scheduled email sent")
	}
	return err
}
