package scheduler

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cankoe/filepulse/internal/frequency"
	"github.com/cankoe/filepulse/internal/mailer"
	"github.com/cankoe/filepulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type fakeMailer struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (f *fakeMailer) SendLatest(_ context.Context, kind models.DeliveryKind, recipients []string) (models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recipients)
	if f.err != nil {
		return models.Report{}, f.err
	}
	return models.Report{Path: "reports/latest.pdf"}, nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeLocker struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (l *fakeLocker) Acquire(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.keys[key] {
		return false, nil
	}
	l.keys[key] = true
	return true, nil
}

var base = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, m Mailer, recipients []string, opts ...Option) (*Scheduler, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: base}
	opts = append([]Option{WithClock(clock.Now), WithPollInterval(5 * time.Millisecond)}, opts...)
	s := New(m, func() []string { return recipients }, opts...)
	t.Cleanup(s.Stop)
	return s, clock
}

func daily(start time.Time, hour, minute int) Params {
	return Params{StartDate: start, Hour: hour, Minute: minute, Frequency: frequency.Daily}
}

func TestStartInPastSchedulesAfterNow(t *testing.T) {
	s, _ := newTestScheduler(t, &fakeMailer{}, []string{"a@b.com"})

	st, err := s.Start(daily(base, 9, 0))
	require.NoError(t, err)

	require.True(t, st.Running)
	require.NotNil(t, st.NextRun)
	assert.Equal(t, time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC), *st.NextRun)
	assert.True(t, st.NextRun.After(base))
	assert.Equal(t, "Daily", st.Frequency)
	assert.Equal(t, "09:00", st.StartTime)
	assert.Contains(t, st.RRule, "FREQ=DAILY")
}

func TestStartInFutureUsesStartDate(t *testing.T) {
	s, _ := newTestScheduler(t, &fakeMailer{}, []string{"a@b.com"})

	start := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)
	st, err := s.Start(Params{StartDate: start, Hour: 14, Minute: 30, Frequency: frequency.Weekly})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 5, 14, 30, 0, 0, time.UTC), *st.NextRun)
	assert.Equal(t, "2026-04-05", st.StartDate)
}

func TestStartRejectsInvalidParams(t *testing.T) {
	s, _ := newTestScheduler(t, &fakeMailer{}, nil)

	_, err := s.Start(Params{StartDate: base, Hour: 9, Frequency: frequency.Frequency(99)})
	assert.ErrorIs(t, err, frequency.ErrUnknown)

	_, err = s.Start(daily(base, 24, 0))
	assert.Error(t, err)

	assert.False(t, s.Running())
}

func TestDueRunSendsOnceAndAdvances(t *testing.T) {
	m := &fakeMailer{}
	s, clock := newTestScheduler(t, m, []string{"a@b.com", "c@d.com"})

	_, err := s.Start(daily(base, 9, 0))
	require.NoError(t, err)

	due := time.Date(2026, 4, 2, 9, 0, 30, 0, time.UTC)
	clock.Set(due)

	require.Eventually(t, func() bool { return m.count() == 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, m.count())

	st := s.Status()
	require.NotNil(t, st.LastRun)
	assert.Equal(t, due, *st.LastRun)
	assert.Equal(t, time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC), *st.NextRun)
	assert.Empty(t, st.LastError)

	m.mu.Lock()
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, m.calls[0])
	m.mu.Unlock()
}

func TestRestartLeavesSingleLoop(t *testing.T) {
	m := &fakeMailer{}
	s, clock := newTestScheduler(t, m, []string{"a@b.com"})

	for i := 0; i < 3; i++ {
		_, err := s.Start(daily(base, 9, 0))
		require.NoError(t, err)
	}

	clock.Set(time.Date(2026, 4, 2, 9, 1, 0, 0, time.UTC))

	require.Eventually(t, func() bool { return m.count() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, m.count())
}

func TestMissingReportStillAdvances(t *testing.T) {
	m := &fakeMailer{err: mailer.ErrNoReports}
	s, clock := newTestScheduler(t, m, []string{"a@b.com"})

	_, err := s.Start(daily(base, 9, 0))
	require.NoError(t, err)
	clock.Set(time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC))

	require.Eventually(t, func() bool { return s.Status().LastRun != nil }, time.Second, time.Millisecond)

	st := s.Status()
	assert.True(t, st.Running)
	assert.Equal(t, time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC), *st.NextRun)
	assert.Contains(t, st.LastError, "no reports")
}

func TestTransportFailureStillAdvances(t *testing.T) {
	sendErr := multierr.Append(nil, &mailer.RecipientError{Recipient: "a@b.com", Err: errors.New("550 mailbox unavailable")})
	m := &fakeMailer{err: sendErr}
	s, clock := newTestScheduler(t, m, []string{"a@b.com"})

	_, err := s.Start(daily(base, 9, 0))
	require.NoError(t, err)
	clock.Set(time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC))

	require.Eventually(t, func() bool { return s.Status().LastRun != nil }, time.Second, time.Millisecond)

	st := s.Status()
	assert.True(t, st.Running)
	assert.Equal(t, 1, m.count())
	assert.Equal(t, time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC), *st.NextRun)
	assert.Contains(t, st.LastError, "a@b.com")
	assert.Contains(t, st.LastError, "550 mailbox unavailable")
}

func TestNoRecipientsSkipsSend(t *testing.T) {
	m := &fakeMailer{}
	s, clock := newTestScheduler(t, m, nil)

	_, err := s.Start(daily(base, 9, 0))
	require.NoError(t, err)
	clock.Set(time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC))

	require.Eventually(t, func() bool { return s.Status().LastRun != nil }, time.Second, time.Millisecond)
	assert.Zero(t, m.count())
	assert.Equal(t, mailer.ErrNoRecipients.Error(), s.Status().LastError)
}

func TestClaimedOccurrenceIsSkipped(t *testing.T) {
	occurrence := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	locker := &fakeLocker{keys: map[string]bool{}}
	_, err := locker.Acquire(context.Background(), "scheduled:"+strconv.FormatInt(occurrence.Unix(), 10))
	require.NoError(t, err)

	m := &fakeMailer{}
	s, clock := newTestScheduler(t, m, []string{"a@b.com"}, WithLocker(locker))

	_, err = s.Start(daily(base, 9, 0))
	require.NoError(t, err)
	clock.Set(occurrence)

	require.Eventually(t, func() bool { return s.Status().LastRun != nil }, time.Second, time.Millisecond)
	assert.Zero(t, m.count())
	assert.Equal(t, time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC), *s.Status().NextRun)
}

func TestStopIsIdempotent(t *testing.T) {
	s, _ := newTestScheduler(t, &fakeMailer{}, []string{"a@b.com"})

	s.Stop()

	_, err := s.Start(daily(base, 9, 0))
	require.NoError(t, err)
	require.True(t, s.Running())

	s.Stop()
	s.Stop()

	st := s.Status()
	assert.False(t, st.Running)
	assert.Nil(t, st.NextRun)
	assert.Equal(t, "Status: Not scheduled", st.String())
}

func TestStatusString(t *testing.T) {
	next := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	st := Status{Running: true, NextRun: &next, Frequency: "Every 2 days"}
	assert.Equal(t, "Status: Running | Next run: 2026-04-02 09:00:00 | Frequency: Every 2 days", st.String())
}
