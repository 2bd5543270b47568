package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cankoe/filepulse/internal/frequency"
	"github.com/cankoe/filepulse/internal/models"
	"github.com/cankoe/filepulse/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMailer struct {
	tested  [][]string
	reports [][]string
	err     error
}

func (m *stubMailer) SendTest(_ context.Context, recipients []string) error {
	m.tested = append(m.tested, recipients)
	return m.err
}

func (m *stubMailer) SendLatest(_ context.Context, kind models.DeliveryKind, recipients []string) (models.Report, error) {
	m.reports = append(m.reports, recipients)
	return models.Report{Path: "reports/latest.pdf"}, m.err
}

type stubScheduler struct {
	started []scheduler.Params
	running bool
}

func (s *stubScheduler) Start(p scheduler.Params) (scheduler.Status, error) {
	s.started = append(s.started, p)
	s.running = true
	return s.Status(), nil
}

func (s *stubScheduler) Stop() { s.running = false }

func (s *stubScheduler) Status() scheduler.Status {
	return scheduler.Status{Running: s.running}
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Set(context.Context, models.Thresholds) error {
	return errors.New("read-only filesystem")
}

func newTestSurface() (*Surface, *stubMailer, *stubScheduler, *RecipientBook) {
	book := &RecipientBook{}
	m := &stubMailer{}
	sched := &stubScheduler{}
	s := NewSurface(NewMemoryStore(defaultThresholds), book, m, sched)
	s.nowFn = func() time.Time { return time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC) }
	return s, m, sched, book
}

func TestSaveThresholdsPersistsOnlyValidInput(t *testing.T) {
	s, _, _, _ := newTestSurface()
	ctx := context.Background()

	_, err := s.SaveThresholds(ctx, "5", "3", "10")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	got, err := s.Thresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaultThresholds, got)

	saved, err := s.SaveThresholds(ctx, "2", "5", "10")
	require.NoError(t, err)
	assert.Equal(t, models.Thresholds{Green: 2, Amber: 5, Red: 10}, saved)

	got, err = s.Thresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestSaveThresholdsStorageError(t *testing.T) {
	s := NewSurface(&failingStore{}, &RecipientBook{}, &stubMailer{}, &stubScheduler{})

	_, err := s.SaveThresholds(context.Background(), "1", "2", "3")
	require.Error(t, err)
	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}

func TestStartSchedulerDefaults(t *testing.T) {
	s, _, sched, book := newTestSurface()

	st, err := s.StartScheduler(ScheduleRequest{Recipients: "a@b.com, c@d.com"})
	require.NoError(t, err)
	assert.True(t, st.Running)

	require.Len(t, sched.started, 1)
	p := sched.started[0]
	assert.Equal(t, 9, p.Hour)
	assert.Equal(t, 0, p.Minute)
	assert.Equal(t, frequency.Daily, p.Frequency)
	assert.Equal(t, 1, p.StartDate.Day())
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, book.List())
}

func TestStartSchedulerParsesFields(t *testing.T) {
	s, _, sched, _ := newTestSurface()

	_, err := s.StartScheduler(ScheduleRequest{
		StartDate:  "2026-05-31",
		StartTime:  "17:45",
		Frequency:  "every-6-months",
		Recipients: "a@b.com",
	})
	require.NoError(t, err)

	p := sched.started[0]
	assert.Equal(t, time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC), p.StartDate)
	assert.Equal(t, 17, p.Hour)
	assert.Equal(t, 45, p.Minute)
	assert.Equal(t, frequency.EverySixMonths, p.Frequency)
}

func TestStartSchedulerRejectsBadInputWithoutSideEffects(t *testing.T) {
	tests := []struct {
		name  string
		req   ScheduleRequest
		field string
	}{
		{"bad date", ScheduleRequest{StartDate: "01/04/2026", Recipients: "a@b.com"}, "start_date"},
		{"bad time", ScheduleRequest{StartTime: "25:00", Recipients: "a@b.com"}, "start_time"},
		{"time without colon", ScheduleRequest{StartTime: "0900", Recipients: "a@b.com"}, "start_time"},
		{"unknown frequency", ScheduleRequest{Frequency: "Quarterly", Recipients: "a@b.com"}, "frequency"},
		{"bad recipient", ScheduleRequest{Recipients: "a@b.com, nope"}, "recipients"},
		{"no recipients anywhere", ScheduleRequest{}, "recipients"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, sched, book := newTestSurface()

			_, err := s.StartScheduler(tt.req)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Empty(t, sched.started)
			assert.Empty(t, book.List())
		})
	}
}

func TestStartSchedulerUsesSavedRecipients(t *testing.T) {
	s, _, sched, book := newTestSurface()
	book.Set([]string{"saved@b.com"})

	_, err := s.StartScheduler(ScheduleRequest{})
	require.NoError(t, err)
	assert.Len(t, sched.started, 1)
	assert.Equal(t, []string{"saved@b.com"}, book.List())
}

func TestStopScheduler(t *testing.T) {
	s, _, _, _ := newTestSurface()
	_, err := s.StartScheduler(ScheduleRequest{Recipients: "a@b.com"})
	require.NoError(t, err)

	st := s.StopScheduler()
	assert.False(t, st.Running)
	assert.False(t, s.Status().Running)
}

func TestSendTestRecipientResolution(t *testing.T) {
	s, m, _, book := newTestSurface()
	ctx := context.Background()

	_, err := s.SendTest(ctx, "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, m.tested)

	used, err := s.SendTest(ctx, "x@y.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"x@y.com"}, used)
	assert.Empty(t, book.List(), "ad-hoc recipients are not saved")

	book.Set([]string{"saved@b.com"})
	used, err = s.SendTest(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"saved@b.com"}, used)
	assert.Len(t, m.tested, 2)
}

func TestSendNowPassesMailerErrors(t *testing.T) {
	s, m, _, _ := newTestSurface()
	m.err = errors.New("smtp down")

	r, used, err := s.SendNow(context.Background(), "a@b.com")
	assert.EqualError(t, err, "smtp down")
	assert.Equal(t, []string{"a@b.com"}, used)
	assert.Equal(t, "reports/latest.pdf", r.Path)
	require.Len(t, m.reports, 1)
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 5, m)

	for _, bad := range []string{"24:00", "12:60", "ab:cd", "12", "-1:00"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}
