package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cankoe/filepulse/internal/frequency"
	"github.com/cankoe/filepulse/internal/models"
	"github.com/cankoe/filepulse/internal/scheduler"

	"github.com/rs/zerolog/log"
)

const (
	DefaultStartTime = "09:00"
	dateLayout       = "2006-01-02"
)

// Mailer is the part of the mail service the settings surface drives.
type Mailer interface {
	SendTest(ctx context.Context, recipients []string) error
	SendLatest(ctx context.Context, kind models.DeliveryKind, recipients []string) (models.Report, error)
}

// Scheduler controls the background send loop.
type Scheduler interface {
	Start(p scheduler.Params) (scheduler.Status, error)
	Stop()
	Status() scheduler.Status
}

// ScheduleRequest is the raw input of the schedule form. Empty fields fall
// back to today, 09:00, Daily and the saved recipient list.
type ScheduleRequest struct {
	StartDate  string `json:"start_date"`
	StartTime  string `json:"start_time"`
	Frequency  string `json:"frequency"`
	Recipients string `json:"recipients"`
}

// Surface validates settings input and applies it to the stores, the mail
// service and the scheduler.
type Surface struct {
	thresholds ThresholdStore
	recipients *RecipientBook
	mailer     Mailer
	scheduler  Scheduler
	nowFn      func() time.Time
}

func NewSurface(thresholds ThresholdStore, recipients *RecipientBook, m Mailer, s Scheduler) *Surface {
	return &Surface{
		thresholds: thresholds,
		recipients: recipients,
		mailer:     m,
		scheduler:  s,
		nowFn:      time.Now,
	}
}

func (s *Surface) Thresholds(ctx context.Context) (models.Thresholds, error) {
	return s.thresholds.Get(ctx)
}

// SaveThresholds parses and validates the three values and persists them.
// Nothing is written when validation fails.
func (s *Surface) SaveThresholds(ctx context.Context, green, amber, red string) (models.Thresholds, error) {
	t, err := ParseThresholds(green, amber, red)
	if err != nil {
		return models.Thresholds{}, err
	}
	if err := s.thresholds.Set(ctx, t); err != nil {
		return models.Thresholds{}, fmt.Errorf("save thresholds: %w", err)
	}
	log.Info().Int("green", t.Green).Int("amber", t.Amber).Int("red", t.Red).Msg("Thresholds saved")
	return t, nil
}

func (s *Surface) Recipients() []string {
	return s.recipients.List()
}

// SetRecipients replaces the saved recipient list.
func (s *Surface) SetRecipients(text string) ([]string, error) {
	emails, err := ParseRecipients(text)
	if err != nil {
		return nil, err
	}
	s.recipients.Set(emails)
	log.Info().Int("recipients", len(emails)).Msg("Recipients saved")
	return emails, nil
}

// StartScheduler validates the request, saves any recipients it carries
// and (re)starts the scheduler.
func (s *Surface) StartScheduler(req ScheduleRequest) (scheduler.Status, error) {
	p, err := s.parseSchedule(req)
	if err != nil {
		return scheduler.Status{}, err
	}

	var emails []string
	if strings.TrimSpace(req.Recipients) != "" {
		if emails, err = ParseRecipients(req.Recipients); err != nil {
			return scheduler.Status{}, err
		}
	} else if len(s.recipients.List()) == 0 {
		return scheduler.Status{}, invalid("recipients", "please enter at least one email address")
	}

	if emails != nil {
		s.recipients.Set(emails)
	}
	return s.scheduler.Start(p)
}

func (s *Surface) StopScheduler() scheduler.Status {
	s.scheduler.Stop()
	return s.scheduler.Status()
}

func (s *Surface) Status() scheduler.Status {
	return s.scheduler.Status()
}

// SendTest mails the test message to the addresses in text, or to the saved
// list when text is blank. It returns the addresses used.
func (s *Surface) SendTest(ctx context.Context, text string) ([]string, error) {
	emails, err := s.resolveRecipients(text)
	if err != nil {
		return nil, err
	}
	return emails, s.mailer.SendTest(ctx, emails)
}

// SendNow mails the newest report immediately.
func (s *Surface) SendNow(ctx context.Context, text string) (models.Report, []string, error) {
	emails, err := s.resolveRecipients(text)
	if err != nil {
		return models.Report{}, nil, err
	}
	r, err := s.mailer.SendLatest(ctx, models.DeliveryReport, emails)
	return r, emails, err
}

func (s *Surface) resolveRecipients(text string) ([]string, error) {
	if strings.TrimSpace(text) != "" {
		return ParseRecipients(text)
	}
	emails := s.recipients.List()
	if len(emails) == 0 {
		return nil, invalid("recipients", "please enter at least one email address")
	}
	return emails, nil
}

func (s *Surface) parseSchedule(req ScheduleRequest) (scheduler.Params, error) {
	now := s.nowFn()

	start := now
	if d := strings.TrimSpace(req.StartDate); d != "" {
		t, err := time.ParseInLocation(dateLayout, d, now.Location())
		if err != nil {
			return scheduler.Params{}, invalid("start_date", "%q is not a date in YYYY-MM-DD form", d)
		}
		start = t
	}

	clock := strings.TrimSpace(req.StartTime)
	if clock == "" {
		clock = DefaultStartTime
	}
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return scheduler.Params{}, err
	}

	f := frequency.Daily
	if name := strings.TrimSpace(req.Frequency); name != "" {
		if f, err = frequency.Parse(name); err != nil {
			return scheduler.Params{}, invalid("frequency", "%q is not a known frequency", name)
		}
	}

	return scheduler.Params{StartDate: start, Hour: hour, Minute: minute, Frequency: f}, nil
}

// ParseClock reads "HH:MM" in 24-hour form.
func ParseClock(s string) (int, int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, invalid("start_time", "%q is not a time in HH:MM form", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, 0, invalid("start_time", "%q is not a time in HH:MM form", s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, 0, invalid("start_time", "%q is not a time in HH:MM form", s)
	}
	if err := frequency.ValidateClock(hour, minute); err != nil {
		return 0, 0, invalid("start_time", "%v", err)
	}
	return hour, minute, nil
}
