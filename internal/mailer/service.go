package mailer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cankoe/filepulse/internal/deliveries"
	"github.com/cankoe/filepulse/internal/models"
	"github.com/cankoe/filepulse/internal/reports"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

var (
	ErrNoRecipients  = errors.New("no recipients specified")
	ErrNoReports     = errors.New("no reports available to send")
	ErrReportMissing = errors.New("report file not found")
)

// RecipientError is a send failure for one address.
type RecipientError struct {
	Recipient string
	Err       error
}

func (e *RecipientError) Error() string {
	return fmt.Sprintf("failed to send to %s: %v", e.Recipient, e.Err)
}

func (e *RecipientError) Unwrap() error { return e.Err }

// FailedRecipients extracts every RecipientError combined into err.
func FailedRecipients(err error) []*RecipientError {
	var out []*RecipientError
	for _, e := range multierr.Errors(err) {
		var re *RecipientError
		if errors.As(e, &re) {
			out = append(out, re)
		}
	}
	return out
}

// Service builds FilePulse emails and hands them to a Sender one recipient
// at a time. A failure for one recipient never stops the others.
type Service struct {
	sender   Sender
	reports  reports.Store
	recorder deliveries.Recorder
	from     string

	nowFn   func() time.Time
	batchID func() string
}

func NewService(sender Sender, store reports.Store, recorder deliveries.Recorder, from string) *Service {
	if recorder == nil {
		recorder = deliveries.Nop{}
	}
	return &Service{
		sender:   sender,
		reports:  store,
		recorder: recorder,
		from:     from,
		nowFn:    time.Now,
		batchID:  uuid.NewString,
	}
}

// SendTest mails the fixed confirmation message.
func (s *Service) SendTest(ctx context.Context, recipients []string) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}
	html, err := renderTest(s.nowFn())
	if err != nil {
		return fmt.Errorf("render test email: %w", err)
	}

	batch := s.batchID()
	log.Info().Str("batch_id", batch).Int("recipients", len(recipients)).Msg("Sending test email")
	return s.fanOut(ctx, batch, models.DeliveryTest, recipients, Message{
		From:    s.from,
		Subject: testSubject,
		HTML:    html,
	}, "")
}

// SendReport mails r as an attachment. It fails before contacting anyone
// when the report file is absent.
func (s *Service) SendReport(ctx context.Context, kind models.DeliveryKind, recipients []string, r models.Report) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}
	batch := s.batchID()

	data, err := readReport(r.Path)
	if err != nil {
		s.recordSkip(ctx, batch, kind, r.Path, err)
		return err
	}

	title := r.Title
	if title == "" {
		title = "Report"
	}
	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = s.nowFn()
	}
	html, err := renderReport(title, generated)
	if err != nil {
		return fmt.Errorf("render report email: %w", err)
	}

	log.Info().Str("batch_id", batch).Str("kind", string(kind)).Str("report", r.Path).
		Int("recipients", len(recipients)).Msg("Sending report email")
	return s.fanOut(ctx, batch, kind, recipients, Message{
		From:    s.from,
		Subject: reportSubject + title,
		HTML:    html,
		Attachment: &Attachment{
			Filename: filepath.Base(r.Path),
			Data:     data,
		},
	}, r.Path)
}

// SendLatest mails the newest report from the store and returns it.
func (s *Service) SendLatest(ctx context.Context, kind models.DeliveryKind, recipients []string) (models.Report, error) {
	if len(recipients) == 0 {
		return models.Report{}, ErrNoRecipients
	}
	r, ok, err := reports.Latest(ctx, s.reports)
	if err != nil {
		return models.Report{}, fmt.Errorf("list reports: %w", err)
	}
	if !ok {
		s.recordSkip(ctx, s.batchID(), kind, "", ErrNoReports)
		return models.Report{}, ErrNoReports
	}
	return r, s.SendReport(ctx, kind, recipients, r)
}

// Reports exposes the underlying report listing.
func (s *Service) Reports(ctx context.Context) ([]models.Report, error) {
	return s.reports.List(ctx)
}

func (s *Service) fanOut(ctx context.Context, batch string, kind models.DeliveryKind, recipients []string, tmpl Message, reportPath string) error {
	var errs error
	sent := 0
	for _, to := range recipients {
		msg := tmpl
		msg.To = to

		d := models.Delivery{
			BatchID:     batch,
			Kind:        kind,
			Recipient:   to,
			Subject:     msg.Subject,
			ReportPath:  reportPath,
			Status:      models.DeliverySent,
			AttemptedAt: s.nowFn().UTC(),
		}

		if err := s.sender.Send(ctx, msg); err != nil {
			log.Error().Err(err).Str("batch_id", batch).Str("recipient", to).Msg("Failed to send email")
			d.Status = models.DeliveryFailed
			d.Message = err.Error()
			errs = multierr.Append(errs, &RecipientError{Recipient: to, Err: err})
		} else {
			sent++
		}
		s.record(ctx, d)
	}

	log.Info().Str("batch_id", batch).Int("sent", sent).Int("failed", len(recipients)-sent).Msg("Email batch finished")
	return errs
}

func (s *Service) recordSkip(ctx context.Context, batch string, kind models.DeliveryKind, path string, reason error) {
	s.record(ctx, models.Delivery{
		BatchID:     batch,
		Kind:        kind,
		ReportPath:  path,
		Status:      models.DeliverySkipped,
		Message:     reason.Error(),
		AttemptedAt: s.nowFn().UTC(),
	})
}

func (s *Service) record(ctx context.Context, d models.Delivery) {
	if err := s.recorder.Record(ctx, d); err != nil {
		log.Warn().Err(err).Str("batch_id", d.BatchID).Msg("Delivery not recorded")
	}
}

func readReport(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrReportMissing)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrReportMissing, path)
		}
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	return data, nil
}
