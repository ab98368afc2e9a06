package service

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"sync"

	"github.com/resend/resend-go/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"inkcopilot/config"
	"inkcopilot/internal/checkout"
	"inkcopilot/internal/models"
	"inkcopilot/internal/repository"
)

//go:embed templates/receipt.html
var receiptHTML string

var receiptTmpl = template.Must(template.New("receipt").Parse(receiptHTML))

// Mailer sends one HTML email and returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) (string, error)
}

type resendMailer struct {
	client *resend.Client
	from   string
}

func (m *resendMailer) Send(_ context.Context, to, subject, html string) (string, error) {
	sent, err := m.client.Emails.Send(&resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}

// logMailer stands in when no Resend key is configured.
type logMailer struct {
	logger zerolog.Logger
}

func (m logMailer) Send(_ context.Context, to, subject, _ string) (string, error) {
	m.logger.Info().Str("to", to).Str("subject", subject).Msg("[email] RESEND_API_KEY missing, not sending")
	return "", nil
}

// NewMailer returns a Resend mailer, or a logging stand-in without an API key.
func NewMailer(cfg config.EmailConfig, logger zerolog.Logger) Mailer {
	if cfg.APIKey == "" {
		return logMailer{logger: logger}
	}
	return &resendMailer{client: resend.NewClient(cfg.APIKey), from: cfg.From}
}

type receiptData struct {
	AppName   string
	Customer  string
	Plan      string
	Posts     int
	Amount    float64
	Period    string
	Reference string
}

// ReceiptService mails a confirmation once per verified payment reference.
// Snapshots are queued by CheckoutChanged and sent by Run.
type ReceiptService struct {
	repo    *repository.ReceiptRepository
	mailer  Mailer
	appName string
	logger  zerolog.Logger

	queue chan checkout.Snapshot

	mu     sync.Mutex
	queued map[string]bool
}

func NewReceiptService(repo *repository.ReceiptRepository, mailer Mailer, cfg config.EmailConfig, logger zerolog.Logger) *ReceiptService {
	return &ReceiptService{
		repo:    repo,
		mailer:  mailer,
		appName: cfg.AppName,
		logger:  logger.With().Str("component", "receipts").Logger(),
		queue:   make(chan checkout.Snapshot, 64),
		queued:  make(map[string]bool),
	}
}

func (s *ReceiptService) CheckoutChanged(snap checkout.Snapshot) {
	if snap.State != checkout.StateVerified || snap.Reference == "" || snap.Email == "" {
		return
	}
	s.mu.Lock()
	if s.queued[snap.Reference] {
		s.mu.Unlock()
		return
	}
	s.queued[snap.Reference] = true
	s.mu.Unlock()

	select {
	case s.queue <- snap:
	default:
		s.forget(snap.Reference)
		s.logger.Warn().Str("reference", snap.Reference).Msg("[email] receipt queue full, dropping")
	}
}

// Run sends queued receipts until ctx is done.
func (s *ReceiptService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-s.queue:
			if err := s.Send(ctx, snap); err != nil {
				s.logger.Error().Err(err).Str("reference", snap.Reference).Msg("[email] receipt failed")
			}
			s.forget(snap.Reference)
		}
	}
}

func (s *ReceiptService) forget(ref string) {
	s.mu.Lock()
	delete(s.queued, ref)
	s.mu.Unlock()
}

// Send mails the receipt for a verified snapshot unless one already went out.
func (s *ReceiptService) Send(ctx context.Context, snap checkout.Snapshot) error {
	rc, err := s.repo.GetByReference(snap.Reference)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rc = &models.Receipt{Reference: snap.Reference, SessionID: snap.ID, Email: snap.Email}
	case err != nil:
		return err
	case rc.Status == "sent":
		return nil
	}

	var body bytes.Buffer
	if err := receiptTmpl.Execute(&body, receiptData{
		AppName:   s.appName,
		Customer:  snap.Customer,
		Plan:      string(snap.Plan.Name),
		Posts:     snap.Plan.PostsLimit(),
		Amount:    snap.Amount,
		Period:    snap.Plan.BillingPeriod,
		Reference: snap.Reference,
	}); err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}

	subject := fmt.Sprintf("Your %s %s plan is active", s.appName, snap.Plan.Name)
	id, sendErr := s.mailer.Send(ctx, snap.Email, subject, body.String())
	rc.ProviderID = id
	rc.Status = "sent"
	rc.Error = ""
	if sendErr != nil {
		rc.Status = "failed"
		rc.Error = sendErr.Error()
	}

	if rc.ID == 0 {
		err = s.repo.Create(rc)
	} else {
		err = s.repo.Update(rc)
	}
	if err != nil {
		return err
	}
	if sendErr != nil {
		return fmt.Errorf("send receipt: %w", sendErr)
	}
	s.logger.Info().Str("reference", snap.Reference).Str("provider_id", id).Msg("[email] receipt sent")
	return nil
}
