package tasks

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/fillip1984/inveniam/mail"
	"github.com/fillip1984/inveniam/status"
)

// ErrInvalidTriggerToken is returned when sendReportEmail is called without
// the configured trigger token.
var ErrInvalidTriggerToken = errors.New("unauthorized: invalid trigger token")

// Digest sends the status report email to every opted-in user.
type Digest struct {
	service     *Service
	mailer      mail.Mailer
	appURL      string
	token       string
	concurrency int
}

// NewDigest creates a digest sender. An empty token disables the trigger
// token check.
func NewDigest(service *Service, mailer mail.Mailer, appURL, token string, concurrency int) *Digest {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Digest{
		service:     service,
		mailer:      mailer,
		appURL:      appURL,
		token:       token,
		concurrency: concurrency,
	}
}

// Authorize checks the trigger token.
func (d *Digest) Authorize(token string) error {
	if d.token == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(d.token), []byte(token)) != 1 {
		return ErrInvalidTriggerToken
	}
	return nil
}

// Send generates one report per recipient and mails it once. A failure for
// one recipient is counted and never aborts the others. Recipients with an
// empty report are skipped.
func (d *Digest) Send(ctx context.Context) (SendReportResponse, error) {
	if d.service.profile == nil {
		return SendReportResponse{}, fmt.Errorf("profile service not available")
	}
	users, err := d.service.profile.ReportRecipients(ctx)
	if err != nil {
		return SendReportResponse{}, fmt.Errorf("failed to list recipients: %w", err)
	}

	var sent, failed, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, u := range users {
		g.Go(func() error {
			logger := d.service.logger.With("user_id", u.ID)
			report, err := d.service.report(u.ID, u.Location(d.service.loc))
			if err != nil {
				logger.Error("Failed to generate status report", "error", err)
				failed.Add(1)
				return nil
			}
			if report.Empty() {
				skipped.Add(1)
				return nil
			}
			email, err := status.RenderEmail(report, d.appURL)
			if err != nil {
				logger.Error("Failed to render status report", "error", err)
				failed.Add(1)
				return nil
			}
			if err := d.mailer.Send(gctx, mail.Message{To: u.Email, Subject: email.Subject, HTML: email.HTML}); err != nil {
				logger.Error("Failed to send status report", "error", err)
				failed.Add(1)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return SendReportResponse{
		Sent:    int(sent.Load()),
		Failed:  int(failed.Load()),
		Skipped: int(skipped.Load()),
	}, nil
}
