package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lk2023060901/file-archive-backend/internal/archive/biz"
	"github.com/lk2023060901/file-archive-backend/internal/conf"
	"github.com/wneessen/go-mail"
)

const sendTimeout = 30 * time.Second

// Mailer sends the optional inactivity sweep summary over SMTP
type Mailer struct {
	config *conf.SMTPConfig
}

// NewMailer creates the sweep mailer
func NewMailer(config *conf.SMTPConfig) (*Mailer, error) {
	if config == nil || !config.Enabled {
		return nil, fmt.Errorf("smtp is not configured")
	}
	if config.Host == "" || config.From == "" || len(config.To) == 0 {
		return nil, fmt.Errorf("smtp host, from and to are required")
	}
	return &Mailer{config: config}, nil
}

// SendSweepSummary mails one sweep result to the configured recipients
func (m *Mailer) SendSweepSummary(ctx context.Context, result *biz.SweepResult) error {
	msg := mail.NewMsg()
	if err := msg.From(m.config.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(m.config.To...); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	msg.Subject(fmt.Sprintf("Inactivity archival sweep: %d files archived", result.ArchivedCount))
	msg.SetBodyString(mail.TypeTextPlain, formatSummary(result))

	opts := []mail.Option{
		mail.WithPort(m.config.Port),
		mail.WithTimeout(sendTimeout),
	}
	if m.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.config.Username),
			mail.WithPassword(m.config.Password),
		)
	} else {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthNoAuth))
	}

	client, err := mail.NewClient(m.config.Host, opts...)
	if err != nil {
		return fmt.Errorf("create mail client: %w", err)
	}
	defer client.Close()

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := client.DialAndSendWithContext(sendCtx, msg); err != nil {
		return fmt.Errorf("send sweep summary: %w", err)
	}
	return nil
}

func formatSummary(result *biz.SweepResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Inactivity archival sweep finished.\n\n")
	fmt.Fprintf(&b, "Threshold: %d days (cutoff %s)\n", result.ThresholdDays, result.Cutoff)
	fmt.Fprintf(&b, "Inactive administrators: %s\n", strings.Join(result.InactiveAdmins, ", "))
	fmt.Fprintf(&b, "Archived: %d files (%d failed)\n", result.ArchivedCount, result.FailedCount)

	if len(result.Sample) > 0 {
		fmt.Fprintf(&b, "\nSample:\n")
		for _, item := range result.Sample {
			fmt.Fprintf(&b, "  - %s (category %s, v%d, owner %s)\n",
				item.FileName, item.Category, item.Version, item.Owner)
		}
	}
	return b.String()
}
