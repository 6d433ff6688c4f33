package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/sportshop/ecommerce/internal/config"
	"github.com/sportshop/ecommerce/internal/log"
)

// Mailer delivers a transactional email and returns a provider reference
// for the accepted message.
type Mailer interface {
	Send(c context.Context, to, subject, htmlBody string) (string, error)
}

type SendGridMailer struct {
	apiKey      string
	fromAddress string
	fromName    string
}

func NewSendGridMailer(cfg config.Email) *SendGridMailer {
	return &SendGridMailer{
		apiKey:      cfg.ApiKey,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
	}
}

func (m *SendGridMailer) Send(
	c context.Context,
	to, subject, htmlBody string,
) (string, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SendGridMailer Send").
		Str(log.KeyEmail, to).
		Logger()

	if m.apiKey == "" {
		return "", fmt.Errorf("sendgrid api key is empty")
	}
	if to == "" {
		return "", fmt.Errorf("to address is empty")
	}

	from := mail.NewEmail(m.fromName, m.fromAddress)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), "", htmlBody)

	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.SendWithContext(c, message)
	if err != nil {
		return "", fmt.Errorf("failed sending email with error=%w", err)
	}
	if response.StatusCode >= 400 {
		return "", fmt.Errorf(
			"failed sending email with status=%d body=%s",
			response.StatusCode,
			response.Body,
		)
	}

	reference := ""
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		reference = ids[0]
	}
	logger.Info().Msgf("sent email with status=%d", response.StatusCode)

	return reference, nil
}
