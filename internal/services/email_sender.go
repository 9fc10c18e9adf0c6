package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

type SMTPEmailSenderConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	NoTLS    bool
}

type smtpEmailSenderImpl struct {
	logger zerolog.Logger
	cfg    SMTPEmailSenderConfig
}

func NewSMTPEmailSender(logger zerolog.Logger, cfg SMTPEmailSenderConfig) EmailSender {
	return &smtpEmailSenderImpl{
		logger: logger,
		cfg:    cfg,
	}
}

func (s *smtpEmailSenderImpl) SendEmail(ctx context.Context, email, subject, htmlMessage string) error {
	msg, err := s.newMessage(email, subject, htmlMessage)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("email", email).
			Msg("failed to build email")
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("host", s.cfg.Host).
			Msg("failed to create smtp client")
		return err
	}

	err = client.DialAndSendWithContext(ctx, msg)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("email", email).
			Msg("failed to send email")
		return err
	}

	s.logger.Info().
		Str("email", email).
		Str("subject", subject).
		Msg("sent email")
	return nil
}

func (s *smtpEmailSenderImpl) newMessage(email, subject, htmlMessage string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	err := msg.From(s.cfg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	err = msg.To(email)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlMessage)
	return msg, nil
}

func (s *smtpEmailSenderImpl) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(s.cfg.Port)}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	if s.cfg.NoTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	return opts
}

type logEmailSenderImpl struct {
	logger zerolog.Logger
}

// NewLogEmailSender returns an EmailSender that only logs the messages.
func NewLogEmailSender(logger zerolog.Logger) EmailSender {
	return &logEmailSenderImpl{logger: logger}
}

func (s *logEmailSenderImpl) SendEmail(_ context.Context, email, subject, htmlMessage string) error {
	s.logger.Info().
		Str("email", email).
		Str("subject", subject).
		Str("body", htmlMessage).
		Msg("email not sent, smtp is disabled")
	return nil
}
