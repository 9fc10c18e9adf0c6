package app

import (
	"github.com/adanyl0v/project-manager/internal/config"
	"github.com/adanyl0v/project-manager/internal/services"
)

func newEmailSender() services.EmailSender {
	cfg := config.Global().SMTP
	logger := globalLogger.With().Str("component", "email").Logger()
	if cfg.Host == "" {
		globalLogger.Warn().Msg("smtp host is not set, emails will only be logged")
		return services.NewLogEmailSender(logger)
	}

	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("sending emails over smtp")
	return services.NewSMTPEmailSender(logger, services.SMTPEmailSenderConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		NoTLS:    cfg.NoTLS,
	})
}
