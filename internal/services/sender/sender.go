// Package sender отправляет покупателю письма о событиях биллинга,
// полученных из очереди.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/medico/internal/lib/sl"
	"github.com/magabrotheeeer/medico/internal/lib/smtp"
	"github.com/magabrotheeeer/medico/internal/models"
)

// Service формирует и отправляет письма уведомлений.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// SendCheckoutSucceeded письмо об успешной оплате консультации или оформлении подписки.
func (s *Service) SendCheckoutSucceeded(body []byte) error {
	event, err := s.decode(body)
	if err != nil {
		return err
	}

	subject := "Your Medico payment was successful"
	var text string
	if event.SubscriptionID != "" {
		text = fmt.Sprintf("Hello, %s!\n\nYour subscription %s is now active.", event.Name, event.SubscriptionID)
	} else {
		text = fmt.Sprintf("Hello, %s!\n\nYour card payment was successful.", event.Name)
	}
	if event.Amount != "" {
		text += fmt.Sprintf("\nAmount: %s.", event.Amount)
	}
	text += "\n\nA medical professional will review your reason for visit shortly."

	return s.sendEmail([]string{event.Email}, subject, text)
}

// SendSubscriptionCanceled письмо об отмене подписки.
func (s *Service) SendSubscriptionCanceled(body []byte) error {
	event, err := s.decode(body)
	if err != nil {
		return err
	}

	subject := "Your Medico subscription was canceled"
	text := fmt.Sprintf("Hello, %s!\n\nYour subscription %s has been canceled and will not be charged again.",
		event.Name, event.SubscriptionID)

	return s.sendEmail([]string{event.Email}, subject, text)
}

func (s *Service) decode(body []byte) (models.BillingEvent, error) {
	var event models.BillingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return models.BillingEvent{}, fmt.Errorf("error unmarshalling message: %w", err)
	}
	if event.Email == "" {
		s.log.Warn("billing event without recipient", slog.String("type", event.Type), slog.String("user_uid", event.UserUID))
		return models.BillingEvent{}, fmt.Errorf("billing event %q has no email", event.Type)
	}
	return event, nil
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
