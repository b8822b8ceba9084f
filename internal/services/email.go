package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventplanner/internal/domain"
)

const invitationDateLayout = "Monday, January 2, 2006 15:04 MST"

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an InvitationSender that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.InvitationSender {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendEventInvitation sends the invitation email using the "event_invitation" template.
func (s *emailService) SendEventInvitation(ctx context.Context, n *domain.InvitationNotification) error {
	if n == nil {
		return fmt.Errorf("invitation notification is nil")
	}
	data := &domain.EventInvitationEmailData{
		Email:     n.Email,
		OwnerName: n.OwnerID,
		EventName: n.Title,
		Date:      n.StartTime.Format(invitationDateLayout),
		Location:  n.Location,
	}
	subject, htmlBody, textBody, err := s.renderer.Render("event_invitation", data)
	if err != nil {
		return fmt.Errorf("failed to render event_invitation template: %w", err)
	}
	if err := s.mailer.Send(n.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send event invitation: %w", err)
	}
	s.logger.Info("event invitation sent", "event_id", n.EventID, "email", n.Email)
	return nil
}
