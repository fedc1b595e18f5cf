package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gocql/gocql"

	"storefront/internal/events"
	"storefront/internal/model"
	"storefront/internal/repository/scylla"
	"storefront/internal/util"
)

// ContactService implements the contact form and its admin inbox.
type ContactService struct {
	messages scylla.ContactRepository
	events   *events.Publisher
}

func NewContactService(messages scylla.ContactRepository, eventPublisher *events.Publisher) *ContactService {
	return &ContactService{
		messages: messages,
		events:   eventPublisher,
	}
}

// SubmitMessage stores a contact form submission.
func (s *ContactService) SubmitMessage(ctx context.Context, name, email, subject, message string) (*model.ContactMessage, error) {
	if util.ContainsSuspicious(subject) || util.ContainsSuspicious(message) {
		return nil, fmt.Errorf("%w: message contains disallowed content", ErrInvalidInput)
	}

	name = util.SanitizeInput(name)
	subject = util.SanitizeInput(subject)
	message = util.SanitizeInput(message)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || subject == "" || message == "" {
		return nil, ErrInvalidInput
	}
	if !util.IsValidEmail(email) {
		return nil, ErrInvalidInput
	}

	m := &model.ContactMessage{
		Name:    name,
		Email:   email,
		Subject: subject,
		Message: message,
	}
	if err := s.messages.CreateMessage(ctx, m); err != nil {
		return nil, err
	}

	s.events.ContactMessageReceived(ctx, m.MessageID)
	return m, nil
}

// ListMessages returns the admin inbox.
func (s *ContactService) ListMessages(ctx context.Context) ([]*model.ContactMessage, error) {
	return s.messages.ListMessages(ctx)
}

func (s *ContactService) GetMessage(ctx context.Context, messageID string) (*model.ContactMessage, error) {
	if messageID == "" {
		return nil, ErrInvalidInput
	}

	m, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// SetStatus moves a message through new/read/replied.
func (s *ContactService) SetStatus(ctx context.Context, messageID, status string) error {
	if messageID == "" || !model.IsValidContactStatus(status) {
		return ErrInvalidInput
	}

	if _, err := s.GetMessage(ctx, messageID); err != nil {
		return err
	}

	return s.messages.SetStatus(ctx, messageID, status)
}

func (s *ContactService) DeleteMessage(ctx context.Context, messageID string) error {
	if _, err := s.GetMessage(ctx, messageID); err != nil {
		return err
	}
	return s.messages.DeleteMessage(ctx, messageID)
}
