package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/model"
	"storefront/internal/util"
)

type contactRepository struct {
	client *ScyllaClient
}

func NewContactRepository(client *ScyllaClient, logger *zap.Logger) ContactRepository {
	return &contactRepository{client: client}
}

func (r *contactRepository) CreateMessage(ctx context.Context, m *model.ContactMessage) error {
	if m.MessageID == "" {
		m.MessageID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = model.ContactStatusNew
	}
	m.CreatedAt = time.Now().UTC()

	if err := r.client.Prepared.CreateContact.Bind(
		m.MessageID, m.Name, m.Email, m.Subject, m.Message, m.Status, m.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		util.Error("Failed to create contact message",
			zap.String("message_id", m.MessageID),
			zap.Error(err))
		return fmt.Errorf("failed to create contact message: %w", err)
	}

	util.Info("Contact message stored", zap.String("message_id", m.MessageID))
	return nil
}

func (r *contactRepository) GetMessage(ctx context.Context, messageID string) (*model.ContactMessage, error) {
	m := &model.ContactMessage{}

	query := r.client.Prepared.GetContact.Bind(messageID).WithContext(ctx)
	err := r.client.ScanWithRetry(query,
		&m.MessageID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.Status, &m.CreatedAt)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, gocql.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact message: %w", err)
	}

	return m, nil
}

func (r *contactRepository) ListMessages(ctx context.Context) ([]*model.ContactMessage, error) {
	iter := r.client.Session.Query(`
		SELECT message_id, name, email, subject, message, status, created_at
		FROM contact_messages`).WithContext(ctx).Iter()

	var messages []*model.ContactMessage
	for {
		m := &model.ContactMessage{}
		if !iter.Scan(&m.MessageID, &m.Name, &m.Email, &m.Subject, &m.Message,
			&m.Status, &m.CreatedAt) {
			break
		}
		messages = append(messages, m)
	}
	if err := iter.Close(); err != nil {
		util.Error("Failed to list contact messages", zap.Error(err))
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}

	return messages, nil
}

func (r *contactRepository) SetStatus(ctx context.Context, messageID, status string) error {
	if err := r.client.Prepared.SetContactStatus.
		Bind(status, messageID).
		WithContext(ctx).Exec(); err != nil {
		util.Error("Failed to set contact message status",
			zap.String("message_id", messageID),
			zap.Error(err))
		return fmt.Errorf("failed to set contact message status: %w", err)
	}
	return nil
}

func (r *contactRepository) DeleteMessage(ctx context.Context, messageID string) error {
	if err := r.client.Prepared.DeleteContact.
		Bind(messageID).
		WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to delete contact message: %w", err)
	}

	util.Info("Contact message deleted", zap.String("message_id", messageID))
	return nil
}

func (r *contactRepository) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	query := r.client.Session.Query(`SELECT COUNT(*) FROM contact_messages`).WithContext(ctx)
	if err := query.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contact messages: %w", err)
	}
	return count, nil
}
