package services

import (
	"context"
	"time"

	"github.com/atulzaware51/blockchain-evoting/internal/logger"
	"github.com/atulzaware51/blockchain-evoting/internal/models"
	"github.com/atulzaware51/blockchain-evoting/internal/repository"
)

// NotificationService maintains the append-only conductor event log.
// Entries are created and later marked read; they are never edited.
type NotificationService struct {
	log  logger.Logger
	repo repository.NotificationRepository
	now  func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(log logger.Logger, repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{
		log:  log,
		repo: repo,
		now:  time.Now,
	}
}

// Add appends an entry to the log
func (s *NotificationService) Add(ctx context.Context, message, kind string) error {
	if kind == "" {
		kind = models.KindInfo
	}
	n := models.Notification{
		ID:        GenerateID("N"),
		Message:   message,
		Kind:      kind,
		CreatedAt: s.now(),
	}
	return s.repo.AddNotification(ctx, n)
}

// List returns notifications, newest first
func (s *NotificationService) List(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	return s.repo.ListNotifications(ctx, unreadOnly)
}

// MarkAllRead marks every notification read
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	return s.repo.MarkNotificationsRead(ctx)
}

// UnreadCount returns the number of unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	return s.repo.CountUnreadNotifications(ctx)
}
