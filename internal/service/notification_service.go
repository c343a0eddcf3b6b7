package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	appErrors "github.com/classdesk/classdesk-api/pkg/errors"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	ListByRecipient(ctx context.Context, email string) ([]models.Notification, error)
	CountUnread(ctx context.Context, email string) (int, error)
	MarkRead(ctx context.Context, email string) error
	Delete(ctx context.Context, id string) error
}

type membershipStore interface {
	AppendJoinedClassroom(ctx context.Context, userID, code string) error
}

// NotificationService manages the invitation mailbox. Invitations are
// consume-once: both accept and decline remove the row, and accept joins the
// classroom first. There is no persisted accepted or declined state.
type NotificationService struct {
	notifications notificationStore
	memberships   membershipStore
	logger        *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(notifications notificationStore, memberships membershipStore, logger *zap.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, memberships: memberships, logger: logger}
}

// List returns the caller's mailbox together with the unread badge count.
func (s *NotificationService) List(ctx context.Context, actor *models.JWTClaims) (*dto.NotificationList, error) {
	notifications, err := s.notifications.ListByRecipient(ctx, actor.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	unread, err := s.notifications.CountUnread(ctx, actor.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return &dto.NotificationList{Notifications: notifications, UnreadCount: unread}, nil
}

// MarkAllRead clears the unread badge for the caller.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *models.JWTClaims) error {
	if err := s.notifications.MarkRead(ctx, actor.Email); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// Accept joins the invitation's classroom, then removes the invitation. The
// removal happens exactly once regardless of whether the join succeeded, so
// a failed accept still consumes the invitation and the join error is what
// the caller sees.
func (s *NotificationService) Accept(ctx context.Context, actor *models.JWTClaims, notificationID string) error {
	notification, err := s.load(ctx, actor, notificationID)
	if err != nil {
		return err
	}

	// the cleanup must outlive the request: a canceled ctx is one of the
	// ways the membership update fails, and the delete still has to run
	cleanupCtx := context.WithoutCancel(ctx)
	defer func() {
		if delErr := s.notifications.Delete(cleanupCtx, notification.ID); delErr != nil {
			s.logger.Warn("failed to remove consumed invitation",
				zap.String("notificationId", notification.ID), zap.Error(delErr))
		}
	}()

	if err := s.memberships.AppendJoinedClassroom(ctx, actor.UserID, notification.ClassroomCode); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to join classroom")
	}

	s.logger.Info("invitation accepted",
		zap.String("notificationId", notification.ID),
		zap.String("classroomCode", notification.ClassroomCode),
		zap.String("userId", actor.UserID))
	return nil
}

// Decline removes the invitation without joining.
func (s *NotificationService) Decline(ctx context.Context, actor *models.JWTClaims, notificationID string) error {
	notification, err := s.load(ctx, actor, notificationID)
	if err != nil {
		return err
	}
	if err := s.notifications.Delete(ctx, notification.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove notification")
	}
	return nil
}

func (s *NotificationService) load(ctx context.Context, actor *models.JWTClaims, notificationID string) (*models.Notification, error) {
	notification, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if notification.RecipientEmail != actor.Email {
		return nil, appErrors.ErrForbidden
	}
	return notification, nil
}

// NotifyInvites fans invitation notifications out to the given recipients.
// Failures are logged per recipient and do not block the rest.
func (s *NotificationService) NotifyInvites(ctx context.Context, classroom *models.Classroom, emails []string) {
	for _, email := range emails {
		notification := &models.Notification{
			RecipientEmail: email,
			Message:        classroom.CreatorName + " invited you to join " + classroom.Name,
			ClassroomCode:  classroom.Code,
		}
		if err := s.notifications.Create(ctx, notification); err != nil {
			s.logger.Warn("failed to create invitation",
				zap.String("recipient", email),
				zap.String("classroomId", classroom.ID),
				zap.Error(err))
		}
	}
}
