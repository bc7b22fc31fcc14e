package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mealplanner/logging"
	"mealplanner/models"

	"gorm.io/gorm"
)

const NotificationPlanGenerated = "plan.generated"

// pushTimeout bounds a background push once the request that emitted it is gone.
const pushTimeout = 15 * time.Second

// Notifier is how other services announce events to a user.
type Notifier interface {
	Emit(ctx context.Context, userID uint, typ, message string)
}

// Pusher delivers a mobile push; PushService implements it.
type Pusher interface {
	PushToUser(ctx context.Context, userID uint, title, body string, data map[string]string)
}

// NotificationService stores a notification, then fans it out over
// websockets and push. Hub and pusher are optional. Pushes run in the
// background so callers never wait on SNS.
type NotificationService struct {
	db      *gorm.DB
	hub     *RealtimeHub
	push    Pusher
	timeout time.Duration
	pending sync.WaitGroup
}

func NewNotificationService(db *gorm.DB, hub *RealtimeHub, push Pusher) *NotificationService {
	return &NotificationService{db: db, hub: hub, push: push, timeout: pushTimeout}
}

// Emit never fails the caller.
func (s *NotificationService) Emit(ctx context.Context, userID uint, typ, message string) {
	n := &models.Notification{UserID: userID, Type: typ, Message: message, CreatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("type", typ).Msg("failed to store notification")
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(userID, map[string]any{
			"kind":         "notification.created",
			"notification": n,
		})
	}
	if s.push != nil {
		data := map[string]string{"type": typ, "notificationId": fmt.Sprintf("%d", n.ID)}
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			defer cancel()
			s.push.PushToUser(pctx, userID, "Meal planner", message, data)
		}()
	}
}

// Wait blocks until background pushes started by Emit have finished.
func (s *NotificationService) Wait() {
	s.pending.Wait()
}

func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
