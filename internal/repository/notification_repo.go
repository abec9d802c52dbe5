package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/xolanidube/mzansi-market-sub000/internal/domain"
	"github.com/xolanidube/mzansi-market-sub000/internal/models"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uint, page, limit int) ([]models.Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Notification
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&list).Error
	return list, total, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// NextPending fetches the oldest undelivered outbox rows for the dispatcher.
func (r *NotificationRepository) NextPending(ctx context.Context, limit int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).
		Where("delivery = ?", domain.DeliveryPending).
		Order("id ASC").Limit(limit).Find(&list).Error
	return list, err
}

// MarkSent records a successful delivery.
func (r *NotificationRepository) MarkSent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"delivery":     domain.DeliverySent,
			"delivered_at": time.Now(),
			"last_error":   "",
		}).Error
}

// RecordFailure bumps the attempt counter; once attempts reach maxAttempts
// the row is parked as FAILED and no longer picked up.
func (r *NotificationRepository) RecordFailure(ctx context.Context, id uint, deliveryErr error, maxAttempts int) error {
	msg := ""
	if deliveryErr != nil {
		msg = deliveryErr.Error()
		if len(msg) > 255 {
			msg = msg[:255]
		}
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n models.Notification
		err := tx.Where("id = ?", id).First(&n).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		n.Attempts++
		delivery := domain.DeliveryPending
		if n.Attempts >= maxAttempts {
			delivery = domain.DeliveryFailed
		}
		return tx.Model(&models.Notification{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"attempts":   n.Attempts,
				"delivery":   delivery,
				"last_error": msg,
			}).Error
	})
}
