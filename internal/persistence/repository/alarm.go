package repository

import (
	"context"
	"errors"
	"time"

	"github.com/wooyoung-dev/petmeet/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type alarmRepository struct {
	database *gorm.DB
}

func NewAlarmRepository(database *gorm.DB) domain.AlarmRepository {
	return &alarmRepository{database: database}
}

// Save inserts the alarm, doing nothing when its id already exists so a
// broker redelivery cannot duplicate or overwrite the stored row.
func (r *alarmRepository) Save(ctx context.Context, alarm *domain.Alarm) error {
	result := r.database.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(alarm)

	return result.Error
}

func (r *alarmRepository) GetByID(ctx context.Context, id string) (*domain.Alarm, error) {
	var alarm domain.Alarm

	err := r.database.WithContext(ctx).
		Where("id = ?", id).
		First(&alarm).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAlarmNotFound
		}
		return nil, err
	}

	return &alarm, nil
}

func (r *alarmRepository) GetByRecipient(ctx context.Context, userID int64) ([]domain.Alarm, error) {
	var alarms []domain.Alarm

	err := r.database.WithContext(ctx).
		Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Find(&alarms).
		Error
	if err != nil {
		return nil, err
	}

	return alarms, nil
}

// MarkRead sets the read flag once; a second acknowledgement leaves the
// original timestamp in place.
func (r *alarmRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	result := r.database.WithContext(ctx).
		Model(&domain.Alarm{}).
		Where("id = ? AND is_read = false", id).
		Updates(map[string]any{
			"is_read": true,
			"read_at": at,
		})

	return result.Error
}

// DeleteExpired removes read alarms older than readBefore and unread alarms
// older than unreadBefore, returning how many rows went away.
func (r *alarmRepository) DeleteExpired(ctx context.Context, readBefore, unreadBefore time.Time) (int64, error) {
	result := r.database.WithContext(ctx).
		Where("(is_read = true AND created_at < ?) OR (is_read = false AND created_at < ?)", readBefore, unreadBefore).
		Delete(&domain.Alarm{})

	return result.RowsAffected, result.Error
}
