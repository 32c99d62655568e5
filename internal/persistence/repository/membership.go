package repository

import (
	"context"

	"github.com/wooyoung-dev/petmeet/internal/domain"
	"gorm.io/gorm"
)

// membershipReader reads the room_members table owned by the group service.
// It is strictly read-only here.
type membershipReader struct {
	database *gorm.DB
}

func NewMembershipReader(database *gorm.DB) domain.RoomMembershipReader {
	return &membershipReader{database: database}
}

func (r *membershipReader) Members(ctx context.Context, roomID int64) ([]domain.RoomMember, error) {
	var members []domain.RoomMember

	err := r.database.WithContext(ctx).
		Table("room_members").
		Where("room_id = ?", roomID).
		Find(&members).
		Error
	if err != nil {
		return nil, err
	}

	return members, nil
}

func (r *membershipReader) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	var count int64

	err := r.database.WithContext(ctx).
		Table("room_members").
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
