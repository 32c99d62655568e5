package domain

import (
	"context"
	"errors"
)

var ErrNotRoomMember = errors.New("not a member of the room")

// MemberRole mirrors the roles the group-membership service assigns.
type MemberRole string

const (
	RoleOwner    MemberRole = "owner"
	RoleManager  MemberRole = "manager"
	RoleMember   MemberRole = "member"
	RoleObserver MemberRole = "observer"
)

// RoomMember is a read-only view of one user's membership in a room,
// owned by the group-membership service outside this core.
type RoomMember struct {
	UserID     int64      `gorm:"column:user_id"`
	RoomID     int64      `gorm:"column:room_id"`
	Role       MemberRole `gorm:"column:role"`
	Temporary  bool       `gorm:"column:temporary"`
	LastReadID string     `gorm:"column:last_read_id"`
}

// ReceivesPush reports whether the member should be pushed room events.
// Temporary members and observer seats read history on demand and are
// excluded from fan-out.
func (m RoomMember) ReceivesPush() bool {
	return !m.Temporary && m.Role != RoleObserver
}

// RoomMembershipReader exposes just enough of the external membership data
// to compute push recipients and validate senders. This core never writes
// through it.
type RoomMembershipReader interface {
	Members(ctx context.Context, roomID int64) ([]RoomMember, error)
	IsMember(ctx context.Context, roomID, userID int64) (bool, error)
}
