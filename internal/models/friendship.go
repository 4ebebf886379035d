package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "pending"
	FriendshipStatusAccepted FriendshipStatus = "accepted"
	FriendshipStatusDeclined FriendshipStatus = "declined"
	FriendshipStatusBlocked  FriendshipStatus = "blocked"
)

// Live reports whether the status occupies the uniqueness slot for a pair.
func (s FriendshipStatus) Live() bool {
	return s == FriendshipStatusPending || s == FriendshipStatusAccepted
}

// Friendship is an ordered pair: UserOneID sent the request, UserTwoID
// received it.
type Friendship struct {
	ID        uuid.UUID        `json:"id"`
	UserOneID uuid.UUID        `json:"user_one_id"`
	UserTwoID uuid.UUID        `json:"user_two_id"`
	Status    FriendshipStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// OtherUser returns the party that is not userID. The caller must already
// know userID is one of the pair.
func (f *Friendship) OtherUser(userID uuid.UUID) uuid.UUID {
	if f.UserOneID == userID {
		return f.UserTwoID
	}
	return f.UserOneID
}

// Friend is the other party of an accepted friendship, as listed for a viewer.
type Friend struct {
	FriendshipID uuid.UUID `json:"friendship_id"`
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	FriendsSince time.Time `json:"friends_since"`
}

type FriendsPage struct {
	Friends    []Friend `json:"friends"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	Size       int      `json:"size"`
	TotalPages int      `json:"total_pages"`
}

// FriendRequest is an incoming pending friendship, seen by the recipient.
type FriendRequest struct {
	ID              uuid.UUID `json:"id"`
	SenderID        uuid.UUID `json:"sender_id"`
	SenderUsername  string    `json:"sender_username"`
	SenderFirstName string    `json:"sender_first_name"`
	SenderLastName  string    `json:"sender_last_name"`
	SenderAvatarURL *string   `json:"sender_avatar_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type FriendRequestsPage struct {
	Requests   []FriendRequest `json:"requests"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Size       int             `json:"size"`
	TotalPages int             `json:"total_pages"`
}
