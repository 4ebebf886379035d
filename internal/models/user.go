package models

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
	GenderOther  Gender = "other"
)

// Valid reports whether g is one of the known gender values.
func (g Gender) Valid() bool {
	switch g {
	case GenderFemale, GenderMale, GenderOther:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Gender       Gender    `json:"gender"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Location     *string   `json:"location,omitempty"`
	About        *string   `json:"about,omitempty"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	IsPro        bool      `json:"is_pro"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	Gender       Gender
	FirstName    string
	LastName     string
}

type UpdateProfileParams struct {
	FirstName *string
	LastName  *string
	Location  *string
	About     *string
	AvatarURL *string
	Interests []string
}

// UserSearchCriteria filters the paged account search. ExcludeUserID
// keeps the searching account out of its own results.
type UserSearchCriteria struct {
	SearchTerm    string
	Genders       []Gender
	Location      string
	Interests     []string
	ExcludeUserID uuid.UUID
}

type UserSearchResult struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Location  *string   `json:"location,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
}

type UserSearchPage struct {
	Users      []UserSearchResult `json:"users"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	Size       int                `json:"size"`
	TotalPages int                `json:"total_pages"`
}

// ProfileFriendshipStatus describes how the viewer relates to the profile's
// owner.
type ProfileFriendshipStatus string

const (
	ProfileFriendshipNone            ProfileFriendshipStatus = "none"
	ProfileFriendshipSelf            ProfileFriendshipStatus = "self"
	ProfileFriendshipFriends         ProfileFriendshipStatus = "friends"
	ProfileFriendshipRequestSent     ProfileFriendshipStatus = "request_sent"
	ProfileFriendshipRequestReceived ProfileFriendshipStatus = "request_received"
)

type UserProfile struct {
	ID                  uuid.UUID               `json:"id"`
	Username            string                  `json:"username"`
	FirstName           string                  `json:"first_name"`
	LastName            string                  `json:"last_name"`
	Gender              Gender                  `json:"gender"`
	Location            *string                 `json:"location,omitempty"`
	About               *string                 `json:"about,omitempty"`
	AvatarURL           *string                 `json:"avatar_url,omitempty"`
	IsPro               bool                    `json:"is_pro"`
	Interests           []string                `json:"interests"`
	FriendshipStatus    ProfileFriendshipStatus `json:"friendship_status"`
	RelatedFriendshipID *uuid.UUID              `json:"related_friendship_id,omitempty"`
	CreatedAt           time.Time               `json:"created_at"`
}

type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
