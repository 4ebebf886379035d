package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/groupmeet/groupmeet/internal/models"
)

// UserServiceInterface defines the contract for account operations.
type UserServiceInterface interface {
	Create(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, params models.UpdateProfileParams) (*models.User, error)
	Profile(ctx context.Context, userID, viewerID uuid.UUID) (*models.UserProfile, error)
	Search(ctx context.Context, criteria models.UserSearchCriteria, page models.PageRequest) (*models.UserSearchPage, error)
	SetPro(ctx context.Context, userID uuid.UUID, isPro bool) error
}

// AuthServiceInterface defines the contract for authentication operations.
type AuthServiceInterface interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
	CreateSession(ctx context.Context, userID uuid.UUID) (token string, err error)
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error
}

// MeetingServiceInterface defines the contract for meeting operations used by handlers.
type MeetingServiceInterface interface {
	Create(ctx context.Context, creatorID uuid.UUID, params models.CreateMeetingParams) (*models.Meeting, error)
	Update(ctx context.Context, meetingID, actorID uuid.UUID, params models.UpdateMeetingParams) (*models.Meeting, error)
	Delete(ctx context.Context, meetingID, actorID uuid.UUID) error
	Join(ctx context.Context, meetingID, userID uuid.UUID) error
	Leave(ctx context.Context, meetingID, userID uuid.UUID) error
	BlockParticipant(ctx context.Context, meetingID, targetID, actorID uuid.UUID) error
	UnblockParticipant(ctx context.Context, meetingID, targetID, actorID uuid.UUID) error
	RemoveParticipant(ctx context.Context, meetingID, targetID, actorID uuid.UUID) error
	ParticipantsPage(ctx context.Context, meetingID, viewerID uuid.UUID, searchTerm string, page models.PageRequest) (*models.ParticipantsPage, error)
	Detail(ctx context.Context, meetingID, viewerID uuid.UUID) (*models.MeetingDetail, error)
	Search(ctx context.Context, criteria models.MeetingSearchCriteria, page models.PageRequest) (*models.MeetingSearchPage, error)
	UserMeetings(ctx context.Context, userID uuid.UUID, page models.PageRequest) (*models.UserMeetingsPage, error)
}

// FriendServiceInterface defines the contract for friendship operations.
type FriendServiceInterface interface {
	SendRequest(ctx context.Context, senderID, recipientID uuid.UUID) (*models.Friendship, error)
	Accept(ctx context.Context, userID, requestID uuid.UUID) error
	RejectOrWithdraw(ctx context.Context, userID, requestID uuid.UUID) error
	RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error
	ListFriends(ctx context.Context, userID uuid.UUID, searchTerm string, page models.PageRequest) (*models.FriendsPage, error)
	ListIncomingRequests(ctx context.Context, userID uuid.UUID, page models.PageRequest) (*models.FriendRequestsPage, error)
}

// InterestServiceInterface defines the contract for vocabulary lookups.
type InterestServiceInterface interface {
	List(ctx context.Context, prefix string) ([]models.Interest, error)
}

// CalendarServiceInterface defines the contract for calendar operations.
type CalendarServiceInterface interface {
	CreateNote(ctx context.Context, userID uuid.UUID, params models.NoteParams) (*models.PersonalNote, error)
	UpdateNote(ctx context.Context, noteID, userID uuid.UUID, params models.NoteParams) (*models.PersonalNote, error)
	DeleteNote(ctx context.Context, noteID, userID uuid.UUID) error
	Range(ctx context.Context, userID uuid.UUID, start, end time.Time) (*models.CalendarData, error)
}

// EmailServiceInterface defines the contract for email operations.
type EmailServiceInterface interface {
	SendPasswordResetEmail(ctx context.Context, userID uuid.UUID, email string) error
	VerifyPasswordResetToken(ctx context.Context, token string) (uuid.UUID, error)
	MarkPasswordResetUsed(ctx context.Context, token string) error
}
