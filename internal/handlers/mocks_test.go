package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/groupmeet/groupmeet/internal/models"
)

type mockUserService struct {
	CreateFunc         func(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	GetByUsernameFunc  func(ctx context.Context, username string) (*models.User, error)
	UpdatePasswordFunc func(ctx context.Context, userID uuid.UUID, newPasswordHash string) error
	UpdateProfileFunc  func(ctx context.Context, userID uuid.UUID, params models.UpdateProfileParams) (*models.User, error)
	ProfileFunc        func(ctx context.Context, userID, viewerID uuid.UUID) (*models.UserProfile, error)
	SearchFunc         func(ctx context.Context, criteria models.UserSearchCriteria, page models.PageRequest) (*models.UserSearchPage, error)
	SetProFunc         func(ctx context.Context, userID uuid.UUID, isPro bool) error
}

func (m *mockUserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, nil
}

func (m *mockUserService) UpdatePassword(ctx context.Context, userID uuid.UUID, newPasswordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, userID, newPasswordHash)
	}
	return nil
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, params models.UpdateProfileParams) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, userID, params)
	}
	return nil, nil
}

func (m *mockUserService) Profile(ctx context.Context, userID, viewerID uuid.UUID) (*models.UserProfile, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, userID, viewerID)
	}
	return nil, nil
}

func (m *mockUserService) Search(ctx context.Context, criteria models.UserSearchCriteria, page models.PageRequest) (*models.UserSearchPage, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, criteria, page)
	}
	return &models.UserSearchPage{}, nil
}

func (m *mockUserService) SetPro(ctx context.Context, userID uuid.UUID, isPro bool) error {
	if m.SetProFunc != nil {
		return m.SetProFunc(ctx, userID, isPro)
	}
	return nil
}

type mockAuthService struct {
	HashPasswordFunc          func(password string) (string, error)
	VerifyPasswordFunc        func(hash, password string) bool
	CreateSessionFunc         func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateSessionFunc       func(ctx context.Context, token string) (*models.User, error)
	DeleteSessionFunc         func(ctx context.Context, token string) error
	DeleteAllUserSessionsFunc func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockAuthService) HashPassword(password string) (string, error) {
	if m.HashPasswordFunc != nil {
		return m.HashPasswordFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *mockAuthService) VerifyPassword(hash, password string) bool {
	if m.VerifyPasswordFunc != nil {
		return m.VerifyPasswordFunc(hash, password)
	}
	return true
}

func (m *mockAuthService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, userID)
	}
	return "session_token_value", nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, token)
	}
	return nil, nil
}

func (m *mockAuthService) DeleteSession(ctx context.Context, token string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, token)
	}
	return nil
}

func (m *mockAuthService) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	if m.DeleteAllUserSessionsFunc != nil {
		return m.DeleteAllUserSessionsFunc(ctx, userID)
	}
	return nil
}

type mockEmailService struct {
	SendPasswordResetEmailFunc   func(ctx context.Context, userID uuid.UUID, email string) error
	VerifyPasswordResetTokenFunc func(ctx context.Context, token string) (uuid.UUID, error)
	MarkPasswordResetUsedFunc    func(ctx context.Context, token string) error
}

func (m *mockEmailService) SendPasswordResetEmail(ctx context.Context, userID uuid.UUID, email string) error {
	if m.SendPasswordResetEmailFunc != nil {
		return m.SendPasswordResetEmailFunc(ctx, userID, email)
	}
	return nil
}

func (m *mockEmailService) VerifyPasswordResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	if m.VerifyPasswordResetTokenFunc != nil {
		return m.VerifyPasswordResetTokenFunc(ctx, token)
	}
	return uuid.Nil, nil
}

func (m *mockEmailService) MarkPasswordResetUsed(ctx context.Context, token string) error {
	if m.MarkPasswordResetUsedFunc != nil {
		return m.MarkPasswordResetUsedFunc(ctx, token)
	}
	return nil
}

type mockMeetingService struct {
	CreateFunc             func(ctx context.Context, creatorID uuid.UUID, params models.CreateMeetingParams) (*models.Meeting, error)
	UpdateFunc             func(ctx context.Context, meetingID, actorID uuid.UUID, params models.UpdateMeetingParams) (*models.Meeting, error)
	DeleteFunc             func(ctx context.Context, meetingID, actorID uuid.UUID) error
	JoinFunc               func(ctx context.Context, meetingID, userID uuid.UUID) error
	LeaveFunc              func(ctx context.Context, meetingID, userID uuid.UUID) error
	BlockParticipantFunc   func(ctx context.Context, meetingID, targetID, actorID uuid.UUID) error
	UnblockParticipantFunc func(ctx context.Context, meetingID, targetID, actorID uuid.UUID) error
	RemoveParticipantFunc  func(ctx context.Context, meetingID, targetID, actorID uuid.UUID) error
	ParticipantsPageFunc   func(ctx context.Context, meetingID, viewerID uuid.UUID, searchTerm string, page models.PageRequest) (*models.ParticipantsPage, error)
	DetailFunc             func(ctx context.Context, meetingID, viewerID uuid.UUID) (*models.MeetingDetail, error)
	SearchFunc             func(ctx context.Context, criteria models.MeetingSearchCriteria, page models.PageRequest) (*models.MeetingSearchPage, error)
	UserMeetingsFunc       func(ctx context.Context, userID uuid.UUID, page models.PageRequest) (*models.UserMeetingsPage, error)
}

func (m *mockMeetingService) Create(ctx context.Context, creatorID uuid.UUID, params models.CreateMeetingParams) (*models.Meeting, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, creatorID, params)
	}
	return nil, nil
}

func (m *mockMeetingService) Update(ctx context.Context, meetingID, actorID uuid.UUID, params models.UpdateMeetingParams) (*models.Meeting, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, meetingID, actorID, params)
	}
	return nil, nil
}

func (m *mockMeetingService) Delete(ctx context.Context, meetingID, actorID uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, meetingID, actorID)
	}
	return nil
}

func (m *mockMeetingService) Join(ctx context.Context, meetingID, userID uuid.UUID) error {
	if m.JoinFunc != nil {
		return m.JoinFunc(ctx, meetingID, userID)
	}
	return nil
}

func (m *mockMeetingService) Leave(ctx context.Context, meetingID, userID uuid.UUID) error {
	if m.LeaveFunc != nil {
		return m.LeaveFunc(ctx, meetingID, userID)
	}
	return nil
}

func (m *mockMeetingService) BlockParticipant(ctx context.Context, meetingID, targetID, actorID uuid.UUID) error {
	if m.BlockParticipantFunc != nil {
		return m.BlockParticipantFunc(ctx, meetingID, targetID, actorID)
	}
	return nil
}

func (m *mockMeetingService) UnblockParticipant(ctx context.Context, meetingID, targetID, actorID uuid.UUID) error {
	if m.UnblockParticipantFunc != nil {
		return m.UnblockParticipantFunc(ctx, meetingID, targetID, actorID)
	}
	return nil
}

func (m *mockMeetingService) RemoveParticipant(ctx context.Context, meetingID, targetID, actorID uuid.UUID) error {
	if m.RemoveParticipantFunc != nil {
		return m.RemoveParticipantFunc(ctx, meetingID, targetID, actorID)
	}
	return nil
}

func (m *mockMeetingService) ParticipantsPage(ctx context.Context, meetingID, viewerID uuid.UUID, searchTerm string, page models.PageRequest) (*models.ParticipantsPage, error) {
	if m.ParticipantsPageFunc != nil {
		return m.ParticipantsPageFunc(ctx, meetingID, viewerID, searchTerm, page)
	}
	return &models.ParticipantsPage{}, nil
}

func (m *mockMeetingService) Detail(ctx context.Context, meetingID, viewerID uuid.UUID) (*models.MeetingDetail, error) {
	if m.DetailFunc != nil {
		return m.DetailFunc(ctx, meetingID, viewerID)
	}
	return &models.MeetingDetail{}, nil
}

func (m *mockMeetingService) Search(ctx context.Context, criteria models.MeetingSearchCriteria, page models.PageRequest) (*models.MeetingSearchPage, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, criteria, page)
	}
	return &models.MeetingSearchPage{}, nil
}

func (m *mockMeetingService) UserMeetings(ctx context.Context, userID uuid.UUID, page models.PageRequest) (*models.UserMeetingsPage, error) {
	if m.UserMeetingsFunc != nil {
		return m.UserMeetingsFunc(ctx, userID, page)
	}
	return &models.UserMeetingsPage{}, nil
}

type mockFriendService struct {
	SendRequestFunc          func(ctx context.Context, senderID, recipientID uuid.UUID) (*models.Friendship, error)
	AcceptFunc               func(ctx context.Context, userID, requestID uuid.UUID) error
	RejectOrWithdrawFunc     func(ctx context.Context, userID, requestID uuid.UUID) error
	RemoveFriendFunc         func(ctx context.Context, userID, friendID uuid.UUID) error
	ListFriendsFunc          func(ctx context.Context, userID uuid.UUID, searchTerm string, page models.PageRequest) (*models.FriendsPage, error)
	ListIncomingRequestsFunc func(ctx context.Context, userID uuid.UUID, page models.PageRequest) (*models.FriendRequestsPage, error)
}

func (m *mockFriendService) SendRequest(ctx context.Context, senderID, recipientID uuid.UUID) (*models.Friendship, error) {
	if m.SendRequestFunc != nil {
		return m.SendRequestFunc(ctx, senderID, recipientID)
	}
	return &models.Friendship{
		ID:        uuid.New(),
		UserOneID: senderID,
		UserTwoID: recipientID,
		Status:    models.FriendshipStatusPending,
		CreatedAt: time.Now(),
	}, nil
}

func (m *mockFriendService) Accept(ctx context.Context, userID, requestID uuid.UUID) error {
	if m.AcceptFunc != nil {
		return m.AcceptFunc(ctx, userID, requestID)
	}
	return nil
}

func (m *mockFriendService) RejectOrWithdraw(ctx context.Context, userID, requestID uuid.UUID) error {
	if m.RejectOrWithdrawFunc != nil {
		return m.RejectOrWithdrawFunc(ctx, userID, requestID)
	}
	return nil
}

func (m *mockFriendService) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	if m.RemoveFriendFunc != nil {
		return m.RemoveFriendFunc(ctx, userID, friendID)
	}
	return nil
}

func (m *mockFriendService) ListFriends(ctx context.Context, userID uuid.UUID, searchTerm string, page models.PageRequest) (*models.FriendsPage, error) {
	if m.ListFriendsFunc != nil {
		return m.ListFriendsFunc(ctx, userID, searchTerm, page)
	}
	return &models.FriendsPage{}, nil
}

func (m *mockFriendService) ListIncomingRequests(ctx context.Context, userID uuid.UUID, page models.PageRequest) (*models.FriendRequestsPage, error) {
	if m.ListIncomingRequestsFunc != nil {
		return m.ListIncomingRequestsFunc(ctx, userID, page)
	}
	return &models.FriendRequestsPage{}, nil
}

type mockCalendarService struct {
	CreateNoteFunc func(ctx context.Context, userID uuid.UUID, params models.NoteParams) (*models.PersonalNote, error)
	UpdateNoteFunc func(ctx context.Context, noteID, userID uuid.UUID, params models.NoteParams) (*models.PersonalNote, error)
	DeleteNoteFunc func(ctx context.Context, noteID, userID uuid.UUID) error
	RangeFunc      func(ctx context.Context, userID uuid.UUID, start, end time.Time) (*models.CalendarData, error)
}

func (m *mockCalendarService) CreateNote(ctx context.Context, userID uuid.UUID, params models.NoteParams) (*models.PersonalNote, error) {
	if m.CreateNoteFunc != nil {
		return m.CreateNoteFunc(ctx, userID, params)
	}
	return &models.PersonalNote{}, nil
}

func (m *mockCalendarService) UpdateNote(ctx context.Context, noteID, userID uuid.UUID, params models.NoteParams) (*models.PersonalNote, error) {
	if m.UpdateNoteFunc != nil {
		return m.UpdateNoteFunc(ctx, noteID, userID, params)
	}
	return &models.PersonalNote{}, nil
}

func (m *mockCalendarService) DeleteNote(ctx context.Context, noteID, userID uuid.UUID) error {
	if m.DeleteNoteFunc != nil {
		return m.DeleteNoteFunc(ctx, noteID, userID)
	}
	return nil
}

func (m *mockCalendarService) Range(ctx context.Context, userID uuid.UUID, start, end time.Time) (*models.CalendarData, error) {
	if m.RangeFunc != nil {
		return m.RangeFunc(ctx, userID, start, end)
	}
	return &models.CalendarData{}, nil
}

type mockInterestService struct {
	ListFunc func(ctx context.Context, prefix string) ([]models.Interest, error)
}

func (m *mockInterestService) List(ctx context.Context, prefix string) ([]models.Interest, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, prefix)
	}
	return []models.Interest{}, nil
}
