package models

import (
	"time"

	"github.com/google/uuid"
)

type MeetingFormat string

const (
	MeetingFormatOnline  MeetingFormat = "online"
	MeetingFormatOffline MeetingFormat = "offline"
	MeetingFormatHybrid  MeetingFormat = "hybrid"
)

// Valid reports whether f is one of the known meeting formats.
func (f MeetingFormat) Valid() bool {
	switch f {
	case MeetingFormatOnline, MeetingFormatOffline, MeetingFormatHybrid:
		return true
	}
	return false
}

type Meeting struct {
	ID              uuid.UUID     `json:"id"`
	Title           string        `json:"title"`
	Description     *string       `json:"description,omitempty"`
	Format          MeetingFormat `json:"format"`
	Types           []string      `json:"types"`
	Location        *string       `json:"location,omitempty"`
	DateTime        time.Time     `json:"date_time"`
	MaxParticipants *int          `json:"max_participants,omitempty"`
	CreatorID       uuid.UUID     `json:"creator_id"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type CreateMeetingParams struct {
	Title           string
	Description     *string
	Format          MeetingFormat
	TypeNames       []string
	Location        *string
	DateTime        time.Time
	MaxParticipants *int
}

type UpdateMeetingParams struct {
	Title           *string
	Description     *string
	Format          *MeetingFormat
	TypeNames       []string
	Location        *string
	DateTime        *time.Time
	MaxParticipants *int
}

// MeetingSearchCriteria filters the paged meeting search.
type MeetingSearchCriteria struct {
	SearchTerm string
	Types      []string
	Location   string
	Format     MeetingFormat
	StartDate  *time.Time
	EndDate    *time.Time
}

type MeetingSummary struct {
	Meeting
	ParticipantCount int `json:"participant_count"`
}

type MeetingSearchPage struct {
	Meetings   []MeetingSummary `json:"meetings"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	TotalPages int              `json:"total_pages"`
}

// ParticipationStatus distinguishes active from blocked entries in the
// organizer's participant view.
type ParticipationStatus string

const (
	ParticipationStatusActive  ParticipationStatus = "ACTIVE"
	ParticipationStatusBlocked ParticipationStatus = "BLOCKED"
)

type ParticipantDetails struct {
	ID          uuid.UUID           `json:"id"`
	Username    string              `json:"username"`
	FirstName   string              `json:"first_name"`
	LastName    string              `json:"last_name"`
	AvatarURL   *string             `json:"avatar_url,omitempty"`
	IsOrganizer bool                `json:"is_organizer"`
	Status      ParticipationStatus `json:"status"`
}

type ParticipantsPage struct {
	Participants      []ParticipantDetails `json:"participants"`
	Total             int                  `json:"total"`
	Page              int                  `json:"page"`
	Size              int                  `json:"size"`
	TotalPages        int                  `json:"total_pages"`
	ViewerIsOrganizer bool                 `json:"viewer_is_organizer"`
	MeetingTitle      string               `json:"meeting_title"`
}

type ParticipantPreview struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	IsOrganizer bool      `json:"is_organizer"`
}

// MembershipState is the viewer's relationship to a meeting.
type MembershipState string

const (
	MembershipStateMember    MembershipState = "MEMBER"
	MembershipStateNotMember MembershipState = "NOT_MEMBER"
)

type MeetingDetail struct {
	Meeting
	Organizer           ParticipantPreview   `json:"organizer"`
	ParticipantsPreview []ParticipantPreview `json:"participants_preview"`
	ParticipantCount    int                  `json:"participant_count"`
	ViewerIsOrganizer   bool                 `json:"viewer_is_organizer"`
	ViewerMembership    MembershipState      `json:"viewer_membership"`
}

type BlockedMeetingParticipant struct {
	ID        uuid.UUID `json:"id"`
	MeetingID uuid.UUID `json:"meeting_id"`
	UserID    uuid.UUID `json:"user_id"`
	BlockerID uuid.UUID `json:"blocker_id"`
	BlockedAt time.Time `json:"blocked_at"`
}

// MeetingPhase classifies a meeting relative to now for profile listings.
type MeetingPhase string

const (
	MeetingPhaseUpcoming  MeetingPhase = "UPCOMING"
	MeetingPhaseOngoing   MeetingPhase = "ONGOING"
	MeetingPhaseCompleted MeetingPhase = "COMPLETED"
)

type UserMeeting struct {
	Meeting
	Phase MeetingPhase `json:"phase"`
}

type UserMeetingsPage struct {
	Meetings   []UserMeeting `json:"meetings"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Size       int           `json:"size"`
	TotalPages int           `json:"total_pages"`
}
