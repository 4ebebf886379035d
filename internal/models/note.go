package models

import (
	"time"

	"github.com/google/uuid"
)

type PersonalNote struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Date      time.Time `json:"date"`
	Title     string    `json:"title"`
	Content   *string   `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NoteParams struct {
	Date    time.Time
	Title   string
	Content *string
}

// CalendarEvent is a meeting projected onto the viewer's calendar.
type CalendarEvent struct {
	MeetingID   uuid.UUID     `json:"meeting_id"`
	Title       string        `json:"title"`
	Format      MeetingFormat `json:"format"`
	Location    *string       `json:"location,omitempty"`
	DateTime    time.Time     `json:"date_time"`
	IsOrganizer bool          `json:"is_organizer"`
}

type CalendarData struct {
	Start  time.Time       `json:"start"`
	End    time.Time       `json:"end"`
	Events []CalendarEvent `json:"events"`
	Notes  []PersonalNote  `json:"notes"`
}
