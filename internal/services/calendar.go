package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/groupmeet/groupmeet/internal/models"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrInvalidNote  = errors.New("invalid note")
	ErrInvalidRange = errors.New("invalid calendar range")
)

// Calendar ranges are capped so one request cannot sweep years of rows.
const maxCalendarRange = 93 * 24 * time.Hour

type CalendarService struct {
	db DB
}

func NewCalendarService(db DB) *CalendarService {
	return &CalendarService{db: db}
}

func validateNote(params models.NoteParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidNote)
	}
	if len(params.Title) > 255 {
		return fmt.Errorf("%w: title must be at most 255 characters", ErrInvalidNote)
	}
	if params.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidNote)
	}
	return nil
}

func (s *CalendarService) CreateNote(ctx context.Context, userID uuid.UUID, params models.NoteParams) (*models.PersonalNote, error) {
	if err := validateNote(params); err != nil {
		return nil, err
	}

	note := &models.PersonalNote{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO personal_notes (user_id, note_date, title, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, note_date, title, content, created_at, updated_at`,
		userID, params.Date, params.Title, params.Content,
	).Scan(&note.ID, &note.UserID, &note.Date, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}
	return note, nil
}

// UpdateNote edits a note the user owns. Rows belonging to other users are
// indistinguishable from missing ones.
func (s *CalendarService) UpdateNote(ctx context.Context, noteID, userID uuid.UUID, params models.NoteParams) (*models.PersonalNote, error) {
	if err := validateNote(params); err != nil {
		return nil, err
	}

	note := &models.PersonalNote{}
	err := s.db.QueryRow(ctx,
		`UPDATE personal_notes
		 SET note_date = $3, title = $4, content = $5, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, note_date, title, content, created_at, updated_at`,
		noteID, userID, params.Date, params.Title, params.Content,
	).Scan(&note.ID, &note.UserID, &note.Date, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating note: %w", err)
	}
	return note, nil
}

func (s *CalendarService) DeleteNote(ctx context.Context, noteID, userID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM personal_notes WHERE id = $1 AND user_id = $2`,
		noteID, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// Range assembles the user's calendar view: their meetings and personal notes
// between start and end inclusive.
func (s *CalendarService) Range(ctx context.Context, userID uuid.UUID, start, end time.Time) (*models.CalendarData, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end is before start", ErrInvalidRange)
	}
	if end.Sub(start) > maxCalendarRange {
		return nil, fmt.Errorf("%w: range is too wide", ErrInvalidRange)
	}

	data := &models.CalendarData{
		Start:  start,
		End:    end,
		Events: []models.CalendarEvent{},
		Notes:  []models.PersonalNote{},
	}

	rows, err := s.db.Query(ctx,
		`SELECT m.id, m.title, m.format, m.location, m.date_time, m.creator_id = $1
		 FROM meetings m
		 JOIN meeting_participants mp ON mp.meeting_id = m.id
		 WHERE mp.user_id = $1 AND m.date_time >= $2 AND m.date_time <= $3
		 ORDER BY m.date_time`,
		userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("listing calendar meetings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.CalendarEvent
		if err := rows.Scan(&e.MeetingID, &e.Title, &e.Format, &e.Location, &e.DateTime, &e.IsOrganizer); err != nil {
			return nil, fmt.Errorf("scanning calendar meeting: %w", err)
		}
		data.Events = append(data.Events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating calendar meetings: %w", err)
	}

	noteRows, err := s.db.Query(ctx,
		`SELECT id, user_id, note_date, title, content, created_at, updated_at
		 FROM personal_notes
		 WHERE user_id = $1 AND note_date >= $2 AND note_date <= $3
		 ORDER BY note_date, created_at`,
		userID, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer noteRows.Close()

	for noteRows.Next() {
		var n models.PersonalNote
		if err := noteRows.Scan(&n.ID, &n.UserID, &n.Date, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		data.Notes = append(data.Notes, n)
	}
	if err := noteRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}

	return data, nil
}
