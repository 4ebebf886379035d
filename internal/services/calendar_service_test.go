package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/groupmeet/groupmeet/internal/models"
)

func TestCalendarService_CreateNote_Validation(t *testing.T) {
	svc := &CalendarService{}

	_, err := svc.CreateNote(context.Background(), uuid.New(), models.NoteParams{
		Title: "  ", Date: time.Now(),
	})
	if !errors.Is(err, ErrInvalidNote) {
		t.Fatalf("expected ErrInvalidNote for blank title, got %v", err)
	}

	_, err = svc.CreateNote(context.Background(), uuid.New(), models.NoteParams{
		Title: "Dentist",
	})
	if !errors.Is(err, ErrInvalidNote) {
		t.Fatalf("expected ErrInvalidNote for zero date, got %v", err)
	}
}

func TestCalendarService_CreateNote_Success(t *testing.T) {
	userID := uuid.New()
	noteID := uuid.New()
	date := time.Now().Add(24 * time.Hour)

	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(noteID, userID, date, "Dentist", nil, time.Now(), time.Now())
		},
	}

	svc := NewCalendarService(db)
	note, err := svc.CreateNote(context.Background(), userID, models.NoteParams{
		Title: "Dentist", Date: date,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if note.ID != noteID || note.UserID != userID {
		t.Fatalf("unexpected note: %+v", note)
	}
}

func TestCalendarService_UpdateNote_NotOwned(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowWithError(pgx.ErrNoRows)
		},
	}

	svc := NewCalendarService(db)
	_, err := svc.UpdateNote(context.Background(), uuid.New(), uuid.New(), models.NoteParams{
		Title: "Dentist", Date: time.Now(),
	})
	if !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
}

func TestCalendarService_DeleteNote_NotFound(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 0}, nil
		},
	}

	svc := NewCalendarService(db)
	err := svc.DeleteNote(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
}

func TestCalendarService_Range_InvalidRange(t *testing.T) {
	svc := &CalendarService{}
	now := time.Now()

	_, err := svc.Range(context.Background(), uuid.New(), now, now.Add(-time.Hour))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for reversed bounds, got %v", err)
	}

	_, err = svc.Range(context.Background(), uuid.New(), now, now.Add(365*24*time.Hour))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for oversized window, got %v", err)
	}
}

func TestCalendarService_Range_MergesMeetingsAndNotes(t *testing.T) {
	userID := uuid.New()
	meetingID := uuid.New()
	start := time.Now()
	end := start.Add(7 * 24 * time.Hour)

	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			if strings.Contains(sql, "personal_notes") {
				return &fakeRows{rows: [][]any{
					{uuid.New(), userID, start.Add(time.Hour), "Dentist", nil, time.Now(), time.Now()},
				}}, nil
			}
			return &fakeRows{rows: [][]any{
				{meetingID, "Game night", models.MeetingFormatOnline, nil, start.Add(2 * time.Hour), true},
			}}, nil
		},
	}

	svc := NewCalendarService(db)
	data, err := svc.Range(context.Background(), userID, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data.Events) != 1 || data.Events[0].MeetingID != meetingID || !data.Events[0].IsOrganizer {
		t.Fatalf("unexpected events: %+v", data.Events)
	}
	if len(data.Notes) != 1 || data.Notes[0].Title != "Dentist" {
		t.Fatalf("unexpected notes: %+v", data.Notes)
	}
}

func TestInterestService_List(t *testing.T) {
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			if args[0] != "hik%" {
				t.Fatalf("expected lowercased prefix pattern, got %v", args[0])
			}
			return &fakeRows{rows: [][]any{
				{uuid.New(), "Hiking"},
			}}, nil
		},
	}

	svc := NewInterestService(db)
	interests, err := svc.List(context.Background(), " Hik ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(interests) != 1 || interests[0].Name != "Hiking" {
		t.Fatalf("unexpected interests: %+v", interests)
	}
}

func TestResolveInterest_CreatesWhenMissing(t *testing.T) {
	interestID := uuid.New()
	call := 0
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			call++
			if call == 1 {
				return rowWithError(pgx.ErrNoRows)
			}
			return rowFromValues(interestID)
		},
	}

	id, err := resolveInterest(context.Background(), db, "Chess")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != interestID {
		t.Fatalf("expected %v, got %v", interestID, id)
	}
	if call != 2 {
		t.Fatalf("expected lookup then insert, got %d calls", call)
	}
}

func TestResolveInterest_LosesInsertRace(t *testing.T) {
	interestID := uuid.New()
	call := 0
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			call++
			switch call {
			case 1, 2:
				return rowWithError(pgx.ErrNoRows)
			default:
				return rowFromValues(interestID)
			}
		},
	}

	id, err := resolveInterest(context.Background(), db, "Chess")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != interestID {
		t.Fatalf("expected %v, got %v", interestID, id)
	}
}
