package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/groupmeet/groupmeet/internal/logging"
	"github.com/groupmeet/groupmeet/internal/models"
)

var (
	ErrMeetingNotFound          = errors.New("meeting not found")
	ErrInvalidMeeting           = errors.New("invalid meeting")
	ErrBlockedFromMeeting       = errors.New("you are blocked from this meeting")
	ErrAlreadyParticipant       = errors.New("you are already a participant of this meeting")
	ErrMeetingFull              = errors.New("meeting has reached its maximum number of participants")
	ErrMeetingInPast            = errors.New("meeting has already taken place")
	ErrNotParticipant           = errors.New("you are not a participant of this meeting")
	ErrOrganizerCannotLeave     = errors.New("organizer cannot leave while other participants remain")
	ErrNotOrganizer             = errors.New("only the organizer may perform this action")
	ErrCannotBlockSelf          = errors.New("organizer cannot block themselves")
	ErrParticipantBlocked       = errors.New("user is already blocked for this meeting")
	ErrBlockEntryNotFound       = errors.New("user is not blocked for this meeting")
	ErrCannotRemoveOrganizer    = errors.New("organizer cannot be removed from the meeting")
	ErrRemoveBlockedParticipant = errors.New("user is blocked for this meeting; unblock them first")
)

const (
	maxMeetingTypes         = 5
	participantsPreviewSize = 5

	// Meetings stay searchable for a grace window after they start.
	searchGraceWindow = 2 * time.Hour
)

type MeetingService struct {
	db DB
}

func NewMeetingService(db DB) *MeetingService {
	return &MeetingService{db: db}
}

// normalizeTypeNames trims, drops empties and deduplicates case-insensitively,
// preserving first-seen order and spelling.
func normalizeTypeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

func validateMeetingCore(title string, format models.MeetingFormat, location *string, dateTime time.Time, maxParticipants *int, typeNames []string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidMeeting)
	}
	if len(title) > 255 {
		return fmt.Errorf("%w: title must be at most 255 characters", ErrInvalidMeeting)
	}
	if !format.Valid() {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidMeeting, format)
	}
	if len(typeNames) == 0 {
		return fmt.Errorf("%w: at least one meeting type is required", ErrInvalidMeeting)
	}
	if len(typeNames) > maxMeetingTypes {
		return fmt.Errorf("%w: at most %d meeting types are allowed", ErrInvalidMeeting, maxMeetingTypes)
	}
	if format == models.MeetingFormatOffline && (location == nil || strings.TrimSpace(*location) == "") {
		return fmt.Errorf("%w: location is required for offline meetings", ErrInvalidMeeting)
	}
	if !dateTime.After(time.Now()) {
		return fmt.Errorf("%w: date and time must be in the future", ErrInvalidMeeting)
	}
	if maxParticipants != nil && *maxParticipants < 1 {
		return fmt.Errorf("%w: max participants must be at least 1", ErrInvalidMeeting)
	}
	return nil
}

// Create persists a new meeting whose participant set is exactly the creator.
func (s *MeetingService) Create(ctx context.Context, creatorID uuid.UUID, params models.CreateMeetingParams) (*models.Meeting, error) {
	typeNames := normalizeTypeNames(params.TypeNames)
	if err := validateMeetingCore(params.Title, params.Format, params.Location, params.DateTime, params.MaxParticipants, typeNames); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	meeting := &models.Meeting{}
	err = tx.QueryRow(ctx,
		`INSERT INTO meetings (title, description, format, location, date_time, max_participants, creator_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, title, description, format, location, date_time, max_participants, creator_id, created_at, updated_at`,
		params.Title, params.Description, params.Format, params.Location,
		params.DateTime, params.MaxParticipants, creatorID,
	).Scan(&meeting.ID, &meeting.Title, &meeting.Description, &meeting.Format, &meeting.Location,
		&meeting.DateTime, &meeting.MaxParticipants, &meeting.CreatorID, &meeting.CreatedAt, &meeting.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating meeting: %w", err)
	}

	if err := s.attachTypes(ctx, tx, meeting.ID, typeNames); err != nil {
		return nil, err
	}
	meeting.Types = typeNames

	_, err = tx.Exec(ctx,
		`INSERT INTO meeting_participants (meeting_id, user_id) VALUES ($1, $2)`,
		meeting.ID, creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("adding creator as participant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing meeting creation: %w", err)
	}
	committed = true
	return meeting, nil
}

// attachTypes resolves each tag name against the interest vocabulary,
// creating missing entries, and links them to the meeting.
func (s *MeetingService) attachTypes(ctx context.Context, q Querier, meetingID uuid.UUID, typeNames []string) error {
	for _, name := range typeNames {
		interestID, err := resolveInterest(ctx, q, name)
		if err != nil {
			return err
		}
		_, err = q.Exec(ctx,
			`INSERT INTO meeting_types (meeting_id, interest_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			meetingID, interestID,
		)
		if err != nil {
			return fmt.Errorf("linking meeting type %q: %w", name, err)
		}
	}
	return nil
}

// Join adds the user to the participant set. The capacity check and the
// insert share one transaction with the meeting row locked, so concurrent
// joins at capacity serialize instead of both succeeding.
func (s *MeetingService) Join(ctx context.Context, meetingID, userID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var dateTime time.Time
	var maxParticipants *int
	err = tx.QueryRow(ctx,
		`SELECT date_time, max_participants FROM meetings WHERE id = $1 FOR UPDATE`,
		meetingID,
	).Scan(&dateTime, &maxParticipants)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMeetingNotFound
	}
	if err != nil {
		return fmt.Errorf("locking meeting: %w", err)
	}

	var blocked bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM meeting_blocked_participants WHERE meeting_id = $1 AND user_id = $2)`,
		meetingID, userID,
	).Scan(&blocked)
	if err != nil {
		return fmt.Errorf("checking block status: %w", err)
	}
	if blocked {
		return ErrBlockedFromMeeting
	}

	var participant bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM meeting_participants WHERE meeting_id = $1 AND user_id = $2)`,
		meetingID, userID,
	).Scan(&participant)
	if err != nil {
		return fmt.Errorf("checking participation: %w", err)
	}
	if participant {
		return ErrAlreadyParticipant
	}

	if maxParticipants != nil {
		var count int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM meeting_participants WHERE meeting_id = $1`,
			meetingID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("counting participants: %w", err)
		}
		if count >= *maxParticipants {
			return ErrMeetingFull
		}
	}

	if dateTime.Before(time.Now()) {
		return ErrMeetingInPast
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO meeting_participants (meeting_id, user_id) VALUES ($1, $2)`,
		meetingID, userID,
	)
	if err != nil {
		return fmt.Errorf("adding participant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing join: %w", err)
	}
	committed = true
	return nil
}

// Leave removes the user from the participant set. The organizer may leave
// only as the sole remaining participant. Leaving a past meeting is allowed,
// unlike joining one.
func (s *MeetingService) Leave(ctx context.Context, meetingID, userID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var creatorID uuid.UUID
	var dateTime time.Time
	err = tx.QueryRow(ctx,
		`SELECT creator_id, date_time FROM meetings WHERE id = $1 FOR UPDATE`,
		meetingID,
	).Scan(&creatorID, &dateTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMeetingNotFound
	}
	if err != nil {
		return fmt.Errorf("locking meeting: %w", err)
	}

	if creatorID == userID {
		var count int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM meeting_participants WHERE meeting_id = $1`,
			meetingID,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("counting participants: %w", err)
		}
		if count > 1 {
			return ErrOrganizerCannotLeave
		}
	}

	if dateTime.Before(time.Now()) {
		logging.Warn("User leaving a meeting that already took place", map[string]interface{}{
			"meeting_id": meetingID.String(),
			"user_id":    userID.String(),
		})
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM meeting_participants WHERE meeting_id = $1 AND user_id = $2`,
		meetingID, userID,
	)
	if err != nil {
		return fmt.Errorf("removing participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotParticipant
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing leave: %w", err)
	}
	committed = true
	return nil
}

// BlockParticipant excludes a user from the meeting: the block record insert
// and the participant removal are one transaction. Removal is idempotent; the
// target need not be a current participant.
func (s *MeetingService) BlockParticipant(ctx context.Context, meetingID, targetID, actorID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	creatorID, err := lockMeetingCreator(ctx, tx, meetingID)
	if err != nil {
		return err
	}
	if creatorID != actorID {
		return ErrNotOrganizer
	}
	if targetID == actorID {
		return ErrCannotBlockSelf
	}
	if err := requireUserExists(ctx, tx, targetID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO meeting_blocked_participants (meeting_id, user_id, blocker_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		meetingID, targetID, actorID,
	)
	if err != nil {
		return fmt.Errorf("inserting block entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrParticipantBlocked
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM meeting_participants WHERE meeting_id = $1 AND user_id = $2`,
		meetingID, targetID,
	)
	if err != nil {
		return fmt.Errorf("removing blocked participant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing block: %w", err)
	}
	committed = true
	return nil
}

// UnblockParticipant deletes the block record. The user does not rejoin
// automatically.
func (s *MeetingService) UnblockParticipant(ctx context.Context, meetingID, targetID, actorID uuid.UUID) error {
	var creatorID uuid.UUID
	err := s.db.QueryRow(ctx,
		`SELECT creator_id FROM meetings WHERE id = $1`,
		meetingID,
	).Scan(&creatorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMeetingNotFound
	}
	if err != nil {
		return fmt.Errorf("getting meeting: %w", err)
	}
	if creatorID != actorID {
		return ErrNotOrganizer
	}
	if err := requireUserExists(ctx, s.db, targetID); err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		`DELETE FROM meeting_blocked_participants WHERE meeting_id = $1 AND user_id = $2`,
		meetingID, targetID,
	)
	if err != nil {
		return fmt.Errorf("deleting block entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBlockEntryNotFound
	}
	return nil
}

// RemoveParticipant kicks an active participant without blocking them.
// Blocked users must be unblocked first so that removed and blocked stay
// mutually exclusive states.
func (s *MeetingService) RemoveParticipant(ctx context.Context, meetingID, targetID, actorID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	creatorID, err := lockMeetingCreator(ctx, tx, meetingID)
	if err != nil {
		return err
	}
	if creatorID != actorID {
		return ErrNotOrganizer
	}
	if targetID == creatorID {
		return ErrCannotRemoveOrganizer
	}
	if err := requireUserExists(ctx, tx, targetID); err != nil {
		return err
	}

	var blocked bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM meeting_blocked_participants WHERE meeting_id = $1 AND user_id = $2)`,
		meetingID, targetID,
	).Scan(&blocked)
	if err != nil {
		return fmt.Errorf("checking block status: %w", err)
	}
	if blocked {
		return ErrRemoveBlockedParticipant
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM meeting_participants WHERE meeting_id = $1 AND user_id = $2`,
		meetingID, targetID,
	)
	if err != nil {
		return fmt.Errorf("removing participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotParticipant
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing removal: %w", err)
	}
	committed = true
	return nil
}

// Delete removes the meeting and cascades its block entries in one
// transaction.
func (s *MeetingService) Delete(ctx context.Context, meetingID, actorID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	creatorID, err := lockMeetingCreator(ctx, tx, meetingID)
	if err != nil {
		return err
	}
	if creatorID != actorID {
		return ErrNotOrganizer
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM meeting_blocked_participants WHERE meeting_id = $1`,
		meetingID,
	)
	if err != nil {
		return fmt.Errorf("deleting block entries: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM meetings WHERE id = $1`,
		meetingID,
	)
	if err != nil {
		return fmt.Errorf("deleting meeting: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing deletion: %w", err)
	}
	committed = true
	return nil
}

// Update edits meeting attributes; organizer only. The participant set is not
// touched, and capacity cannot drop below the current participant count.
func (s *MeetingService) Update(ctx context.Context, meetingID, actorID uuid.UUID, params models.UpdateMeetingParams) (*models.Meeting, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	meeting := &models.Meeting{}
	err = tx.QueryRow(ctx,
		`SELECT id, title, description, format, location, date_time, max_participants, creator_id, created_at, updated_at
		 FROM meetings WHERE id = $1 FOR UPDATE`,
		meetingID,
	).Scan(&meeting.ID, &meeting.Title, &meeting.Description, &meeting.Format, &meeting.Location,
		&meeting.DateTime, &meeting.MaxParticipants, &meeting.CreatorID, &meeting.CreatedAt, &meeting.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMeetingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("locking meeting: %w", err)
	}
	if meeting.CreatorID != actorID {
		return nil, ErrNotOrganizer
	}

	if params.Title != nil {
		meeting.Title = *params.Title
	}
	if params.Description != nil {
		meeting.Description = params.Description
	}
	if params.Format != nil {
		meeting.Format = *params.Format
	}
	if params.Location != nil {
		meeting.Location = params.Location
	}
	if params.DateTime != nil {
		meeting.DateTime = *params.DateTime
	}
	if params.MaxParticipants != nil {
		meeting.MaxParticipants = params.MaxParticipants
	}

	typeNames := meeting.Types
	if params.TypeNames != nil {
		typeNames = normalizeTypeNames(params.TypeNames)
	} else {
		typeNames, err = meetingTypeNames(ctx, tx, meetingID)
		if err != nil {
			return nil, err
		}
	}

	if err := validateMeetingCore(meeting.Title, meeting.Format, meeting.Location, meeting.DateTime, meeting.MaxParticipants, typeNames); err != nil {
		return nil, err
	}

	if meeting.MaxParticipants != nil {
		var count int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM meeting_participants WHERE meeting_id = $1`,
			meetingID,
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("counting participants: %w", err)
		}
		if *meeting.MaxParticipants < count {
			return nil, fmt.Errorf("%w: max participants cannot be below the current participant count", ErrInvalidMeeting)
		}
	}

	err = tx.QueryRow(ctx,
		`UPDATE meetings
		 SET title = $2, description = $3, format = $4, location = $5, date_time = $6, max_participants = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		meetingID, meeting.Title, meeting.Description, meeting.Format, meeting.Location, meeting.DateTime, meeting.MaxParticipants,
	).Scan(&meeting.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("updating meeting: %w", err)
	}

	if params.TypeNames != nil {
		_, err = tx.Exec(ctx, `DELETE FROM meeting_types WHERE meeting_id = $1`, meetingID)
		if err != nil {
			return nil, fmt.Errorf("clearing meeting types: %w", err)
		}
		if err := s.attachTypes(ctx, tx, meetingID, typeNames); err != nil {
			return nil, err
		}
	}
	meeting.Types = typeNames

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing update: %w", err)
	}
	committed = true
	return meeting, nil
}

// ParticipantsPage builds the participant view: active participants for
// everyone, block entries merged in for the organizer. Filtering, sorting and
// pagination happen over the assembled in-memory list.
func (s *MeetingService) ParticipantsPage(ctx context.Context, meetingID, viewerID uuid.UUID, searchTerm string, page models.PageRequest) (*models.ParticipantsPage, error) {
	page = page.Sanitize()

	var title string
	var creatorID uuid.UUID
	err := s.db.QueryRow(ctx,
		`SELECT title, creator_id FROM meetings WHERE id = $1`,
		meetingID,
	).Scan(&title, &creatorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMeetingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting meeting: %w", err)
	}

	viewerIsOrganizer := viewerID == creatorID

	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.username, u.first_name, u.last_name, u.avatar_url
		 FROM meeting_participants mp
		 JOIN users u ON mp.user_id = u.id
		 WHERE mp.meeting_id = $1`,
		meetingID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()

	var details []models.ParticipantDetails
	for rows.Next() {
		var d models.ParticipantDetails
		if err := rows.Scan(&d.ID, &d.Username, &d.FirstName, &d.LastName, &d.AvatarURL); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		d.IsOrganizer = d.ID == creatorID
		d.Status = models.ParticipationStatusActive
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating participants: %w", err)
	}

	if viewerIsOrganizer {
		blockedRows, err := s.db.Query(ctx,
			`SELECT u.id, u.username, u.first_name, u.last_name, u.avatar_url
			 FROM meeting_blocked_participants b
			 JOIN users u ON b.user_id = u.id
			 WHERE b.meeting_id = $1`,
			meetingID,
		)
		if err != nil {
			return nil, fmt.Errorf("listing blocked participants: %w", err)
		}
		defer blockedRows.Close()

		for blockedRows.Next() {
			var d models.ParticipantDetails
			if err := blockedRows.Scan(&d.ID, &d.Username, &d.FirstName, &d.LastName, &d.AvatarURL); err != nil {
				return nil, fmt.Errorf("scanning blocked participant: %w", err)
			}
			d.Status = models.ParticipationStatusBlocked

			// A user present in both sets is listed once, as blocked.
			merged := false
			for i := range details {
				if details[i].ID == d.ID {
					details[i].Status = models.ParticipationStatusBlocked
					merged = true
					break
				}
			}
			if !merged {
				details = append(details, d)
			}
		}
		if err := blockedRows.Err(); err != nil {
			return nil, fmt.Errorf("iterating blocked participants: %w", err)
		}
	}

	if term := strings.ToLower(strings.TrimSpace(searchTerm)); term != "" {
		filtered := details[:0]
		for _, d := range details {
			if strings.Contains(strings.ToLower(d.Username), term) ||
				strings.Contains(strings.ToLower(d.FirstName), term) ||
				strings.Contains(strings.ToLower(d.LastName), term) {
				filtered = append(filtered, d)
			}
		}
		details = filtered
	}

	// Organizer first, then active before blocked, then by name.
	sort.SliceStable(details, func(i, j int) bool {
		a, b := details[i], details[j]
		if a.IsOrganizer != b.IsOrganizer {
			return a.IsOrganizer
		}
		aBlocked := a.Status == models.ParticipationStatusBlocked
		bBlocked := b.Status == models.ParticipationStatusBlocked
		if aBlocked != bBlocked {
			return !aBlocked
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.LastName < b.LastName
	})

	total := len(details)
	start := page.Offset()
	end := start + page.Size
	if end > total {
		end = total
	}
	content := []models.ParticipantDetails{}
	if start < end {
		content = details[start:end]
	}

	return &models.ParticipantsPage{
		Participants:      content,
		Total:             total,
		Page:              page.Page,
		Size:              page.Size,
		TotalPages:        page.TotalPages(total),
		ViewerIsOrganizer: viewerIsOrganizer,
		MeetingTitle:      title,
	}, nil
}

// Detail builds the public meeting view. Blocked users are excluded from the
// preview and the participant count. viewerID may be uuid.Nil for anonymous
// readers.
func (s *MeetingService) Detail(ctx context.Context, meetingID, viewerID uuid.UUID) (*models.MeetingDetail, error) {
	detail := &models.MeetingDetail{}
	err := s.db.QueryRow(ctx,
		`SELECT m.id, m.title, m.description, m.format, m.location, m.date_time, m.max_participants,
		        m.creator_id, m.created_at, m.updated_at,
		        ARRAY(SELECT i.name FROM meeting_types mt JOIN interests i ON mt.interest_id = i.id
		              WHERE mt.meeting_id = m.id ORDER BY i.name),
		        u.first_name, u.last_name, u.avatar_url
		 FROM meetings m
		 JOIN users u ON m.creator_id = u.id
		 WHERE m.id = $1`,
		meetingID,
	).Scan(&detail.ID, &detail.Title, &detail.Description, &detail.Format, &detail.Location,
		&detail.DateTime, &detail.MaxParticipants, &detail.CreatorID, &detail.CreatedAt, &detail.UpdatedAt,
		&detail.Types,
		&detail.Organizer.FirstName, &detail.Organizer.LastName, &detail.Organizer.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMeetingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting meeting detail: %w", err)
	}
	detail.Organizer.ID = detail.CreatorID
	detail.Organizer.IsOrganizer = true

	rows, err := s.db.Query(ctx,
		`SELECT u.id, u.first_name, u.last_name, u.avatar_url
		 FROM meeting_participants mp
		 JOIN users u ON mp.user_id = u.id
		 WHERE mp.meeting_id = $1
		   AND mp.user_id <> $2
		   AND NOT EXISTS (
		     SELECT 1 FROM meeting_blocked_participants b
		     WHERE b.meeting_id = mp.meeting_id AND b.user_id = mp.user_id
		   )
		 ORDER BY mp.joined_at
		 LIMIT $3`,
		meetingID, detail.CreatorID, participantsPreviewSize-1,
	)
	if err != nil {
		return nil, fmt.Errorf("listing participant preview: %w", err)
	}
	defer rows.Close()

	detail.ParticipantsPreview = []models.ParticipantPreview{}
	for rows.Next() {
		var p models.ParticipantPreview
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.AvatarURL); err != nil {
			return nil, fmt.Errorf("scanning preview participant: %w", err)
		}
		detail.ParticipantsPreview = append(detail.ParticipantsPreview, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating preview participants: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM meeting_participants mp
		 WHERE mp.meeting_id = $1
		   AND NOT EXISTS (
		     SELECT 1 FROM meeting_blocked_participants b
		     WHERE b.meeting_id = mp.meeting_id AND b.user_id = mp.user_id
		   )`,
		meetingID,
	).Scan(&detail.ParticipantCount)
	if err != nil {
		return nil, fmt.Errorf("counting participants: %w", err)
	}

	detail.ViewerMembership = models.MembershipStateNotMember
	if viewerID != uuid.Nil {
		detail.ViewerIsOrganizer = viewerID == detail.CreatorID
		var member bool
		err = s.db.QueryRow(ctx,
			`SELECT EXISTS(
				SELECT 1 FROM meeting_participants mp
				WHERE mp.meeting_id = $1 AND mp.user_id = $2
				  AND NOT EXISTS (
				    SELECT 1 FROM meeting_blocked_participants b
				    WHERE b.meeting_id = mp.meeting_id AND b.user_id = mp.user_id
				  )
			)`,
			meetingID, viewerID,
		).Scan(&member)
		if err != nil {
			return nil, fmt.Errorf("checking viewer membership: %w", err)
		}
		if member {
			detail.ViewerMembership = models.MembershipStateMember
		}
	}

	return detail, nil
}

// Search runs the paged criteria search. Meetings older than the grace window
// are never returned.
func (s *MeetingService) Search(ctx context.Context, criteria models.MeetingSearchCriteria, page models.PageRequest) (*models.MeetingSearchPage, error) {
	page = page.Sanitize()

	conds := []string{"m.date_time >= $1"}
	args := []any{time.Now().Add(-searchGraceWindow)}

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if term := strings.TrimSpace(criteria.SearchTerm); term != "" {
		p := next("%" + strings.ToLower(term) + "%")
		conds = append(conds, fmt.Sprintf("(LOWER(m.title) LIKE %s OR LOWER(m.description) LIKE %s)", p, p))
	}
	if len(criteria.Types) > 0 {
		lowered := make([]string, len(criteria.Types))
		for i, t := range criteria.Types {
			lowered[i] = strings.ToLower(t)
		}
		p := next(lowered)
		conds = append(conds, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM meeting_types mt JOIN interests i ON mt.interest_id = i.id
			         WHERE mt.meeting_id = m.id AND LOWER(i.name) = ANY(%s))`, p))
	}
	if loc := strings.TrimSpace(criteria.Location); loc != "" {
		// Location only narrows offline meetings; online ones have none.
		if criteria.Format == "" || criteria.Format == models.MeetingFormatOffline {
			p := next(strings.ToLower(loc))
			conds = append(conds, fmt.Sprintf("LOWER(m.location) = %s", p))
		}
	}
	if criteria.Format != "" {
		p := next(criteria.Format)
		conds = append(conds, fmt.Sprintf("m.format = %s", p))
	}
	if criteria.StartDate != nil {
		p := next(*criteria.StartDate)
		conds = append(conds, fmt.Sprintf("m.date_time >= %s", p))
	}
	if criteria.EndDate != nil {
		p := next(*criteria.EndDate)
		conds = append(conds, fmt.Sprintf("m.date_time <= %s", p))
	}

	where := strings.Join(conds, " AND ")

	var total int
	err := s.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM meetings m WHERE %s`, where),
		args...,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("counting meetings: %w", err)
	}

	limit := next(page.Size)
	offset := next(page.Offset())
	rows, err := s.db.Query(ctx,
		fmt.Sprintf(
			`SELECT m.id, m.title, m.description, m.format, m.location, m.date_time, m.max_participants,
			        m.creator_id, m.created_at, m.updated_at,
			        ARRAY(SELECT i.name FROM meeting_types mt JOIN interests i ON mt.interest_id = i.id
			              WHERE mt.meeting_id = m.id ORDER BY i.name),
			        (SELECT COUNT(*) FROM meeting_participants mp WHERE mp.meeting_id = m.id)
			 FROM meetings m
			 WHERE %s
			 ORDER BY m.date_time ASC
			 LIMIT %s OFFSET %s`, where, limit, offset),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("searching meetings: %w", err)
	}
	defer rows.Close()

	meetings := []models.MeetingSummary{}
	for rows.Next() {
		var m models.MeetingSummary
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Format, &m.Location, &m.DateTime,
			&m.MaxParticipants, &m.CreatorID, &m.CreatedAt, &m.UpdatedAt, &m.Types, &m.ParticipantCount); err != nil {
			return nil, fmt.Errorf("scanning meeting: %w", err)
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meetings: %w", err)
	}

	return &models.MeetingSearchPage{
		Meetings:   meetings,
		Total:      total,
		Page:       page.Page,
		Size:       page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}

// UserMeetings lists the meetings a user participates in, soonest first, each
// tagged with its phase relative to now.
func (s *MeetingService) UserMeetings(ctx context.Context, userID uuid.UUID, page models.PageRequest) (*models.UserMeetingsPage, error) {
	page = page.Sanitize()

	if err := requireUserExists(ctx, s.db, userID); err != nil {
		return nil, err
	}

	var total int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM meeting_participants WHERE user_id = $1`,
		userID,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("counting user meetings: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT m.id, m.title, m.description, m.format, m.location, m.date_time, m.max_participants,
		        m.creator_id, m.created_at, m.updated_at,
		        ARRAY(SELECT i.name FROM meeting_types mt JOIN interests i ON mt.interest_id = i.id
		              WHERE mt.meeting_id = m.id ORDER BY i.name)
		 FROM meetings m
		 JOIN meeting_participants mp ON mp.meeting_id = m.id
		 WHERE mp.user_id = $1
		 ORDER BY m.date_time ASC
		 LIMIT $2 OFFSET $3`,
		userID, page.Size, page.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing user meetings: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	meetings := []models.UserMeeting{}
	for rows.Next() {
		var m models.UserMeeting
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Format, &m.Location, &m.DateTime,
			&m.MaxParticipants, &m.CreatorID, &m.CreatedAt, &m.UpdatedAt, &m.Types); err != nil {
			return nil, fmt.Errorf("scanning user meeting: %w", err)
		}
		m.Phase = meetingPhase(m.DateTime, now)
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user meetings: %w", err)
	}

	return &models.UserMeetingsPage{
		Meetings:   meetings,
		Total:      total,
		Page:       page.Page,
		Size:       page.Size,
		TotalPages: page.TotalPages(total),
	}, nil
}

func meetingPhase(dateTime, now time.Time) models.MeetingPhase {
	switch {
	case dateTime.After(now):
		return models.MeetingPhaseUpcoming
	case dateTime.Add(searchGraceWindow).Before(now):
		return models.MeetingPhaseCompleted
	default:
		return models.MeetingPhaseOngoing
	}
}

func lockMeetingCreator(ctx context.Context, tx Tx, meetingID uuid.UUID) (uuid.UUID, error) {
	var creatorID uuid.UUID
	err := tx.QueryRow(ctx,
		`SELECT creator_id FROM meetings WHERE id = $1 FOR UPDATE`,
		meetingID,
	).Scan(&creatorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrMeetingNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("locking meeting: %w", err)
	}
	return creatorID, nil
}

func requireUserExists(ctx context.Context, q Querier, userID uuid.UUID) error {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`,
		userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking user existence: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return nil
}

func meetingTypeNames(ctx context.Context, q Querier, meetingID uuid.UUID) ([]string, error) {
	rows, err := q.Query(ctx,
		`SELECT i.name FROM meeting_types mt
		 JOIN interests i ON mt.interest_id = i.id
		 WHERE mt.meeting_id = $1
		 ORDER BY i.name`,
		meetingID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing meeting types: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning meeting type: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meeting types: %w", err)
	}
	return names, nil
}
