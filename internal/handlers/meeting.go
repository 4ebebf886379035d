package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groupmeet/groupmeet/internal/models"
	"github.com/groupmeet/groupmeet/internal/services"
)

type MeetingHandler struct {
	meetingService services.MeetingServiceInterface
}

func NewMeetingHandler(meetingService services.MeetingServiceInterface) *MeetingHandler {
	return &MeetingHandler{meetingService: meetingService}
}

// writeServiceError maps service sentinels to HTTP statuses. Unrecognized
// errors are logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrMeetingNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNoteNotFound),
		errors.Is(err, services.ErrFriendRequestNotFound),
		errors.Is(err, services.ErrBlockEntryNotFound),
		errors.Is(err, services.ErrNotFriends):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotOrganizer),
		errors.Is(err, services.ErrBlockedFromMeeting),
		errors.Is(err, services.ErrFriendshipBlocked),
		errors.Is(err, services.ErrFriendLimitReached),
		errors.Is(err, services.ErrPeerFriendLimitReached):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrAlreadyParticipant),
		errors.Is(err, services.ErrMeetingFull),
		errors.Is(err, services.ErrParticipantBlocked),
		errors.Is(err, services.ErrAlreadyFriends),
		errors.Is(err, services.ErrRequestAlreadySent),
		errors.Is(err, services.ErrRequestAlreadyReceived):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrMeetingInPast),
		errors.Is(err, services.ErrOrganizerCannotLeave),
		errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrCannotBlockSelf),
		errors.Is(err, services.ErrCannotRemoveOrganizer),
		errors.Is(err, services.ErrRemoveBlockedParticipant),
		errors.Is(err, services.ErrCannotFriendSelf),
		errors.Is(err, services.ErrCannotUnfriendSelf),
		errors.Is(err, services.ErrInvalidRequestOperation),
		errors.Is(err, services.ErrInvalidMeeting),
		errors.Is(err, services.ErrInvalidNote),
		errors.Is(err, services.ErrInvalidRange),
		errors.Is(err, services.ErrResetRequestTooSoon):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("Unhandled service error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

type CreateMeetingRequest struct {
	Title           string               `json:"title"`
	Description     *string              `json:"description,omitempty"`
	Format          models.MeetingFormat `json:"format"`
	Location        *string              `json:"location,omitempty"`
	DateTime        time.Time            `json:"date_time"`
	MaxParticipants *int                 `json:"max_participants,omitempty"`
	Types           []string             `json:"types"`
}

func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req CreateMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	meeting, err := h.meetingService.Create(r.Context(), user.ID, models.CreateMeetingParams{
		Title:           req.Title,
		Description:     req.Description,
		Format:          req.Format,
		Location:        req.Location,
		DateTime:        req.DateTime,
		MaxParticipants: req.MaxParticipants,
		TypeNames:       req.Types,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, meeting)
}

type UpdateMeetingRequest struct {
	Title           *string               `json:"title,omitempty"`
	Description     *string               `json:"description,omitempty"`
	Format          *models.MeetingFormat `json:"format,omitempty"`
	Location        *string               `json:"location,omitempty"`
	DateTime        *time.Time            `json:"date_time,omitempty"`
	MaxParticipants *int                  `json:"max_participants,omitempty"`
	Types           []string              `json:"types,omitempty"`
}

func (h *MeetingHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	meetingID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meeting ID")
		return
	}

	var req UpdateMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	meeting, err := h.meetingService.Update(r.Context(), meetingID, user.ID, models.UpdateMeetingParams{
		Title:           req.Title,
		Description:     req.Description,
		Format:          req.Format,
		Location:        req.Location,
		DateTime:        req.DateTime,
		MaxParticipants: req.MaxParticipants,
		TypeNames:       req.Types,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meeting)
}

func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	meetingID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meeting ID")
		return
	}

	if err := h.meetingService.Delete(r.Context(), meetingID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MeetingHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	meetingID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meeting ID")
		return
	}

	if err := h.meetingService.Join(r.Context(), meetingID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Joined meeting"})
}

func (h *MeetingHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	meetingID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meeting ID")
		return
	}

	if err := h.meetingService.Leave(r.Context(), meetingID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Left meeting"})
}

func (h *MeetingHandler) BlockParticipant(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	meetingID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meeting ID")
		return
	}
	targetID, ok := pathUUID(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.meetingService.BlockParticipant(r.Context(), meetingID, targetID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User blocked"})
}

func (h *MeetingHandler) UnblockParticipant(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	meetingID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meeting ID")
		return
	}
	targetID, ok := pathUUID(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.meetingService.UnblockParticipant(r.Context(), meetingID, targetID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User unblocked"})
}

func (h *MeetingHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	meetingID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meeting ID")
		return
	}
	targetID, ok := pathUUID(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.meetingService.RemoveParticipant(r.Context(), meetingID, targetID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Participant removed"})
}

func (h *MeetingHandler) Participants(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	meetingID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meeting ID")
		return
	}

	page, err := h.meetingService.ParticipantsPage(r.Context(), meetingID, user.ID,
		r.URL.Query().Get("search"), pageFromQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *MeetingHandler) Detail(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid meeting ID")
		return
	}

	viewerID := uuid.Nil
	if user := GetUserFromContext(r.Context()); user != nil {
		viewerID = user.ID
	}

	detail, err := h.meetingService.Detail(r.Context(), meetingID, viewerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *MeetingHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	criteria := models.MeetingSearchCriteria{
		SearchTerm: q.Get("search"),
		Location:   q.Get("location"),
		Format:     models.MeetingFormat(q.Get("format")),
	}
	if criteria.Format != "" && !criteria.Format.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown meeting format")
		return
	}
	if types := q.Get("types"); types != "" {
		criteria.Types = strings.Split(types, ",")
	}
	if v := q.Get("start_date"); v != "" {
		start, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date")
			return
		}
		criteria.StartDate = &start
	}
	if v := q.Get("end_date"); v != "" {
		end, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date")
			return
		}
		criteria.EndDate = &end
	}

	page, err := h.meetingService.Search(r.Context(), criteria, pageFromQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *MeetingHandler) MyMeetings(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	page, err := h.meetingService.UserMeetings(r.Context(), user.ID, pageFromQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}
