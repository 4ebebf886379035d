package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/groupmeet/groupmeet/internal/models"
	"github.com/groupmeet/groupmeet/internal/services"
)

type CalendarHandler struct {
	calendarService services.CalendarServiceInterface
}

func NewCalendarHandler(calendarService services.CalendarServiceInterface) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

type NoteRequest struct {
	Date    time.Time `json:"date"`
	Title   string    `json:"title"`
	Content *string   `json:"content,omitempty"`
}

// CreateNote handles POST /api/calendar/notes.
func (h *CalendarHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note, err := h.calendarService.CreateNote(r.Context(), user.ID, models.NoteParams{
		Date: req.Date, Title: req.Title, Content: req.Content,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/calendar/notes/{id}.
func (h *CalendarHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	noteID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note, err := h.calendarService.UpdateNote(r.Context(), noteID, user.ID, models.NoteParams{
		Date: req.Date, Title: req.Title, Content: req.Content,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/calendar/notes/{id}.
func (h *CalendarHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	noteID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	if err := h.calendarService.DeleteNote(r.Context(), noteID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Range handles GET /api/calendar?start=...&end=...
func (h *CalendarHandler) Range(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end")
		return
	}

	data, err := h.calendarService.Range(r.Context(), user.ID, start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, data)
}
