package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/groupmeet/groupmeet/internal/models"
	"github.com/groupmeet/groupmeet/internal/services"
)

type UserHandler struct {
	userService     services.UserServiceInterface
	interestService services.InterestServiceInterface
}

func NewUserHandler(userService services.UserServiceInterface, interestService services.InterestServiceInterface) *UserHandler {
	return &UserHandler{
		userService:     userService,
		interestService: interestService,
	}
}

// Profile handles GET /api/users/{id}.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	viewerID := uuid.Nil
	if viewer := GetUserFromContext(r.Context()); viewer != nil {
		viewerID = viewer.ID
	}

	profile, err := h.userService.Profile(r.Context(), userID, viewerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

type UpdateProfileRequest struct {
	FirstName *string  `json:"first_name,omitempty"`
	LastName  *string  `json:"last_name,omitempty"`
	Location  *string  `json:"location,omitempty"`
	About     *string  `json:"about,omitempty"`
	AvatarURL *string  `json:"avatar_url,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// UpdateProfile handles PATCH /api/users/me.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.FirstName != nil && strings.TrimSpace(*req.FirstName) == "" {
		writeError(w, http.StatusBadRequest, "First name cannot be blank")
		return
	}
	if req.LastName != nil && strings.TrimSpace(*req.LastName) == "" {
		writeError(w, http.StatusBadRequest, "Last name cannot be blank")
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, models.UpdateProfileParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Location:  req.Location,
		About:     req.About,
		AvatarURL: req.AvatarURL,
		Interests: req.Interests,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// UpgradePro handles POST /api/users/me/pro.
func (h *UserHandler) UpgradePro(w http.ResponseWriter, r *http.Request) {
	h.setPro(w, r, true)
}

// DowngradePro handles DELETE /api/users/me/pro.
func (h *UserHandler) DowngradePro(w http.ResponseWriter, r *http.Request) {
	h.setPro(w, r, false)
}

func (h *UserHandler) setPro(w http.ResponseWriter, r *http.Request, isPro bool) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if err := h.userService.SetPro(r.Context(), user.ID, isPro); err != nil {
		writeServiceError(w, err)
		return
	}

	profile, err := h.userService.Profile(r.Context(), user.ID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Search handles GET /api/users.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	q := r.URL.Query()
	criteria := models.UserSearchCriteria{
		SearchTerm:    q.Get("search"),
		Location:      q.Get("location"),
		ExcludeUserID: user.ID,
	}
	if genders := q.Get("genders"); genders != "" {
		for _, g := range strings.Split(genders, ",") {
			gender := models.Gender(g)
			if !gender.Valid() {
				writeError(w, http.StatusBadRequest, "Unknown gender value")
				return
			}
			criteria.Genders = append(criteria.Genders, gender)
		}
	}
	if interests := q.Get("interests"); interests != "" {
		criteria.Interests = strings.Split(interests, ",")
	}

	page, err := h.userService.Search(r.Context(), criteria, pageFromQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Interests handles GET /api/interests.
func (h *UserHandler) Interests(w http.ResponseWriter, r *http.Request) {
	interests, err := h.interestService.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, interests)
}
