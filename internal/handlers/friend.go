package handlers

import (
	"net/http"

	"github.com/groupmeet/groupmeet/internal/services"
)

type FriendHandler struct {
	friendService services.FriendServiceInterface
}

func NewFriendHandler(friendService services.FriendServiceInterface) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// SendRequest handles POST /api/friends/requests/{userID}.
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	recipientID, ok := pathUUID(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	friendship, err := h.friendService.SendRequest(r.Context(), user.ID, recipientID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, friendship)
}

// Accept handles POST /api/friends/requests/{id}/accept. The path parameter
// is the request id handed out by the requests listing.
func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	requestID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	if err := h.friendService.Accept(r.Context(), user.ID, requestID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Friend request accepted"})
}

// Decline handles DELETE /api/friends/requests/{id}. The recipient rejecting
// and the sender withdrawing both land here.
func (h *FriendHandler) Decline(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	requestID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	if err := h.friendService.RejectOrWithdraw(r.Context(), user.ID, requestID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Friend request removed"})
}

// Remove handles DELETE /api/friends/{userID}.
func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	friendID, ok := pathUUID(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.friendService.RemoveFriend(r.Context(), user.ID, friendID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Friend removed"})
}

// List handles GET /api/friends.
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	page, err := h.friendService.ListFriends(r.Context(), user.ID,
		r.URL.Query().Get("search"), pageFromQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Requests handles GET /api/friends/requests.
func (h *FriendHandler) Requests(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	page, err := h.friendService.ListIncomingRequests(r.Context(), user.ID, pageFromQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}
