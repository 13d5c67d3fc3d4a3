package httpapi

import (
	"net/http"
	"strings"

	"doodoologserver/internal/domain"
)

func (a *api) handleFriendsList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	out, err := a.friendsSvc.Overview(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

type createFriendRequestRequest struct {
	UserID string `json:"user_id"`
}

func (a *api) handleFriendsCreateRequest(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req createFriendRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"user_id": "required"}))
		return
	}

	if err := a.friendsSvc.SendRequest(r.Context(), u.ID, req.UserID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleFriendsAccept(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	requesterID := strings.TrimSpace(r.PathValue("userID"))
	if requesterID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"userID": "required"}))
		return
	}

	if err := a.friendsSvc.AcceptRequest(r.Context(), u.ID, requesterID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleFriendsDeny(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	requesterID := strings.TrimSpace(r.PathValue("userID"))
	if requesterID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"userID": "required"}))
		return
	}

	if err := a.friendsSvc.DenyRequest(r.Context(), u.ID, requesterID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleFriendsCancel(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	targetID := strings.TrimSpace(r.PathValue("userID"))
	if targetID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"userID": "required"}))
		return
	}

	if err := a.friendsSvc.CancelRequest(r.Context(), u.ID, targetID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleFriendsRemove(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	friendID := strings.TrimSpace(r.PathValue("userID"))
	if friendID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"userID": "required"}))
		return
	}

	if err := a.friendsSvc.RemoveFriend(r.Context(), u.ID, friendID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
