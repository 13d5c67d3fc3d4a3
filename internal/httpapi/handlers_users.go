package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"doodoologserver/internal/domain"
	"doodoologserver/internal/gamification"
	"doodoologserver/internal/service"
)

type userResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email,omitempty"`
	Username         string     `json:"username"`
	Avatar           string     `json:"avatar,omitempty"`
	XP               int        `json:"xp"`
	Level            int        `json:"level"`
	LevelProgress    int        `json:"level_progress"`
	XPPerLevel       int        `json:"xp_per_level"`
	Prestige         int        `json:"prestige"`
	AIEnabled        bool       `json:"ai_enabled"`
	Friends          []string   `json:"friends"`
	FriendRequests   []string   `json:"friend_requests"`
	OutgoingRequests []string   `json:"outgoing_requests"`
	CreatedAt        time.Time  `json:"created_at"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
}

func writeUser(w http.ResponseWriter, status int, u domain.User) {
	level := gamification.ComputeLevel(u.XP)
	resp := userResponse{
		ID:               u.ID,
		Email:            u.Email,
		Username:         u.Username,
		Avatar:           u.Avatar,
		XP:               u.XP,
		Level:            level.Level,
		LevelProgress:    level.Progress,
		XPPerLevel:       level.XPPerLevel,
		Prestige:         u.Prestige,
		AIEnabled:        u.AIEnabled,
		Friends:          u.Friends,
		FriendRequests:   u.FriendRequests,
		OutgoingRequests: u.OutgoingRequests,
		CreatedAt:        u.CreatedAt,
		LastLoginAt:      u.LastLoginAt,
	}
	WriteJSON(w, status, resp)
}

func (a *api) handleUsersMe(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeUser(w, http.StatusOK, u)
}

type updateProfileRequest struct {
	Avatar    *string `json:"avatar"`
	AIEnabled *bool   `json:"ai_enabled"`
}

func (a *api) handleUsersMeUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}
	if a.profileSvc == nil {
		WriteError(w, http.StatusServiceUnavailable, "profile_unavailable", "profile unavailable")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if req.Avatar == nil && req.AIEnabled == nil {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"avatar": "at least one field required"}))
		return
	}

	patch := service.ProfilePatch{Avatar: req.Avatar, AIEnabled: req.AIEnabled}
	if err := a.profileSvc.Update(r.Context(), u.ID, patch); err != nil {
		WriteDomainError(w, err)
		return
	}

	updated, err := a.authSvc.Users.GetUserByID(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeUser(w, http.StatusOK, updated)
}

func (a *api) handleUsersMePrestige(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	updated, err := a.logsSvc.DoPrestige(r.Context(), u)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeUser(w, http.StatusOK, updated)
}

func (a *api) handleUsersSearch(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteDomainError(w, domain.NewValidationError(map[string]string{"limit": "must be a non-negative integer"}))
			return
		}
		limit = n
	}

	results, err := a.usersSvc.Search(r.Context(), u, q, limit)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}
