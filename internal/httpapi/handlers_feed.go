package httpapi

import (
	"net/http"
	"strings"

	"doodoologserver/internal/domain"
)

func (a *api) handleFeed(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	feed, err := a.feedSvc.BuildFeed(r.Context(), u)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"entries": feed})
}

type reactRequest struct {
	Emoji string `json:"emoji"`
}

func (a *api) handleFeedReact(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	entryID := strings.TrimSpace(r.PathValue("entryID"))
	if entryID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"entryID": "required"}))
		return
	}

	var req reactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	req.Emoji = strings.TrimSpace(req.Emoji)
	if req.Emoji == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"emoji": "required"}))
		return
	}

	reactions := a.feedSvc.React(u.ID, entryID, req.Emoji)
	WriteJSON(w, http.StatusOK, map[string]any{"reactions": reactions})
}
