package httpapi

import (
	"net/http"
	"strings"

	"doodoologserver/internal/domain"
	"doodoologserver/internal/gamification"
	"doodoologserver/internal/service"
)

type createLogRequest struct {
	Type            int      `json:"type"`
	Notes           string   `json:"notes"`
	DurationMinutes *int     `json:"duration_minutes"`
	PainLevel       *int     `json:"pain_level"`
	Wipes           *int     `json:"wipes"`
	IsClog          bool     `json:"is_clog"`
	Size            string   `json:"size"`
	HasBlood        bool     `json:"has_blood"`
	WeightGrams     *float64 `json:"weight_grams"`
	Private         bool     `json:"is_private"`
}

type createLogResponse struct {
	Entry domain.LogEntry        `json:"entry"`
	Level gamification.LevelInfo `json:"level"`
}

func (a *api) handleLogsCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req createLogRequest
	if err := decodeJSONAllowUnknownFields(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	params := service.CreateLogParams{
		Type:            domain.BristolType(req.Type),
		Notes:           strings.TrimSpace(req.Notes),
		DurationMinutes: req.DurationMinutes,
		PainLevel:       req.PainLevel,
		Wipes:           req.Wipes,
		IsClog:          req.IsClog,
		Size:            domain.LogSize(strings.ToUpper(strings.TrimSpace(req.Size))),
		HasBlood:        req.HasBlood,
		WeightGrams:     req.WeightGrams,
		Private:         req.Private,
	}

	entry, level, err := a.logsSvc.Append(r.Context(), u, params)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, createLogResponse{Entry: entry, Level: level})
}

func (a *api) handleLogsList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	entries, err := a.logsSvc.List(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (a *api) handleLogsDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	if err := a.logsSvc.Delete(r.Context(), u.ID, id); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleLogsClearCommentary(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.logsSvc.ClearCommentary(r.Context(), u.ID); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleStatsDaily(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	stats, err := a.logsSvc.DailyStats(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if stats == nil {
		stats = []domain.DailyStat{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"days": stats})
}
