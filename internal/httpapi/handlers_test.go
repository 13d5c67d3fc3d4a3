package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"doodoologserver/internal/auth"
	"doodoologserver/internal/service"
	"doodoologserver/internal/store/memory"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	mem := memory.New()
	authSvc := &service.AuthService{Users: mem, Sessions: mem, SessionTTL: time.Hour}

	return NewRouter(RouterOpts{
		Auth:        authSvc,
		Friends:     &service.FriendsService{Users: mem, Graph: mem},
		Logs:        &service.LogsService{Logs: mem, Users: mem},
		Users:       &service.UsersService{Store: mem},
		Profile:     &service.ProfileService{Store: mem},
		Feed:        &service.FeedService{Users: mem, Logs: mem},
		Reset:       &service.PasswordResetService{Store: mem, Users: mem},
		CookieCodec: auth.NewCookieCodec([]byte("0123456789abcdef0123456789abcdef")),
		SessionTTL:  time.Hour,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, body, cookie string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func registerUser(t *testing.T, h http.Handler, username string) (cookie, userID string) {
	t.Helper()

	body := fmt.Sprintf(`{"email":%q,"username":%q,"password":"a-long-enough-password"}`,
		strings.ToLower(username)+"@example.com", username)
	rr := doJSON(t, h, http.MethodPost, "/v1/auth/register", body, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", username, rr.Code, rr.Body.String())
	}

	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			cookie = c.Name + "=" + c.Value
		}
	}
	if cookie == "" {
		t.Fatalf("register %s: no session cookie", username)
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return cookie, resp.ID
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response: %d %q", rr.Code, rr.Body.String())
	}
}

func TestRegisterThenMe(t *testing.T) {
	h := newTestRouter(t)

	cookie, userID := registerUser(t, h, "Gary_The_Log")

	rr := doJSON(t, h, http.MethodGet, "/v1/users/me", "", cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("me: status %d: %s", rr.Code, rr.Body.String())
	}

	var me struct {
		ID       string   `json:"id"`
		Username string   `json:"username"`
		Level    int      `json:"level"`
		Friends  []string `json:"friends"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.ID != userID || me.Username != "Gary_The_Log" {
		t.Fatalf("unexpected me: %+v", me)
	}
	if me.Level != 1 {
		t.Fatalf("fresh user should be level 1, got %d", me.Level)
	}
	if me.Friends == nil {
		t.Fatalf("friends must be an empty array, not null")
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/v1/auth/register",
		`{"email":"gary@example.com","username":"gary","password":"short"}`, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "validation_error") {
		t.Fatalf("expected validation_error, got %s", rr.Body.String())
	}
}

func TestMeRequiresAuth(t *testing.T) {
	h := newTestRouter(t)

	rr := doJSON(t, h, http.MethodGet, "/v1/users/me", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestFriendRequestFlow(t *testing.T) {
	h := newTestRouter(t)

	aliceCookie, _ := registerUser(t, h, "alice")
	bobCookie, bobID := registerUser(t, h, "bob")

	// Alice sends a request; sending twice stays a no-op.
	body := fmt.Sprintf(`{"user_id":%q}`, bobID)
	for i := 0; i < 2; i++ {
		rr := doJSON(t, h, http.MethodPost, "/v1/friends/requests", body, aliceCookie)
		if rr.Code != http.StatusNoContent {
			t.Fatalf("send request %d: status %d: %s", i, rr.Code, rr.Body.String())
		}
	}

	// Bob sees one incoming request.
	rr := doJSON(t, h, http.MethodGet, "/v1/friends", "", bobCookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("friends: status %d", rr.Code)
	}
	var overview struct {
		Friends  []struct{ ID string } `json:"friends"`
		Incoming []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"incoming_requests"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if len(overview.Incoming) != 1 || overview.Incoming[0].Username != "alice" {
		t.Fatalf("unexpected incoming: %+v", overview.Incoming)
	}

	// Bob accepts, keyed by the requester's user id.
	rr = doJSON(t, h, http.MethodPost, "/v1/friends/requests/"+overview.Incoming[0].ID+"/accept", "", bobCookie)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("accept: status %d: %s", rr.Code, rr.Body.String())
	}

	// Both sides now list each other as friends.
	for _, cookie := range []string{aliceCookie, bobCookie} {
		rr = doJSON(t, h, http.MethodGet, "/v1/friends", "", cookie)
		var ov struct {
			Friends []struct{ ID string } `json:"friends"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&ov); err != nil {
			t.Fatalf("decode overview: %v", err)
		}
		if len(ov.Friends) != 1 {
			t.Fatalf("expected one friend, got %+v", ov.Friends)
		}
	}
}

func TestFriendRequestToSelf(t *testing.T) {
	h := newTestRouter(t)
	cookie, userID := registerUser(t, h, "alice")

	rr := doJSON(t, h, http.MethodPost, "/v1/friends/requests",
		fmt.Sprintf(`{"user_id":%q}`, userID), cookie)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestLogCreateAndFeed(t *testing.T) {
	h := newTestRouter(t)

	aliceCookie, aliceID := registerUser(t, h, "alice")
	bobCookie, bobID := registerUser(t, h, "bob")

	// Make them friends.
	rr := doJSON(t, h, http.MethodPost, "/v1/friends/requests",
		fmt.Sprintf(`{"user_id":%q}`, bobID), aliceCookie)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("send request: %d", rr.Code)
	}
	rr = doJSON(t, h, http.MethodPost, "/v1/friends/requests/"+aliceID+"/accept", "", bobCookie)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("accept: %d", rr.Code)
	}

	// Bob logs one shareable and one private entry.
	rr = doJSON(t, h, http.MethodPost, "/v1/logs",
		`{"type":4,"size":"LARGE","notes":"a triumph"}`, bobCookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create log: %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Entry struct {
			ID       string `json:"id"`
			XPGained int    `json:"xp_gained"`
		} `json:"entry"`
		Level struct {
			Level int `json:"level"`
		} `json:"level"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode create log: %v", err)
	}
	// 50 base, x1.5 large, x1.5 ideal type.
	if created.Entry.XPGained != 113 {
		t.Fatalf("unexpected xp: %d", created.Entry.XPGained)
	}
	if created.Level.Level != 1 {
		t.Fatalf("unexpected level: %d", created.Level.Level)
	}

	rr = doJSON(t, h, http.MethodPost, "/v1/logs",
		`{"type":2,"is_private":true}`, bobCookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create private log: %d", rr.Code)
	}

	// Alice's feed carries only the shareable entry.
	rr = doJSON(t, h, http.MethodGet, "/v1/feed", "", aliceCookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("feed: %d", rr.Code)
	}
	var feed struct {
		Entries []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&feed); err != nil {
		t.Fatalf("decode feed: %v", err)
	}
	if len(feed.Entries) != 1 || feed.Entries[0].ID != created.Entry.ID || feed.Entries[0].Username != "bob" {
		t.Fatalf("unexpected feed: %+v", feed.Entries)
	}

	// Reaction toggles on and back off.
	reactPath := "/v1/feed/" + created.Entry.ID + "/reactions"
	rr = doJSON(t, h, http.MethodPost, reactPath, `{"emoji":"💩"}`, aliceCookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("react: %d", rr.Code)
	}
	var reacted struct {
		Reactions []struct {
			Emoji       string `json:"emoji"`
			Count       int    `json:"count"`
			UserReacted bool   `json:"user_reacted"`
		} `json:"reactions"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&reacted); err != nil {
		t.Fatalf("decode reactions: %v", err)
	}
	if len(reacted.Reactions) != 1 || reacted.Reactions[0].Count != 1 || !reacted.Reactions[0].UserReacted {
		t.Fatalf("unexpected reactions: %+v", reacted.Reactions)
	}

	rr = doJSON(t, h, http.MethodPost, reactPath, `{"emoji":"💩"}`, aliceCookie)
	if err := json.NewDecoder(rr.Body).Decode(&reacted); err != nil {
		t.Fatalf("decode reactions: %v", err)
	}
	if len(reacted.Reactions) != 0 {
		t.Fatalf("expected reaction removed, got %+v", reacted.Reactions)
	}
}

func TestUsersSearchAnnotations(t *testing.T) {
	h := newTestRouter(t)

	aliceCookie, _ := registerUser(t, h, "alice")
	_, bobID := registerUser(t, h, "bobcat")

	rr := doJSON(t, h, http.MethodPost, "/v1/friends/requests",
		fmt.Sprintf(`{"user_id":%q}`, bobID), aliceCookie)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("send request: %d", rr.Code)
	}

	rr = doJSON(t, h, http.MethodGet, "/v1/users/search?q=bobcat", "", aliceCookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("search: %d: %s", rr.Code, rr.Body.String())
	}
	var search struct {
		Results []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&search); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(search.Results) != 1 || search.Results[0].ID != bobID || search.Results[0].Status != "outgoing" {
		t.Fatalf("unexpected search results: %+v", search.Results)
	}
}

func TestProfilePatchMergeSemantics(t *testing.T) {
	h := newTestRouter(t)
	cookie, _ := registerUser(t, h, "alice")

	rr := doJSON(t, h, http.MethodPatch, "/v1/users/me",
		`{"avatar":"https://example.com/a.png"}`, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch avatar: %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodPatch, "/v1/users/me", `{"ai_enabled":true}`, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch ai_enabled: %d", rr.Code)
	}

	var me struct {
		Avatar    string `json:"avatar"`
		AIEnabled bool   `json:"ai_enabled"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me.Avatar != "https://example.com/a.png" || !me.AIEnabled {
		t.Fatalf("patch dropped a field: %+v", me)
	}
}

func TestPrestigeLocked(t *testing.T) {
	h := newTestRouter(t)
	cookie, _ := registerUser(t, h, "alice")

	rr := doJSON(t, h, http.MethodPost, "/v1/users/me/prestige", "", cookie)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "prestige_locked") {
		t.Fatalf("expected prestige_locked, got %s", rr.Body.String())
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	h := newTestRouter(t)
	cookie, _ := registerUser(t, h, "alice")

	rr := doJSON(t, h, http.MethodPost, "/v1/auth/logout", "", cookie)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", rr.Code)
	}

	rr = doJSON(t, h, http.MethodGet, "/v1/users/me", "", cookie)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rr.Code)
	}
}
