package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testClient struct {
	t      *testing.T
	r      *gin.Engine
	cookie *http.Cookie
}

func newTestServer(t *testing.T, cacheSize int) (*gin.Engine, *Registry, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	seedTestDB(t, db)
	reg := newTestRegistry(t, db, cacheSize)
	r, err := newRouter(Config{Port: "0"}, db, reg)
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return r, reg, db
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	r, _, _ := newTestServer(t, 64)
	return &testClient{t: t, r: r}
}

func (tc *testClient) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	tc.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tc.cookie != nil {
		req.AddCookie(tc.cookie)
	}
	w := httptest.NewRecorder()
	tc.r.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			tc.cookie = c
		}
	}
	return w
}

func (tc *testClient) json(method, path, body string, out any) int {
	tc.t.Helper()
	w := tc.do(method, path, "application/json", body)
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			tc.t.Fatalf("%s %s: bad json %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

func (tc *testClient) form(path string, vals url.Values) *httptest.ResponseRecorder {
	tc.t.Helper()
	return tc.do(http.MethodPost, path, "application/x-www-form-urlencoded", vals.Encode())
}

func TestAPI_AnswerFlow(t *testing.T) {
	tc := newTestClient(t)

	var page PageView
	if code := tc.json(http.MethodGet, "/api/v1/questions?exam=30", "", &page); code != http.StatusOK {
		t.Fatalf("list: status %d", code)
	}
	if tc.cookie == nil {
		t.Fatal("expected identity cookie")
	}
	if page.Count != 2 || page.Cards[0].ID != "q1" || page.Cards[1].ID != "q2" {
		t.Fatalf("page cards = %+v", page.Cards)
	}
	if page.Overall.Correct != 0 || page.Overall.Percent == nil || *page.Overall.Percent != 0 {
		t.Errorf("overall before any answer = %+v", page.Overall)
	}

	var resp Interaction
	if code := tc.json(http.MethodPost, "/api/v1/questions/q1/select", `{"index":1}`, &resp); code != http.StatusOK {
		t.Fatalf("select: status %d", code)
	}
	if !resp.Effect.Rescore || resp.Stats == nil || resp.Stats.Correct != 1 {
		t.Errorf("select resp = %+v", resp)
	}

	resp = Interaction{}
	tc.json(http.MethodPost, "/api/v1/questions/q1/toggle", "", &resp)
	if resp.Card == nil || !resp.Card.Revealed || !resp.Card.Choices[1].Correct {
		t.Fatalf("reveal resp card = %+v", resp.Card)
	}
	if resp.Card.Explanation != "because B" {
		t.Errorf("explanation = %q", resp.Card.Explanation)
	}

	var stats StatsResponse
	tc.json(http.MethodGet, "/api/v1/stats?exam=30", "", &stats)
	if stats.Overall.Correct != 1 || stats.Overall.Total != 3 {
		t.Errorf("overall = %+v", stats.Overall)
	}
	if stats.Exam == nil || stats.Exam.Total != 2 || stats.Exam.Percent == nil || *stats.Exam.Percent != 50 {
		t.Errorf("exam stats = %+v", stats.Exam)
	}

	resp = Interaction{}
	tc.json(http.MethodPost, "/api/v1/questions/q1/toggle", "", &resp)
	if resp.Card == nil || resp.Card.Revealed || resp.Stats == nil || resp.Stats.Correct != 0 {
		t.Errorf("collapse resp = %+v", resp)
	}
}

func TestAPI_Errors(t *testing.T) {
	tc := newTestClient(t)
	tests := []struct {
		name, path, body string
		want             int
	}{
		{"unknown question", "/api/v1/questions/zz/toggle", "", http.StatusNotFound},
		{"choice out of range", "/api/v1/questions/q1/select", `{"index":7}`, http.StatusBadRequest},
		{"missing index", "/api/v1/questions/q1/select", `{}`, http.StatusBadRequest},
		{"bad flag", "/api/v1/questions/q1/flags", `{"flag":"z","checked":true}`, http.StatusBadRequest},
		{"nothing missed", "/api/v1/missed/pick", "", http.StatusConflict},
		{"reset without token", "/api/v1/reset/confirm", `{"token":"nope"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := tc.json(http.MethodPost, tt.path, tt.body, nil); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestAPI_FlagsSortAndReset(t *testing.T) {
	tc := newTestClient(t)

	var resp Interaction
	tc.json(http.MethodPost, "/api/v1/questions/q3/flags", `{"flag":"a","checked":true}`, &resp)
	if !resp.Effect.Rerender || resp.Card == nil || resp.Card.Tally != 1 {
		t.Fatalf("flag resp = %+v", resp)
	}

	var page PageView
	tc.json(http.MethodGet, "/api/v1/questions?sort=score", "", &page)
	if len(page.Cards) != 3 || page.Cards[0].ID != "q3" {
		t.Errorf("score order = %+v", page.Cards)
	}
	tc.json(http.MethodGet, "/api/v1/questions?onlyReviewed=true", "", &page)
	if page.Count != 1 {
		t.Errorf("only reviewed count = %d", page.Count)
	}

	var token struct {
		Token string `json:"token"`
	}
	if code := tc.json(http.MethodPost, "/api/v1/reset", "", &token); code != http.StatusAccepted || token.Token == "" {
		t.Fatalf("reset request: status %d token %q", code, token.Token)
	}
	if code := tc.json(http.MethodPost, "/api/v1/reset/confirm", `{"token":"`+token.Token+`"}`, nil); code != http.StatusOK {
		t.Fatalf("reset confirm: status %d", code)
	}
	tc.json(http.MethodGet, "/api/v1/questions?onlyReviewed=true", "", &page)
	if page.Count != 0 {
		t.Errorf("only reviewed after reset = %d", page.Count)
	}
}

func TestAPI_IdentityIsolationAndRestore(t *testing.T) {
	tc := newTestClient(t)
	tc.json(http.MethodPost, "/api/v1/questions/q1/flags", `{"flag":"b","checked":true}`, nil)

	var key struct {
		PublicID string `json:"publicId"`
	}
	tc.json(http.MethodGet, "/api/v1/me/export-key", "", &key)
	if key.PublicID == "" {
		t.Fatal("no export key")
	}

	other := &testClient{t: t, r: tc.r}
	var page PageView
	other.json(http.MethodGet, "/api/v1/questions?onlyReviewed=on", "", &page)
	if page.Count != 0 {
		t.Fatalf("second browser sees %d reviewed questions", page.Count)
	}

	if code := other.json(http.MethodPost, "/api/v1/me/restore", `{"publicId":"`+key.PublicID+`"}`, nil); code != http.StatusOK {
		t.Fatalf("restore: status %d", code)
	}
	other.json(http.MethodGet, "/api/v1/questions?onlyReviewed=on", "", &page)
	if page.Count != 1 {
		t.Errorf("restored browser sees %d reviewed questions, want 1", page.Count)
	}
}

func TestUI_PageAndForms(t *testing.T) {
	tc := newTestClient(t)

	w := tc.do(http.MethodGet, "/?exam=30", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("index: status %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Pick &lt;B&gt;") {
		t.Error("question text not escaped in page")
	}
	if strings.Contains(body, "Third") {
		t.Error("exam filter not applied")
	}

	w = tc.form("/ui/questions/q1/select", url.Values{"index": {"0"}, "q": {"exam=30&evil=1"}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/?exam=30#card-q1" {
		t.Errorf("select redirect = %d %q", w.Code, w.Header().Get("Location"))
	}
	tc.form("/ui/questions/q1/toggle", url.Values{"q": {"exam=30"}})

	body = tc.do(http.MethodGet, "/?exam=30", "", "").Body.String()
	if !strings.Contains(body, "because B") || !strings.Contains(body, "✕ 不正解") {
		t.Error("revealed card missing explanation or outcome")
	}

	w = tc.form("/ui/missed/pick", url.Values{"q": {"exam=29"}})
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "notice=nomissed") {
		t.Errorf("pick redirect = %q", loc)
	}

	w = tc.form("/ui/reset", url.Values{"q": {"exam=30"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `name="token"`) {
		t.Fatalf("reset prompt: %d", w.Code)
	}
	if tc.form("/ui/reset/confirm", url.Values{"token": {"wrong"}}).Code != http.StatusConflict {
		t.Error("reset confirmed with a bad token")
	}
}

func TestServiceWorker(t *testing.T) {
	tc := newTestClient(t)
	w := tc.do(http.MethodGet, "/sw.js", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Header().Get("Content-Type"), "javascript") {
		t.Errorf("sw.js: %d %q", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestAPI_CookielessClientsStayBounded(t *testing.T) {
	r, reg, db := newTestServer(t, 8)

	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/questions", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
	}
	if n := reg.Cached(); n != 8 {
		t.Errorf("cached viewers = %d, want 8", n)
	}
	var users int64
	db.Model(&User{}).Count(&users)
	if users != 50 {
		t.Errorf("users = %d, want 50", users)
	}
}

func TestEnsureUser_MalformedCookie(t *testing.T) {
	for _, bad := range []string{
		"not-a-uuid",
		strings.Repeat("x", 80),
		"{6ba7b810-9dad-11d1-80b4-00c04fd430c8}",
	} {
		t.Run(bad, func(t *testing.T) {
			tc := newTestClient(t)
			tc.cookie = &http.Cookie{Name: cookieName, Value: bad}
			var page PageView
			if code := tc.json(http.MethodGet, "/api/v1/questions", "", &page); code != http.StatusOK {
				t.Fatalf("status %d", code)
			}
			if tc.cookie.Value == bad || !validPublicID(tc.cookie.Value) {
				t.Errorf("cookie not replaced: %q", tc.cookie.Value)
			}
		})
	}
}

func TestAPI_RestoreRejectsMalformedKey(t *testing.T) {
	tc := newTestClient(t)
	if code := tc.json(http.MethodPost, "/api/v1/me/restore", `{"publicId":"../../etc"}`, nil); code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", code)
	}
}

func TestAPI_InteractionMatchesItsOwnEvent(t *testing.T) {
	tc := newTestClient(t)
	var out Interaction
	tc.json(http.MethodPost, "/api/v1/questions/q1/select", `{"index":1}`, &out)
	if out.Card == nil || out.Card.ID != "q1" || !out.Card.Choices[1].Selected {
		t.Fatalf("select card = %+v", out.Card)
	}
	if out.Stats == nil || out.Stats.Correct != 1 {
		t.Errorf("select stats = %+v", out.Stats)
	}

	out = Interaction{}
	tc.json(http.MethodPost, "/api/v1/questions/q1/toggle", "", &out)
	if out.Card == nil || !out.Card.Revealed || out.Card.Outcome == nil || *out.Card.Outcome {
		t.Errorf("toggle card = %+v", out.Card)
	}
}
