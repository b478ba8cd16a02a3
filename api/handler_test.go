package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/studieren/match_back/cardstack"
	"github.com/studieren/match_back/feed"
	"github.com/studieren/match_back/metrics"
	"github.com/studieren/match_back/models"
	"github.com/studieren/match_back/repository"
	"github.com/studieren/match_back/seed"
	"github.com/studieren/match_back/store"
	"github.com/studieren/match_back/usecase"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.Open(store.Options{DSN: filepath.Join(t.TempDir(), "api.db")})
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	// Close 会等待订阅协程退出
	t.Cleanup(func() {
		cancel()
		s.Close()
	})

	m := metrics.New()
	seeder := seed.New(s, nil).OnReseed(m.Reseeded)
	if err := seeder.ClearAndRepopulate(ctx); err != nil {
		t.Fatalf("ClearAndRepopulate() failed: %v", err)
	}

	uc := usecase.New(repository.NewProfileRepository(s.Profiles, s.Typed, nil))
	feeds := feed.NewRegistry(
		feed.NewHome(uc, feed.WithRecorder(m)),
		feed.NewDaily(uc, feed.WithRecorder(m)),
	)
	if err := feeds.StartAll(ctx); err != nil {
		t.Fatalf("StartAll() failed: %v", err)
	}

	r := NewRouter(&Handler{
		Feeds:    feeds,
		UseCases: uc,
		Seeder:   seeder,
		Tool:     s.Tool,
		Metrics:  m,
		Cards:    cardstack.DefaultOptions(),
	})
	waitForCount(t, r, "home", 5)
	waitForCount(t, r, "daily", 5)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decoding response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decoding %s: %v", raw, err)
	}
	return v
}

func feedState(t *testing.T, r http.Handler, typ string) feed.ProfileState {
	t.Helper()
	w, env := do(t, r, http.MethodGet, "/feeds/"+typ, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /feeds/%s = %d", typ, w.Code)
	}
	return decode[feed.ProfileState](t, env.Data)
}

func waitForCount(t *testing.T, r http.Handler, typ string, n int) feed.ProfileState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := feedState(t, r, typ)
		if !s.IsLoading && len(s.Profiles) == n {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s feed has %d profiles, want %d", typ, len(s.Profiles), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	r := setupTestRouter(t)

	w, _ := do(t, r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("missing X-Request-ID header")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc" {
		t.Errorf("X-Request-ID = %q, want abc", got)
	}
}

func TestGetProfiles(t *testing.T) {
	r := setupTestRouter(t)

	w, env := do(t, r, http.MethodGet, "/profiles", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /profiles = %d", w.Code)
	}
	profiles := decode[[]models.Profile](t, env.Data)
	if len(profiles) != 5 || profiles[0].Name != "Ananya Sharma" {
		t.Errorf("profiles = %+v", profiles)
	}

	w, env = do(t, r, http.MethodGet, "/feeds/DAILY/profiles", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /feeds/DAILY/profiles = %d", w.Code)
	}
	if daily := decode[[]models.Profile](t, env.Data); len(daily) != 5 {
		t.Errorf("DAILY profiles = %d, want 5", len(daily))
	}
}

func TestInvalidType(t *testing.T) {
	r := setupTestRouter(t)

	w, _ := do(t, r, http.MethodGet, "/feeds/weekly", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("GET /feeds/weekly = %d, want 400", w.Code)
	}
}

func TestLikeEvent(t *testing.T) {
	r := setupTestRouter(t)

	w, env := do(t, r, http.MethodPost, "/feeds/home/events", eventRequest{Event: "like", ProfileID: 1})
	if w.Code != http.StatusOK {
		t.Fatalf("POST like = %d: %s", w.Code, w.Body.String())
	}
	// 响应中的状态已不含被喜欢的资料
	if state := decode[feed.ProfileState](t, env.Data); len(state.Profiles) != 4 {
		t.Errorf("like response lists %d profiles, want 4", len(state.Profiles))
	}
	home := feedState(t, r, "home")
	if len(home.Profiles) != 4 || home.Profiles[0].ID != 2 {
		t.Errorf("HOME after like = %+v, want 4 profiles starting at 2", home.Profiles)
	}
	if daily := feedState(t, r, "daily"); len(daily.Profiles) != 5 {
		t.Errorf("DAILY changed after HOME like: %d profiles", len(daily.Profiles))
	}

	w, _ = do(t, r, http.MethodPost, "/feeds/home/events", eventRequest{Event: "like", ProfileID: 1})
	if w.Code != http.StatusNotFound {
		t.Errorf("liking removed profile = %d, want 404", w.Code)
	}

	w, _ = do(t, r, http.MethodPost, "/feeds/home/events", eventRequest{Event: "superlike", ProfileID: 2})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown event = %d, want 400", w.Code)
	}
}

func TestSelectAndClear(t *testing.T) {
	r := setupTestRouter(t)

	w, _ := do(t, r, http.MethodGet, "/feeds/daily/selected", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("selected before select = %d, want 404", w.Code)
	}

	do(t, r, http.MethodPost, "/feeds/daily/events", eventRequest{Event: "select", ProfileID: 5})
	w, env := do(t, r, http.MethodGet, "/feeds/daily/selected", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("selected = %d", w.Code)
	}
	if p := decode[models.Profile](t, env.Data); p.ID != 5 || p.PhotoCount != 8 {
		t.Errorf("selected profile = %+v", p)
	}

	do(t, r, http.MethodPost, "/feeds/daily/events", eventRequest{Event: "clear_selection"})
	if w, _ := do(t, r, http.MethodGet, "/feeds/daily/selected", nil); w.Code != http.StatusNotFound {
		t.Errorf("selected after clear = %d, want 404", w.Code)
	}
}

func TestSwipe(t *testing.T) {
	r := setupTestRouter(t)

	type swipeResult struct {
		Profile   models.Profile `json:"profile"`
		Direction string         `json:"direction"`
		Rotation  float64        `json:"rotation"`
	}

	w, env := do(t, r, http.MethodPost, "/feeds/daily/swipe", swipeRequest{Offset: 40})
	if w.Code != http.StatusOK {
		t.Fatalf("small swipe = %d", w.Code)
	}
	if res := decode[swipeResult](t, env.Data); res.Direction != "center" || res.Rotation != 2 {
		t.Errorf("small swipe result = %+v", res)
	}

	w, env = do(t, r, http.MethodPost, "/feeds/daily/swipe", swipeRequest{Offset: -450})
	if w.Code != http.StatusOK {
		t.Fatalf("left swipe = %d", w.Code)
	}
	res := decode[swipeResult](t, env.Data)
	if res.Direction != "left" || res.Profile.ID != 1 {
		t.Errorf("left swipe result = %+v", res)
	}
	waitForCount(t, r, "daily", 4)

	w, env = do(t, r, http.MethodPost, "/feeds/daily/swipe", swipeRequest{ProfileID: 4, Offset: 20, Velocity: 900})
	if w.Code != http.StatusOK {
		t.Fatalf("fling = %d", w.Code)
	}
	if res := decode[swipeResult](t, env.Data); res.Direction != "right" || res.Profile.ID != 4 {
		t.Errorf("fling result = %+v", res)
	}
	waitForCount(t, r, "daily", 3)

	w, _ = do(t, r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `match_swipes_total{direction="dislike",type="DAILY"} 1`) {
		t.Errorf("metrics missing swipe counter:\n%s", w.Body.String())
	}
}

func TestStack(t *testing.T) {
	r := setupTestRouter(t)

	w, env := do(t, r, http.MethodGet, "/feeds/home/stack?count=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET stack = %d", w.Code)
	}
	stack := decode[cardstack.Stack[models.Profile]](t, env.Data)
	if len(stack.Cards) != 2 || stack.Total != 5 {
		t.Fatalf("stack = %+v", stack)
	}
	if stack.Cards[0].Item.ID != 1 || stack.Cards[1].Layer.TranslationY != -8 {
		t.Errorf("stack cards = %+v", stack.Cards)
	}

	_, env = do(t, r, http.MethodGet, "/feeds/home/stack?top=4&infinite=true&stack_from=left", nil)
	stack = decode[cardstack.Stack[models.Profile]](t, env.Data)
	if len(stack.Cards) != 3 || stack.Cards[1].Item.ID != 1 || stack.Cards[1].Layer.TranslationX != 8 {
		t.Errorf("infinite stack = %+v", stack.Cards)
	}

	_, env = do(t, r, http.MethodGet, "/feeds/home/stack?top=5", nil)
	if stack = decode[cardstack.Stack[models.Profile]](t, env.Data); !stack.Exhausted {
		t.Error("finite stack past the end not exhausted")
	}

	if w, _ := do(t, r, http.MethodGet, "/feeds/home/stack?stack_from=diagonal", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad stack_from = %d, want 400", w.Code)
	}
}

func TestRemoveProfileAndReset(t *testing.T) {
	r := setupTestRouter(t)

	if w, _ := do(t, r, http.MethodDelete, "/profiles/2", nil); w.Code != http.StatusOK {
		t.Fatalf("DELETE /profiles/2 = %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodDelete, "/profiles/2", nil); w.Code != http.StatusNotFound {
		t.Errorf("second DELETE /profiles/2 = %d, want 404", w.Code)
	}
	if w, _ := do(t, r, http.MethodDelete, "/profiles/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("DELETE /profiles/abc = %d, want 400", w.Code)
	}

	// profiles 表的删除不影响两个页面
	if home := feedState(t, r, "home"); len(home.Profiles) != 5 {
		t.Errorf("HOME has %d profiles after DELETE /profiles/2, want 5", len(home.Profiles))
	}

	do(t, r, http.MethodPost, "/feeds/home/events", eventRequest{Event: "dislike", ProfileID: 3})
	waitForCount(t, r, "home", 4)

	if w, _ := do(t, r, http.MethodPost, "/admin/reset", nil); w.Code != http.StatusOK {
		t.Fatalf("POST /admin/reset = %d", w.Code)
	}
	waitForCount(t, r, "home", 5)

	// 启动时的一次加上 /admin/reset 的一次
	w, _ := do(t, r, http.MethodGet, "/metrics", nil)
	if !strings.Contains(w.Body.String(), "match_store_reseeds_total 2") {
		t.Errorf("metrics missing reseed count 2:\n%s", w.Body.String())
	}

	_, env := do(t, r, http.MethodGet, "/profiles", nil)
	if profiles := decode[[]models.Profile](t, env.Data); len(profiles) != 5 {
		t.Errorf("profiles after reset = %d, want 5", len(profiles))
	}
}

func TestStats(t *testing.T) {
	r := setupTestRouter(t)

	w, env := do(t, r, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /stats = %d", w.Code)
	}
	stats := decode[map[string]json.RawMessage](t, env.Data)
	if _, ok := stats["database"]; !ok {
		t.Errorf("stats missing database section: %s", env.Data)
	}
}

func TestConsecutiveSwipes(t *testing.T) {
	r := setupTestRouter(t)

	type swipeResult struct {
		Profile   models.Profile `json:"profile"`
		Direction string         `json:"direction"`
	}

	// 不等待订阅流，每次都应滑走新的顶部卡片
	for _, want := range []int{1, 2} {
		w, env := do(t, r, http.MethodPost, "/feeds/home/swipe", swipeRequest{Offset: 600})
		if w.Code != http.StatusOK {
			t.Fatalf("swipe = %d: %s", w.Code, w.Body.String())
		}
		if res := decode[swipeResult](t, env.Data); res.Profile.ID != want || res.Direction != "right" {
			t.Errorf("swipe result = %+v, want right on %d", res, want)
		}
	}

	home := feedState(t, r, "home")
	if len(home.Profiles) != 3 || home.Profiles[0].ID != 3 {
		t.Errorf("HOME after two swipes = %+v, want 3 profiles starting at 3", home.Profiles)
	}

	w, _ := do(t, r, http.MethodGet, "/metrics", nil)
	if !strings.Contains(w.Body.String(), `match_swipes_total{direction="like",type="HOME"} 2`) {
		t.Errorf("metrics missing two HOME likes:\n%s", w.Body.String())
	}
}
