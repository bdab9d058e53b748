package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/playpong/backend/internal/game"
	"github.com/playpong/backend/internal/models"
	"github.com/playpong/backend/internal/persistence"
)

type fakeSource struct {
	matches map[int64]game.MatchInfo
	stats   game.Stats
	err     error
}

func (f *fakeSource) Match(_ context.Context, id int64) (game.MatchInfo, bool, error) {
	m, ok := f.matches[id]
	return m, ok, f.err
}

func (f *fakeSource) Stats(context.Context) (game.Stats, error) {
	return f.stats, f.err
}

type fakeSnapshots map[int64]game.Event

func (f fakeSnapshots) Load(_ context.Context, id int64) (game.Event, error) {
	ev, ok := f[id]
	if !ok {
		return ev, errors.New("no snapshot")
	}
	return ev, nil
}

type fakeHistory struct {
	recs      []models.MatchRecord
	lastUser  string
	lastLimit int
}

func (f *fakeHistory) GetMatch(_ context.Context, id int64) (models.MatchRecord, error) {
	for _, r := range f.recs {
		if r.ID == id {
			return r, nil
		}
	}
	return models.MatchRecord{}, persistence.ErrNotFound
}

func (f *fakeHistory) RecentMatches(_ context.Context, username string, limit int) ([]models.MatchRecord, error) {
	f.lastUser, f.lastLimit = username, limit
	return f.recs, nil
}

func serve(r *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func newRouter(src MatchSource, snaps SnapshotStore, history History) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", HealthCheck)
	r.GET("/matches", ListMatches(history))
	r.GET("/matches/:id", GetMatch(src, snaps))
	r.GET("/records/:id", GetMatchRecord(history))
	r.GET("/queue", GetQueueStatus(src))
	return r
}

func TestHealthCheck(t *testing.T) {
	w, body := serve(newRouter(&fakeSource{}, nil, nil), "/health")
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", w.Code, body)
	}
}

func TestGetMatch(t *testing.T) {
	src := &fakeSource{matches: map[int64]game.MatchInfo{1: {ID: 1, Status: game.StatusActive, Player1: "Alice"}}}
	snaps := fakeSnapshots{2: {Type: game.EventFinished, MatchID: 2, Winner: "Bob"}}
	r := newRouter(src, snaps, nil)

	tests := []struct {
		path   string
		status int
		source string
	}{
		{"/matches/1", http.StatusOK, "live"},
		{"/matches/2", http.StatusOK, "snapshot"},
		{"/matches/3", http.StatusNotFound, ""},
		{"/matches/abc", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		w, body := serve(r, tt.path)
		if w.Code != tt.status {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.status, w.Code)
		}
		if tt.source != "" && body["source"] != tt.source {
			t.Errorf("%s: expected source %s, got %v", tt.path, tt.source, body["source"])
		}
	}
}

func TestGetMatchEngineDown(t *testing.T) {
	r := newRouter(&fakeSource{err: game.ErrStopped}, nil, nil)
	if w, _ := serve(r, "/matches/1"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestListMatches(t *testing.T) {
	h := &fakeHistory{recs: []models.MatchRecord{{
		ID: 5, Player1Username: "Alice", Player2Username: "Bob", Status: models.MatchStatusFinished,
		WinnerUsername: sql.NullString{String: "Bob", Valid: true}, Player1Score: 2, Player2Score: 5,
	}}}
	r := newRouter(&fakeSource{}, nil, h)

	w, body := serve(r, "/matches?username=Bob&limit=500")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if h.lastUser != "Bob" || h.lastLimit != 100 {
		t.Errorf("expected filter Bob/100, got %s/%d", h.lastUser, h.lastLimit)
	}
	list, _ := body["matches"].([]interface{})
	if len(list) != 1 || list[0].(map[string]interface{})["winner"] != "Bob" {
		t.Errorf("unexpected body %v", body)
	}

	if w, _ := serve(r, "/records/5"); w.Code != http.StatusOK {
		t.Errorf("expected record 5, got %d", w.Code)
	}
	if w, _ := serve(r, "/records/6"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a missing record, got %d", w.Code)
	}
}

func TestHistoryDisabled(t *testing.T) {
	r := newRouter(&fakeSource{}, nil, nil)
	if w, _ := serve(r, "/matches"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a database, got %d", w.Code)
	}
}

func TestGetQueueStatus(t *testing.T) {
	src := &fakeSource{stats: game.Stats{Waiting: 1, Active: 2, Connections: 5}}
	w, body := serve(newRouter(src, nil, nil), "/queue")
	if w.Code != http.StatusOK || body["waiting"] != float64(1) || body["active"] != float64(2) {
		t.Errorf("unexpected queue status %d %v", w.Code, body)
	}
}
