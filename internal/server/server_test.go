package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/raphaelgruber/zerosrv/internal/champion"
	"github.com/raphaelgruber/zerosrv/internal/metrics"
	"github.com/raphaelgruber/zerosrv/internal/models"
	"github.com/raphaelgruber/zerosrv/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDispatcher struct {
	client     string
	allowMatch bool
	err        error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, client string, allowMatch bool) (*models.Task, error) {
	d.client, d.allowMatch = client, allowMatch
	if d.err != nil {
		return nil, d.err
	}
	return &models.Task{Cmd: models.CmdSelfPlay, RandomSeed: "42", Hash: "best"}, nil
}

type fakeResults struct {
	got service.MatchSubmission
	err error
}

func (r *fakeResults) SubmitMatchResult(_ context.Context, sub service.MatchSubmission) (*service.MatchOutcome, error) {
	r.got = sub
	if r.err != nil {
		return nil, r.err
	}
	return &service.MatchOutcome{SGFHash: "sgfhash"}, nil
}

type fakeSelfPlay struct {
	got service.GameSubmission
	err error
}

func (s *fakeSelfPlay) SubmitGame(_ context.Context, sub service.GameSubmission) (string, error) {
	s.got = sub
	return "gamehash", s.err
}

type fakeMatches struct {
	got service.MatchRequest
	err error
}

func (m *fakeMatches) RequestMatch(_ context.Context, req service.MatchRequest) (*models.Match, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Match{
		ID:           surrealmodels.NewRecordID("match", "m1"),
		Network1:     req.Network1,
		NumberToPlay: 400,
	}, nil
}

type fakeListing struct{}

func (fakeListing) List(context.Context) ([]service.MatchSummary, error) {
	return []service.MatchSummary{{ID: "m1", Network1: "cand", SPRT: "CONTINUE"}}, nil
}

type fakeChampion struct {
	hash string
	err  error
}

func (c fakeChampion) Resolve(context.Context) (string, error) { return c.hash, c.err }

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fixture struct {
	dispatcher *fakeDispatcher
	results    *fakeResults
	selfPlay   *fakeSelfPlay
	matches    *fakeMatches
	deps       Deps
}

func newFixture() *fixture {
	reg := prometheus.NewRegistry()
	f := &fixture{
		dispatcher: &fakeDispatcher{},
		results:    &fakeResults{},
		selfPlay:   &fakeSelfPlay{},
		matches:    &fakeMatches{},
	}
	f.deps = Deps{
		Dispatcher: f.dispatcher,
		Results:    f.results,
		SelfPlay:   f.selfPlay,
		Matches:    f.matches,
		Listing:    fakeListing{},
		Champion:   fakeChampion{hash: "best"},
		Store:      fakePinger{},
		Metrics:    metrics.New(reg),
		Collector:  metrics.NewCollector(),
		Gatherer:   reg,
		AdminKey:   "hunter2",
	}
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	New(f.deps, nil).Handler().ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile(name, name+".gz")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestGetTask(t *testing.T) {
	tests := []struct {
		path       string
		wantStatus int
		wantMatch  bool
	}{
		{"/get-task/18", http.StatusOK, true},
		{"/get-task/0", http.StatusOK, false},
		{"/get-task/abc", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f := newFixture()
			w := f.do(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			assert.Equal(t, tt.wantMatch, f.dispatcher.allowMatch)
			assert.Equal(t, "192.0.2.1", f.dispatcher.client)

			var task models.Task
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
			assert.Equal(t, models.CmdSelfPlay, task.Cmd)
			assert.Equal(t, "best", task.Hash)
		})
	}
}

func TestGetTaskChampionUnavailable(t *testing.T) {
	f := newFixture()
	f.dispatcher.err = fmt.Errorf("%w: gzip: invalid header", champion.ErrRecompute)

	w := f.do(httptest.NewRequest(http.MethodGet, "/get-task/18", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "gzip")
}

func TestSubmitMatch(t *testing.T) {
	f := newFixture()
	req := multipartRequest(t, "/submit-match", map[string]string{
		"clientversion": "18",
		"winnerhash":    "cand",
		"loserhash":     "best",
		"winnercolor":   "white",
		"movescount":    "200",
		"score":         "W+R",
		"options_hash":  "abc123tail",
		"random_seed":   "1719949479461840638",
	}, map[string][]byte{"sgf": []byte("compressed")})

	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Match data sgfhash stored in database\n", w.Body.String())

	got := f.results.got
	assert.Equal(t, "cand", got.WinnerHash)
	assert.Equal(t, "1719949479461840638", got.RandomSeed)
	assert.Equal(t, []byte("compressed"), got.SGF)
	assert.Equal(t, "192.0.2.1", got.ClientID)
}

func TestSubmitMatchErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: no SGF provided", service.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: seed 42", service.ErrVerification), http.StatusForbidden},
		{fmt.Errorf("%w: seed 42", service.ErrDuplicate), http.StatusConflict},
		{fmt.Errorf("find match: %w", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("store: %w: %w", service.ErrStore, errors.New("connection reset")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.want), func(t *testing.T) {
			f := newFixture()
			f.results.err = tt.err
			w := f.do(multipartRequest(t, "/submit-match", map[string]string{"score": "B+R"}, nil))
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "connection reset")
			}
		})
	}
}

func TestSubmitGame(t *testing.T) {
	f := newFixture()
	req := multipartRequest(t, "/submit", map[string]string{
		"networkhash":   "best",
		"clientversion": "18",
		"random_seed":   "7",
	}, map[string][]byte{"sgf": []byte("sgf"), "trainingdata": []byte("data")})

	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Game data gamehash stored in database\n", w.Body.String())
	assert.Equal(t, "best", f.selfPlay.got.NetworkHash)
	assert.Equal(t, []byte("data"), f.selfPlay.got.TrainingData)
}

func TestRequestMatch(t *testing.T) {
	f := newFixture()
	body := `{"key":"hunter2","network1":"cand","playouts":1600,"noise":true,"number_to_play":100}`
	req := httptest.NewRequest(http.MethodPost, "/request-match", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := f.matches.got
	assert.Equal(t, "cand", got.Network1)
	assert.Equal(t, 1600, got.Playouts)
	require.NotNil(t, got.Noise)
	assert.True(t, *got.Noise)
	assert.Nil(t, got.ResignationPercent)
	assert.Equal(t, 100, got.NumberToPlay)

	var summary service.MatchSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "m1", summary.ID)
}

func TestRequestMatchForm(t *testing.T) {
	f := newFixture()
	form := url.Values{"key": {"hunter2"}, "network1": {"cand"}, "network2": {"best"}, "resignation_percent": {"5"}}
	req := httptest.NewRequest(http.MethodPost, "/request-match", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "best", f.matches.got.Network2)
	require.NotNil(t, f.matches.got.ResignationPercent)
	assert.InDelta(t, 5, *f.matches.got.ResignationPercent, 0)
}

func TestRequestMatchAuth(t *testing.T) {
	tests := []struct {
		name     string
		adminKey string
		key      string
	}{
		{"wrong key", "hunter2", "guess"},
		{"missing key", "hunter2", ""},
		{"no key configured", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.deps.AdminKey = tt.adminKey
			body := fmt.Sprintf(`{"key":%q,"network1":"cand"}`, tt.key)
			req := httptest.NewRequest(http.MethodPost, "/request-match", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			w := f.do(req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Empty(t, f.matches.got.Network1)
		})
	}
}

func TestBestNetworkHash(t *testing.T) {
	f := newFixture()
	w := f.do(httptest.NewRequest(http.MethodGet, "/best-network-hash", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "best\n"+LegacyVersionLine, w.Body.String())
}

func TestMatchesAndStats(t *testing.T) {
	f := newFixture()

	w := f.do(httptest.NewRequest(http.MethodGet, "/matches", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []service.MatchSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "cand", list[0].Network1)

	w = f.do(httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Contains(t, snap.Operations, metrics.OpListMatches)
}

func TestHealth(t *testing.T) {
	f := newFixture()
	w := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	f.deps.Store = fakePinger{err: errors.New("down")}
	w = f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture()
	_ = f.do(httptest.NewRequest(http.MethodGet, "/best-network-hash", nil))

	w := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "zerosrv_http_request_duration_seconds")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
