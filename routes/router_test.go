package routes

import (
	"DaliCTF/controllers"
	"DaliCTF/database"
	"DaliCTF/metrics"
	"DaliCTF/models"
	"DaliCTF/services"
	"DaliCTF/utils"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	tokens *utils.TokenIssuer
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.MigrateTables(db))

	ts := &testServer{db: db, tokens: utils.NewTokenIssuer("test-secret", time.Hour), now: time.Now()}
	reg := prometheus.NewRegistry()
	deps := services.Deps{
		DB:      db,
		Metrics: metrics.New(reg),
		Now:     func() time.Time { return ts.now },
	}
	h := &controllers.Handler{
		DB:          db,
		Challenges:  services.NewChallengeService(deps),
		Submissions: services.NewSubmissionService(deps),
		Engine:      services.NewEngine(deps),
		Scoreboard:  services.NewScoreboardService(deps, nil, time.Minute),
		Teams:       services.NewTeamService(deps),
		Cache:       services.NopCache{},
		Tokens:      ts.tokens,
		Logger:      utils.DiscardLogger(),
	}
	ts.router = SetupRouter(h, reg)
	return ts
}

func (ts *testServer) token(t *testing.T, id uint32, role models.UserRole) string {
	t.Helper()
	tok, err := ts.tokens.GenerateToken(models.User{ID: id, Username: fmt.Sprintf("u%d", id), Role: role})
	require.NoError(t, err)
	return tok
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (ts *testServer) createDelayed(t *testing.T, admin string, expiry time.Time) uint32 {
	t.Helper()
	_, env := ts.do(t, http.MethodPost, "/api/v1/challenges", admin, map[string]interface{}{
		"challenge_name": "delayed-web",
		"author":         "admin",
		"description":    "find it",
		"state":          "visible",
		"type":           "delayed",
		"initial":        500,
		"minimum":        100,
		"decay":          10,
		"expiry":         expiry.Unix(),
		"flags":          []map[string]string{{"content": "flag{web}"}},
	})
	require.Equal(t, 0, env.Code, env.Msg)
	var created struct {
		ID uint32 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	return created.ID
}

func TestSubmitAndRescan(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.token(t, 1, models.RoleAdmin)
	player := ts.token(t, 2, models.RoleUser)
	expiry := ts.now.Add(time.Hour)
	id := ts.createDelayed(t, admin, expiry)

	_, env := ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/challenges/%d/submit", id), player, map[string]string{"flag": " flag{web} "})
	require.Equal(t, 0, env.Code, env.Msg)
	var resp struct {
		Status   string `json:"status"`
		Withheld bool   `json:"withheld"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "failed", resp.Status)
	assert.True(t, resp.Withheld)

	// 截止前补判不会有结果
	_, env = ts.do(t, http.MethodGet, "/api/v1/admin/delayed/rescan", admin, nil)
	require.Equal(t, 0, env.Code)
	var rescan struct {
		RunID      string            `json:"run_id"`
		Promotions []json.RawMessage `json:"promotions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rescan))
	assert.Empty(t, rescan.Promotions)

	ts.now = expiry.Add(time.Second)
	_, env = ts.do(t, http.MethodGet, "/api/v1/admin/delayed/rescan", admin, nil)
	require.Equal(t, 0, env.Code)
	require.NoError(t, json.Unmarshal(env.Data, &rescan))
	assert.NotEmpty(t, rescan.RunID)
	assert.Len(t, rescan.Promotions, 1)

	_, env = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/challenges/%d/submit", id), player, map[string]string{"flag": "flag{web}"})
	assert.Equal(t, 5001, env.Code)

	_, env = ts.do(t, http.MethodGet, "/api/v1/scoreboard", "", nil)
	require.Equal(t, 0, env.Code)
	var board []struct {
		AccountID uint32 `json:"account_id"`
		Score     int    `json:"score"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &board))
	require.Len(t, board, 1)
	assert.Equal(t, uint32(2), board[0].AccountID)
	assert.Equal(t, 500, board[0].Score)
}

func TestAdminRoutesRequireRole(t *testing.T) {
	ts := newTestServer(t)
	player := ts.token(t, 2, models.RoleUser)

	w, env := ts.do(t, http.MethodGet, "/api/v1/admin/delayed/rescan", player, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 4003, env.Code)

	_, env = ts.do(t, http.MethodGet, "/api/v1/admin/delayed/rescan", "", nil)
	assert.Equal(t, 4001, env.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/challenges", player, map[string]string{"challenge_name": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChallengeReadHidesFlags(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.token(t, 1, models.RoleAdmin)
	player := ts.token(t, 2, models.RoleUser)
	id := ts.createDelayed(t, admin, ts.now.Add(time.Hour))

	w, env := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/challenges/%d", id), player, nil)
	require.Equal(t, 0, env.Code)
	assert.NotContains(t, w.Body.String(), "flag{web}")
	assert.Contains(t, w.Body.String(), `"withheld":true`)

	w, env = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/challenges/%d", id), admin, nil)
	require.Equal(t, 0, env.Code)
	assert.Contains(t, w.Body.String(), "flag{web}")

	_, env = ts.do(t, http.MethodGet, "/api/v1/challenges/abc", player, nil)
	assert.Equal(t, 1001, env.Code)
	_, env = ts.do(t, http.MethodGet, "/api/v1/challenges/999", player, nil)
	assert.Equal(t, 4004, env.Code)
}

func TestRegisterLoginAndTeams(t *testing.T) {
	ts := newTestServer(t)

	_, env := ts.do(t, http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"username": "alice", "password": "correct-horse", "email": "alice@example.com",
	})
	require.Equal(t, 0, env.Code, env.Msg)

	_, env = ts.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	assert.Equal(t, 2002, env.Code)

	_, env = ts.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email": "alice@example.com", "password": "correct-horse",
	})
	require.Equal(t, 0, env.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	_, env = ts.do(t, http.MethodPost, "/api/v1/teams", login.Token, map[string]string{"team_name": "red"})
	require.Equal(t, 0, env.Code, env.Msg)
	_, env = ts.do(t, http.MethodPost, "/api/v1/teams", login.Token, map[string]string{"team_name": "blue"})
	assert.Equal(t, 3001, env.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.token(t, 1, models.RoleAdmin)
	ts.do(t, http.MethodGet, "/api/v1/admin/delayed/rescan", admin, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dalictf_reconcile_runs_total")
}
