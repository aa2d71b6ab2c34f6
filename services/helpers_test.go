package services

import (
	"DaliCTF/database"
	"DaliCTF/metrics"
	"DaliCTF/models"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// T0 测试中使用的截止时间
var T0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.MigrateTables(db))
	return db
}

// testClock 可调的时钟
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// recordingCache 记录缓存失效次数
type recordingCache struct {
	mu         sync.Mutex
	scoreboard int
	list       int
}

func (c *recordingCache) InvalidateScoreboard(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scoreboard++
	return nil
}

func (c *recordingCache) InvalidateChallengeList(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list++
	return nil
}

func (c *recordingCache) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scoreboard, c.list
}

type fixture struct {
	db      *gorm.DB
	clock   *testClock
	cache   *recordingCache
	metrics *metrics.Metrics
	deps    Deps
	engine  *Engine
	subs    *SubmissionService
	chals   *ChallengeService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:      newTestDB(t),
		clock:   &testClock{now: T0.Add(-time.Hour)},
		cache:   &recordingCache{},
		metrics: metrics.New(nil),
	}
	f.deps = Deps{
		DB:      f.db,
		Cache:   f.cache,
		Metrics: f.metrics,
		Now:     f.clock.Now,
	}
	f.engine = NewEngine(f.deps)
	f.subs = NewSubmissionService(f.deps)
	f.chals = NewChallengeService(f.deps)
	return f
}

func expiryAt(t time.Time) *int64 {
	v := t.Unix()
	return &v
}

// delayedChallenge 直接写库创建一道可见的延迟题目
func (f *fixture) delayedChallenge(t *testing.T, name string, expiry *int64, fl ...models.Flag) *models.Challenge {
	t.Helper()
	if len(fl) == 0 {
		fl = []models.Flag{{Type: models.FlagTypeStatic, Content: "flag{" + name + "}"}}
	}
	ch := models.Challenge{
		ChallengeName: name,
		Author:        "admin",
		Description:   "desc",
		State:         models.ChallengeStateVisible,
		Type:          models.ChallengeTypeDelayed,
		Initial:       500,
		Minimum:       100,
		Decay:         10,
		Function:      models.DecayFunctionLogarithmic,
		Value:         500,
		Expiry:        expiry,
		Flags:         fl,
	}
	require.NoError(t, f.db.Create(&ch).Error)
	return &ch
}

// failedAt 直接写入一条错误提交
func (f *fixture) failedAt(t *testing.T, ch *models.Challenge, who models.Submitter, provided string, at time.Time) *models.Submission {
	t.Helper()
	sub := models.Submission{
		ChallengeID: ch.ID,
		UserID:      who.UserID,
		TeamID:      who.TeamID,
		Provided:    provided,
		IPAddress:   "10.0.0.1",
		Status:      models.SubmissionStatusFailed,
		SubmittedAt: at.UTC(),
	}
	require.NoError(t, f.db.Create(&sub).Error)
	return &sub
}

// submitAt 在指定时刻通过判题入口提交
func (f *fixture) submitAt(t *testing.T, ch *models.Challenge, who models.Submitter, provided string, at time.Time) Judgement {
	t.Helper()
	f.clock.Set(at)
	j, err := f.subs.Submit(context.Background(), Attempt{ChallengeID: ch.ID, Submitter: who, Provided: provided, IP: "10.0.0.2"})
	require.NoError(t, err)
	return j
}

func (f *fixture) countSolves(t *testing.T, chID uint32, who models.Submitter) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Solve{}).
		Where("challenge_id = ? AND user_id = ? AND team_id = ?", chID, who.UserID, who.TeamID).
		Count(&n).Error)
	return n
}

func (f *fixture) submissions(t *testing.T, chID uint32, who models.Submitter) []models.Submission {
	t.Helper()
	var subs []models.Submission
	require.NoError(t, f.db.Where("challenge_id = ? AND user_id = ? AND team_id = ?", chID, who.UserID, who.TeamID).
		Order("submitted_at").Order("id").Find(&subs).Error)
	return subs
}
