// file: services/reconcile.go
package services

import (
	"DaliCTF/models"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// errPromotionLost 失败记录已被其他补判处理，或提交者已有解题记录
var errPromotionLost = errors.New("promotion lost to concurrent pass")

// Promotion 一条被补判为正确的提交
type Promotion struct {
	ChallengeID        uint32
	UserID             uint32
	TeamID             uint32
	SubmissionID       uint64
	FailedSubmissionID uint64
	Provided           string
	Date               time.Time
}

// RunResult 一次补判的结果，Promotions 为空表示无事可做
type RunResult struct {
	RunID      string
	Promotions []Promotion
}

// Engine 延迟题目补判。
// 截止后重新用题目当前的 Flag 检查截止前的错误提交，匹配的转为正确。
// 可重复执行；同一进程内并发调用会合并为一次执行
type Engine struct {
	deps   Deps
	group  singleflight.Group
	tracer trace.Tracer
}

func NewEngine(deps Deps) *Engine {
	return &Engine{
		deps:   deps.withDefaults(),
		tracer: otel.Tracer("DaliCTF/services/reconcile"),
	}
}

// OnStartup 服务启动时调用
func (e *Engine) OnStartup(ctx context.Context) error {
	res, err := e.Run(ctx)
	if err != nil {
		return err
	}
	e.deps.Logger.Info("startup reconciliation finished", "run_id", res.RunID, "promotions", len(res.Promotions))
	return nil
}

// OnDemand 手动触发，返回本次晋升列表
func (e *Engine) OnDemand(ctx context.Context) (RunResult, error) {
	return e.Run(ctx)
}

func (e *Engine) Run(ctx context.Context) (RunResult, error) {
	v, err, shared := e.group.Do("reconcile", func() (interface{}, error) {
		return e.run(ctx)
	})
	res, _ := v.(RunResult)
	if shared {
		e.deps.Logger.Debug("joined in-flight reconciliation", "run_id", res.RunID)
	}
	return res, err
}

func (e *Engine) run(ctx context.Context) (RunResult, error) {
	runID := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "reconcile.pass", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	start := time.Now()
	now := e.deps.Now().UTC()
	log := e.deps.Logger.With("run_id", runID)

	var promotions []Promotion
	err := e.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expired []models.Challenge
		if err := tx.Preload("Flags").
			Where("expiry IS NOT NULL AND expiry < ?", now.Unix()).
			Order("id").
			Find(&expired).Error; err != nil {
			return fmt.Errorf("select expired challenges: %w", err)
		}

		for i := range expired {
			p, err := e.reconcileChallenge(tx, &expired[i], log)
			if err != nil {
				return fmt.Errorf("challenge %d: %w", expired[i].ID, err)
			}
			promotions = append(promotions, p...)
		}
		return nil
	})
	e.deps.Metrics.ObserveRun(start, len(promotions), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconciliation aborted")
		log.Error("reconciliation aborted, nothing persisted", "error", err)
		return RunResult{RunID: runID}, fmt.Errorf("reconcile run %s: %w", runID, err)
	}

	span.SetAttributes(attribute.Int("promotions", len(promotions)))
	if len(promotions) > 0 {
		invalidateAll(ctx, e.deps.Cache, log)
		log.Info("reconciliation promoted submissions", "promotions", len(promotions), "duration", time.Since(start))
	}
	return RunResult{RunID: runID, Promotions: promotions}, nil
}

func (e *Engine) reconcileChallenge(tx *gorm.DB, ch *models.Challenge, log *slog.Logger) ([]Promotion, error) {
	log = log.With("challenge_id", ch.ID)
	typ, err := e.deps.Types.Get(ch.Type)
	if err != nil {
		log.Warn("skip challenge with unknown type", "type", ch.Type)
		return nil, nil
	}
	cutoff, ok := ch.ExpiryTime()
	if !ok {
		return nil, nil
	}

	// 截止前（含截止时刻）的错误提交，最新的在前
	var fails []models.Submission
	if err := tx.Where("challenge_id = ? AND status = ? AND submitted_at <= ?", ch.ID, models.SubmissionStatusFailed, cutoff).
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&fails).Error; err != nil {
		return nil, fmt.Errorf("load failed submissions: %w", err)
	}
	if len(fails) == 0 {
		return nil, nil
	}

	var solves []models.Solve
	if err := tx.Select("user_id", "team_id").Where("challenge_id = ?", ch.ID).Find(&solves).Error; err != nil {
		return nil, fmt.Errorf("load solves: %w", err)
	}
	excluded := make(map[models.Submitter]struct{}, len(solves))
	for _, s := range solves {
		excluded[s.Submitter()] = struct{}{}
	}

	var out []Promotion
	seen := make(map[models.Submitter]struct{}, len(fails))
	for i := range fails {
		fail := &fails[i]
		who := fail.Submitter()
		// 每个提交者只看最近一次错误提交
		if _, dup := seen[who]; dup {
			continue
		}
		seen[who] = struct{}{}
		if _, done := excluded[who]; done {
			continue
		}

		matched, errs := e.deps.Flags.MatchAny(ch.Flags, fail.Provided)
		for _, me := range errs {
			e.deps.Metrics.MatchErrors.Inc()
			log.Warn("flag comparison failed, treated as no match",
				"submission_id", fail.ID, "flag_id", me.FlagID, "error", me.Err)
		}
		if !matched {
			continue
		}

		p, err := e.promote(tx, ch, fail)
		if errors.Is(err, errPromotionLost) {
			log.Debug("promotion skipped, already handled elsewhere", "submission_id", fail.ID)
			excluded[who] = struct{}{}
			continue
		}
		if err != nil {
			return nil, err
		}
		excluded[who] = struct{}{}
		out = append(out, p)
	}

	if len(out) > 0 {
		if err := rescore(tx, typ, ch); err != nil {
			return nil, fmt.Errorf("rescore: %w", err)
		}
	}
	return out, nil
}

// promote 在保存点内删除错误提交并重建为正确提交，失败只回滚该条
func (e *Engine) promote(tx *gorm.DB, ch *models.Challenge, fail *models.Submission) (Promotion, error) {
	var p Promotion
	err := tx.Transaction(func(ptx *gorm.DB) error {
		res := ptx.Where("id = ? AND status = ?", fail.ID, models.SubmissionStatusFailed).Delete(&models.Submission{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errPromotionLost
		}

		solved := models.Submission{
			ChallengeID: fail.ChallengeID,
			UserID:      fail.UserID,
			TeamID:      fail.TeamID,
			Provided:    fail.Provided,
			IPAddress:   fail.IPAddress,
			Status:      models.SubmissionStatusSolved,
			SubmittedAt: fail.SubmittedAt,
		}
		if err := ptx.Create(&solved).Error; err != nil {
			return err
		}
		inserted, err := recordSolve(ptx, ch, &solved, true)
		if err != nil {
			return err
		}
		if !inserted {
			return errPromotionLost
		}

		p = Promotion{
			ChallengeID:        ch.ID,
			UserID:             solved.UserID,
			TeamID:             solved.TeamID,
			SubmissionID:       solved.ID,
			FailedSubmissionID: fail.ID,
			Provided:           solved.Provided,
			Date:               solved.SubmittedAt,
		}
		return nil
	})
	return p, err
}
