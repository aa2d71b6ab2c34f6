// file: services/submission_service.go
package services

import (
	"DaliCTF/metrics"
	"DaliCTF/models"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Attempt 一次 Flag 提交
type Attempt struct {
	ChallengeID uint32
	Submitter   models.Submitter
	Provided    string
	IP          string
}

// SubmissionService 判题入口。每次提交只追加记录，不修改已有提交
type SubmissionService struct {
	deps Deps
}

func NewSubmissionService(deps Deps) *SubmissionService {
	return &SubmissionService{deps: deps.withDefaults()}
}

// ResolveSubmitter 查询用户所在队伍，未加入队伍时 TeamID 为 0
func (s *SubmissionService) ResolveSubmitter(ctx context.Context, userID uint32) (models.Submitter, error) {
	var member models.TeamMember
	err := s.deps.DB.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Submitter{UserID: userID}, nil
	}
	if err != nil {
		return models.Submitter{}, err
	}
	return models.Submitter{UserID: userID, TeamID: member.TeamID}, nil
}

// Submit 判题并记录提交。题目类型决定是否隐藏结果
func (s *SubmissionService) Submit(ctx context.Context, a Attempt) (Judgement, error) {
	now := normalizeTime(s.deps.Now())
	log := s.deps.Logger.With("challenge_id", a.ChallengeID, "user_id", a.Submitter.UserID, "team_id", a.Submitter.TeamID)

	var judgement Judgement
	err := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ch models.Challenge
		if err := tx.Preload("Flags").First(&ch, a.ChallengeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChallengeNotFound
			}
			return err
		}
		if ch.State != models.ChallengeStateVisible {
			return ErrChallengeHidden
		}
		typ, err := s.deps.Types.Get(ch.Type)
		if err != nil {
			return err
		}

		// 同一提交者重复解题判定
		var solved int64
		if err := tx.Model(&models.Solve{}).
			Where("challenge_id = ? AND user_id = ? AND team_id = ?", ch.ID, a.Submitter.UserID, a.Submitter.TeamID).
			Count(&solved).Error; err != nil {
			return err
		}
		if solved > 0 {
			return ErrAlreadySolved
		}

		judgement = typ.Attempt(&ch, a.Provided, now)

		sub := models.Submission{
			ChallengeID: ch.ID,
			UserID:      a.Submitter.UserID,
			TeamID:      a.Submitter.TeamID,
			Provided:    a.Provided,
			IPAddress:   a.IP,
			Status:      judgement.Status,
			SubmittedAt: now,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		if !judgement.Solved() {
			return nil
		}

		// 对题目行加锁，避免并发解题时分值计算错乱
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ch, ch.ID).Error; err != nil {
			return err
		}
		inserted, err := recordSolve(tx, &ch, &sub, false)
		if err != nil {
			return err
		}
		if !inserted {
			return ErrAlreadySolved
		}
		return rescore(tx, typ, &ch)
	})

	for _, me := range judgement.MatchErrors {
		log.Warn("flag comparison failed, treated as no match", "flag_id", me.FlagID, "error", me.Err)
	}
	if err != nil {
		if errors.Is(err, ErrAlreadySolved) || errors.Is(err, ErrChallengeNotFound) || errors.Is(err, ErrChallengeHidden) {
			return Judgement{}, err
		}
		return Judgement{}, fmt.Errorf("submit flag: %w", err)
	}

	switch {
	case judgement.Withheld:
		s.deps.Metrics.ObserveGate(metrics.ResultWithheld)
	case judgement.Solved():
		s.deps.Metrics.ObserveGate(metrics.ResultSolved)
		invalidateAll(ctx, s.deps.Cache, log)
	default:
		s.deps.Metrics.ObserveGate(metrics.ResultFailed)
	}
	log.Debug("submission recorded", "status", judgement.Status, "withheld", judgement.Withheld)
	return judgement, nil
}
