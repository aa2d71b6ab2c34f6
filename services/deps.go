// file: services/deps.go
package services

import (
	"DaliCTF/flags"
	"DaliCTF/metrics"
	"DaliCTF/models"
	"DaliCTF/scoring"
	"DaliCTF/utils"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Deps 各个 service 共享的依赖。零值字段会被填上默认实现
type Deps struct {
	DB      *gorm.DB
	Types   TypeRegistry
	Flags   flags.Registry
	Cache   CacheInvalidator
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Flags == nil {
		d.Flags = flags.DefaultRegistry()
	}
	if d.Types == nil {
		d.Types = NewTypeRegistry(d.Flags, scoring.DefaultFunctions())
	}
	if d.Cache == nil {
		d.Cache = NopCache{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New(nil)
	}
	if d.Logger == nil {
		d.Logger = utils.DiscardLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// recordSolve 写入解题认领与解题动态。
// 认领冲突（该提交者已有解题记录）时返回 false，不视为错误
func recordSolve(tx *gorm.DB, ch *models.Challenge, sub *models.Submission, promoted bool) (bool, error) {
	solve := models.Solve{
		SubmissionID: sub.ID,
		ChallengeID:  sub.ChallengeID,
		UserID:       sub.UserID,
		TeamID:       sub.TeamID,
		SolvedAt:     sub.SubmittedAt,
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&solve)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	feed := models.SolveFeed{
		ChallengeID:   ch.ID,
		ChallengeName: ch.ChallengeName,
		UserID:        sub.UserID,
		TeamID:        sub.TeamID,
		Promoted:      promoted,
		SolvingTime:   sub.SubmittedAt,
	}
	if err := tx.Create(&feed).Error; err != nil {
		return false, err
	}
	return true, nil
}

// rescore 按当前解题数更新 solved_count 与分值
func rescore(tx *gorm.DB, typ ChallengeType, ch *models.Challenge) error {
	var count int64
	if err := tx.Model(&models.Solve{}).Where("challenge_id = ?", ch.ID).Count(&count).Error; err != nil {
		return err
	}
	ch.SolvedCount = uint(count)
	typ.Rescore(ch, count)
	return tx.Model(&models.Challenge{}).Where("id = ?", ch.ID).Updates(map[string]interface{}{
		"solved_count": ch.SolvedCount,
		"value":        ch.Value,
	}).Error
}

// normalizeTime 提交时间统一为 UTC 秒精度，与 expiry 的粒度一致
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
