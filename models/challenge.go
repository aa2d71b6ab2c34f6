// file: models/challenge.go
package models

import (
	"time"
)

type ChallengeState string

const (
	ChallengeStateVisible ChallengeState = "visible"
	ChallengeStateHidden  ChallengeState = "hidden"

	// ChallengeTypeStandard 普通题目，提交即判题
	ChallengeTypeStandard = "standard"
	// ChallengeTypeDelayed 延迟公布题目，截止前所有提交一律记为错误
	ChallengeTypeDelayed = "delayed"

	DecayFunctionLogarithmic = "logarithmic"
	DecayFunctionLinear      = "linear"
)

type Challenge struct {
	ID            uint32         `gorm:"primarykey"`
	ChallengeName string         `gorm:"size:100;unique;not null"`
	Category      string         `gorm:"size:50"`
	Author        string         `gorm:"size:50;not null"`
	Description   string         `gorm:"type:text;not null"`
	Hint          string         `gorm:"type:text"`
	State         ChallengeState `gorm:"size:16;default:'hidden'"`
	Type          string         `gorm:"size:32;not null;default:'standard'"`
	Initial       int            `gorm:"not null;default:0"`
	Minimum       int            `gorm:"not null;default:0"`
	Decay         int            `gorm:"not null;default:0"`
	Function      string         `gorm:"size:32;default:'logarithmic'"`
	Value         int            `gorm:"not null;default:0"`
	SolvedCount   uint           `gorm:"default:0"`
	// Expiry 截止时间（Unix 秒）。为空表示永不到期
	Expiry    *int64 `gorm:"index"`
	Flags     []Flag `gorm:"foreignKey:ChallengeID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Challenge) TableName() string {
	return "dalictf_challenge"
}

// WithheldAt 判断时间 t 是否仍处于结果隐藏期。
// t.Unix() == Expiry 仍视为隐藏期，Expiry 为空则永远隐藏
func (c *Challenge) WithheldAt(t time.Time) bool {
	if c.Expiry == nil {
		return true
	}
	return t.Unix() <= *c.Expiry
}

// ExpiredAt 与 WithheldAt 互补
func (c *Challenge) ExpiredAt(t time.Time) bool {
	return !c.WithheldAt(t)
}

// ExpiryTime 返回截止时间；隐藏期内的提交时间都满足 submitted_at <= ExpiryTime
func (c *Challenge) ExpiryTime() (time.Time, bool) {
	if c.Expiry == nil {
		return time.Time{}, false
	}
	return time.Unix(*c.Expiry, 0).UTC(), true
}
