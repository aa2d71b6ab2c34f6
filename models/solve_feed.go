// file: models/solve_feed.go
package models

import (
	"time"
)

// SolveFeed 对应 dalictf_solve_feed 缓存表。延迟题目的补判解题也会写入，SolvingTime 为原始提交时间
type SolveFeed struct {
	ID            uint64    `gorm:"primarykey" json:"id"`
	ChallengeID   uint32    `gorm:"not null" json:"challenge_id"`
	ChallengeName string    `gorm:"size:100;not null" json:"challenge_name"`
	UserID        uint32    `gorm:"not null" json:"user_id"`
	TeamID        uint32    `gorm:"not null;default:0" json:"team_id"`
	Promoted      bool      `gorm:"default:false" json:"promoted"`
	SolvingTime   time.Time `gorm:"index" json:"solving_time"`
}

func (SolveFeed) TableName() string {
	return "dalictf_solve_feed"
}
