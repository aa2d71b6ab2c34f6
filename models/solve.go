// file: models/solve.go
package models

import (
	"time"
)

// Solve 对应 dalictf_solve 表。
// (challenge_id, user_id, team_id) 唯一，保证同一提交者对同一题最多一条有效解题记录
type Solve struct {
	ID           uint64    `gorm:"primarykey"`
	SubmissionID uint64    `gorm:"not null"`
	ChallengeID  uint32    `gorm:"not null;uniqueIndex:unique_solve_submitter,priority:1"`
	UserID       uint32    `gorm:"not null;uniqueIndex:unique_solve_submitter,priority:2"`
	TeamID       uint32    `gorm:"not null;default:0;uniqueIndex:unique_solve_submitter,priority:3"`
	SolvedAt     time.Time `gorm:"not null"`
}

func (Solve) TableName() string {
	return "dalictf_solve"
}

func (s Solve) Submitter() Submitter {
	return Submitter{UserID: s.UserID, TeamID: s.TeamID}
}
