// file: models/submission.go
package models

import (
	"time"
)

type SubmissionStatus string

const (
	SubmissionStatusSolved SubmissionStatus = "solved"
	SubmissionStatusFailed SubmissionStatus = "failed"
)

// Submission 对应 dalictf_submission 表，记录每一次 Flag 提交。
// TeamID 为 0 表示用户未加入队伍
type Submission struct {
	ID          uint64           `gorm:"primarykey"`
	ChallengeID uint32           `gorm:"not null;index:idx_submission_lookup,priority:1"`
	UserID      uint32           `gorm:"not null"`
	TeamID      uint32           `gorm:"not null;default:0"`
	Provided    string           `gorm:"type:text;not null"`
	IPAddress   string           `gorm:"size:45"`
	Status      SubmissionStatus `gorm:"size:16;not null;index:idx_submission_lookup,priority:2"`
	SubmittedAt time.Time        `gorm:"not null;index:idx_submission_lookup,priority:3"`
}

func (Submission) TableName() string {
	return "dalictf_submission"
}

// Submitter 返回提交者身份 (user_id, team_id)
func (s Submission) Submitter() Submitter {
	return Submitter{UserID: s.UserID, TeamID: s.TeamID}
}

// Submitter 用于判重的提交者身份
type Submitter struct {
	UserID uint32
	TeamID uint32
}
