// file: dto/scoreboard.go
package dto

import "time"

type ScoreboardEntry struct {
	Rank          int        `json:"rank"`
	AccountType   string     `json:"account_type"` // team / user
	AccountID     uint32     `json:"account_id"`
	Name          string     `json:"name"`
	Score         int        `json:"score"`
	LastSolveTime *time.Time `json:"last_solve_time,omitempty"`
}

// PromotionResp 一次补判晋升的摘要
type PromotionResp struct {
	ChallengeID        uint32    `json:"challenge_id"`
	UserID             uint32    `json:"user_id"`
	TeamID             uint32    `json:"team_id"`
	SubmissionID       uint64    `json:"submission_id"`
	FailedSubmissionID uint64    `json:"failed_submission_id"`
	Date               time.Time `json:"date"`
}

type RescanResp struct {
	RunID      string          `json:"run_id"`
	Promotions []PromotionResp `json:"promotions"`
}
