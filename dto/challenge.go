// file: dto/challenge.go
package dto

import "strings"

// ========== 请求 DTO ==========

type FlagReq struct {
	Type    string `json:"type"` // static / regex
	Content string `json:"content"`
	Data    string `json:"data"` // case_insensitive
}

type CreateChallengeReq struct {
	// 规范字段（snake_case）
	ChallengeName string    `json:"challenge_name"`
	Category      string    `json:"category"`
	Author        string    `json:"author"`
	Description   string    `json:"description"`
	Hint          string    `json:"hint"`
	State         string    `json:"state"` // visible / hidden
	Type          string    `json:"type"`  // standard / delayed
	Initial       int       `json:"initial"`
	Minimum       int       `json:"minimum"`
	Decay         int       `json:"decay"`
	Function      string    `json:"function"` // logarithmic / linear
	Expiry        *int64    `json:"expiry"`   // Unix 秒，仅 delayed 题目使用
	Flags         []FlagReq `json:"flags"`

	// 兼容旧客户端（camelCase）
	ChallengeNameCamel string `json:"challengeName"`
}

// Normalize: 将 camelCase 别名归一化到 snake_case，并做轻量默认值处理
func (r *CreateChallengeReq) Normalize() {
	if r.ChallengeName == "" && r.ChallengeNameCamel != "" {
		r.ChallengeName = r.ChallengeNameCamel
	}

	r.ChallengeName = strings.TrimSpace(r.ChallengeName)
	r.Author = strings.TrimSpace(r.Author)
	r.Description = strings.TrimSpace(r.Description)
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	r.State = strings.ToLower(strings.TrimSpace(r.State))
	r.Function = strings.ToLower(strings.TrimSpace(r.Function))

	if r.Type == "" {
		r.Type = "standard"
	}
	if r.State == "" {
		r.State = "hidden"
	}
	for i := range r.Flags {
		r.Flags[i].Type = strings.ToLower(strings.TrimSpace(r.Flags[i].Type))
		if r.Flags[i].Type == "" {
			r.Flags[i].Type = "static"
		}
	}
}

// UpdateChallengeReq 为空的字段保持不变；Flags 非空时整体替换
type UpdateChallengeReq struct {
	ChallengeName *string    `json:"challenge_name"`
	Category      *string    `json:"category"`
	Description   *string    `json:"description"`
	Hint          *string    `json:"hint"`
	State         *string    `json:"state"`
	Initial       *int       `json:"initial"`
	Minimum       *int       `json:"minimum"`
	Decay         *int       `json:"decay"`
	Function      *string    `json:"function"`
	Expiry        *int64     `json:"expiry"`
	Flags         *[]FlagReq `json:"flags"`
}

type SubmitFlagReq struct {
	Flag      string `json:"flag"`
	FlagCamel string `json:"Flag"`
}

func (r *SubmitFlagReq) Normalize() {
	if r.Flag == "" && r.FlagCamel != "" {
		r.Flag = r.FlagCamel
	}
	r.Flag = strings.TrimSpace(r.Flag)
}

// ========== 响应 DTO ==========

type ChallengeItemResp struct {
	ID            uint32 `json:"id"`
	ChallengeName string `json:"challenge_name"`
	Category      string `json:"category"`
	Type          string `json:"type"`
	Value         int    `json:"value"`
	SolvedCount   uint   `json:"solved_count"`
	Expiry        *int64 `json:"expiry,omitempty"`
}

type TypeData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ChallengeDetailResp struct {
	ID            uint32   `json:"id"`
	ChallengeName string   `json:"challenge_name"`
	Category      string   `json:"category"`
	Author        string   `json:"author"`
	Description   string   `json:"description"`
	Hint          string   `json:"hint"`
	State         string   `json:"state"`
	Type          string   `json:"type"`
	TypeData      TypeData `json:"type_data"`
	Value         int      `json:"value"`
	Initial       int      `json:"initial,omitempty"`
	Minimum       int      `json:"minimum,omitempty"`
	Decay         int      `json:"decay,omitempty"`
	Function      string   `json:"function,omitempty"`
	Expiry        *int64   `json:"expiry,omitempty"`
	// Withheld 为 true 表示当前提交结果不公开
	Withheld    bool `json:"withheld"`
	SolvedCount uint `json:"solved_count"`
}

// ====== Admin 专用响应 DTO ======

type AdminFlagResp struct {
	ID      uint32 `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Data    string `json:"data"`
}

type AdminChallengeDetailResp struct {
	ChallengeDetailResp
	Flags     []AdminFlagResp `json:"flags"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type SubmitResp struct {
	Status   string `json:"status"` // solved / failed
	Withheld bool   `json:"withheld"`
	Message  string `json:"message"`
}
