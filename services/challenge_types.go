// file: services/challenge_types.go
package services

import (
	"DaliCTF/dto"
	"DaliCTF/flags"
	"DaliCTF/mappers"
	"DaliCTF/models"
	"DaliCTF/scoring"
	"fmt"
	"time"
)

// Judgement 一次提交的判定结果
type Judgement struct {
	Status   models.SubmissionStatus
	Withheld bool
	Message  string
	// MatchErrors 比较出错的 Flag，调用方负责记录
	MatchErrors []flags.MatchError
}

func (j Judgement) Solved() bool {
	return j.Status == models.SubmissionStatusSolved
}

// ChallengeType 题目类型的能力集合：判题、渲染、持久化前校验、重新计分
type ChallengeType interface {
	ID() string
	Name() string
	Attempt(ch *models.Challenge, provided string, now time.Time) Judgement
	Read(ch *models.Challenge, now time.Time) dto.ChallengeDetailResp
	Prepare(ch *models.Challenge) error
	Rescore(ch *models.Challenge, solveCount int64)
}

// TypeRegistry 题目类型 ID -> 实现，启动时显式构造
type TypeRegistry map[string]ChallengeType

func NewTypeRegistry(flagReg flags.Registry, decay scoring.Functions) TypeRegistry {
	return TypeRegistry{
		models.ChallengeTypeStandard: StandardType{flags: flagReg},
		models.ChallengeTypeDelayed:  DelayedType{flags: flagReg, decay: decay},
	}
}

func (r TypeRegistry) Get(id string) (ChallengeType, error) {
	t, ok := r[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChallengeType, id)
	}
	return t, nil
}

func judge(reg flags.Registry, ch *models.Challenge, provided string) Judgement {
	matched, errs := reg.MatchAny(ch.Flags, provided)
	if matched {
		return Judgement{Status: models.SubmissionStatusSolved, Message: "Correct", MatchErrors: errs}
	}
	return Judgement{Status: models.SubmissionStatusFailed, Message: "Incorrect", MatchErrors: errs}
}

// StandardType 提交即判题，分值固定为 initial
type StandardType struct {
	flags flags.Registry
}

func (StandardType) ID() string   { return models.ChallengeTypeStandard }
func (StandardType) Name() string { return "standard" }

func (t StandardType) Attempt(ch *models.Challenge, provided string, _ time.Time) Judgement {
	return judge(t.flags, ch, provided)
}

func (t StandardType) Read(ch *models.Challenge, _ time.Time) dto.ChallengeDetailResp {
	resp := mappers.MapModelToDetailResp(*ch)
	resp.TypeData = dto.TypeData{ID: t.ID(), Name: t.Name()}
	return resp
}

func (StandardType) Prepare(ch *models.Challenge) error {
	if ch.Initial < 0 {
		return fmt.Errorf("%w: initial must not be negative", ErrInvalidChallenge)
	}
	ch.Expiry = nil
	ch.Value = ch.Initial
	return nil
}

func (StandardType) Rescore(ch *models.Challenge, _ int64) {
	ch.Value = ch.Initial
}

// DelayedType 截止前（含截止时刻）一律记为错误并隐藏真实结果，截止后与普通题目相同；
// 分值按解题人数衰减
type DelayedType struct {
	flags flags.Registry
	decay scoring.Functions
}

func (DelayedType) ID() string   { return models.ChallengeTypeDelayed }
func (DelayedType) Name() string { return "delayed" }

func (t DelayedType) Attempt(ch *models.Challenge, provided string, now time.Time) Judgement {
	if ch.WithheldAt(now) {
		return Judgement{
			Status:   models.SubmissionStatusFailed,
			Withheld: true,
			Message:  "Submission recorded, the result is withheld until the challenge expires",
		}
	}
	return judge(t.flags, ch, provided)
}

func (t DelayedType) Read(ch *models.Challenge, now time.Time) dto.ChallengeDetailResp {
	resp := mappers.MapModelToDetailResp(*ch)
	resp.TypeData = dto.TypeData{ID: t.ID(), Name: t.Name()}
	resp.Initial = ch.Initial
	resp.Minimum = ch.Minimum
	resp.Decay = ch.Decay
	resp.Function = ch.Function
	resp.Expiry = ch.Expiry
	resp.Withheld = ch.WithheldAt(now)
	return resp
}

func (t DelayedType) Prepare(ch *models.Challenge) error {
	if ch.Initial < 0 || ch.Minimum < 0 || ch.Decay < 0 {
		return fmt.Errorf("%w: initial, minimum and decay must not be negative", ErrInvalidChallenge)
	}
	if ch.Minimum > ch.Initial {
		return fmt.Errorf("%w: minimum must not exceed initial", ErrInvalidChallenge)
	}
	if ch.Function == "" {
		ch.Function = models.DecayFunctionLogarithmic
	}
	if _, ok := t.decay[ch.Function]; !ok {
		return fmt.Errorf("%w: unknown decay function %q", ErrInvalidChallenge, ch.Function)
	}
	if ch.Expiry != nil && *ch.Expiry <= 0 {
		return fmt.Errorf("%w: expiry must be a positive unix timestamp", ErrInvalidChallenge)
	}
	t.Rescore(ch, int64(ch.SolvedCount))
	return nil
}

func (t DelayedType) Rescore(ch *models.Challenge, solveCount int64) {
	ch.Value = t.decay.Value(ch, solveCount)
}
