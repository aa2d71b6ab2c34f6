// file: mappers/challenge_mapper.go
package mappers

import (
	"DaliCTF/dto"
	"DaliCTF/models"
)

func MapCreateReqToModel(req dto.CreateChallengeReq) models.Challenge {
	return models.Challenge{
		ChallengeName: req.ChallengeName,
		Category:      req.Category,
		Author:        req.Author,
		Description:   req.Description,
		Hint:          req.Hint,
		State:         models.ChallengeState(req.State),
		Type:          req.Type,
		Initial:       req.Initial,
		Minimum:       req.Minimum,
		Decay:         req.Decay,
		Function:      req.Function,
		Value:         req.Initial, // 初始化为初始分
		Expiry:        req.Expiry,
		Flags:         MapFlagReqs(req.Flags),
	}
}

func MapFlagReqs(reqs []dto.FlagReq) []models.Flag {
	out := make([]models.Flag, 0, len(reqs))
	for _, f := range reqs {
		out = append(out, models.Flag{Type: f.Type, Content: f.Content, Data: f.Data})
	}
	return out
}

func MapModelToItemResp(ch models.Challenge) dto.ChallengeItemResp {
	return dto.ChallengeItemResp{
		ID:            ch.ID,
		ChallengeName: ch.ChallengeName,
		Category:      ch.Category,
		Type:          ch.Type,
		Value:         ch.Value,
		SolvedCount:   ch.SolvedCount,
		Expiry:        ch.Expiry,
	}
}

// MapModelToDetailResp 只填通用字段，类型相关字段由题目类型补充
func MapModelToDetailResp(ch models.Challenge) dto.ChallengeDetailResp {
	return dto.ChallengeDetailResp{
		ID:            ch.ID,
		ChallengeName: ch.ChallengeName,
		Category:      ch.Category,
		Author:        ch.Author,
		Description:   ch.Description,
		Hint:          ch.Hint,
		State:         string(ch.State),
		Type:          ch.Type,
		Value:         ch.Value,
		SolvedCount:   ch.SolvedCount,
	}
}

func MapModelToAdminDetailResp(detail dto.ChallengeDetailResp, ch models.Challenge) dto.AdminChallengeDetailResp {
	fl := make([]dto.AdminFlagResp, 0, len(ch.Flags))
	for _, f := range ch.Flags {
		fl = append(fl, dto.AdminFlagResp{ID: f.ID, Type: f.Type, Content: f.Content, Data: f.Data})
	}
	return dto.AdminChallengeDetailResp{
		ChallengeDetailResp: detail,
		Flags:               fl,
		CreatedAt:           ch.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:           ch.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
