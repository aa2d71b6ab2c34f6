// file: controllers/delayed_controller.go
package controllers

import (
	"DaliCTF/dto"
	"DaliCTF/utils"

	"github.com/gin-gonic/gin"
)

// RescanDelayed —— 管理员手动触发补判，返回本次晋升的提交
func (h *Handler) RescanDelayed(c *gin.Context) {
	res, err := h.Engine.OnDemand(c.Request.Context())
	if err != nil {
		h.Logger.Error("on-demand reconciliation failed", "error", err)
		utils.Error(c, 5000, "补判失败，请稍后重试")
		return
	}

	promotions := make([]dto.PromotionResp, 0, len(res.Promotions))
	for _, p := range res.Promotions {
		promotions = append(promotions, dto.PromotionResp{
			ChallengeID:        p.ChallengeID,
			UserID:             p.UserID,
			TeamID:             p.TeamID,
			SubmissionID:       p.SubmissionID,
			FailedSubmissionID: p.FailedSubmissionID,
			Date:               p.Date,
		})
	}
	utils.Success(c, "success", dto.RescanResp{RunID: res.RunID, Promotions: promotions})
}
