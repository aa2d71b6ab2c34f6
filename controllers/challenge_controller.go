// file: controllers/challenge_controller.go
package controllers

import (
	"DaliCTF/dto"
	"DaliCTF/services"
	"DaliCTF/utils"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

const challengeListKey = services.ChallengeListKeyPrefix + "list"

func parseID(c *gin.Context) (uint32, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.Error(c, 1001, "无效的题目 ID")
		return 0, false
	}
	return uint32(id), true
}

// challengeError 将 service 错误映射为统一响应
func (h *Handler) challengeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrChallengeNotFound):
		utils.Error(c, 4004, "题目不存在")
	case errors.Is(err, services.ErrChallengeHidden):
		utils.Error(c, 4003, "题目不可见")
	case errors.Is(err, services.ErrAlreadySolved):
		utils.Error(c, 5001, "你已解出此题")
	case errors.Is(err, services.ErrInvalidChallenge), errors.Is(err, services.ErrUnknownChallengeType):
		utils.Error(c, 1002, "参数无效: "+err.Error())
	default:
		h.Logger.Error("challenge request failed", "path", c.FullPath(), "error", err)
		utils.Error(c, 5000, "服务器内部错误")
	}
}

// CreateChallenge —— 管理员创建题目
func (h *Handler) CreateChallenge(c *gin.Context) {
	var req dto.CreateChallengeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效: "+err.Error())
		return
	}
	ch, err := h.Challenges.Create(c.Request.Context(), req)
	if err != nil {
		h.challengeError(c, err)
		return
	}
	utils.Success(c, "Challenge created successfully", gin.H{"id": ch.ID})
}

// UpdateChallenge —— 管理员修改题目，flags 非空时整体替换
func (h *Handler) UpdateChallenge(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateChallengeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效: "+err.Error())
		return
	}
	ch, err := h.Challenges.Update(c.Request.Context(), id, req)
	if err != nil {
		h.challengeError(c, err)
		return
	}
	utils.Success(c, "Challenge updated successfully", gin.H{"id": ch.ID, "value": ch.Value})
}

// ListChallenges —— 用户可见的题目列表
func (h *Handler) ListChallenges(c *gin.Context) {
	ctx := c.Request.Context()
	var items []dto.ChallengeItemResp
	if found, err := h.Cache.GetJSON(ctx, challengeListKey, &items); err == nil && found {
		utils.Success(c, "success (from cache)", gin.H{"total": len(items), "challenges": items})
		return
	}

	items, err := h.Challenges.List(ctx)
	if err != nil {
		h.challengeError(c, err)
		return
	}
	if err := h.Cache.SetJSON(ctx, challengeListKey, items, h.ListTTL); err != nil {
		h.Logger.Warn("write challenge list cache failed", "error", err)
	}
	utils.Success(c, "success", gin.H{"total": len(items), "challenges": items})
}

// GetChallengeDetail —— 用户可见的题目详情
func (h *Handler) GetChallengeDetail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.Challenges.Detail(c.Request.Context(), id)
	if err != nil {
		h.challengeError(c, err)
		return
	}
	utils.Success(c, "success", resp)
}

// AdminGetChallengeDetail —— 管理员查询题目详情（含 Flag）
func (h *Handler) AdminGetChallengeDetail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.Challenges.AdminDetail(c.Request.Context(), id)
	if err != nil {
		h.challengeError(c, err)
		return
	}
	utils.Success(c, "success", resp)
}

// SubmitFlag —— 提交 Flag。延迟题目截止前一律返回 withheld
func (h *Handler) SubmitFlag(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.SubmitFlagReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效: "+err.Error())
		return
	}
	req.Normalize()
	if req.Flag == "" {
		utils.Error(c, 1001, "Flag 不能为空")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		utils.Error(c, 4001, "未登录")
		return
	}
	ctx := c.Request.Context()
	submitter, err := h.Submissions.ResolveSubmitter(ctx, userID)
	if err != nil {
		h.challengeError(c, err)
		return
	}

	judgement, err := h.Submissions.Submit(ctx, services.Attempt{
		ChallengeID: id,
		Submitter:   submitter,
		Provided:    req.Flag,
		IP:          c.ClientIP(),
	})
	if err != nil {
		h.challengeError(c, err)
		return
	}

	utils.Success(c, judgement.Message, dto.SubmitResp{
		Status:   string(judgement.Status),
		Withheld: judgement.Withheld,
		Message:  judgement.Message,
	})
}
