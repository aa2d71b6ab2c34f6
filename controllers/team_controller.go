// file: controllers/team_controller.go
package controllers

import (
	"DaliCTF/services"
	"DaliCTF/utils"
	"errors"

	"github.com/gin-gonic/gin"
)

func (h *Handler) teamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAlreadyInTeam):
		utils.Error(c, 3001, "User already in a team")
	case errors.Is(err, services.ErrInvitationCode):
		utils.Error(c, 3002, "Invalid invitation code")
	default:
		h.Logger.Error("team request failed", "path", c.FullPath(), "error", err)
		utils.Error(c, 5000, "数据库错误")
	}
}

func (h *Handler) CreateTeam(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.Error(c, 4001, "未登录")
		return
	}
	var req struct {
		TeamName string `json:"team_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效")
		return
	}

	team, err := h.Teams.Create(c.Request.Context(), userID, req.TeamName)
	if err != nil {
		h.teamError(c, err)
		return
	}
	utils.Success(c, "Team created successfully", gin.H{
		"id":              team.ID,
		"team_name":       team.TeamName,
		"invitation_code": team.InvitationCode,
	})
}

func (h *Handler) JoinTeam(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		utils.Error(c, 4001, "未登录")
		return
	}
	var req struct {
		InvitationCode string `json:"invitation_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效")
		return
	}

	team, err := h.Teams.Join(c.Request.Context(), userID, req.InvitationCode)
	if err != nil {
		h.teamError(c, err)
		return
	}
	utils.Success(c, "Joined team successfully", gin.H{"team_id": team.ID})
}
