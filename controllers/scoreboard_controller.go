// file: controllers/scoreboard_controller.go
package controllers

import (
	"DaliCTF/utils"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetScoreboard 查询排行榜
func (h *Handler) GetScoreboard(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "10")
	limit, _ := strconv.Atoi(limitStr)
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	results, err := h.Scoreboard.Standings(c.Request.Context(), limit)
	if err != nil {
		h.Logger.Error("load scoreboard failed", "error", err)
		utils.Error(c, 5000, "查询失败")
		return
	}
	utils.Success(c, "success", results)
}

// GetSolveFeed 查询实时解题动态
func (h *Handler) GetSolveFeed(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, _ := strconv.Atoi(limitStr)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	results, err := h.Scoreboard.Feed(c.Request.Context(), limit)
	if err != nil {
		h.Logger.Error("load solve feed failed", "error", err)
		utils.Error(c, 5000, "查询失败")
		return
	}
	utils.Success(c, "success", results)
}
