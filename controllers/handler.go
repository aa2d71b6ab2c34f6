// file: controllers/handler.go
package controllers

import (
	"DaliCTF/services"
	"DaliCTF/utils"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler 持有所有接口需要的依赖
type Handler struct {
	DB          *gorm.DB
	Challenges  *services.ChallengeService
	Submissions *services.SubmissionService
	Engine      *services.Engine
	Scoreboard  *services.ScoreboardService
	Teams       *services.TeamService
	Cache       services.ResponseCache
	Tokens      *utils.TokenIssuer
	Logger      *slog.Logger
	// ListTTL 题目列表缓存有效期
	ListTTL time.Duration
}

// currentUserID 从中间件读取用户信息
func currentUserID(c *gin.Context) (uint32, bool) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint32)
	return userID, ok
}
