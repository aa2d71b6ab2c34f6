// file: routes/router.go
package routes

import (
	"DaliCTF/controllers"
	"DaliCTF/middlewares"
	"DaliCTF/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(h *controllers.Handler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	auth := middlewares.JWTAuthMiddleware(h.Tokens)
	admin := middlewares.RoleAuthMiddleware(models.RoleAdmin)

	apiV1 := r.Group("/api/v1")
	{
		usersPublic := apiV1.Group("/users")
		{
			usersPublic.POST("/register", h.Register)
			usersPublic.POST("/login", h.Login)
		}

		teamRoutes := apiV1.Group("/teams")
		teamRoutes.Use(auth)
		{
			teamRoutes.POST("", h.CreateTeam)
			teamRoutes.POST("/join", h.JoinTeam)
		}

		// --- 题目模块路由 ---
		challengeRoutes := apiV1.Group("/challenges")
		{
			// 用户接口
			challengeRoutes.GET("", auth, h.ListChallenges)
			challengeRoutes.GET("/:id", auth, h.GetChallengeDetail)
			challengeRoutes.POST("/:id/submit", auth, h.SubmitFlag)

			// 管理员接口
			challengeRoutes.POST("", auth, admin, h.CreateChallenge)
			challengeRoutes.PUT("/:id", auth, admin, h.UpdateChallenge)
		}

		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth, admin)
		{
			adminRoutes.GET("/challenges/:id", h.AdminGetChallengeDetail)
			// 延迟题目补判，等价于一次定时任务
			adminRoutes.GET("/delayed/rescan", h.RescanDelayed)
		}

		scoreboardRoutes := apiV1.Group("/scoreboard")
		{
			scoreboardRoutes.GET("", h.GetScoreboard)
			scoreboardRoutes.GET("/feed", h.GetSolveFeed)
		}
	}

	return r
}
