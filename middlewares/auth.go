// file: middlewares/auth.go
package middlewares

import (
	"DaliCTF/models"
	"DaliCTF/utils"
	"strings"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware 验证用户是否登录
func JWTAuthMiddleware(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			utils.Abort(c, 4001, "请求头中 Authorization 为空")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			utils.Abort(c, 4002, "Authorization 格式有误")
			return
		}

		claims, err := issuer.ParseToken(parts[1])
		if err != nil {
			utils.Abort(c, 4003, "无效的 Token")
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

// RoleAuthMiddleware 验证用户角色权限，root_admin 拥有所有权限
func RoleAuthMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get("user_role")
		if !ok {
			utils.Abort(c, 5001, "无法获取用户角色信息")
			return
		}
		userRole, _ := role.(models.UserRole)
		if userRole == models.RoleRootAdmin {
			c.Next()
			return
		}
		for _, required := range requiredRoles {
			if userRole == required {
				c.Next()
				return
			}
		}
		utils.Forbidden(c, "权限不足")
	}
}
