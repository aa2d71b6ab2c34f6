// file: controllers/user_controller.go
package controllers

import (
	"DaliCTF/models"
	"DaliCTF/utils"

	"github.com/gin-gonic/gin"
)

// --- 公开接口 ---

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
		Email    string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效: "+err.Error())
		return
	}

	var user models.User
	if err := h.DB.Where("username = ? OR email = ?", req.Username, req.Email).First(&user).Error; err == nil {
		utils.Error(c, 2001, "用户名或邮箱已被注册")
		return
	}

	newUser := models.User{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     models.RoleUser,
		Status:   models.StatusActive,
	}
	if err := h.DB.Create(&newUser).Error; err != nil {
		utils.Error(c, 5000, "数据库错误: "+err.Error())
		return
	}

	utils.Success(c, "User registered successfully", gin.H{
		"id":       newUser.ID,
		"username": newUser.Username,
		"role":     newUser.Role,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 1001, "参数无效: "+err.Error())
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		utils.Error(c, 2002, "用户不存在或密码错误")
		return
	}

	if !user.CheckPassword(req.Password) {
		utils.Error(c, 2002, "用户不存在或密码错误")
		return
	}

	if user.Status == models.StatusBanned {
		utils.Error(c, 2005, "用户已被封禁")
		return
	}

	token, err := h.Tokens.GenerateToken(user)
	if err != nil {
		utils.Error(c, 5002, "Token 生成失败")
		return
	}

	utils.Success(c, "Login success", gin.H{
		"token": token,
		"user":  user,
	})
}
