package controllers

import (
	"time"

	"github.com/teshager21/gotravel/config"
	"github.com/teshager21/gotravel/models"
	"github.com/teshager21/gotravel/utils"

	"github.com/gin-gonic/gin"
)

// POST /register
func RegisterUser(c *gin.Context) {
	utils.LogInfo("RegisterUser called")

	var req struct {
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=8"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. email and a password of at least 8 characters are required", err.Error())
		return
	}

	db := config.DB
	var existing models.User
	if err := db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		utils.Conflict(c, "An account with this email already exists", nil)
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.LogError("Failed to hash password: %v", err)
		utils.InternalServerError(c, "Failed to register user", nil)
		return
	}

	user := models.User{
		Email:     req.Email,
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}
	if err := db.Create(&user).Error; err != nil {
		utils.LogError("Failed to create user: %v", err)
		utils.InternalServerError(c, "Failed to register user", err.Error())
		return
	}

	utils.LogInfo("Registered user %d", user.ID)
	utils.Created(c, "Registration successful", gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	})
}

// POST /login
func LoginUser(c *gin.Context) {
	utils.LogInfo("LoginUser called")

	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request. email and password are required", err.Error())
		return
	}

	db := config.DB
	var user models.User
	if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		utils.LogError("Failed login attempt for user %d", user.ID)
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	if user.IsBlocked {
		utils.Forbidden(c, "Account is blocked")
		return
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		utils.LogError("Failed to generate token for user %d: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to login", nil)
		return
	}

	db.Model(&user).Update("last_login_at", time.Now())

	utils.Success(c, "Login successful", gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		},
	})
}
