package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/teshager21/gotravel/config"
	"github.com/teshager21/gotravel/models"
	"github.com/teshager21/gotravel/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

func GoogleLogin(c *gin.Context) {
	url := config.GoogleOAuthConfig.AuthCodeURL("state")
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func GoogleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		utils.BadRequest(c, "No code provided", nil)
		return
	}

	token, err := config.GoogleOAuthConfig.Exchange(c, code)
	if err != nil {
		utils.InternalServerError(c, "Failed to exchange token", err.Error())
		return
	}

	resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
	if err != nil {
		utils.InternalServerError(c, "Failed to get user info", err.Error())
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		utils.InternalServerError(c, "Failed to read response", err.Error())
		return
	}

	var googleUser GoogleUserInfo
	if err := json.Unmarshal(data, &googleUser); err != nil {
		utils.InternalServerError(c, "Failed to parse user info", err.Error())
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", googleUser.Email).First(&user).Error; err != nil {
		user = models.User{
			Email:     googleUser.Email,
			FirstName: googleUser.GivenName,
			LastName:  googleUser.FamilyName,
			GoogleID:  googleUser.ID,
		}

		// Google users never log in with this password, it only
		// satisfies the not-null column
		password := googleUser.ID[:8] + fmt.Sprintf("%d", time.Now().Unix())
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			utils.InternalServerError(c, "Failed to hash password", err.Error())
			return
		}
		user.Password = string(hashedPassword)

		if err := config.DB.Create(&user).Error; err != nil {
			utils.InternalServerError(c, "Failed to create user", err.Error())
			return
		}
	}

	jwtToken, err := utils.GenerateToken(&user)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate token", err.Error())
		return
	}

	utils.Success(c, "Login successful", gin.H{
		"token": jwtToken,
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		},
	})
}
