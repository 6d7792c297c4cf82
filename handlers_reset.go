package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strings"
	"time"

	"quizbe/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const resetCodeTTL = 15 * time.Minute

// forgotPasswordHandler issues a one-time reset code. The response is
// identical whether or not the account exists so the endpoint cannot be
// used to enumerate emails. Delivery is the mail service's job; here
// the code only reaches the server log.
func forgotPasswordHandler(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	neutral := gin.H{"success": true, "message": "Si un compte existe pour cet email, un code de réinitialisation a été envoyé"}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusOK, neutral)
		return
	}

	code, err := generateResetCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "reset failed"})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "reset failed"})
		return
	}
	// A new request invalidates earlier codes for the account.
	db.Model(&models.PasswordReset{}).Where("user_id = ? AND used = ?", user.ID, false).Update("used", true)
	reset := models.PasswordReset{
		UserID:    user.ID,
		CodeHash:  string(hash),
		ExpiresAt: time.Now().Add(resetCodeTTL),
	}
	if err := db.Create(&reset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "reset failed"})
		return
	}
	log.Printf("PASSWORD RESET code issued user=%d code=%s expires=%s", user.ID, code, reset.ExpiresAt.Format(time.RFC3339))
	c.JSON(http.StatusOK, neutral)
}

func resetPasswordHandler(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		Code        string `json:"code" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if len(req.NewPassword) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "mot de passe trop court (min 6)"})
		return
	}
	var user models.User
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Code de réinitialisation invalide ou expiré"})
		return
	}
	var reset models.PasswordReset
	err := db.Where("user_id = ? AND used = ? AND expires_at > ?", user.ID, false, time.Now()).
		Order("created_at desc").First(&reset).Error
	if err != nil || bcrypt.CompareHashAndPassword([]byte(reset.CodeHash), []byte(req.Code)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Code de réinitialisation invalide ou expiré"})
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "reset failed"})
		return
	}
	if err := db.Model(&user).Update("hashed_password", hashed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "reset failed"})
		return
	}
	db.Model(&reset).Update("used", true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Mot de passe réinitialisé"})
}

// generateResetCode returns a 6-digit code from crypto/rand.
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
