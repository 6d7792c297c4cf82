package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quizbe/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterStudent creates a student account. Email and matricule are both
// unique; the matricule must already follow the card format since card
// login will look it up verbatim.
func RegisterStudent(email, password, firstName, lastName, matricule string, classID *uint) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	matricule = strings.ToLower(strings.TrimSpace(matricule))
	if email == "" {
		return models.User{}, fmt.Errorf("email required")
	}
	if len(password) < 6 { // basic password policy
		return models.User{}, fmt.Errorf("password too short (min 6)")
	}
	if firstName == "" || lastName == "" {
		return models.User{}, fmt.Errorf("first and last name required")
	}
	// pre-check existing (optimistic)
	var existing models.User
	if err := db.Where("email = ? OR matricule = ?", email, matricule).First(&existing).Error; err == nil {
		return models.User{}, fmt.Errorf("account already exists")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		Email:          email,
		Matricule:      matricule,
		FirstName:      firstName,
		LastName:       lastName,
		HashedPassword: hashedPassword,
		Role:           "STUDENT",
		ClassID:        classID,
	}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) { // race condition after initial check
			return models.User{}, fmt.Errorf("account already exists")
		}
		return models.User{}, err
	}
	return user, nil
}

// Authenticate checks a password login. The identifier may be either the
// account email or the matricule.
func Authenticate(identifier, password string) (models.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	var user models.User
	if err := db.Preload("Class").Where("email = ? OR matricule = ?", identifier, identifier).First(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("invalid credentials")
	}
	return user, nil
}

// generateToken issues the 30-day session JWT handed out after password or
// card login.
func generateToken(userID uint) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(30 * 24 * time.Hour).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// findUserByMatricule is the lookup the card login pipeline hands its
// extracted identifier to. Returns (nil, nil) when no account exists.
func findUserByMatricule(matricule string) (*models.User, error) {
	var user models.User
	err := db.Preload("Class").Where("matricule = ?", matricule).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
