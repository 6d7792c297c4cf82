package main

import (
	"log"
	"os"
	"strings"

	"quizbe/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.AcademicYear{}); err != nil {
			log.Printf("migration warning (academic_years): %v", err)
		}
		if err := db.AutoMigrate(&models.Class{}); err != nil {
			log.Printf("migration warning (classes): %v", err)
		}
		if err := db.AutoMigrate(&models.Semester{}); err != nil {
			log.Printf("migration warning (semesters): %v", err)
		}
		if err := db.AutoMigrate(&models.Course{}); err != nil {
			log.Printf("migration warning (courses): %v", err)
		}
		if err := db.AutoMigrate(&models.User{}); err != nil {
			log.Printf("migration warning (users): %v", err)
		}
		if err := db.AutoMigrate(&models.Question{}); err != nil {
			log.Printf("migration warning (questions): %v", err)
		}
		if err := db.AutoMigrate(&models.Choice{}); err != nil {
			log.Printf("migration warning (choices): %v", err)
		}
		if err := db.AutoMigrate(&models.Quiz{}); err != nil {
			log.Printf("migration warning (quizzes): %v", err)
		}
		if err := db.AutoMigrate(&models.QuizQuestion{}); err != nil {
			log.Printf("migration warning (quiz_questions): %v", err)
		}
		if err := db.AutoMigrate(&models.Submission{}); err != nil {
			log.Printf("migration warning (submissions): %v", err)
		}
		if err := db.AutoMigrate(&models.SubmissionAnswer{}); err != nil {
			log.Printf("migration warning (submission_answers): %v", err)
		}
		if err := db.AutoMigrate(&models.PasswordReset{}); err != nil {
			log.Printf("migration warning (password_resets): %v", err)
		}
	}
	seedDB()
}

func seedDB() {
	// Check if admin user exists
	var count int64
	db.Model(&models.User{}).Where("email = ?", "admin@example.com").Count(&count)
	if count == 0 {
		admin := models.User{
			Email:     "admin@example.com",
			FirstName: "Admin",
			LastName:  "Istrateur",
			Role:      "ADMIN",
		}
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		admin.HashedPassword = hashedPassword
		db.Create(&admin)
		log.Println("Seeded admin user: email=admin@example.com, password=admin123")
	}
	// Ensure at least one active academic year so classes can be created
	var ycount int64
	db.Model(&models.AcademicYear{}).Count(&ycount)
	if ycount == 0 {
		year := models.AcademicYear{Name: "2024-2025", Active: true}
		if err := db.Create(&year).Error; err != nil {
			log.Printf("failed to seed academic year: %v", err)
		}
	}
}
