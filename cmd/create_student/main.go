package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"quizbe/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var matriculeRE = regexp.MustCompile(`^\d{4}[a-z]\d{3}$`)

func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "plaintext password (min 6 chars)")
	firstName := flag.String("first-name", "", "first name(s) as printed on the card")
	lastName := flag.String("last-name", "", "last name as printed on the card")
	matricule := flag.String("matricule", "", "card matricule, e.g. 2223i278")
	classCode := flag.String("class-code", "", "optional class code to enroll into")
	flag.Parse()

	if *email == "" || *password == "" || *firstName == "" || *lastName == "" || *matricule == "" {
		fmt.Println("usage: go run ./cmd/create_student -email ... -password ... -first-name ... -last-name ... -matricule ... [-class-code ...]")
		os.Exit(2)
	}
	if len(*password) < 6 {
		log.Fatal("password too short (min 6)")
	}
	m := strings.ToLower(strings.TrimSpace(*matricule))
	if !matriculeRE.MatchString(m) {
		log.Fatalf("matricule %q does not match the card format (4 digits, letter, 3 digits)", *matricule)
	}

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	// check existing
	var existing models.User
	if err := db.Where("email = ? OR matricule = ?", strings.ToLower(*email), m).First(&existing).Error; err == nil {
		fmt.Printf("account already exists (id=%d email=%s matricule=%s)\n", existing.ID, existing.Email, existing.Matricule)
		os.Exit(0)
	}

	var classID *uint
	if *classCode != "" {
		var class models.Class
		if err := db.Where("code = ?", *classCode).Order("id desc").First(&class).Error; err != nil {
			log.Fatalf("class %q not found: %v", *classCode, err)
		}
		classID = &class.ID
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	user := models.User{
		Email:          strings.ToLower(strings.TrimSpace(*email)),
		Matricule:      m,
		FirstName:      *firstName,
		LastName:       *lastName,
		HashedPassword: hpw,
		Role:           "STUDENT",
		ClassID:        classID,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create student: %v", err)
	}
	fmt.Printf("created student %s id=%d matricule=%s\n", user.Email, user.ID, user.Matricule)
}
