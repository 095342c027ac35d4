package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"oracle/models"
	"oracle/pkg/database"
	"oracle/pkg/logger"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/create_user <email> <password> [first_name] [last_name]")
		os.Exit(2)
	}
	email := strings.ToLower(strings.TrimSpace(os.Args[1]))
	password := os.Args[2]
	var first, last string
	if len(os.Args) > 3 {
		first = os.Args[3]
	}
	if len(os.Args) > 4 {
		last = os.Args[4]
	}

	_ = godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(dbURL) == "" {
		dbURL = "sqlite:///./oracle.db"
	}
	db, err := database.Open(dbURL)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	if err := database.Migrate(db, logger.Nop()); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// check existing
	var existing models.User
	err = db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", email, existing.ID)
		os.Exit(0)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("lookup failed: %v", err)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	user := models.User{Email: email, HashedPassword: hpw, FirstName: first, LastName: last}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d\n", email, user.ID)
}
