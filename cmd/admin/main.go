package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"contentwizard/internal/auth"
	"contentwizard/internal/config"
	"contentwizard/internal/database"
)

// Bootstraps an account with a generated password, for environments where
// self-registration is disabled.
func main() {
	email := flag.String("email", "", "account email (required)")
	flag.Parse()

	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		log.Fatal("missing required flag: --email")
	}

	cfg := config.MustLoad()

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	var existing database.User
	switch err := db.Where("email = ?", e).First(&existing).Error; {
	case err == nil:
		log.Fatalf("user %q already exists", e)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		log.Fatalf("query user: %v", err)
	}

	password, err := generatePassword()
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user := database.User{Email: e, PasswordHash: hashed}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := database.Profile{
			UserID:          user.ID,
			BusinessDetails: datatypes.JSON([]byte(`{}`)),
			VoiceProfile:    datatypes.JSON([]byte(`{}`)),
			ContentPrefs:    datatypes.JSON([]byte(`{}`)),
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		log.Fatalf("create user: %v", err)
	}

	fmt.Printf("created user %s (id=%d)\n", e, user.ID)
	fmt.Printf("initial password: %s\n", password)
}

func generatePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
