package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spardha-tech/spardha-backend/internal/config"
	"github.com/spardha-tech/spardha-backend/internal/database"
	"github.com/spardha-tech/spardha-backend/internal/logger"
	"github.com/spardha-tech/spardha-backend/internal/model"
	"github.com/spardha-tech/spardha-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	participantRepo := repository.NewParticipantRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Organizer Account ===")

	// Name
	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	// Email
	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────

	// Hash Password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	organizer := &model.Participant{
		Name:         name,
		Email:        email,
		Role:         model.RoleOrganizer,
		PasswordHash: string(hashedPassword),
	}

	if err := participantRepo.Create(ctx, organizer); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			fmt.Println("Error: an account with this email already exists")
			return
		}
		log.Fatal().Err(err).Msg("Failed to create organizer")
	}

	fmt.Printf("\nSuccess! Organizer '%s' (%s) created with ID: %d\n", organizer.Name, organizer.Email, organizer.ID)
}
