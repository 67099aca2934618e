package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/kodemy-backend/internal/config"
	"github.com/stemsi/kodemy-backend/internal/database"
	"github.com/stemsi/kodemy-backend/internal/logger"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/repository"
	"github.com/stemsi/kodemy-backend/internal/service"
	"github.com/stemsi/kodemy-backend/internal/validator"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx := context.Background()

	// ─── Connect to the Database ───────────────────────────────────────
	db, closeDB, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer closeDB()

	// ─── Initialize Service ────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(cfg, userRepo, nil, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	// Name
	fmt.Print("Enter Full Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Full name is required")
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

	req := model.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: name,
	}
	if fields := validator.Struct(req); fields != nil {
		for field, msg := range fields {
			fmt.Printf("Error: %s: %s\n", field, msg)
		}
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	user, err := authService.Register(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! User '%s' (%s) created with ID: %d\n", user.FullName, user.Email, user.ID)
}
