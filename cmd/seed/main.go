package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/stemsi/kodemy-backend/internal/config"
	"github.com/stemsi/kodemy-backend/internal/database"
	"github.com/stemsi/kodemy-backend/internal/logger"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/repository"
	"github.com/stemsi/kodemy-backend/internal/response"
	"github.com/stemsi/kodemy-backend/internal/service"
)

//go:embed data/*.json
var defaultData embed.FS

func main() {
	var dataDir string
	flag.StringVar(&dataDir, "data", "", "Directory holding users.json, categories.json and courses.json (defaults to the built-in set)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var source fs.FS
	if dataDir != "" {
		source = os.DirFS(dataDir)
	} else {
		sub, err := fs.Sub(defaultData, "data")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open built-in seed data")
		}
		source = sub
	}

	db, closeDB, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer closeDB()

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	authService := service.NewAuthService(cfg, userRepo, nil, log)

	// ─── Users ─────────────────────────────────────────────────────────
	var users []model.RegisterRequest
	if err := readJSON(source, "users.json", &users); err != nil {
		log.Fatal().Err(err).Msg("Failed to read users")
	}
	created := 0
	for _, u := range users {
		if _, err := authService.Register(ctx, u); err != nil {
			if appErr, ok := response.AsAppError(err); ok && appErr.Kind == response.KindConflict {
				fmt.Printf("Skipping existing user %s\n", u.Email)
				continue
			}
			log.Fatal().Err(err).Str("email", u.Email).Msg("Failed to create user")
		}
		created++
	}
	fmt.Printf("Users: %d/%d created\n", created, len(users))

	// ─── Categories ────────────────────────────────────────────────────
	var categories []model.Category
	if err := readJSON(source, "categories.json", &categories); err != nil {
		log.Fatal().Err(err).Msg("Failed to read categories")
	}
	// Courses refer to categories by 1-based position in categories.json.
	categoryIDs := make([]int, len(categories))
	for i := range categories {
		categories[i].ID = 0
		if err := categoryRepo.Create(ctx, &categories[i]); err != nil {
			log.Fatal().Err(err).Str("category", categories[i].CatName).Msg("Failed to create category")
		}
		categoryIDs[i] = categories[i].ID
	}
	fmt.Printf("Categories: %d created\n", len(categories))

	// ─── Courses ───────────────────────────────────────────────────────
	var courses []model.Course
	if err := readJSON(source, "courses.json", &courses); err != nil {
		log.Fatal().Err(err).Msg("Failed to read courses")
	}
	for i := range courses {
		c := &courses[i]
		pos := c.CategoryID
		if pos < 1 || pos > len(categoryIDs) {
			log.Fatal().Int("category_position", pos).Str("course", c.Title).Msg("Course refers to an unknown category")
		}
		c.ID = 0
		c.CategoryID = categoryIDs[pos-1]
		if err := courseRepo.Create(ctx, c); err != nil {
			log.Fatal().Err(err).Str("course", c.Title).Msg("Failed to create course")
		}
	}
	fmt.Printf("Courses: %d created\n", len(courses))

	fmt.Println("\nSeed completed!")
}

func readJSON(source fs.FS, name string, dst interface{}) error {
	raw, err := fs.ReadFile(source, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
