// Command import-students loads or updates roster records from a JSON
// file. The roster is an array of objects:
//
//	{"id":"ARA001","name":"Student Name","birthDate":"YYYY-MM-DD",
//	 "phone":"optional","currentBelt":"High White Belt"}
//
// Keep the roster file outside the repository so sensitive data never
// lands in git.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aramartialarts/portal-backend/internal/config"
	"github.com/aramartialarts/portal-backend/internal/database"
	"github.com/aramartialarts/portal-backend/internal/logger"
	"github.com/aramartialarts/portal-backend/internal/model"
	"github.com/aramartialarts/portal-backend/internal/repository"
)

type rosterEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BirthDate   string `json:"birthDate"`
	Phone       string `json:"phone"`
	CurrentBelt string `json:"currentBelt"`
}

func main() {
	var truncate bool
	flag.BoolVar(&truncate, "truncate", false, "Delete all existing students before importing")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: import-students [-truncate] <roster.json>")
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	roster, err := loadRoster(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load roster")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// The whole roster lands in one transaction; a bad entry or a
	// truncate followed by a failed insert leaves the old roster intact.
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	students := repository.NewStudentRepository(tx)

	if truncate {
		if err := students.DeleteAll(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to truncate students")
		}
	}

	var imported int
	for i := range roster {
		if err := students.Upsert(ctx, &roster[i]); err != nil {
			log.Fatal().Err(err).Str("student_id", roster[i].ID).Msg("Import failed")
		}
		imported++
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to commit import")
	}

	log.Info().Int("students", imported).Msg("Roster import complete")
}

// loadRoster reads, validates and normalizes the roster file. Entries
// missing an id, name or birth date abort the whole import so a partial
// roster never lands.
func loadRoster(path string) ([]model.Student, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []rosterEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}

	students := make([]model.Student, 0, len(entries))
	for i, e := range entries {
		id := strings.TrimSpace(e.ID)
		name := strings.TrimSpace(e.Name)
		birthDate := strings.TrimSpace(e.BirthDate)
		if id == "" || name == "" || birthDate == "" {
			return nil, fmt.Errorf("entry %d: id, name and birthDate are required", i)
		}

		s := model.Student{ID: id, Name: name, BirthDate: birthDate}
		if phone := strings.TrimSpace(e.Phone); phone != "" {
			s.Phone = &phone
		}
		// Empty belt stays NULL so profiles never show an empty string.
		if belt := strings.TrimSpace(e.CurrentBelt); belt != "" {
			s.CurrentBelt = &belt
		}
		students = append(students, s)
	}
	return students, nil
}
