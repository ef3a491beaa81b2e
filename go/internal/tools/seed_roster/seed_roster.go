package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/racecycles/go/internal/config"
	"github.com/mcdev12/racecycles/go/internal/models"
	"github.com/mcdev12/racecycles/go/internal/users"
)

func main() {
	file := flag.String("file", "", "JSON roster to seed (defaults to the built-in roster)")
	key := flag.String("key", users.DefaultRosterKey, "store key to write")
	force := flag.Bool("force", false, "overwrite an existing roster")
	flag.Parse()

	// 1) Load the roster
	roster := users.DefaultUsers()
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
			os.Exit(1)
		}
		roster, err = parseRoster(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid roster: %v\n", err)
			os.Exit(1)
		}
	}
	payload, err := json.Marshal(roster)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal roster: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared Postgres config
	ctx := context.Background()
	cfg := config.PostgresFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Ensure the table, then write the row
	if _, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS kv_store (
          key TEXT PRIMARY KEY,
          value JSONB,
          updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`); err != nil {
		fmt.Fprintf(os.Stderr, "create table: %v\n", err)
		os.Exit(1)
	}

	conflict := `ON CONFLICT (key) DO NOTHING`
	if *force {
		conflict = `ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	}
	cmdTag, err := pool.Exec(ctx,
		`INSERT INTO kv_store (key, value) VALUES ($1, $2::jsonb) `+conflict,
		*key, string(payload),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error writing roster %s: %v\n", *key, err)
		os.Exit(1)
	}

	// 4) Print summary
	if cmdTag.RowsAffected() == 1 {
		fmt.Printf("Roster seed complete: %d users written to %q\n", len(roster), *key)
	} else {
		fmt.Printf("Roster seed skipped: %q already exists (use -force to overwrite)\n", *key)
	}
}

// parseRoster decodes a roster and rejects blank or duplicate entries.
func parseRoster(data []byte) ([]models.User, error) {
	var roster []models.User
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	if len(roster) == 0 {
		return nil, errors.New("roster is empty")
	}

	seen := make(map[string]bool, len(roster))
	for i, u := range roster {
		if u.ID == "" || u.Name == "" {
			return nil, fmt.Errorf("entry %d: id and name are required", i)
		}
		if seen[u.ID] {
			return nil, fmt.Errorf("entry %d: duplicate id %q", i, u.ID)
		}
		seen[u.ID] = true
	}
	return roster, nil
}
