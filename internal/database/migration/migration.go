package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_chapters",
		SQL: `CREATE TABLE IF NOT EXISTS chapters (
  id               UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  number           INTEGER     NOT NULL UNIQUE CHECK (number >= 1),
  slug             TEXT        NOT NULL UNIQUE,
  title            TEXT        NOT NULL,
  filename         TEXT        NOT NULL UNIQUE,
  storage_path     TEXT        NOT NULL UNIQUE,
  size             BIGINT      NOT NULL CHECK (size >= 0),
  checksum         TEXT        NOT NULL,
  word_count       INTEGER     NOT NULL DEFAULT 0,
  code_block_count INTEGER     NOT NULL DEFAULT 0,
  question_count   INTEGER     NOT NULL DEFAULT 0,
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_chapter_links",
		SQL: `CREATE TABLE IF NOT EXISTS chapter_links (
  chapter_id UUID    NOT NULL REFERENCES chapters (id) ON DELETE CASCADE,
  target     TEXT    NOT NULL,
  kind       TEXT    NOT NULL CHECK (kind IN ('internal', 'anchor', 'external')),
  line       INTEGER NOT NULL DEFAULT 0
);`,
	},
	{
		Name: "create_index_chapter_links_kind_target",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_chapter_links_kind_target ON chapter_links (kind, target);`,
	},
	{
		Name: "create_index_chapter_links_chapter_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_chapter_links_chapter_id ON chapter_links (chapter_id);`,
	},
	{
		Name: "create_index_chapters_number",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_chapters_number ON chapters (number);`,
	},
}

// EnsureMigrated checks if the 'chapters' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.chapters') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
