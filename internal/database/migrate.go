package database

import (
	"embed"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"jobboard/internal/middleware"
)

type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

//go:embed migrations/*/*.sql
var migrationFS embed.FS

// migrations holds the registered scripts per dialect, ordered by version.
var migrations = map[string][]Migration{}

func init() {
	for _, dialect := range []string{DialectPostgres, DialectSQLite, DialectMySQL} {
		if err := RegisterMigrations(migrationFS, dialect); err != nil {
			middleware.Logger.Error("failed to register migrations", slog.String("dialect", dialect), slog.String("error", err.Error()))
		}
	}
}

// RegisterMigrations loads NNNNNN_name.up.sql / .down.sql pairs from migrations/<dialect>.
func RegisterMigrations(efs embed.FS, dialect string) error {
	dir := path.Join("migrations", dialect)
	entries, err := efs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var registered []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		base := strings.TrimSuffix(name, ".up.sql")
		parts := strings.SplitN(base, "_", 2)
		if len(parts) != 2 {
			middleware.Logger.Warn("Skipping migration with invalid naming", slog.String("file", name))
			continue
		}

		var version int
		if _, err := fmt.Sscanf(parts[0], "%d", &version); err != nil {
			middleware.Logger.Warn("Skipping migration with invalid version", slog.String("file", name))
			continue
		}

		upBytes, err := efs.ReadFile(path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read up migration %s: %w", name, err)
		}

		downName := base + ".down.sql"
		downBytes, err := efs.ReadFile(path.Join(dir, downName))
		if err != nil {
			return fmt.Errorf("failed to read down migration %s: %w", downName, err)
		}

		registered = append(registered, Migration{
			Version:    version,
			Name:       parts[1],
			UpScript:   string(upBytes),
			DownScript: string(downBytes),
		})
	}

	sort.Slice(registered, func(i, j int) bool {
		return registered[i].Version < registered[j].Version
	})
	migrations[dialect] = registered

	return nil
}

func GetMigrations(dialect string) []Migration {
	return migrations[dialect]
}

func GetMigrationByVersion(dialect string, version int) *Migration {
	for _, m := range migrations[dialect] {
		if m.Version == version {
			return &m
		}
	}
	return nil
}

func (m *Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// splitStatements breaks a script on ';' line endings so each statement can be
// executed separately; not every driver accepts multi-statement Exec.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
