package database

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"jobboard/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantDialect string
		wantErr     bool
	}{
		{"sqlite scheme", "sqlite://site.db", DialectSQLite, false},
		{"sqlite memory", "sqlite::memory:", DialectSQLite, false},
		{"file uri", "file:site.db?cache=shared", DialectSQLite, false},
		{"postgres", "postgres://u:p@localhost:5432/jobs?sslmode=disable", DialectPostgres, false},
		{"postgresql", "postgresql://u:p@localhost/jobs", DialectPostgres, false},
		{"mysql", "mysql://u:p@tcp(localhost:3306)/jobs", DialectMySQL, false},
		{"unknown", "mongodb://localhost", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialect, dialector, err := ParseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.NotContains(t, err.Error(), "localhost")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDialect, dialect)
			assert.NotNil(t, dialector)
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "site.db?_foreign_keys=1", sqliteDSN("site.db"))
	assert.Equal(t, "file:x?cache=shared&_foreign_keys=1", sqliteDSN("file:x?cache=shared"))
	assert.Equal(t, "x?_fk=1", sqliteDSN("x?_fk=1"))
	assert.Equal(t, "site.db?_foreign_keys=1", sqliteDSN(""))
}

func TestMySQLDSN(t *testing.T) {
	assert.Equal(t, "u:p@tcp(h:3306)/db?parseTime=true&charset=utf8mb4", mysqlDSN("u:p@tcp(h:3306)/db"))
	assert.Equal(t, "u:p@tcp(h)/db?parseTime=false", mysqlDSN("u:p@tcp(h)/db?parseTime=false"))
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		mode    string
		env     string
		runSQL  bool
		runAuto bool
		wantErr bool
	}{
		{"", "development", false, true, false},
		{"auto", "production", false, true, false},
		{"sql", "development", true, false, false},
		{"hybrid", "development", true, true, false},
		{"hybrid", "production", true, false, false},
		{"bogus", "development", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.mode+"_"+tt.env, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&config.Config{DBSchemaMode: tt.mode, Env: tt.env})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.runSQL, runSQL)
			assert.Equal(t, tt.runAuto, runAuto)
		})
	}
}

func TestMigrationsRegistered(t *testing.T) {
	for _, dialect := range []string{DialectPostgres, DialectSQLite, DialectMySQL} {
		ms := GetMigrations(dialect)
		require.NotEmpty(t, ms, dialect)
		assert.Equal(t, 1, ms[0].Version)
		assert.Equal(t, "000001_create_users_and_jobs", ms[0].String())
		assert.NotEmpty(t, ms[0].DownScript)
	}
	assert.Nil(t, GetMigrationByVersion(DialectSQLite, 999))
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id int);\n\nCREATE INDEX i ON a (id);\n")
	assert.Equal(t, []string{"CREATE TABLE a (id int)", "CREATE INDEX i ON a (id)"}, stmts)
}

func TestRunMigrations_SQLite(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()
	cfg := &config.Config{DBSchemaMode: SchemaModeSQL, Env: "test"}

	status, err := GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Empty(t, status.AppliedVersions)
	assert.Len(t, status.PendingMigrations, 1)

	require.NoError(t, ApplySchema(ctx, db, cfg))
	assert.True(t, db.Migrator().HasTable("user"))
	assert.True(t, db.Migrator().HasTable("job"))

	// Idempotent.
	require.NoError(t, RunMigrations(ctx, db))

	status, err = GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, status.AppliedVersions)
	assert.Empty(t, status.PendingMigrations)

	require.NoError(t, RollbackMigration(ctx, db, 1))
	assert.False(t, db.Migrator().HasTable("job"))
	assert.Error(t, RollbackMigration(ctx, db, 1))
	assert.Error(t, RollbackMigration(ctx, db, 42))
}

func TestRunMigrations_UnknownAppliedVersion(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, db.AutoMigrate(&MigrationLog{}))
	require.NoError(t, db.Create(&MigrationLog{Version: 99, Name: "from_the_future"}).Error)

	err := RunMigrations(ctx, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000099")
}

func TestApplySchema_Auto(t *testing.T) {
	db := openMemoryDB(t)

	require.NoError(t, ApplySchema(context.Background(), db, &config.Config{DBSchemaMode: SchemaModeAuto}))
	assert.True(t, db.Migrator().HasTable("user"))
	assert.True(t, db.Migrator().HasTable("job"))
	assert.True(t, db.Migrator().HasIndex("user", "idx_user_email"))
	assert.Equal(t, DialectSQLite, DialectOf(db))
	assert.NoError(t, Ping(context.Background(), db))
}

func TestConnect_SQLiteFile(t *testing.T) {
	path := t.TempDir() + "/jobs.db"
	db, err := Connect(&config.Config{DatabaseURL: "sqlite://" + path, DBMaxOpenConns: 4, DBMaxIdleConns: 2, DBConnMaxLifetimeMinutes: 1})
	require.NoError(t, err)
	defer Close(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
}
