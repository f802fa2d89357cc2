package database

import (
	"cmp"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"agrisocial/internal/middleware"

	"gorm.io/gorm"
)

// ErrSQLMigrationsUnsupported is returned when the embedded PostgreSQL
// migrations are pointed at another dialect.
var ErrSQLMigrationsUnsupported = errors.New("embedded SQL migrations require postgres")

// Migration is one embedded schema step, read from
// migrations/<version>_<name>.up.sql and its .down.sql twin.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var migrationFiles embed.FS

var embedded = sync.OnceValues(func() ([]Migration, error) {
	return loadMigrations(migrationFiles, "migrations")
})

// Migrations returns the embedded migrations ordered by version.
func Migrations() ([]Migration, error) {
	return embedded()
}

func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		file := entry.Name()
		base, up := strings.CutSuffix(file, ".up.sql")
		if !up {
			var down bool
			if base, down = strings.CutSuffix(file, ".down.sql"); !down {
				continue
			}
		}

		num, name, ok := strings.Cut(base, "_")
		version, err := strconv.Atoi(num)
		if !ok || name == "" || err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %s: expected <version>_<name>", file)
		}
		body, err := fs.ReadFile(fsys, path.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", file, err)
		}

		m, seen := byVersion[version]
		if !seen {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		} else if m.Name != name {
			return nil, fmt.Errorf("migration %06d has two names: %s and %s", version, m.Name, name)
		}
		if up {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if strings.TrimSpace(m.Up) == "" || strings.TrimSpace(m.Down) == "" {
			return nil, fmt.Errorf("migration %s needs both an up and a down script", m)
		}
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return out, nil
}

// MigrationLog records an applied migration.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime;index"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

// Migrator applies migrations and keeps migration_logs in step with them.
// Each migration runs in its own transaction together with its log row.
type Migrator struct {
	db  *gorm.DB
	all []Migration
}

// NewMigrator returns a Migrator over the embedded migrations. Only postgres
// connections are accepted; sqlite schemas are managed by AutoMigrate.
func NewMigrator(db *gorm.DB) (*Migrator, error) {
	if name := db.Dialector.Name(); name != "postgres" {
		return nil, fmt.Errorf("%w (driver %q)", ErrSQLMigrationsUnsupported, name)
	}
	all, err := Migrations()
	if err != nil {
		return nil, err
	}
	return newMigrator(db, all), nil
}

func newMigrator(db *gorm.DB, all []Migration) *Migrator {
	return &Migrator{db: db, all: all}
}

// Applied returns the recorded versions in ascending order.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	db := m.db.WithContext(ctx)
	if !db.Migrator().HasTable(&MigrationLog{}) {
		return nil, nil
	}
	var versions []int
	if err := db.Model(&MigrationLog{}).Order("version ASC").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	return versions, nil
}

// Pending returns the migrations not yet recorded. It fails when the log
// holds versions this build does not know.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkKnownVersions(applied, m.all); err != nil {
		return nil, err
	}
	var pending []Migration
	for _, mig := range m.all {
		if !slices.Contains(applied, mig.Version) {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration and returns the ones it ran.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return nil, fmt.Errorf("ensure migration_logs: %w", err)
	}
	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	for i, mig := range pending {
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&MigrationLog{Version: mig.Version, Name: mig.Name}).Error
		})
		if err != nil {
			return pending[:i], fmt.Errorf("apply migration %s: %w", mig, err)
		}
		middleware.Logger.InfoContext(ctx, "migration applied", slog.String("migration", mig.String()))
	}
	return pending, nil
}

// Down reverts one applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	idx := slices.IndexFunc(m.all, func(mig Migration) bool { return mig.Version == version })
	if idx < 0 {
		return fmt.Errorf("migration %06d is not part of this build", version)
	}
	mig := m.all[idx]

	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("migration %s has not been applied", mig)
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.Down).Error; err != nil {
			return err
		}
		return tx.Where("version = ?", version).Delete(&MigrationLog{}).Error
	})
	if err != nil {
		return fmt.Errorf("roll back migration %s: %w", mig, err)
	}
	middleware.Logger.InfoContext(ctx, "migration rolled back", slog.String("migration", mig.String()))
	return nil
}

func checkKnownVersions(applied []int, known []Migration) error {
	var unknown []string
	for _, version := range applied {
		if !slices.ContainsFunc(known, func(m Migration) bool { return m.Version == version }) {
			unknown = append(unknown, fmt.Sprintf("%06d", version))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return fmt.Errorf("migration_logs has versions this build does not know: %s", strings.Join(unknown, ", "))
}
