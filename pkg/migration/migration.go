// Package migration runs and tracks nearcart's schema migrations.
//
// Migrations register themselves from init() in database/migrations:
//
//	func init() {
//	    migration.Register("20260301000002_create_shops_table", &CreateShopsTable{})
//	}
//
// and run from the CLI:
//
//	nearcart migrate             // run all pending
//	nearcart migrate:rollback    // roll back last batch
//	nearcart migrate:status
package migration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/pkg/logger"
)

// Migration is the interface every migration must implement.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// record is a row of the tracking table.
type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "nearcart_migrations" }

type registered struct {
	name string
	m    Migration
}

var (
	mu       sync.Mutex
	registry = map[string]Migration{}
)

// Register adds a migration. Names are timestamp-prefixed and run in
// lexical order. Registering a name twice panics.
func Register(name string, m Migration) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("migration: %s registered twice", name))
	}
	registry[name] = m
}

func sorted() []registered {
	mu.Lock()
	defer mu.Unlock()
	out := make([]registered, 0, len(registry))
	for name, m := range registry {
		out = append(out, registered{name: name, m: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Status is one row of Runner.Status.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// Runner executes and tracks migrations against one database.
type Runner struct {
	db  *gorm.DB
	out io.Writer
}

// New creates a Runner; progress lines go to out (io.Discard to silence).
func New(db *gorm.DB, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, out: out}
}

func (r *Runner) ensureTable(ctx context.Context) (*gorm.DB, error) {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}
	return db, nil
}

func (r *Runner) ran(db *gorm.DB) (map[string]record, error) {
	var rows []record
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("migration: load history: %w", err)
	}
	out := make(map[string]record, len(rows))
	for _, row := range rows {
		out[row.Name] = row
	}
	return out, nil
}

// Run executes all pending migrations as one batch and returns how many ran.
func (r *Runner) Run(ctx context.Context) (int, error) {
	db, err := r.ensureTable(ctx)
	if err != nil {
		return 0, err
	}
	done, err := r.ran(db)
	if err != nil {
		return 0, err
	}

	var pending []registered
	for _, reg := range sorted() {
		if _, ok := done[reg.name]; !ok {
			pending = append(pending, reg)
		}
	}
	if len(pending) == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return 0, nil
	}

	batch := 1
	for _, rec := range done {
		if rec.Batch >= batch {
			batch = rec.Batch + 1
		}
	}

	for _, reg := range pending {
		fmt.Fprintf(r.out, "  ▶ Migrating: %s\n", reg.name)
		if err := reg.m.Up(db); err != nil {
			return 0, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		if err := db.Create(&record{Name: reg.name, Batch: batch}).Error; err != nil {
			return 0, fmt.Errorf("migration: record %s: %w", reg.name, err)
		}
	}

	logger.Info("migration: done", "ran", len(pending), "batch", batch)
	return len(pending), nil
}

// Rollback reverses the most recent batch, newest first.
func (r *Runner) Rollback(ctx context.Context) (int, error) {
	db, err := r.ensureTable(ctx)
	if err != nil {
		return 0, err
	}

	var last record
	err = db.Order("batch DESC").Limit(1).Find(&last).Error
	if err != nil {
		return 0, fmt.Errorf("migration: find last batch: %w", err)
	}
	if last.ID == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return 0, nil
	}

	var rows []record
	if err := db.Where("batch = ?", last.Batch).Order("name DESC").Find(&rows).Error; err != nil {
		return 0, err
	}

	mu.Lock()
	known := make(map[string]Migration, len(registry))
	for name, m := range registry {
		known[name] = m
	}
	mu.Unlock()

	for _, row := range rows {
		m, ok := known[row.Name]
		if !ok {
			return 0, fmt.Errorf("migration: cannot roll back %s: not registered", row.Name)
		}
		fmt.Fprintf(r.out, "  ◀ Rolling back: %s\n", row.Name)
		if err := m.Down(db); err != nil {
			return 0, fmt.Errorf("migration: %s down: %w", row.Name, err)
		}
		if err := db.Delete(&row).Error; err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// Status reports every registered migration and whether it has run.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	db, err := r.ensureTable(ctx)
	if err != nil {
		return nil, err
	}
	done, err := r.ran(db)
	if err != nil {
		return nil, err
	}

	var out []Status
	for _, reg := range sorted() {
		rec, ok := done[reg.name]
		out = append(out, Status{Name: reg.name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}

// PrintStatus writes Status as a table to the runner's output.
func (r *Runner) PrintStatus(ctx context.Context) error {
	rows, err := r.Status(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MIGRATION\tSTATUS\tBATCH")
	for _, s := range rows {
		if s.Ran {
			fmt.Fprintf(tw, "%s\tRan\t%d\n", s.Name, s.Batch)
		} else {
			fmt.Fprintf(tw, "%s\tPending\t-\n", s.Name)
		}
	}
	return tw.Flush()
}
