package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"splitics/src/ical"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// In-memory SQLite table the calendar report is sorted and filtered with.
type EventIndex struct {
	db  *bun.DB
	loc *time.Location
	seq int
}

// Bounds of a List call. A zero value leaves that side open.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Open an empty index. loc places date and floating values on the time line.
func OpenEventIndex(ctx context.Context, loc *time.Location, debug bool) (*EventIndex, error) {
	if loc == nil {
		loc = time.Local
	}
	rawDB, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("OpenEventIndex: %w", err)
	}
	// every connection to :memory: opens its own database
	rawDB.SetMaxOpenConns(1)

	db := bun.NewDB(rawDB, sqlitedialect.New())
	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(debug),
		bundebug.WithVerbose(true),
		bundebug.FromEnv("BUNDEBUG"),
	))

	if err := CreateSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("OpenEventIndex: %w", err)
	}
	return &EventIndex{db: db, loc: loc}, nil
}

func (idx *EventIndex) Close() error {
	return idx.db.Close()
}

// Add events in the given order, which is kept for ties.
func (idx *EventIndex) Insert(ctx context.Context, events []ical.StaticEvent) error {
	if len(events) == 0 {
		return nil
	}
	models := make([]StaticEvent, 0, len(events))
	for _, e := range events {
		models = append(models, NewStaticEvent(e, idx.seq, idx.loc))
		idx.seq++
	}
	if _, err := idx.db.NewInsert().
		Model(&models).
		Exec(ctx); err != nil {
		return fmt.Errorf("EventIndex.Insert: %w", err)
	}
	return nil
}

// Events sorted by start, those without a start first, file order for ties.
// With any bound set, only events starting inside [From, To] are returned.
func (idx *EventIndex) List(ctx context.Context, r Range) ([]ical.StaticEvent, error) {
	models := make([]StaticEvent, 0)
	query := idx.db.NewSelect().Model(&models)
	if !r.IsZero() {
		query = query.Where("has_start = ?", true)
	}
	if !r.From.IsZero() {
		query = query.Where("sort_key >= ?", r.From.UnixMicro())
	}
	if !r.To.IsZero() {
		query = query.Where("sort_key <= ?", r.To.UnixMicro())
	}
	if err := query.
		Order("has_start ASC", "sort_key ASC", "position ASC", "seq ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("EventIndex.List: %w", err)
	}

	events := make([]ical.StaticEvent, 0, len(models))
	for i := range models {
		events = append(events, models[i].ToIcal())
	}
	return events, nil
}

func (idx *EventIndex) Count(ctx context.Context) (int, error) {
	count, err := idx.db.NewSelect().
		Model((*StaticEvent)(nil)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("EventIndex.Count: %w", err)
	}
	return count, nil
}
