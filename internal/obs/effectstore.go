package obs

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/spiralir/spiral/internal/async"
)

// EffectLogModel is the durable row shape for one async.EffectEntry,
// grounded on the teacher's storage.EventModel (bun.BaseModel + jsonb
// args column) — generalized from workflow execution events to SPIRAL
// effect-log entries (SPEC_FULL supplement #4).
type EffectLogModel struct {
	bun.BaseModel `bun:"table:spiral_effect_log,alias:e"`

	Seq       int64     `bun:"seq,pk"`
	TaskID    string    `bun:"task_id"`
	Op        string    `bun:"op"`
	Args      []string  `bun:"args,type:jsonb"`
	Result    string    `bun:"result"`
	Error     string    `bun:"error"`
	RecordedAt time.Time `bun:"recorded_at"`
}

// EffectStore persists an in-memory async.EffectLog's entries for
// post-mortem inspection. It is optional: sessions that only need the
// in-memory log never construct one.
type EffectStore struct {
	db *bun.DB
}

// NewEffectStore opens a PostgreSQL-backed store via the given DSN.
func NewEffectStore(dsn string) *EffectStore {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &EffectStore{db: db}
}

func (s *EffectStore) InitSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*EffectLogModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Flush durably records every entry currently in log that isn't already
// persisted (by sequence number), in one batch insert.
func (s *EffectStore) Flush(ctx context.Context, log *async.EffectLog) error {
	entries := log.Entries()
	if len(entries) == 0 {
		return nil
	}
	rows := make([]EffectLogModel, len(entries))
	now := time.Now()
	for i, e := range entries {
		rows[i] = EffectLogModel{
			Seq: e.Seq, TaskID: e.TaskID, Op: e.Op, Args: e.Args,
			Result: e.Result, Error: e.Error, RecordedAt: now,
		}
	}
	_, err := s.db.NewInsert().Model(&rows).On("CONFLICT (seq) DO NOTHING").Exec(ctx)
	return err
}

func (s *EffectStore) Close() error {
	return s.db.Close()
}
