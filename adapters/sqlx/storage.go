// Package sqlx stores scoring state in a SQL database through jmoiron/sqlx.
// PostgreSQL, MySQL and SQLite are supported.
package sqlx

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	libsqlx "github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"studyquest/core"
	"studyquest/engine"
)

// Driver names a supported database.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverSQLite   Driver = "sqlite"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default
	libsqlx.BindDriver(string(DriverSQLite), libsqlx.QUESTION)
}

// Config holds database connection settings.
type Config struct {
	Driver          Driver
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns pool defaults for driver. The DSN is left empty
// except for SQLite, which defaults to a local file.
func DefaultConfig(driver Driver) Config {
	cfg := Config{
		Driver:          driver,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
	if driver == DriverSQLite {
		cfg.DSN = "./data/studyquest.db"
		cfg.MaxOpenConns = 1
	}
	return cfg
}

// Store implements engine.Storage on a SQL database.
type Store struct {
	db     *libsqlx.DB
	driver Driver
}

var _ engine.Storage = (*Store)(nil)

// New opens the database, checks connectivity and applies the schema.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if _, ok := schemas[cfg.Driver]; !ok {
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}
	db, err := libsqlx.Open(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == DriverSQLite {
		// SQLite is single-writer
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	s := NewWithDB(db, cfg.Driver)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewWithDB wraps an open connection. The schema is not applied.
func NewWithDB(db *libsqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

func (s *Store) Close() error { return s.db.Close() }

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

var schemas = map[Driver][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id           TEXT PRIMARY KEY,
			total_xp          BIGINT NOT NULL DEFAULT 0,
			streak_days       INTEGER NOT NULL DEFAULT 0,
			last_activity     BIGINT NOT NULL DEFAULT 0,
			week              TEXT NOT NULL DEFAULT '',
			study_minutes     DOUBLE PRECISION NOT NULL DEFAULT 0,
			quests_completed  INTEGER NOT NULL DEFAULT 0,
			tasks_completed   INTEGER NOT NULL DEFAULT 0,
			xp_earned         BIGINT NOT NULL DEFAULT 0,
			streak_maintained BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at        BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS user_activity (
			id            BIGSERIAL PRIMARY KEY,
			user_id       TEXT NOT NULL,
			activity_type TEXT NOT NULL,
			event         TEXT NOT NULL,
			occurred_at   BIGINT NOT NULL,
			xp            BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_activity_user ON user_activity (user_id, id)`,
		`CREATE TABLE IF NOT EXISTS user_unlocks (
			user_id        TEXT NOT NULL,
			achievement_id TEXT NOT NULL,
			unlocked_at    BIGINT NOT NULL,
			xp_awarded     BIGINT NOT NULL,
			PRIMARY KEY (user_id, achievement_id)
		)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id           VARCHAR(255) PRIMARY KEY,
			total_xp          BIGINT NOT NULL DEFAULT 0,
			streak_days       INT NOT NULL DEFAULT 0,
			last_activity     BIGINT NOT NULL DEFAULT 0,
			week              VARCHAR(16) NOT NULL DEFAULT '',
			study_minutes     DOUBLE NOT NULL DEFAULT 0,
			quests_completed  INT NOT NULL DEFAULT 0,
			tasks_completed   INT NOT NULL DEFAULT 0,
			xp_earned         BIGINT NOT NULL DEFAULT 0,
			streak_maintained BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at        BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS user_activity (
			id            BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id       VARCHAR(255) NOT NULL,
			activity_type VARCHAR(32) NOT NULL,
			event         TEXT NOT NULL,
			occurred_at   BIGINT NOT NULL,
			xp            BIGINT NOT NULL,
			INDEX idx_user_activity_user (user_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS user_unlocks (
			user_id        VARCHAR(255) NOT NULL,
			achievement_id VARCHAR(128) NOT NULL,
			unlocked_at    BIGINT NOT NULL,
			xp_awarded     BIGINT NOT NULL,
			PRIMARY KEY (user_id, achievement_id)
		)`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id           TEXT PRIMARY KEY,
			total_xp          INTEGER NOT NULL DEFAULT 0,
			streak_days       INTEGER NOT NULL DEFAULT 0,
			last_activity     INTEGER NOT NULL DEFAULT 0,
			week              TEXT NOT NULL DEFAULT '',
			study_minutes     REAL NOT NULL DEFAULT 0,
			quests_completed  INTEGER NOT NULL DEFAULT 0,
			tasks_completed   INTEGER NOT NULL DEFAULT 0,
			xp_earned         INTEGER NOT NULL DEFAULT 0,
			streak_maintained BOOLEAN NOT NULL DEFAULT 0,
			updated_at        INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS user_activity (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id       TEXT NOT NULL,
			activity_type TEXT NOT NULL,
			event         TEXT NOT NULL,
			occurred_at   INTEGER NOT NULL,
			xp            INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_user_activity_user ON user_activity (user_id, id)`,
		`CREATE TABLE IF NOT EXISTS user_unlocks (
			user_id        TEXT NOT NULL,
			achievement_id TEXT NOT NULL,
			unlocked_at    INTEGER NOT NULL,
			xp_awarded     INTEGER NOT NULL,
			PRIMARY KEY (user_id, achievement_id)
		)`,
	},
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts, ok := schemas[s.driver]
	if !ok {
		return fmt.Errorf("unsupported sql driver %q", s.driver)
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Times are stored as Unix nanoseconds; 0 is the zero time.
func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

type statsRow struct {
	UserID           string  `db:"user_id"`
	TotalXP          int64   `db:"total_xp"`
	StreakDays       int     `db:"streak_days"`
	LastActivity     int64   `db:"last_activity"`
	Week             string  `db:"week"`
	StudyMinutes     float64 `db:"study_minutes"`
	QuestsCompleted  int     `db:"quests_completed"`
	TasksCompleted   int     `db:"tasks_completed"`
	XPEarned         int64   `db:"xp_earned"`
	StreakMaintained bool    `db:"streak_maintained"`
	UpdatedAt        int64   `db:"updated_at"`
}

const statsColumns = `user_id, total_xp, streak_days, last_activity, week, study_minutes,
	quests_completed, tasks_completed, xp_earned, streak_maintained, updated_at`

func (r statsRow) stats() core.GameStats {
	return core.GameStats{
		TotalXP:      r.TotalXP,
		StreakDays:   r.StreakDays,
		LastActivity: fromUnix(r.LastActivity),
		Weekly: core.WeeklyStats{
			Week:             r.Week,
			StudyMinutes:     r.StudyMinutes,
			QuestsCompleted:  r.QuestsCompleted,
			TasksCompleted:   r.TasksCompleted,
			XPEarned:         r.XPEarned,
			StreakMaintained: r.StreakMaintained,
		},
	}.Recompute()
}

func rowOf(user core.UserID, st core.GameStats) statsRow {
	return statsRow{
		UserID:           string(user),
		TotalXP:          st.TotalXP,
		StreakDays:       st.StreakDays,
		LastActivity:     toUnix(st.LastActivity),
		Week:             st.Weekly.Week,
		StudyMinutes:     st.Weekly.StudyMinutes,
		QuestsCompleted:  st.Weekly.QuestsCompleted,
		TasksCompleted:   st.Weekly.TasksCompleted,
		XPEarned:         st.Weekly.XPEarned,
		StreakMaintained: st.Weekly.StreakMaintained,
		UpdatedAt:        time.Now().UTC().Unix(),
	}
}

func (s *Store) GetStats(ctx context.Context, user core.UserID) (core.GameStats, error) {
	var row statsRow
	q := s.db.Rebind(`SELECT ` + statsColumns + ` FROM user_stats WHERE user_id = ?`)
	err := s.db.GetContext(ctx, &row, q, string(user))
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewGameStats(), nil
	}
	if err != nil {
		return core.GameStats{}, fmt.Errorf("get stats: %w", err)
	}
	return row.stats(), nil
}

func (s *Store) insertIgnore() string {
	if s.driver == DriverMySQL {
		return "INSERT IGNORE INTO"
	}
	return "INSERT INTO"
}

func (s *Store) onConflictNothing() string {
	if s.driver == DriverMySQL {
		return ""
	}
	return " ON CONFLICT DO NOTHING"
}

func (s *Store) forUpdate() string {
	if s.driver == DriverSQLite {
		return ""
	}
	return " FOR UPDATE"
}

// UpdateStats locks the user's row for the length of a transaction. The row
// is created first so concurrent first writes queue on the same lock.
func (s *Store) UpdateStats(ctx context.Context, user core.UserID, fn engine.StatsUpdate) (core.GameStats, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.GameStats{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ensure := tx.Rebind(s.insertIgnore() + ` user_stats (user_id) VALUES (?)` + s.onConflictNothing())
	if _, err := tx.ExecContext(ctx, ensure, string(user)); err != nil {
		return core.GameStats{}, fmt.Errorf("ensure stats row: %w", err)
	}

	var row statsRow
	sel := tx.Rebind(`SELECT ` + statsColumns + ` FROM user_stats WHERE user_id = ?` + s.forUpdate())
	if err := tx.GetContext(ctx, &row, sel, string(user)); err != nil {
		return core.GameStats{}, fmt.Errorf("select stats: %w", err)
	}

	next, err := fn(row.stats())
	if err != nil {
		return core.GameStats{}, err
	}
	next = next.Recompute()

	upd := `UPDATE user_stats SET total_xp = :total_xp, streak_days = :streak_days,
		last_activity = :last_activity, week = :week, study_minutes = :study_minutes,
		quests_completed = :quests_completed, tasks_completed = :tasks_completed,
		xp_earned = :xp_earned, streak_maintained = :streak_maintained,
		updated_at = :updated_at WHERE user_id = :user_id`
	if _, err := tx.NamedExecContext(ctx, upd, rowOf(user, next)); err != nil {
		return core.GameStats{}, fmt.Errorf("update stats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.GameStats{}, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

type activityRow struct {
	Event      string `db:"event"`
	OccurredAt int64  `db:"occurred_at"`
	XP         int64  `db:"xp"`
}

func (s *Store) AppendActivity(ctx context.Context, user core.UserID, rec core.ActivityRecord) error {
	event, err := json.Marshal(rec.Event)
	if err != nil {
		return err
	}
	q := s.db.Rebind(`INSERT INTO user_activity (user_id, activity_type, event, occurred_at, xp) VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, q, string(user), string(rec.Event.Type), string(event), toUnix(rec.At), rec.XP); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (s *Store) ListActivity(ctx context.Context, user core.UserID) ([]core.ActivityRecord, error) {
	var rows []activityRow
	q := s.db.Rebind(`SELECT event, occurred_at, xp FROM user_activity WHERE user_id = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &rows, q, string(user)); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	out := make([]core.ActivityRecord, 0, len(rows))
	for _, r := range rows {
		var ev core.ActivityEvent
		if err := json.Unmarshal([]byte(r.Event), &ev); err != nil {
			return nil, fmt.Errorf("decode activity: %w", err)
		}
		out = append(out, core.ActivityRecord{Event: ev, At: fromUnix(r.OccurredAt), XP: r.XP})
	}
	return out, nil
}

type unlockRow struct {
	AchievementID string `db:"achievement_id"`
	UnlockedAt    int64  `db:"unlocked_at"`
	XPAwarded     int64  `db:"xp_awarded"`
}

func (s *Store) RecordUnlock(ctx context.Context, user core.UserID, u core.AchievementUnlock) (bool, error) {
	if err := core.ValidateAchievementID(u.AchievementID); err != nil {
		return false, err
	}
	q := s.db.Rebind(s.insertIgnore() + ` user_unlocks (user_id, achievement_id, unlocked_at, xp_awarded) VALUES (?, ?, ?, ?)` + s.onConflictNothing())
	res, err := s.db.ExecContext(ctx, q, string(user), u.AchievementID, toUnix(u.UnlockedAt), u.XPAwarded)
	if err != nil {
		return false, fmt.Errorf("record unlock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record unlock: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListUnlocks(ctx context.Context, user core.UserID) ([]core.AchievementUnlock, error) {
	var rows []unlockRow
	q := s.db.Rebind(`SELECT achievement_id, unlocked_at, xp_awarded FROM user_unlocks WHERE user_id = ? ORDER BY unlocked_at, achievement_id`)
	if err := s.db.SelectContext(ctx, &rows, q, string(user)); err != nil {
		return nil, fmt.Errorf("list unlocks: %w", err)
	}
	out := make([]core.AchievementUnlock, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.AchievementUnlock{AchievementID: r.AchievementID, UnlockedAt: fromUnix(r.UnlockedAt), XPAwarded: r.XPAwarded})
	}
	return out, nil
}
