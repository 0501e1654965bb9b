package sqlx_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	storage "studyquest/adapters/sqlx"
	"studyquest/core"
)

var statsCols = []string{
	"user_id", "total_xp", "streak_days", "last_activity", "week", "study_minutes",
	"quests_completed", "tasks_completed", "xp_earned", "streak_maintained", "updated_at",
}

func newMockStore(t *testing.T, driver storage.Driver) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	xdb := storage.NewWithDB(libsqlx.NewDb(db, string(driver)), driver)
	cleanup := func() {
		_ = db.Close()
	}
	return xdb, mock, cleanup
}

func TestSQLMock_GetStats_Missing(t *testing.T) {
	store, mock, cleanup := newMockStore(t, storage.DriverPostgres)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM user_stats WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnError(sql.ErrNoRows)

	st, err := store.GetStats(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, core.NewGameStats(), st)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_GetStats(t *testing.T) {
	store, mock, cleanup := newMockStore(t, storage.DriverPostgres)
	defer cleanup()

	last := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT (.+) FROM user_stats`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(statsCols).
			AddRow("u1", 260, 4, last.UnixNano(), "2026-W16", 90.5, 2, 3, 260, true, 0))

	st, err := store.GetStats(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, int64(260), st.TotalXP)
	require.Equal(t, 2, st.Level)
	require.Equal(t, int64(10), st.CurrentXP)
	require.Equal(t, 4, st.StreakDays)
	require.True(t, st.LastActivity.Equal(last))
	require.Equal(t, 90.5, st.Weekly.StudyMinutes)
	require.True(t, st.Weekly.StreakMaintained)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_UpdateStats(t *testing.T) {
	store, mock, cleanup := newMockStore(t, storage.DriverPostgres)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user_stats \(user_id\) VALUES \(\$1\) ON CONFLICT DO NOTHING`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM user_stats WHERE user_id = \$1 FOR UPDATE`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(statsCols).AddRow("u1", 90, 0, 0, "", 0, 0, 0, 0, false, 0))
	mock.ExpectExec(`UPDATE user_stats SET`).
		WithArgs(int64(110), 0, int64(0), "", 0.0, 0, 0, int64(0), false, sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	st, err := store.UpdateStats(context.Background(), "u1", func(st core.GameStats) (core.GameStats, error) {
		st.TotalXP += 20
		return st, nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(110), st.TotalXP)
	require.Equal(t, 1, st.Level)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_UpdateStats_FnErrorRollsBack(t *testing.T) {
	store, mock, cleanup := newMockStore(t, storage.DriverPostgres)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user_stats`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM user_stats`).
		WillReturnRows(sqlmock.NewRows(statsCols).AddRow("u1", 0, 0, 0, "", 0, 0, 0, 0, false, 0))
	mock.ExpectRollback()

	boom := errors.New("boom")
	_, err := store.UpdateStats(context.Background(), "u1", func(st core.GameStats) (core.GameStats, error) {
		return st, boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_MySQLUsesInsertIgnore(t *testing.T) {
	store, mock, cleanup := newMockStore(t, storage.DriverMySQL)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT IGNORE INTO user_stats \(user_id\) VALUES \(\?\)$`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM user_stats WHERE user_id = \? FOR UPDATE`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(statsCols).AddRow("u1", 0, 0, 0, "", 0, 0, 0, 0, false, 0))
	mock.ExpectExec(`UPDATE user_stats SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := store.UpdateStats(context.Background(), "u1", func(st core.GameStats) (core.GameStats, error) {
		st.TotalXP = 5
		return st, nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_AppendActivity(t *testing.T) {
	store, mock, cleanup := newMockStore(t, storage.DriverPostgres)
	defer cleanup()

	at := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO user_activity`).
		WithArgs("u1", "quest", `{"type":"quest","quest_type":"weekly"}`, at.UnixNano(), int64(225)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.AppendActivity(context.Background(), "u1", core.ActivityRecord{
		Event: core.ActivityEvent{Type: core.ActivityQuest, QuestType: core.QuestWeekly},
		At:    at,
		XP:    225,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_ListActivity(t *testing.T) {
	store, mock, cleanup := newMockStore(t, storage.DriverPostgres)
	defer cleanup()

	at := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT event, occurred_at, xp FROM user_activity`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"event", "occurred_at", "xp"}).
			AddRow(`{"type":"study_session","duration_minutes":30}`, at.UnixNano(), 92).
			AddRow(`{"type":"todo","completed_on_time":true}`, at.Add(time.Hour).UnixNano(), 20))

	history, err := store.ListActivity(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, 30.0, history[0].Event.DurationMinutes)
	require.True(t, history[1].At.Equal(at.Add(time.Hour)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_RecordUnlock(t *testing.T) {
	store, mock, cleanup := newMockStore(t, storage.DriverPostgres)
	defer cleanup()

	ctx := context.Background()
	u := core.AchievementUnlock{AchievementID: "streak_3", UnlockedAt: time.Unix(1776247200, 0), XPAwarded: 30}

	mock.ExpectExec(`INSERT INTO user_unlocks (.+) ON CONFLICT DO NOTHING`).
		WithArgs("u1", "streak_3", u.UnlockedAt.UnixNano(), int64(30)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO user_unlocks`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := store.RecordUnlock(ctx, "u1", u)
	require.NoError(t, err)
	require.True(t, created)

	created, err = store.RecordUnlock(ctx, "u1", u)
	require.NoError(t, err)
	require.False(t, created)

	_, err = store.RecordUnlock(ctx, "u1", core.AchievementUnlock{AchievementID: ""})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_ListUnlocks(t *testing.T) {
	store, mock, cleanup := newMockStore(t, storage.DriverPostgres)
	defer cleanup()

	mock.ExpectQuery(`SELECT achievement_id, unlocked_at, xp_awarded FROM user_unlocks`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"achievement_id", "unlocked_at", "xp_awarded"}).
			AddRow("first_session", 1, 25))

	unlocks, err := store.ListUnlocks(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, []core.AchievementUnlock{{AchievementID: "first_session", UnlockedAt: time.Unix(0, 1).UTC(), XPAwarded: 25}}, unlocks)
	require.NoError(t, mock.ExpectationsWereMet())
}
