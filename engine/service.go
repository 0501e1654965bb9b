package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"studyquest/achievements"
	"studyquest/analytics"
	"studyquest/core"
	"studyquest/rewards"
	"studyquest/streak"
)

var (
	ErrEmptyUserID     = errors.New("empty user id")
	ErrInvalidActivity = errors.New("invalid activity")
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for collaborator failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCatalog sets the achievement catalog. Defaults to
// achievements.DefaultCatalog().
func WithCatalog(c *achievements.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithLocation sets the time zone that decides calendar days for streaks,
// windows and time-of-day counters. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service wires storage, the event bus and the achievement catalog into the
// scoring flow.
type Service struct {
	storage Storage
	bus     *EventBus
	catalog *achievements.Catalog
	logger  *slog.Logger
	loc     *time.Location
	now     func() time.Time
}

func NewService(storage Storage, bus *EventBus, opts ...Option) *Service {
	if storage == nil || bus == nil {
		panic("NewService requires non-nil storage and bus")
	}
	s := &Service{
		storage: storage,
		bus:     bus,
		catalog: achievements.DefaultCatalog(),
		logger:  slog.Default(),
		loc:     time.UTC,
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Outcome is what one recorded activity produced. It carries everything a
// notification layer needs without subscribing to events.
type Outcome struct {
	User          core.UserID              `json:"user_id"`
	ActivityXP    int64                    `json:"activity_xp"`
	StreakBonusXP int64                    `json:"streak_bonus_xp"`
	AchievementXP int64                    `json:"achievement_xp"`
	TotalAwarded  int64                    `json:"total_awarded"`
	StreakDays    int                      `json:"streak_days"`
	NewStreakDay  bool                     `json:"new_streak_day"`
	LeveledUp     bool                     `json:"leveled_up"`
	PreviousLevel int                      `json:"previous_level"`
	NewLevel      int                      `json:"new_level"`
	Unlocked      []core.AchievementUnlock `json:"unlocked,omitempty"`
	Stats         core.GameStats           `json:"stats"`
}

func (s *Service) clock() time.Time { return s.now().In(s.loc) }

// Subscribe convenience method.
func (s *Service) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

func (s *Service) Publish(ctx context.Context, ev core.Event) {
	s.bus.Publish(ctx, ev)
}

// Catalog returns the achievement catalog in use.
func (s *Service) Catalog() *achievements.Catalog { return s.catalog }

// RecordActivity scores one completed activity for user.
//
// The flow is: reward the activity, recompute the streak over the stored
// history plus the new activity, pay a streak bonus on the first activity of
// a new streak day and apply the XP, then append the activity to the
// history. If the append fails the XP is taken back, so a failed request can
// be retried without counting the activity twice. Achievements the new
// snapshot satisfies are unlocked last; a failure there is logged and the
// missed unlocks are picked up by the user's next activity. Events are
// published after all writes succeed. A zero at means now; times after now
// are clamped to now.
func (s *Service) RecordActivity(ctx context.Context, user core.UserID, ev core.ActivityEvent, at time.Time) (Outcome, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return Outcome{}, ErrEmptyUserID
	}
	if err := ev.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrInvalidActivity, err)
	}
	s.warnFallbacks(user, ev)
	now := s.clock()
	if at.IsZero() || at.After(now) {
		at = now
	}
	at = at.In(s.loc)

	history, err := s.storage.ListActivity(ctx, user)
	if err != nil {
		return Outcome{}, fmt.Errorf("list activity: %w", err)
	}
	existing, err := s.storage.ListUnlocks(ctx, user)
	if err != nil {
		return Outcome{}, fmt.Errorf("list unlocks: %w", err)
	}
	dates := make([]time.Time, 0, len(history)+1)
	for _, r := range history {
		dates = append(dates, r.At)
	}
	dates = append(dates, at)
	streakDays := streak.Compute(dates, now)

	xp := rewards.ForActivity(ev)
	rec := core.ActivityRecord{Event: ev, At: at, XP: xp}
	out := Outcome{User: user, ActivityXP: xp, StreakDays: streakDays}
	var (
		applied, bonusApplied int64
		prevLast              time.Time
		prevStreak            int
	)
	stats, err := s.storage.UpdateStats(ctx, user, func(st core.GameStats) (core.GameStats, error) {
		st = RollWeek(st, now)
		prevLast, prevStreak = st.LastActivity, st.StreakDays
		out.PreviousLevel = st.Recompute().Level
		out.NewStreakDay = streakDays > 0 && streak.Extends(st.LastActivity, at)
		out.StreakBonusXP = 0
		if out.NewStreakDay {
			out.StreakBonusXP = rewards.StreakBonus(streakDays)
		}

		r := ApplyXP(st, xp, ev)
		st, applied, bonusApplied = r.Stats, r.Applied, 0
		if out.StreakBonusXP > 0 {
			b := ApplyXP(st, out.StreakBonusXP, core.ActivityEvent{Type: core.ActivityStreakBonus, StreakDays: streakDays})
			st, bonusApplied = b.Stats, b.Applied
		}
		st.StreakDays = streakDays
		st.Weekly.StreakMaintained = streak.IsActive(at, now)
		if at.After(st.LastActivity) {
			st.LastActivity = at
		}
		return st, nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("update stats: %w", err)
	}
	if err := s.storage.AppendActivity(ctx, user, rec); err != nil {
		s.refundActivity(ctx, user, ev, applied+bonusApplied, at, prevLast, prevStreak, now)
		return Outcome{}, fmt.Errorf("append activity: %w", err)
	}
	history = append(history, rec)

	events := []core.Event{core.NewXPAwarded(user, ev.Type, xp, stats.TotalXP)}
	if out.NewStreakDay {
		events = append(events, core.NewStreakUpdated(user, streakDays))
	}
	if out.StreakBonusXP > 0 {
		bonus := core.ActivityRecord{
			Event: core.ActivityEvent{Type: core.ActivityStreakBonus, StreakDays: streakDays},
			At:    at,
			XP:    out.StreakBonusXP,
		}
		// the bonus is already paid and the activity stored; a missing
		// bonus line only affects the history listing
		if err := s.storage.AppendActivity(ctx, user, bonus); err != nil {
			s.logger.Error("append streak bonus failed", "user", user, "xp", out.StreakBonusXP, "error", err)
		} else {
			history = append(history, bonus)
		}
		events = append(events, core.NewXPAwarded(user, core.ActivityStreakBonus, out.StreakBonusXP, stats.TotalXP))
	}

	stats, unlocked, err := s.unlockAchievements(ctx, user, stats, history, existing, now)
	if err != nil {
		s.logger.Error("achievement unlock failed", "user", user, "error", err)
	}
	for _, u := range unlocked {
		out.AchievementXP += u.XPAwarded
		e := core.NewAchievementUnlocked(user, u)
		e.Total = stats.TotalXP
		events = append(events, e)
	}
	out.Unlocked = unlocked
	out.Stats = stats
	out.NewLevel = stats.Level
	out.LeveledUp = stats.Level > out.PreviousLevel
	out.TotalAwarded = out.ActivityXP + out.StreakBonusXP + out.AchievementXP
	if out.LeveledUp {
		events = append(events, core.NewLevelUp(user, stats.Level, stats.TotalXP))
	}

	for _, e := range events {
		s.bus.Publish(ctx, e)
	}
	s.logger.Debug("activity recorded",
		"user", user,
		"type", ev.Type,
		"xp", out.TotalAwarded,
		"level", out.NewLevel,
		"streak_days", out.StreakDays,
		"unlocked", len(out.Unlocked))
	return out, nil
}

// refundActivity takes back the XP paid for an activity whose history
// record could not be stored, and restores the streak fields it moved.
func (s *Service) refundActivity(ctx context.Context, user core.UserID, ev core.ActivityEvent, paid int64, at, prevLast time.Time, prevStreak int, now time.Time) {
	_, err := s.storage.UpdateStats(ctx, user, func(st core.GameStats) (core.GameStats, error) {
		st = RevertXP(RollWeek(st, now), paid, ev)
		if st.LastActivity.Equal(at) && prevLast.Before(at) {
			st.LastActivity, st.StreakDays = prevLast, prevStreak
		}
		return st, nil
	})
	if err != nil {
		s.logger.Error("activity refund failed, stats are ahead of history", "user", user, "xp", paid, "error", err)
	}
}

// warnFallbacks logs enum values that scoring replaces with a default.
func (s *Service) warnFallbacks(user core.UserID, ev core.ActivityEvent) {
	usesDifficulty := ev.Type == core.ActivityStudySession || ev.Type == core.ActivityQuest
	if usesDifficulty && ev.Difficulty != "" && !ev.Difficulty.Valid() {
		s.logger.Warn("unknown difficulty, scoring as medium", "user", user, "difficulty", ev.Difficulty)
	}
	if ev.Type == core.ActivityQuest && !ev.QuestType.Valid() {
		s.logger.Warn("unknown quest type, using default base xp", "user", user, "quest_type", ev.QuestType)
	}
}

// unlockAchievements unlocks every met achievement. The XP of a pass is
// paid before the unlocks are stored, and XP for any unlock that was not
// stored is refunded, so a failure never leaves an achievement unlocked
// without its reward. Unlock XP can satisfy further achievements, so it
// re-checks until a pass unlocks nothing.
func (s *Service) unlockAchievements(ctx context.Context, user core.UserID, stats core.GameStats, history []core.ActivityRecord, existing []core.AchievementUnlock, now time.Time) (core.GameStats, []core.AchievementUnlock, error) {
	have := make(map[string]bool, len(existing))
	for _, u := range existing {
		have[u.AchievementID] = true
	}

	var unlocked []core.AchievementUnlock
	for pass := 0; pass <= s.catalog.Len(); pass++ {
		snap := analytics.BuildSnapshot(history, stats, now)
		met := s.catalog.Check(snap, have, now)
		if len(met) == 0 {
			break
		}
		var reward int64
		for _, def := range met {
			if r, err := core.AddSafe(reward, def.XPReward); err == nil {
				reward = r
			}
		}
		var applied int64
		if reward > 0 {
			st, err := s.storage.UpdateStats(ctx, user, func(st core.GameStats) (core.GameStats, error) {
				r := ApplyXP(RollWeek(st, now), reward, core.ActivityEvent{})
				applied = r.Applied
				return r.Stats, nil
			})
			if err != nil {
				return stats, unlocked, fmt.Errorf("apply achievement xp: %w", err)
			}
			stats = st
		}

		var (
			refund   int64
			created  int
			firstErr error
		)
		for _, def := range met {
			have[def.ID] = true
			if firstErr != nil {
				refund += def.XPReward
				continue
			}
			u := core.AchievementUnlock{AchievementID: def.ID, UnlockedAt: now, XPAwarded: def.XPReward}
			ok, err := s.storage.RecordUnlock(ctx, user, u)
			if err != nil {
				firstErr = fmt.Errorf("record unlock %s: %w", def.ID, err)
				refund += def.XPReward
				continue
			}
			if !ok {
				// another request unlocked it first and paid for it
				refund += def.XPReward
				continue
			}
			created++
			unlocked = append(unlocked, u)
		}
		if refund = min(refund, applied); refund > 0 {
			st, err := s.storage.UpdateStats(ctx, user, func(st core.GameStats) (core.GameStats, error) {
				return RevertXP(RollWeek(st, now), refund, core.ActivityEvent{}), nil
			})
			if err != nil {
				s.logger.Error("achievement refund failed", "user", user, "xp", refund, "error", err)
			} else {
				stats = st
			}
		}
		if firstErr != nil {
			return stats, unlocked, firstErr
		}
		if created == 0 {
			break
		}
	}
	return stats, unlocked, nil
}

// Stats returns a user's stats as of now. A streak whose last activity is
// older than yesterday reads as zero.
func (s *Service) Stats(ctx context.Context, user core.UserID) (core.GameStats, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return core.GameStats{}, ErrEmptyUserID
	}
	st, err := s.storage.GetStats(ctx, user)
	if err != nil {
		return core.GameStats{}, fmt.Errorf("get stats: %w", err)
	}
	now := s.clock()
	st = RollWeek(st.Recompute(), now)
	if !streak.IsActive(st.LastActivity, now) {
		st.StreakDays = 0
		st.Weekly.StreakMaintained = false
	}
	return st, nil
}

// History returns a user's activity history, oldest first.
func (s *Service) History(ctx context.Context, user core.UserID) ([]core.ActivityRecord, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, ErrEmptyUserID
	}
	return s.storage.ListActivity(ctx, user)
}

// AchievementStatus is a catalog entry as seen by one user.
type AchievementStatus struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	Icon         string                 `json:"icon,omitempty"`
	Category     achievements.Category  `json:"category"`
	Rarity       achievements.Rarity    `json:"rarity"`
	XPReward     int64                  `json:"xp_reward"`
	Hidden       bool                   `json:"hidden,omitempty"`
	Seasonal     bool                   `json:"seasonal,omitempty"`
	EventEndDate *time.Time             `json:"event_end_date,omitempty"`
	Available    bool                   `json:"available"`
	Unlocked     bool                   `json:"unlocked"`
	UnlockedAt   *time.Time             `json:"unlocked_at,omitempty"`
	Progress     *achievements.Progress `json:"progress,omitempty"`
}

const hiddenName = "???"

// Achievements lists every catalog entry with the user's unlock state and
// progress. Hidden achievements the user has not unlocked keep their id and
// rarity but have their name, description and progress masked.
func (s *Service) Achievements(ctx context.Context, user core.UserID) ([]AchievementStatus, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, ErrEmptyUserID
	}
	stats, err := s.Stats(ctx, user)
	if err != nil {
		return nil, err
	}
	history, err := s.storage.ListActivity(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	unlocks, err := s.storage.ListUnlocks(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list unlocks: %w", err)
	}
	byID := make(map[string]core.AchievementUnlock, len(unlocks))
	for _, u := range unlocks {
		byID[u.AchievementID] = u
	}

	now := s.clock()
	snap := analytics.BuildSnapshot(history, stats, now)
	defs := s.catalog.Definitions()
	out := make([]AchievementStatus, 0, len(defs))
	for _, d := range defs {
		st := AchievementStatus{
			ID:           d.ID,
			Name:         d.Name,
			Description:  d.Description,
			Icon:         d.Icon,
			Category:     d.Category,
			Rarity:       d.Rarity,
			XPReward:     d.XPReward,
			Hidden:       d.IsHidden,
			Seasonal:     d.IsSeasonal,
			EventEndDate: d.EventEndDate,
			Available:    d.Available(now),
		}
		if u, ok := byID[d.ID]; ok {
			at := u.UnlockedAt
			st.Unlocked, st.UnlockedAt = true, &at
			p := achievements.ProgressOf(d.Requirement, snap)
			p.Current, p.Percent = p.Target, 100
			st.Progress = &p
		} else if d.IsHidden {
			st.Name, st.Description, st.Icon = hiddenName, "", ""
		} else {
			p := achievements.ProgressOf(d.Requirement, snap)
			st.Progress = &p
		}
		out = append(out, st)
	}
	return out, nil
}

// Unlocks returns the achievements a user has unlocked.
func (s *Service) Unlocks(ctx context.Context, user core.UserID) ([]core.AchievementUnlock, error) {
	user, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, ErrEmptyUserID
	}
	return s.storage.ListUnlocks(ctx, user)
}

func (s *Service) Close() { s.bus.Close() }
