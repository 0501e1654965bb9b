package analytics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"studyquest/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// BridgeHook bridges an event source to multiple hooks.
type BridgeHook struct{ hooks []Hook }

func NewBridge(hooks ...Hook) *BridgeHook { return &BridgeHook{hooks: hooks} }

func (b *BridgeHook) OnEvent(e core.Event) {
	for _, h := range b.hooks {
		h.OnEvent(e)
	}
}

// Engagement aggregates engagement KPIs across all users: active users per
// day, week and month, XP by day and activity, level-ups and unlocks.
type Engagement struct {
	mu sync.RWMutex

	dailyActiveUsers   map[string]map[core.UserID]struct{}
	weeklyActiveUsers  map[string]map[core.UserID]struct{}
	monthlyActiveUsers map[string]map[core.UserID]struct{}

	xpByDay      map[string]int64
	xpByActivity map[core.ActivityType]int64

	levelUpsByDay     map[string]int64
	levelDistribution map[int]int // highest level reached -> users
	userLevel         map[core.UserID]int

	unlocksByDay         map[string]int64
	unlocksByAchievement map[string]int64

	longestStreak map[core.UserID]int
}

func NewEngagement() *Engagement {
	return &Engagement{
		dailyActiveUsers:     make(map[string]map[core.UserID]struct{}),
		weeklyActiveUsers:    make(map[string]map[core.UserID]struct{}),
		monthlyActiveUsers:   make(map[string]map[core.UserID]struct{}),
		xpByDay:              make(map[string]int64),
		xpByActivity:         make(map[core.ActivityType]int64),
		levelUpsByDay:        make(map[string]int64),
		levelDistribution:    make(map[int]int),
		userLevel:            make(map[core.UserID]int),
		unlocksByDay:         make(map[string]int64),
		unlocksByAchievement: make(map[string]int64),
		longestStreak:        make(map[core.UserID]int),
	}
}

func (g *Engagement) OnEvent(e core.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()

	day := DayKey(e.Time)
	track(g.dailyActiveUsers, day, e.UserID)
	track(g.weeklyActiveUsers, WeekKey(e.Time), e.UserID)
	track(g.monthlyActiveUsers, MonthKey(e.Time), e.UserID)

	switch e.Type {
	case core.EventXPAwarded:
		if e.Delta > 0 {
			g.xpByDay[day] += e.Delta
			g.xpByActivity[e.Activity] += e.Delta
		}
	case core.EventLevelUp:
		g.levelUpsByDay[day]++
		if prev, ok := g.userLevel[e.UserID]; ok {
			if e.Level <= prev {
				return
			}
			g.levelDistribution[prev]--
			if g.levelDistribution[prev] <= 0 {
				delete(g.levelDistribution, prev)
			}
		}
		g.userLevel[e.UserID] = e.Level
		g.levelDistribution[e.Level]++
	case core.EventAchievementUnlocked:
		g.unlocksByDay[day]++
		g.unlocksByAchievement[e.Achievement]++
	case core.EventStreakUpdated:
		if e.StreakDays > g.longestStreak[e.UserID] {
			g.longestStreak[e.UserID] = e.StreakDays
		}
	}
}

func track(m map[string]map[core.UserID]struct{}, key string, user core.UserID) {
	if m[key] == nil {
		m[key] = make(map[core.UserID]struct{})
	}
	m[key][user] = struct{}{}
}

// DailyActiveUsers returns the count of active users on a day (2006-01-02).
func (g *Engagement) DailyActiveUsers(day string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.dailyActiveUsers[day])
}

// WeeklyActiveUsers returns the count of active users in an ISO week (2006-W01).
func (g *Engagement) WeeklyActiveUsers(week string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.weeklyActiveUsers[week])
}

// MonthlyActiveUsers returns the count of active users in a month (2006-01).
func (g *Engagement) MonthlyActiveUsers(month string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.monthlyActiveUsers[month])
}

func (g *Engagement) XPByDay(day string) int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.xpByDay[day]
}

func (g *Engagement) XPByActivity(a core.ActivityType) int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.xpByActivity[a]
}

func (g *Engagement) LevelUpsByDay(day string) int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.levelUpsByDay[day]
}

// LevelDistribution returns how many users have reached each level, keyed
// by their highest observed level.
func (g *Engagement) LevelDistribution() map[int]int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[int]int, len(g.levelDistribution))
	for k, v := range g.levelDistribution {
		out[k] = v
	}
	return out
}

func (g *Engagement) UnlocksByDay(day string) int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.unlocksByDay[day]
}

// AchievementCount is an achievement and how often it was unlocked.
type AchievementCount struct {
	ID    string `json:"id"`
	Count int64  `json:"count"`
}

// TopAchievements returns the most unlocked achievements, most frequent
// first, ties broken by id.
func (g *Engagement) TopAchievements(limit int) []AchievementCount {
	g.mu.RLock()
	out := make([]AchievementCount, 0, len(g.unlocksByAchievement))
	for id, n := range g.unlocksByAchievement {
		out = append(out, AchievementCount{ID: id, Count: n})
	}
	g.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// LongestStreak returns the longest streak observed for a user.
func (g *Engagement) LongestStreak(user core.UserID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.longestStreak[user]
}

// DayKey formats t as a UTC day key.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WeekKey formats t as a UTC ISO week key.
func WeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MonthKey formats t as a UTC month key.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
