// Package leaderboard ranks users by total XP.
package leaderboard

import "studyquest/core"

// Entry is one ranked user.
type Entry struct {
	Rank    int         `json:"rank"`
	User    core.UserID `json:"user_id"`
	TotalXP int64       `json:"total_xp"`
	Level   int         `json:"level"`
}

// Board abstracts ranking operations. Ranks start at 1; ties on XP are
// ordered by user id.
type Board interface {
	Update(user core.UserID, totalXP int64)
	Remove(user core.UserID)
	TopN(n int) []Entry
	Get(user core.UserID) (Entry, bool)
	Len() int
}

// Tracker keeps a Board current from scoring events. It satisfies
// analytics.Hook.
type Tracker struct {
	board Board
}

// NewTracker feeds board. A nil board uses a new SkipList.
func NewTracker(board Board) *Tracker {
	if board == nil {
		board = NewSkipList()
	}
	return &Tracker{board: board}
}

// Board returns the tracked board.
func (t *Tracker) Board() Board { return t.board }

// OnEvent moves users whenever an event reports their total XP. XP awards,
// unlocks and level-ups all carry the total after the change.
func (t *Tracker) OnEvent(e core.Event) {
	if e.UserID == "" || e.Total <= 0 {
		return
	}
	switch e.Type {
	case core.EventXPAwarded, core.EventAchievementUnlocked, core.EventLevelUp:
		t.board.Update(e.UserID, e.Total)
	}
}
