package leaderboard

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"studyquest/core"
)

// SkipList orders users by (total XP desc, user asc) with O(log n) updates.
type SkipList struct {
	mu     sync.RWMutex
	head   *node
	height int
	byUser map[core.UserID]*node
	rng    *rand.Rand
}

const (
	maxHeight = 16
	promote   = 0.25
)

type node struct {
	user core.UserID
	xp   int64
	next [maxHeight]*node
}

func NewSkipList() *SkipList {
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		seed = [16]byte{}
	}
	return &SkipList{
		head:   &node{},
		height: 1,
		byUser: map[core.UserID]*node{},
		rng:    rand.New(rand.NewPCG(binary.BigEndian.Uint64(seed[:8]), binary.BigEndian.Uint64(seed[8:]))),
	}
}

func (s *SkipList) randomHeight() int {
	h := 1
	for h < maxHeight && s.rng.Float64() < promote {
		h++
	}
	return h
}

// before reports whether a ranks ahead of b.
func before(a *node, user core.UserID, xp int64) bool {
	if a.xp == xp {
		return a.user < user
	}
	return a.xp > xp
}

// path returns, per height, the last node ranked ahead of (user, xp).
func (s *SkipList) path(user core.UserID, xp int64) [maxHeight]*node {
	var prev [maxHeight]*node
	cur := s.head
	for i := s.height - 1; i >= 0; i-- {
		for cur.next[i] != nil && before(cur.next[i], user, xp) {
			cur = cur.next[i]
		}
		prev[i] = cur
	}
	return prev
}

// Update sets a user's total XP, inserting the user if needed. Negative
// totals are stored as 0.
func (s *SkipList) Update(user core.UserID, totalXP int64) {
	if totalXP < 0 {
		totalXP = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byUser[user]; ok {
		if old.xp == totalXP {
			return
		}
		s.unlink(old)
	}
	prev := s.path(user, totalXP)
	h := s.randomHeight()
	for i := s.height; i < h; i++ {
		prev[i] = s.head
	}
	if h > s.height {
		s.height = h
	}
	n := &node{user: user, xp: totalXP}
	for i := 0; i < h; i++ {
		n.next[i] = prev[i].next[i]
		prev[i].next[i] = n
	}
	s.byUser[user] = n
}

func (s *SkipList) unlink(n *node) {
	prev := s.path(n.user, n.xp)
	for i := 0; i < s.height; i++ {
		if prev[i].next[i] == n {
			prev[i].next[i] = n.next[i]
		}
	}
	delete(s.byUser, n.user)
	for s.height > 1 && s.head.next[s.height-1] == nil {
		s.height--
	}
}

func (s *SkipList) Remove(user core.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.byUser[user]; ok {
		s.unlink(n)
	}
}

func (s *SkipList) entry(n *node, rank int) Entry {
	return Entry{Rank: rank, User: n.user, TotalXP: n.xp, Level: core.LevelFromXP(n.xp)}
}

// TopN returns the n highest ranked users.
func (s *SkipList) TopN(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	out := make([]Entry, 0, min(n, len(s.byUser)))
	for cur := s.head.next[0]; cur != nil && len(out) < n; cur = cur.next[0] {
		out = append(out, s.entry(cur, len(out)+1))
	}
	return out
}

// Get returns a user's entry. Finding the rank walks the bottom level.
func (s *SkipList) Get(user core.UserID) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	target, ok := s.byUser[user]
	if !ok {
		return Entry{}, false
	}
	rank := 1
	for cur := s.head.next[0]; cur != nil && cur != target; cur = cur.next[0] {
		rank++
	}
	return s.entry(target, rank), true
}

func (s *SkipList) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser)
}

var _ Board = (*SkipList)(nil)
