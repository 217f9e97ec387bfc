// Package achievement unlocks catalog achievements after a session and
// awards their XP.
package achievement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/progression"
)

// PlayerStore persists newly unlocked achievements together with XP and
// level. It must not touch any other player column.
type PlayerStore interface {
	SaveAchievements(ctx context.Context, playerID int64, ids []string, totalXP, level int, at time.Time) error
}

// Unlocks is the outcome of one evaluation pass.
type Unlocks struct {
	Achievements []entities.Achievement // catalog order, UnlockedAt set
	XPAwarded    int
	LevelBefore  int
	LevelAfter   int
}

func (u Unlocks) LeveledUp() bool {
	return u.LevelAfter > u.LevelBefore
}

// Manager remembers which achievements each player already holds so the
// catalog is only evaluated for the rest.
type Manager struct {
	mu       sync.Mutex
	store    PlayerStore
	catalog  []entities.Achievement
	clock    func() time.Time
	unlocked map[int64]map[string]struct{}
}

// NewManager creates a manager over the built-in catalog.
func NewManager(store PlayerStore, clock func() time.Time) *Manager {
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		store:    store,
		catalog:  entities.Achievements,
		clock:    clock,
		unlocked: make(map[int64]map[string]struct{}),
	}
}

// Load replaces the cached unlocked set with the one stored on the player.
func (m *Manager) Load(p *entities.Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadLocked(p)
}

// Forget drops the cached set, e.g. after a progress reset.
func (m *Manager) Forget(playerID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.unlocked, playerID)
}

func (m *Manager) loadLocked(p *entities.Player) map[string]struct{} {
	set := make(map[string]struct{}, len(p.Achievements))
	for id := range p.Achievements {
		set[id] = struct{}{}
	}
	m.unlocked[p.ID] = set
	return set
}

// Check evaluates every locked achievement against p and the optional
// session that just finished. Requirements see the player as it was when
// the pass began, so XP awarded here cannot unlock a level achievement in
// the same pass. The player is persisted once, and only if something
// unlocked.
func (m *Manager) Check(ctx context.Context, p *entities.Player, after *entities.SessionResult) (Unlocks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.unlocked[p.ID]
	if !ok {
		set = m.loadLocked(p)
	}

	out := Unlocks{LevelBefore: p.Level, LevelAfter: p.Level}
	snapshot := *p
	now := m.clock()

	for _, a := range m.catalog {
		if _, done := set[a.ID]; done || p.HasAchievement(a.ID) {
			continue
		}
		if !progression.Evaluate(a.Requirement, &snapshot, after) {
			continue
		}
		unlockedAt := now
		a.UnlockedAt = &unlockedAt
		out.Achievements = append(out.Achievements, a)
		out.XPAwarded += a.XPReward
	}

	if len(out.Achievements) == 0 {
		return out, nil
	}

	xpBefore, levelBefore := p.TotalXP, p.Level
	ids := make([]string, 0, len(out.Achievements))
	for _, a := range out.Achievements {
		p.AddAchievement(a.ID)
		ids = append(ids, a.ID)
	}
	progression.AwardXP(p, out.XPAwarded)

	if err := m.store.SaveAchievements(ctx, p.ID, ids, p.TotalXP, p.Level, now); err != nil {
		for _, a := range out.Achievements {
			delete(p.Achievements, a.ID)
		}
		p.TotalXP, p.Level = xpBefore, levelBefore
		return Unlocks{LevelBefore: levelBefore, LevelAfter: levelBefore}, fmt.Errorf("save achievements: %w", err)
	}

	for _, a := range out.Achievements {
		set[a.ID] = struct{}{}
	}
	out.LevelAfter = p.Level
	return out, nil
}

// Status is one catalog entry as seen by a player.
type Status struct {
	Achievement entities.Achievement
	Unlocked    bool
	Progress    progression.AchievementProgress
}

// Statuses lists the whole catalog with the player's progress on each entry.
func (m *Manager) Statuses(p *entities.Player) []Status {
	out := make([]Status, 0, len(m.catalog))
	for _, a := range m.catalog {
		s := Status{Achievement: a, Unlocked: p.HasAchievement(a.ID)}
		if s.Unlocked {
			s.Progress = progression.AchievementProgress{Current: 1, Target: 1, Percentage: 100}
		} else {
			s.Progress = progression.Progress(a.Requirement, p)
		}
		out = append(out, s)
	}
	return out
}
