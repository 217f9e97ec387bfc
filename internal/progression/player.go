package progression

import (
	"time"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
)

// AwardXP adds non-negative XP and keeps the cached level in sync.
// It reports whether the player gained a level.
func AwardXP(p *entities.Player, xp int) bool {
	if xp <= 0 {
		return false
	}
	before := p.Level
	p.TotalXP += xp
	p.Level = max(p.Level, LevelFromXP(p.TotalXP))
	return p.Level > before
}

// SessionOutcome summarizes what applying a session changed.
type SessionOutcome struct {
	XPBefore    int
	LevelBefore int
	LevelAfter  int
	LeveledUp   bool
	Streak      int
}

// ApplySessionResult folds a completed session into the player in a fixed
// order: category stats, session XP, level, day streak.
func ApplySessionResult(p *entities.Player, r *entities.SessionResult, now time.Time) SessionOutcome {
	out := SessionOutcome{XPBefore: p.TotalXP, LevelBefore: p.Level}

	if p.CategoryStats == nil {
		p.CategoryStats = make(map[entities.Category]entities.CategoryStat)
	}
	stat := p.CategoryStats[r.Category]
	stat.Update(r, now)
	p.CategoryStats[r.Category] = stat

	out.LeveledUp = AwardXP(p, r.XPEarned)
	out.LevelAfter = p.Level

	p.UpdateStreak(true, now)
	out.Streak = p.CurrentStreak

	p.UpdatedAt = now
	return out
}

// ResetProgress returns the player to first-launch progression, keeping identity.
func ResetProgress(p *entities.Player, now time.Time) {
	p.TotalXP = 0
	p.Level = 1
	p.CurrentStreak = 0
	p.LongestStreak = 0
	p.LastPlayedDate = nil
	p.LastRemindedAt = nil
	p.Achievements = make(map[string]struct{})
	p.CategoryStats = make(map[entities.Category]entities.CategoryStat)
	p.UpdatedAt = now
}
