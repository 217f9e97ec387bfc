package progression

import (
	"fmt"
	"time"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
)

// Evaluate reports whether the player meets the requirement.
// recent is the session that just finished and may be nil.
func Evaluate(req entities.Requirement, p *entities.Player, recent *entities.SessionResult) bool {
	switch req.Kind {
	case entities.RequirementStreak:
		return p.CurrentStreak >= req.Count

	case entities.RequirementPerfectScores:
		return p.TotalPerfectGames() >= req.Count

	case entities.RequirementPlayAllCategories:
		return playedCategories(p) == len(entities.AllCategories)

	case entities.RequirementCategoryMastery:
		return p.CategoryStats[req.Category].GamesPlayed >= req.Count

	case entities.RequirementReachLevel:
		return p.Level >= req.Count

	case entities.RequirementQuizUnderTime:
		if recent == nil {
			return false
		}
		return recent.TimeElapsed <= time.Duration(req.Count)*time.Second

	case entities.RequirementMaintainAccuracy:
		return meetsAccuracy(req, p)

	case entities.RequirementAnswerQuestions:
		return p.TotalQuestionsAnswered() >= req.Count

	default:
		return false
	}
}

func playedCategories(p *entities.Player) int {
	n := 0
	for _, c := range entities.AllCategories {
		if _, ok := p.CategoryStats[c]; ok {
			n++
		}
	}
	return n
}

func meetsAccuracy(req entities.Requirement, p *entities.Player) bool {
	if p.TotalGamesPlayed() < req.Games {
		return false
	}
	return p.OverallAccuracy()*100 >= float64(req.Percent)
}

// AchievementProgress is the numerator/denominator shown under a locked achievement.
type AchievementProgress struct {
	Current    int
	Target     int
	Percentage float64 // 0..100
}

func (p AchievementProgress) IsComplete() bool {
	return p.Percentage >= 100
}

func (p AchievementProgress) Text() string {
	return fmt.Sprintf("%d / %d", p.Current, p.Target)
}

// Progress mirrors Evaluate as a percentage. Time and accuracy
// requirements are binary and report only 0 or 100.
func Progress(req entities.Requirement, p *entities.Player) AchievementProgress {
	switch req.Kind {
	case entities.RequirementStreak:
		return ratio(p.CurrentStreak, req.Count)

	case entities.RequirementPerfectScores:
		return ratio(p.TotalPerfectGames(), req.Count)

	case entities.RequirementPlayAllCategories:
		return ratio(playedCategories(p), len(entities.AllCategories))

	case entities.RequirementCategoryMastery:
		return ratio(p.CategoryStats[req.Category].GamesPlayed, req.Count)

	case entities.RequirementReachLevel:
		return ratio(p.Level, req.Count)

	case entities.RequirementAnswerQuestions:
		return ratio(p.TotalQuestionsAnswered(), req.Count)

	case entities.RequirementMaintainAccuracy:
		if meetsAccuracy(req, p) {
			return AchievementProgress{Current: 1, Target: 1, Percentage: 100}
		}
		return AchievementProgress{Current: 0, Target: 1}

	default:
		// Quiz-under-time only resolves at the end of a session.
		return AchievementProgress{Current: 0, Target: 1}
	}
}

func ratio(current, target int) AchievementProgress {
	if target <= 0 {
		return AchievementProgress{Current: current, Target: target, Percentage: 100}
	}
	pct := min(100, float64(current)/float64(target)*100)
	return AchievementProgress{Current: current, Target: target, Percentage: pct}
}
