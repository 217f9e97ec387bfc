// Package progression holds the pure gamification rules: XP and levels,
// day streaks and achievement requirements. Nothing here performs I/O.
package progression

import (
	"math"
	"time"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
)

const (
	baseXPPerCorrectAnswer = 10
	streakBonusIncrement   = 20
	perfectScoreBonus      = 100
	speedBonusThreshold    = 10 * time.Second
	speedBonusXP           = 5
	xpPerLevelSquared      = 75
)

// streakBonusSteps are the in-session streak lengths that each add streakBonusIncrement.
var streakBonusSteps = []int{5, 10, 15}

// XPBreakdown itemizes the XP earned by one session.
type XPBreakdown struct {
	BaseXP        int
	StreakBonus   int
	PerfectBonus  int
	SpeedBonus    int
	CategoryBonus int
}

// Total is the sum of every component.
func (b XPBreakdown) Total() int {
	return b.BaseXP + b.BonusXP()
}

// BonusXP is everything except the base XP.
func (b XPBreakdown) BonusXP() int {
	return b.StreakBonus + b.PerfectBonus + b.SpeedBonus + b.CategoryBonus
}

func (b XPBreakdown) HasAnyBonus() bool {
	return b.BonusXP() > 0
}

// XPInput carries the session figures the calculator needs.
type XPInput struct {
	CorrectAnswers         int
	TotalQuestions         int
	AverageTimePerQuestion time.Duration
	CurrentStreak          int
	Category               entities.Category
	Difficulty             entities.Difficulty // empty means medium
}

// CalculateXP builds the XP breakdown for a finished session.
func CalculateXP(in XPInput) XPBreakdown {
	var b XPBreakdown

	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = entities.DifficultyMedium
	}
	b.BaseXP = int(float64(in.CorrectAnswers*baseXPPerCorrectAnswer) * difficulty.XPMultiplier())

	b.StreakBonus = StreakBonus(in.CurrentStreak)

	if in.CorrectAnswers == in.TotalQuestions {
		b.PerfectBonus = perfectScoreBonus
	}

	if in.AverageTimePerQuestion < speedBonusThreshold && in.CorrectAnswers > 0 {
		b.SpeedBonus = in.CorrectAnswers * speedBonusXP
	}

	// Reserved for per-category events.
	b.CategoryBonus = 0

	return b
}

// StreakBonus is 20 XP for every step of 5, 10 and 15 consecutive correct answers.
func StreakBonus(streak int) int {
	bonus := 0
	for _, step := range streakBonusSteps {
		if streak >= step {
			bonus += streakBonusIncrement
		}
	}
	return bonus
}

// LevelFromXP maps total XP to a level: floor(sqrt(xp/75)), never below 1.
func LevelFromXP(totalXP int) int {
	if totalXP <= 0 {
		return 1
	}
	level := int(math.Sqrt(float64(totalXP) / xpPerLevelSquared))

	// Guard against float rounding right below a perfect square.
	for XPRequiredForLevel(level+1) <= totalXP {
		level++
	}
	for level > 1 && XPRequiredForLevel(level) > totalXP {
		level--
	}

	return max(1, level)
}

// XPRequiredForLevel is level² × 75.
func XPRequiredForLevel(level int) int {
	return level * level * xpPerLevelSquared
}

// XPRequiredBetweenLevels is the XP span from level to level+1.
func XPRequiredBetweenLevels(level int) int {
	return XPRequiredForLevel(level+1) - XPRequiredForLevel(level)
}

// LevelProgress describes where a player stands inside the current level.
type LevelProgress struct {
	Level            int
	XPForCurrent     int
	XPForNext        int
	XPIntoLevel      int
	XPNeededForNext  int
	FractionComplete float64
}

// ProgressForXP derives the level progress shown next to the XP bar.
func ProgressForXP(totalXP int) LevelProgress {
	level := LevelFromXP(totalXP)
	current := XPRequiredForLevel(level)
	next := XPRequiredForLevel(level + 1)

	p := LevelProgress{
		Level:           level,
		XPForCurrent:    current,
		XPForNext:       next,
		XPIntoLevel:     max(0, totalXP-current), // level 1 starts below its own threshold
		XPNeededForNext: next - totalXP,
	}
	if span := next - current; span > 0 {
		p.FractionComplete = float64(p.XPIntoLevel) / float64(span)
	}
	return p
}
