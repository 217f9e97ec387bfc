package entities

import "time"

// RequirementKind selects which rule an achievement requirement applies.
type RequirementKind string

const (
	RequirementStreak            RequirementKind = "streak"
	RequirementPerfectScores     RequirementKind = "perfect_scores"
	RequirementPlayAllCategories RequirementKind = "play_all_categories"
	RequirementCategoryMastery   RequirementKind = "category_mastery"
	RequirementReachLevel        RequirementKind = "reach_level"
	RequirementQuizUnderTime     RequirementKind = "complete_quiz_under_time"
	RequirementMaintainAccuracy  RequirementKind = "maintain_accuracy"
	RequirementAnswerQuestions   RequirementKind = "answer_questions"
)

// Requirement is the declarative unlock rule of an achievement.
// Only the fields relevant to Kind are set.
type Requirement struct {
	Kind     RequirementKind
	Count    int      // days, perfect games, level, seconds, games played or questions
	Percent  int      // maintain_accuracy only
	Games    int      // maintain_accuracy only
	Category Category // category_mastery only
}

func StreakDays(days int) Requirement {
	return Requirement{Kind: RequirementStreak, Count: days}
}

func PerfectScores(count int) Requirement {
	return Requirement{Kind: RequirementPerfectScores, Count: count}
}

func PlayAllCategories() Requirement {
	return Requirement{Kind: RequirementPlayAllCategories}
}

func CategoryMastery(c Category, gamesPlayed int) Requirement {
	return Requirement{Kind: RequirementCategoryMastery, Category: c, Count: gamesPlayed}
}

func ReachLevel(level int) Requirement {
	return Requirement{Kind: RequirementReachLevel, Count: level}
}

func CompleteQuizUnderTime(seconds int) Requirement {
	return Requirement{Kind: RequirementQuizUnderTime, Count: seconds}
}

func MaintainAccuracy(percent, games int) Requirement {
	return Requirement{Kind: RequirementMaintainAccuracy, Percent: percent, Games: games}
}

func AnswerQuestions(count int) Requirement {
	return Requirement{Kind: RequirementAnswerQuestions, Count: count}
}

// Achievement is a one-time milestone with a fixed XP reward.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	XPReward    int
	Requirement Requirement
	UnlockedAt  *time.Time // set only on freshly unlocked copies
}

// IsUnlocked reports whether this copy carries an unlock timestamp.
func (a Achievement) IsUnlocked() bool {
	return a.UnlockedAt != nil
}

// Achievements is the static catalog in evaluation order.
var Achievements = []Achievement{
	{
		ID:          "streak_7",
		Name:        "Faithful Week",
		Description: "Play 7 days in a row",
		Icon:        "🔥",
		XPReward:    100,
		Requirement: StreakDays(7),
	},
	{
		ID:          "streak_30",
		Name:        "Steadfast",
		Description: "Play 30 days in a row",
		Icon:        "🔥",
		XPReward:    500,
		Requirement: StreakDays(30),
	},
	{
		ID:          "first_perfect",
		Name:        "Flawless",
		Description: "Finish a quiz without a single mistake",
		Icon:        "⭐",
		XPReward:    50,
		Requirement: PerfectScores(1),
	},
	{
		ID:          "perfect_master",
		Name:        "Perfect Master",
		Description: "Finish 10 quizzes without a mistake",
		Icon:        "🌟",
		XPReward:    200,
		Requirement: PerfectScores(10),
	},
	{
		ID:          "category_explorer",
		Name:        "Explorer",
		Description: "Play a quiz in every category",
		Icon:        "🧭",
		XPReward:    100,
		Requirement: PlayAllCategories(),
	},
	{
		ID:          "old_testament_master",
		Name:        "Old Testament Scholar",
		Description: "Play 50 Old Testament quizzes",
		Icon:        "📜",
		XPReward:    150,
		Requirement: CategoryMastery(CategoryOldTestament, 50),
	},
	{
		ID:          "level_10",
		Name:        "Disciple",
		Description: "Reach level 10",
		Icon:        "🎓",
		XPReward:    200,
		Requirement: ReachLevel(10),
	},
	{
		ID:          "level_25",
		Name:        "Elder",
		Description: "Reach level 25",
		Icon:        "👑",
		XPReward:    500,
		Requirement: ReachLevel(25),
	},
	{
		ID:          "speed_demon",
		Name:        "Swift",
		Description: "Finish a quiz in under 2 minutes",
		Icon:        "⚡",
		XPReward:    100,
		Requirement: CompleteQuizUnderTime(120),
	},
	{
		ID:          "sharpshooter",
		Name:        "Sharpshooter",
		Description: "Keep 90% accuracy over at least 10 quizzes",
		Icon:        "🎯",
		XPReward:    150,
		Requirement: MaintainAccuracy(90, 10),
	},
	{
		ID:          "question_100",
		Name:        "Curious",
		Description: "Answer 100 questions",
		Icon:        "❔",
		XPReward:    50,
		Requirement: AnswerQuestions(100),
	},
	{
		ID:          "question_1000",
		Name:        "Well Versed",
		Description: "Answer 1000 questions",
		Icon:        "💎",
		XPReward:    300,
		Requirement: AnswerQuestions(1000),
	},
}

// AchievementByID looks up a catalog entry.
func AchievementByID(id string) (Achievement, bool) {
	for _, a := range Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}
