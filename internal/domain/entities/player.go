package entities

import (
	"sort"
	"time"
)

// Player is the long-lived progression record of one Telegram user.
type Player struct {
	ID             int64  // Telegram user ID
	ChatID         int64  // private chat used for reminders
	Username       string // display name
	TotalXP        int
	Level          int
	CurrentStreak  int
	LongestStreak  int
	LastPlayedDate *time.Time // nullable, day granularity
	Achievements   map[string]struct{}
	CategoryStats  map[Category]CategoryStat
	Timezone       string     // IANA name or UTC offset, see ParseTimezoneLocation
	LastRemindedAt *time.Time // last streak reminder, nullable
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewPlayer creates a player with first-launch defaults.
func NewPlayer(id, chatID int64, username string) *Player {
	now := time.Now()
	return &Player{
		ID:            id,
		ChatID:        chatID,
		Username:      username,
		Level:         1,
		Achievements:  make(map[string]struct{}),
		CategoryStats: make(map[Category]CategoryStat),
		Timezone:      "UTC",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Location returns the player's calendar location, falling back to UTC.
func (p *Player) Location() *time.Location {
	loc, err := ParseTimezoneLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HasAchievement reports whether the achievement id is unlocked.
func (p *Player) HasAchievement(id string) bool {
	_, ok := p.Achievements[id]
	return ok
}

// AddAchievement marks the achievement id as unlocked.
func (p *Player) AddAchievement(id string) {
	if p.Achievements == nil {
		p.Achievements = make(map[string]struct{})
	}
	p.Achievements[id] = struct{}{}
}

// AchievementIDs returns unlocked ids in lexical order.
func (p *Player) AchievementIDs() []string {
	ids := make([]string, 0, len(p.Achievements))
	for id := range p.Achievements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p *Player) TotalGamesPlayed() int {
	total := 0
	for _, s := range p.CategoryStats {
		total += s.GamesPlayed
	}
	return total
}

func (p *Player) TotalQuestionsAnswered() int {
	total := 0
	for _, s := range p.CategoryStats {
		total += s.QuestionsAnswered
	}
	return total
}

func (p *Player) TotalCorrectAnswers() int {
	total := 0
	for _, s := range p.CategoryStats {
		total += s.CorrectAnswers
	}
	return total
}

func (p *Player) TotalPerfectGames() int {
	total := 0
	for _, s := range p.CategoryStats {
		total += s.PerfectGames
	}
	return total
}

// OverallAccuracy is correct answers over answered questions, in [0, 1].
func (p *Player) OverallAccuracy() float64 {
	answered := p.TotalQuestionsAnswered()
	if answered == 0 {
		return 0
	}
	return float64(p.TotalCorrectAnswers()) / float64(answered)
}

// FavoriteCategory returns the category with the most games played.
// Ties resolve to the earlier category in AllCategories.
func (p *Player) FavoriteCategory() (Category, bool) {
	var (
		best  Category
		games = -1
	)
	for _, c := range AllCategories {
		s, ok := p.CategoryStats[c]
		if !ok {
			continue
		}
		if s.GamesPlayed > games {
			best, games = c, s.GamesPlayed
		}
	}
	return best, games >= 0
}

// UpdateStreak advances the day streak after a completed session.
//
//  1. First ever session starts the streak at 1.
//  2. Another session on the same calendar day keeps the streak.
//  3. A session on the next calendar day extends the streak.
//  4. A longer gap restarts the streak at 1.
//
// lastPlayedDate is stamped with now whenever playedToday is set.
func (p *Player) UpdateStreak(playedToday bool, now time.Time) {
	if !playedToday {
		return
	}

	if p.LastPlayedDate == nil {
		p.CurrentStreak = 1
	} else {
		switch days := DaysBetween(*p.LastPlayedDate, now, p.Location()); {
		case days <= 0:
			// Already played today.
		case days == 1:
			p.CurrentStreak++
		default:
			p.CurrentStreak = 1
		}
	}

	p.LongestStreak = max(p.LongestStreak, p.CurrentStreak)

	stamp := now
	p.LastPlayedDate = &stamp
}

// CategoryStat aggregates a player's results in one category.
type CategoryStat struct {
	GamesPlayed       int
	QuestionsAnswered int
	CorrectAnswers    int
	TotalXPEarned     int
	BestScore         int
	PerfectGames      int
	AverageScore      float64 // running average of correct answers per game
	LastPlayed        *time.Time
}

// Accuracy is correct answers over answered questions, in [0, 1].
func (s CategoryStat) Accuracy() float64 {
	if s.QuestionsAnswered == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.QuestionsAnswered)
}

// Update folds a session result into the aggregate.
func (s *CategoryStat) Update(r *SessionResult, now time.Time) {
	s.GamesPlayed++
	s.QuestionsAnswered += r.TotalQuestions
	s.CorrectAnswers += r.CorrectCount
	s.TotalXPEarned += r.XPEarned
	s.BestScore = max(s.BestScore, r.CorrectCount)
	if r.IsPerfect() {
		s.PerfectGames++
	}

	total := s.AverageScore*float64(s.GamesPlayed-1) + float64(r.CorrectCount)
	s.AverageScore = total / float64(s.GamesPlayed)

	played := now
	s.LastPlayed = &played
}
