package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/redis"
	"github.com/aliskhannn/holy-trivia-bot/internal/progression"
)

var errStore = errors.New("store unavailable")

var testLogger = zap.NewNop()

// memStore is an in-memory player and session store.
type memStore struct {
	mu       sync.Mutex
	players  map[int64]*entities.Player
	sessions []entities.SessionResult
	reminded map[int64]time.Time
	failNext error

	streakResets int
}

func newMemStore() *memStore {
	return &memStore{
		players:  make(map[int64]*entities.Player),
		reminded: make(map[int64]time.Time),
	}
}

func (m *memStore) put(p *entities.Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = p
}

func (m *memStore) Create(_ context.Context, p *entities.Player) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[p.ID]; ok {
		return false, nil
	}
	m.players[p.ID] = p
	return true, nil
}

func (m *memStore) Get(_ context.Context, id int64) (*entities.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return nil, repository.ErrPlayerNotFound
	}
	return p, nil
}

func (m *memStore) Update(_ context.Context, p *entities.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	m.players[p.ID] = p
	return nil
}

func (m *memStore) SaveAchievements(_ context.Context, id int64, ids []string, totalXP, level int, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	p, ok := m.players[id]
	if !ok {
		return repository.ErrPlayerNotFound
	}
	for _, a := range ids {
		p.AddAchievement(a)
	}
	p.TotalXP, p.Level = totalXP, level
	return nil
}

func (m *memStore) SetTimezone(_ context.Context, id int64, tz string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return repository.ErrPlayerNotFound
	}
	p.Timezone = tz
	return nil
}

func (m *memStore) ListStreakCandidates(_ context.Context, since time.Time) ([]*entities.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.Player
	for _, p := range m.players {
		if p.CurrentStreak == 0 || p.LastPlayedDate == nil {
			continue
		}
		if p.LastRemindedAt != nil && !p.LastRemindedAt.Before(since) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) MarkReminded(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminded[id] = at
	if p, ok := m.players[id]; ok {
		stamp := at
		p.LastRemindedAt = &stamp
	}
	return nil
}

func (m *memStore) ResetStreak(_ context.Context, id int64, lastPlayed time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streakResets++
	p, ok := m.players[id]
	if ok && p.LastPlayedDate != nil && p.LastPlayedDate.Equal(lastPlayed) {
		p.CurrentStreak = 0
	}
	return nil
}

func (m *memStore) TopByXP(_ context.Context, limit int) ([]*entities.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entities.Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalXP > out[j].TotalXP })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListByPlayer(_ context.Context, id int64, limit int) ([]entities.SessionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.SessionResult
	for i := len(m.sessions) - 1; i >= 0; i-- {
		if m.sessions[i].PlayerID == id {
			out = append(out, m.sessions[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListByCategory(ctx context.Context, id int64, c entities.Category) ([]entities.SessionResult, error) {
	all, _ := m.ListByPlayer(ctx, id, 0)
	var out []entities.SessionResult
	for _, s := range all {
		if s.Category == c {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListBetween(ctx context.Context, id int64, from, to time.Time) ([]entities.SessionResult, error) {
	all, _ := m.ListByPlayer(ctx, id, 0)
	var out []entities.SessionResult
	for _, s := range all {
		if !s.Date.Before(from) && s.Date.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) Stats(ctx context.Context, id int64, loc *time.Location) (entities.SessionStats, error) {
	all, _ := m.ListByPlayer(ctx, id, 0)
	return progression.SessionStatsFromHistory(all, loc), nil
}

// RecordSession mirrors TxRecorder without a database.
func (m *memStore) RecordSession(
	_ context.Context, r *entities.SessionResult, now time.Time,
) (*entities.Player, progression.SessionOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext; err != nil {
		m.failNext = nil
		return nil, progression.SessionOutcome{}, err
	}
	p, ok := m.players[r.PlayerID]
	if !ok {
		return nil, progression.SessionOutcome{}, repository.ErrPlayerNotFound
	}
	m.sessions = append(m.sessions, *r)
	return p, progression.ApplySessionResult(p, r, now), nil
}

func (m *memStore) ResetPlayer(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return repository.ErrPlayerNotFound
	}
	kept := m.sessions[:0]
	for _, s := range m.sessions {
		if s.PlayerID != id {
			kept = append(kept, s)
		}
	}
	m.sessions = kept
	progression.ResetProgress(p, time.Now())
	return nil
}

type fakeBoard struct {
	mu      sync.Mutex
	xp      map[int64]int
	err     error
	removed []int64
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{xp: make(map[int64]int)}
}

func (b *fakeBoard) Upsert(_ context.Context, p *entities.Player) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.xp[p.ID] = p.TotalXP
	return nil
}

func (b *fakeBoard) Remove(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.xp, id)
	b.removed = append(b.removed, id)
	return nil
}

func (b *fakeBoard) sorted() []redis.Entry {
	entries := make([]redis.Entry, 0, len(b.xp))
	for id, xp := range b.xp {
		entries = append(entries, redis.Entry{PlayerID: id, Score: int64(xp)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	for i := range entries {
		entries[i].Rank = int64(i) + 1
	}
	return entries
}

func (b *fakeBoard) Top(_ context.Context, _ redis.Board, limit int64) ([]redis.Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.sorted()
	if int64(len(entries)) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (b *fakeBoard) Rank(_ context.Context, _ redis.Board, id int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.sorted() {
		if e.PlayerID == id {
			return e.Rank, nil
		}
	}
	return 0, nil
}

func (b *fakeBoard) Size(_ context.Context, _ redis.Board) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.xp)), nil
}

type sentReminder struct {
	chatID  int64
	payload StreakReminder
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentReminder
	err  error
}

func (n *fakeNotifier) SendStreakReminder(chatID int64, payload StreakReminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentReminder{chatID: chatID, payload: payload})
	return nil
}

func playerAt(id int64, lastPlayed time.Time, streak int) *entities.Player {
	p := entities.NewPlayer(id, id*10, "player")
	p.CurrentStreak = streak
	p.LongestStreak = streak
	p.LastPlayedDate = &lastPlayed
	return p
}
