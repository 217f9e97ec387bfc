package telegram

import (
	"strconv"
	"strings"

	"github.com/aliskhannn/holy-trivia-bot/internal/domain/entities"
	"github.com/aliskhannn/holy-trivia-bot/internal/infra/redis"
)

// Callback action constants.
const (
	actionPlay        = "play"
	actionAnswer      = "ans"
	actionControl     = "ctl"
	actionReset       = "reset"
	actionLeaderboard = "lb"
	actionMenu        = "menu"
)

// Quiz control sub-actions.
const (
	controlPause  = "pause"
	controlResume = "resume"
	controlEnd    = "end"
)

const (
	resetConfirm = "confirm"
	resetCancel  = "cancel"
)

// Menu sub-actions.
const (
	menuStats        = "stats"
	menuStreak       = "streak"
	menuAchievements = "achievements"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// buildPlayCallback opens the category picker when category is empty and
// starts a quiz otherwise.
func buildPlayCallback(category entities.Category) string {
	if category == "" {
		return actionPlay
	}
	return callbackData{Action: actionPlay, Params: []string{string(category)}}.encode()
}

// buildAnswerCallback tags an answer button with the session generation and
// the question index so buttons of older questions are ignored.
func buildAnswerCallback(generation uint64, index, answer int) string {
	return callbackData{
		Action: actionAnswer,
		Params: []string{
			strconv.FormatUint(generation, 10),
			strconv.Itoa(index),
			strconv.Itoa(answer),
		},
	}.encode()
}

func buildControlCallback(sub string) string {
	return callbackData{Action: actionControl, Params: []string{sub}}.encode()
}

func buildResetCallback(sub string) string {
	return callbackData{Action: actionReset, Params: []string{sub}}.encode()
}

func buildLeaderboardCallback(board redis.Board) string {
	return callbackData{Action: actionLeaderboard, Params: []string{string(board)}}.encode()
}

func buildMenuCallback(sub string) string {
	return callbackData{Action: actionMenu, Params: []string{sub}}.encode()
}

type answerData struct {
	Generation uint64
	Index      int
	Answer     int
}

func (cd callbackData) answer() (answerData, bool) {
	if cd.Action != actionAnswer || len(cd.Params) != 3 {
		return answerData{}, false
	}
	gen, err1 := strconv.ParseUint(cd.Params[0], 10, 64)
	idx, err2 := strconv.Atoi(cd.Params[1])
	ans, err3 := strconv.Atoi(cd.Params[2])
	if err1 != nil || err2 != nil || err3 != nil || idx < 0 || ans < 0 || ans >= entities.AnswersPerQuestion {
		return answerData{}, false
	}
	return answerData{Generation: gen, Index: idx, Answer: ans}, true
}

func (cd callbackData) category() (entities.Category, bool) {
	if cd.Action != actionPlay || len(cd.Params) != 1 {
		return "", false
	}
	return entities.ParseCategory(cd.Params[0])
}

func (cd callbackData) param() string {
	if len(cd.Params) == 0 {
		return ""
	}
	return cd.Params[0]
}
