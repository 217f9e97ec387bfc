package telegram

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI the handler uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type Handler struct {
	bot                Sender
	logger             *zap.Logger
	playerService      PlayerService
	gameService        GameService
	statsService       StatsService
	leaderboardService LeaderboardService
	questions          QuestionCatalog
	questionTimeout    time.Duration

	mu      sync.Mutex
	quizzes map[int64]*quizView // by chat
}

func NewHandler(
	bot Sender,
	logger *zap.Logger,
	playerService PlayerService,
	gameService GameService,
	statsService StatsService,
	leaderboardService LeaderboardService,
	questions QuestionCatalog,
	questionTimeout time.Duration,
) *Handler {
	return &Handler{
		bot:                bot,
		logger:             logger,
		playerService:      playerService,
		gameService:        gameService,
		statsService:       statsService,
		leaderboardService: leaderboardService,
		questions:          questions,
		questionTimeout:    questionTimeout,
		quizzes:            make(map[int64]*quizView),
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	from := update.Message.From
	chatID := update.Message.Chat.ID

	player, created, err := h.playerService.EnsurePlayer(ctx, from.ID, chatID, displayName(from))
	if err != nil {
		h.logger.Error("failed to ensure player",
			zap.Int64("user_id", from.ID),
			zap.Error(err),
		)
		h.sendError(chatID, msgInternalError)
		return
	}

	if !update.Message.IsCommand() {
		h.send(newMessage(chatID, md(msgUnknownCommand)))
		return
	}

	switch update.Message.Command() {
	case "start":
		h.send(newMessage(chatID, welcomeMessage(displayName(from), created)))

	case "help":
		h.send(newMessage(chatID, helpMessage(h.questionTimeout)))

	case "play":
		_ = h.withErrorHandling(h.handlePlay())(ctx, chatID)

	case "stats":
		_ = h.withErrorHandling(h.handleStats(player.ID))(ctx, chatID)

	case "streak":
		_ = h.withErrorHandling(h.handleStreak(player.ID))(ctx, chatID)

	case "achievements":
		_ = h.withErrorHandling(h.handleAchievements(player.ID))(ctx, chatID)

	case "leaderboard":
		_ = h.withErrorHandling(h.handleLeaderboard(player.ID))(ctx, chatID)

	case "timezone":
		_ = h.withErrorHandling(h.handleTimezone(player.ID, update.Message.CommandArguments()))(ctx, chatID)

	case "reset":
		msg := newMessage(chatID, md(msgResetConfirm))
		msg.ReplyMarkup = buildResetKeyboard()
		h.send(msg)

	default:
		h.send(newMessage(chatID, md(msgUnknownCommand)))
	}
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return u.FirstName
}

func (h *Handler) sendError(chatID int64, text string) {
	h.send(newMessage(chatID, md(text)))
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
}

// answerCallback removes the button spinner, optionally with a toast.
func (h *Handler) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		h.logger.Debug("callback answer error", zap.Error(err))
	}
}
