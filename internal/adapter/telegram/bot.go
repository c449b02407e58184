package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"sixhats/internal/config"
	"sixhats/internal/domain"
	"sixhats/internal/usecase/chat"
)

const helpText = `Ask a question and six hats answer in turn: White (facts), Red (feelings), ` +
	`Black (risks), Yellow (benefits), Green (ideas) and Blue (synthesis).

/history shows the conversation so far
/reset clears it`

type Session interface {
	Submit(ctx context.Context, text string) (chat.TurnResult, error)
	Reset()
	Snapshot() domain.SessionState
}

// sender is the part of the Bot API that replies go through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	api     *tgbotapi.BotAPI
	out     sender
	cfg     config.Config
	session Session
	logger  *zap.Logger
}

func NewBot(cfg config.Config, session Session, logger *zap.Logger) (*Bot, error) {
	if cfg.TelegramToken == "" {
		return nil, errors.New("telegram token is required")
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		api:     api,
		out:     api,
		cfg:     cfg,
		session: session,
		logger:  logger,
	}, nil
}

// Run handles updates one at a time until ctx is done; the conversation is
// a single session, so turns never overlap.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()
	b.logger.Info("telegram bot started", zap.String("user", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram updates channel closed")
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !isAllowedUser(msg.From.ID, b.cfg) {
		b.sendText(msg.Chat.ID, msg.MessageID, "access denied")
		return
	}

	switch msg.Command() {
	case "start", "help":
		b.sendText(msg.Chat.ID, msg.MessageID, helpText)
		return
	case "reset":
		b.session.Reset()
		b.sendText(msg.Chat.ID, msg.MessageID, "conversation cleared")
		return
	case "history":
		state := b.session.Snapshot()
		if len(state.Transcript) == 0 {
			b.sendText(msg.Chat.ID, msg.MessageID, "no conversation yet")
			return
		}
		b.sendText(msg.Chat.ID, msg.MessageID, formatTranscript(state.Transcript))
		return
	}

	b.sendChatAction(msg.Chat.ID)
	res, err := b.session.Submit(ctx, msg.Text)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyInput) {
			b.sendText(msg.Chat.ID, msg.MessageID, "i need a question to work with")
			return
		}
		if errors.Is(err, chat.ErrSessionReset) {
			b.sendText(msg.Chat.ID, msg.MessageID, "conversation was reset while the hats were talking")
			return
		}
		b.logger.Error("turn failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		b.sendText(msg.Chat.ID, msg.MessageID, "the hats could not finish, try again")
		return
	}

	turn := res.Turn()
	if len(turn) > 0 {
		turn = turn[1:]
	}
	for _, m := range turn {
		b.sendText(msg.Chat.ID, msg.MessageID, formatEntry(m))
	}
}

func (b *Bot) sendText(chatID int64, replyTo int, text string) {
	const chunkSize = 2048

	chunks := splitText(text, chunkSize)
	for idx, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if idx == 0 {
			msg.ReplyToMessageID = replyTo
		}
		if _, err := b.out.Send(msg); err != nil {
			// model output often is not valid Telegram markdown
			msg.ParseMode = ""
			if _, err := b.out.Send(msg); err != nil {
				b.logger.Warn("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
			}
		}
	}
}

func (b *Bot) sendChatAction(chatID int64) {
	if _, err := b.out.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("failed to send chat action", zap.Error(err))
	}
}

func formatEntry(m domain.Message) string {
	return fmt.Sprintf("*%s*: %s", m.Speaker(), m.Content)
}

func formatTranscript(transcript []domain.Message) string {
	lines := make([]string, 0, len(transcript))
	for _, m := range transcript {
		lines = append(lines, formatEntry(m))
	}
	return strings.Join(lines, "\n\n")
}

func isAllowedUser(userID int64, cfg config.Config) bool {
	for _, id := range cfg.AdminUserIDs {
		if id == userID {
			return true
		}
	}

	if len(cfg.AllowedUserIDs) == 0 {
		return true
	}

	for _, id := range cfg.AllowedUserIDs {
		if id == userID {
			return true
		}
	}

	return false
}

func splitText(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/chunkSize+1)
	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks
}
