// Package telegram exposes the question-answering pipeline over a
// Telegram bot: every text message is treated as a question against the
// indexed CVs, and the bot replies with one message per candidate.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"cvrag/internal/core"
	"cvrag/internal/logger"
)

// Answerer is the part of the pipeline the bot needs.
type Answerer interface {
	Ask(ctx context.Context, question string) ([]core.CandidateAnswer, error)
}

// Bot wraps the Telegram transport around an Answerer.
type Bot struct {
	bot      *bot.Bot
	answerer Answerer
}

// NewBot creates a bot instance for the given token.
func NewBot(token string, answerer Answerer) (*Bot, error) {
	b := &Bot{answerer: answerer}

	botAPI, err := bot.New(token, bot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	b.bot = botAPI
	return b, nil
}

// Start runs the update loop until ctx is canceled.
func (b *Bot) Start(ctx context.Context) {
	logger.Info("Telegram bot started")
	b.bot.Start(ctx)
}

func (b *Bot) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	msg := update.Message

	if msg.Text[0] == '/' {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleQuestion(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, message *models.Message) {
	command := strings.TrimPrefix(strings.Split(message.Text, " ")[0], "/")
	chatID := message.Chat.ID
	logger.Info("Chat[%d]: received command /%s", chatID, command)

	switch command {
	case "start":
		text := "Hello! Ask me anything about the indexed CVs."
		text += "\n\nCommands:"
		text += "\n/help - Show this help message"
		b.sendText(ctx, chatID, text)
	case "help":
		text := "Send any question as plain text, e.g. \"Who has Kubernetes experience?\"."
		text += "\nI answer once per matching candidate, using only what their CV says."
		b.sendText(ctx, chatID, text)
	default:
		b.sendText(ctx, chatID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleQuestion(ctx context.Context, message *models.Message) {
	chatID := message.Chat.ID
	logger.Info("Chat[%d]: received question", chatID)

	typingDone := make(chan struct{})
	go b.sendContinuousTypingAction(ctx, chatID, typingDone)
	defer close(typingDone)

	answers, err := b.answerer.Ask(ctx, message.Text)
	if err != nil {
		logger.Error("Chat[%d]: answering failed: %v", chatID, err)
		b.sendText(ctx, chatID, "Sorry, I could not process your question.")
		return
	}

	for _, a := range answers {
		if a.Err != nil {
			logger.Error("Chat[%d]: candidate %s failed: %v", chatID, a.DocID, a.Err)
			b.sendText(ctx, chatID, fmt.Sprintf("%s: answer unavailable", a.DocID))
			continue
		}
		text := a.Answer
		if a.DocID != "" {
			text = fmt.Sprintf("%s:\n%s", a.DocID, a.Answer)
		}
		b.sendText(ctx, chatID, text)
	}
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string) {
	_, err := b.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		logger.Error("Chat[%d]: failed to send message: %v", chatID, err)
	}
}

// sendContinuousTypingAction keeps the typing indicator alive until done
// closes. Telegram's typing status expires after about five seconds.
func (b *Bot) sendContinuousTypingAction(ctx context.Context, chatID int64, done chan struct{}) {
	ticker := time.NewTicker(4 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.bot.SendChatAction(ctx, &bot.SendChatActionParams{
				ChatID: chatID,
				Action: "typing",
			})
		}
	}
}
