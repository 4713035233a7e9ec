package bot

import (
	"context"
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/kanjibot/internal/database"
	"github.com/example/kanjibot/internal/quiz"
	"github.com/example/kanjibot/internal/spaced_repetition"
	"github.com/example/kanjibot/internal/study"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// sender is the part of the Telegram API the bot talks to
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// learner is the per-user state of an ongoing review session
type learner struct {
	session  *study.Session
	deck     string // Empty means all decks
	quiz     bool   // Multiple choice instead of flashcards
	reviewed int
	limit    int
}

// Bot represents the Telegram bot application
type Bot struct {
	client    *tgbotapi.BotAPI
	api       sender
	db        *sqlx.DB
	users     *database.UserRepository
	items     *database.ItemRepository
	srs       *spaced_repetition.SRS
	questions *quiz.Builder
	config    *BotConfig

	mu       sync.Mutex
	learners map[int64]*learner
	admins   map[int64]bool
}

// NewBot connects to Telegram with the given token
func NewBot(token string, db *sqlx.DB, config *BotConfig) (*Bot, error) {
	if token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create bot")
	}
	log.Printf("Authorized on account %s", client.Self.UserName)

	b := newBot(client, db, config)
	b.client = client
	return b, nil
}

func newBot(api sender, db *sqlx.DB, config *BotConfig) *Bot {
	if config == nil {
		config = DefaultConfig()
	}
	srs := spaced_repetition.NewSRS()
	srs.Location = config.Location
	srs.Now = config.Now

	b := &Bot{
		api:       api,
		db:        db,
		users:     database.NewUserRepository(db),
		items:     database.NewItemRepository(db),
		srs:       srs,
		questions: quiz.NewBuilder(config.Rand, quiz.DefaultOptions),
		config:    config,
		learners:  make(map[int64]*learner),
		admins:    make(map[int64]bool),
	}
	for _, id := range config.AdminUserIDs {
		b.admins[id] = true
	}
	return b
}

// Start receives updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("bot is not connected")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.client.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// Stop stops receiving updates
func (b *Bot) Stop() {
	if b.client != nil {
		b.client.StopReceivingUpdates()
	}
	log.Println("Bot stopped")
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(userID int64, count int) error {
	// Private chats share the user's ID
	chatID := userID

	cardForm := "cards"
	if count == 1 {
		cardForm = "card"
	}
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("⏰ You have %d %s waiting for review.", count, cardForm))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "📖 Start review", CallbackData: callbackReview}}})

	_, err := b.api.Send(msg)
	if err != nil {
		log.Printf("Error sending reminder to user %d: %v", userID, err)
		return err
	}
	log.Printf("Sent reminder to user %d for %d cards", userID, count)
	return nil
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.admins[userID]
}

// learnerFor returns the session state of a user, creating it on first use
func (b *Bot) learnerFor(userID int64) *learner {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, ok := b.learners[userID]
	if !ok {
		store := database.NewReviewRepository(b.db, userID)
		l = &learner{session: study.NewSession(store, b.srs, b.config.UndoDepth)}
		b.learners[userID] = l
	}
	return l
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	var chatID int64

	switch {
	case update.Message != nil && update.Message.IsCommand():
		chatID = update.Message.Chat.ID
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil:
		chatID = update.Message.Chat.ID
		err = b.sendText(chatID, "I only understand commands. Use /help to see them.")
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		chatID = update.CallbackQuery.Message.Chat.ID
		err = b.HandleCallback(ctx, update.CallbackQuery)
	default:
		return
	}

	if err != nil {
		log.Printf("Error handling update %d: %v", update.UpdateID, err)
		if sendErr := b.sendText(chatID, "❌ Something went wrong. Please try again later."); sendErr != nil {
			log.Printf("Error sending error message: %v", sendErr)
		}
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}
