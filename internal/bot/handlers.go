package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/example/kanjibot/internal/database"
	"github.com/example/kanjibot/internal/excel"
	"github.com/example/kanjibot/internal/quiz"
	"github.com/example/kanjibot/internal/spaced_repetition"
	"github.com/example/kanjibot/internal/study"
	"github.com/example/kanjibot/pkg/models"
)

// Constants for callback data
const (
	callbackReview       = "review"
	callbackUndo         = "undo"
	callbackResetConfirm = "reset:confirm"
	callbackResetCancel  = "reset:cancel"
)

const dueDateLayout = "Mon, 2 Jan 15:04"

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message == nil || message.From == nil || message.Chat == nil {
		return errors.New("invalid message: required fields are missing")
	}

	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}

	chatID := message.Chat.ID
	switch message.Command() {
	case "start":
		err = b.handleStart(chatID, user)
	case "help":
		err = b.handleHelp(chatID)
	case "review":
		err = b.startReview(ctx, chatID, user, strings.TrimSpace(message.CommandArguments()), false)
	case "quiz":
		err = b.startReview(ctx, chatID, user, strings.TrimSpace(message.CommandArguments()), true)
	case "stats":
		err = b.handleStats(ctx, chatID, user.ID)
	case "undo":
		err = b.handleUndo(ctx, chatID, user.ID)
	case "reset":
		err = b.handleReset(chatID)
	case "notify":
		err = b.handleNotifyCommand(ctx, chatID, user, message.CommandArguments())
	case "session":
		err = b.handleSessionCommand(ctx, chatID, user, message.CommandArguments())
	case "decks":
		err = b.handleDecks(ctx, chatID)
	case "import":
		if !b.isAdmin(user.ID) {
			return b.sendText(chatID, "This command is only available for administrators.")
		}
		err = b.handleImport(ctx, chatID, message.CommandArguments())
	default:
		err = b.sendText(chatID, "Unknown command. Use /help to see what I can do.")
	}
	return err
}

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.From == nil {
		return errors.New("invalid callback data: required fields are missing")
	}

	// Always send an answer to the callback query to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		log.Printf("Warning: Failed to answer callback: %v", err)
	}

	user, err := b.ensureUser(ctx, callback.From)
	if err != nil {
		return err
	}
	chatID := callback.Message.Chat.ID

	switch callback.Data {
	case callbackReview:
		return b.startReview(ctx, chatID, user, "", false)
	case callbackUndo:
		return b.handleUndo(ctx, chatID, user.ID)
	case callbackResetConfirm:
		return b.handleResetConfirm(ctx, chatID, user.ID)
	case callbackResetCancel:
		return b.sendText(chatID, "👌 Your progress is untouched.")
	}

	action, itemID, found := strings.Cut(callback.Data, ":")
	if !found {
		return b.sendText(chatID, "⚠️ Unknown action")
	}
	quality, err := spaced_repetition.ParseQuality(action)
	if err != nil {
		return b.sendText(chatID, "⚠️ Unknown action")
	}

	b.clearKeyboard(chatID, callback.Message.MessageID)
	return b.handleAnswer(ctx, chatID, user.ID, itemID, quality)
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	user, err := b.users.Ensure(ctx, models.User{
		ID:        from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to register user")
	}
	return user, nil
}

func (b *Bot) handleStart(chatID int64, user *models.User) error {
	name := user.FirstName
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi %s! I help you remember kanji and vocabulary.\n\n"+
		"Each card shows a character. Try to recall its reading and meaning, "+
		"reveal the answer and tell me whether you knew it. "+
		"Cards you know come back after longer and longer breaks, "+
		"cards you forget stay in the learning queue.\n\n"+
		"Use /help to see all commands.", name)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "📖 Commands\n\n" +
		"/review [deck] - Start a review session\n" +
		"/quiz [deck] - Review with multiple choice answers\n" +
		"/undo - Take back your last answer\n" +
		"/stats - Show your progress\n" +
		"/decks - List the available decks\n" +
		"/notify <hour|on|off> - Set the daily reminder\n" +
		"/session <cards> - Set how many cards a session shows\n" +
		"/reset - Forget all progress\n" +
		"/help - Show this help\n\n" +
		"🔄 Scheduling\n" +
		"New and forgotten cards come back the next day. " +
		"After that the break grows by your ease for each card, " +
		"and reviews open at 05:00."

	return b.sendText(chatID, text)
}

// MainMenuButtons returns the buttons shown under the welcome message
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "📖 Start review", CallbackData: callbackReview}},
	}
}

func (b *Bot) startReview(ctx context.Context, chatID int64, user *models.User, deck string, quizMode bool) error {
	limit := user.ReviewsPerSession
	if limit <= 0 {
		limit = b.config.DefaultReviewsPerSession
	}

	l := b.learnerFor(user.ID)
	b.mu.Lock()
	l.deck = deck
	l.quiz = quizMode
	l.reviewed = 0
	l.limit = limit
	b.mu.Unlock()

	return b.showNextCard(ctx, chatID, user.ID)
}

func (b *Bot) showNextCard(ctx context.Context, chatID, userID int64) error {
	l := b.learnerFor(userID)
	b.mu.Lock()
	deck, quizMode, reviewed, limit := l.deck, l.quiz, l.reviewed, l.limit
	b.mu.Unlock()

	if limit > 0 && reviewed >= limit {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🎉 Session complete! You reviewed %d cards.", reviewed))
		msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "➕ Keep going", CallbackData: callbackReview}}})
		return b.sendMessage(msg)
	}

	items, err := b.items.List(ctx, deck)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		if deck != "" {
			return b.sendText(chatID, fmt.Sprintf("Deck %q has no cards. Use /decks to see the available decks.", deck))
		}
		return b.sendText(chatID, "There are no cards to study yet.")
	}

	byID := make(map[string]models.Item, len(items))
	catalogue := make([]string, 0, len(items))
	for _, item := range items {
		byID[item.ID] = item
		catalogue = append(catalogue, item.ID)
	}

	queue, err := l.session.Next(ctx, catalogue, 0)
	if err != nil {
		return err
	}
	for _, id := range queue {
		item, ok := byID[id]
		if !ok {
			continue
		}
		if quizMode {
			return b.showQuestion(chatID, l.session, item, items)
		}
		return b.showCard(chatID, l.session, item)
	}

	return b.sendText(chatID, "✨ Nothing is due right now. Come back later!")
}

func (b *Bot) showCard(chatID int64, session *study.Session, item models.Item) error {
	var text strings.Builder
	fmt.Fprintf(&text, "<b>%s</b>\n", html.EscapeString(item.Character))
	fmt.Fprintf(&text, "<i>%s", item.Kind)
	if item.Deck != "" {
		fmt.Fprintf(&text, " · %s", html.EscapeString(item.Deck))
	}
	text.WriteString("</i>\n\n")
	if item.Reading != "" {
		fmt.Fprintf(&text, "Reading: <tg-spoiler>%s</tg-spoiler>\n", html.EscapeString(item.Reading))
	}
	fmt.Fprintf(&text, "Meaning: <tg-spoiler>%s</tg-spoiler>", html.EscapeString(item.Meaning))

	buttons := [][]MenuButton{{
		{Text: "✅ Knew it", CallbackData: spaced_repetition.QualityPass.String() + ":" + item.ID},
		{Text: "❌ Forgot", CallbackData: spaced_repetition.QualityFail.String() + ":" + item.ID},
	}}
	if session.CanUndo() {
		buttons = append(buttons, []MenuButton{{Text: "↩️ Undo", CallbackData: callbackUndo}})
	}

	msg := tgbotapi.NewMessage(chatID, text.String())
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = createKeyboard(buttons)
	return b.sendMessage(msg)
}

func (b *Bot) showQuestion(chatID int64, session *study.Session, item models.Item, pool []models.Item) error {
	questionType := quiz.MeaningChoice
	if item.Kind == models.KindVocab {
		questionType = quiz.ReadingChoice
	}
	b.mu.Lock()
	q := b.questions.NewQuestion(item, pool, questionType)
	b.mu.Unlock()

	prompt := "What does it mean?"
	if q.Type == quiz.ReadingChoice {
		prompt = "How is it read?"
	}
	text := fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(item.Character), prompt)

	pass := spaced_repetition.QualityPass.String() + ":" + item.ID
	fail := spaced_repetition.QualityFail.String() + ":" + item.ID
	var buttons [][]MenuButton
	for i, option := range q.Options {
		data := fail
		if i == q.CorrectIndex {
			data = pass
		}
		buttons = append(buttons, []MenuButton{{Text: option, CallbackData: data}})
	}
	if session.CanUndo() {
		buttons = append(buttons, []MenuButton{{Text: "↩️ Undo", CallbackData: callbackUndo}})
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = createKeyboard(buttons)
	return b.sendMessage(msg)
}

func (b *Bot) handleAnswer(ctx context.Context, chatID, userID int64, itemID string, quality spaced_repetition.Quality) error {
	item, err := b.items.GetByID(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return b.sendText(chatID, "⚠️ This card no longer exists.")
	}
	if err != nil {
		return err
	}

	l := b.learnerFor(userID)
	result, err := l.session.Review(ctx, itemID, quality)
	if err != nil {
		return err
	}

	var text string
	switch {
	case result.Snoozed:
		text = fmt.Sprintf("💤 %s is not due until %s, so it stays as it is.",
			item.Character, result.Before.DueTime(b.srs.Location).Format(dueDateLayout))
	case quality == spaced_repetition.QualityPass:
		text = fmt.Sprintf("✅ %s: next review %s", item.Character,
			result.After.DueTime(b.srs.Location).Format(dueDateLayout))
		if spaced_repetition.IsMastered(result.After) && (result.Before == nil || !spaced_repetition.IsMastered(*result.Before)) {
			text += "\n🏆 Mastered!"
		}
	default:
		text = fmt.Sprintf("❌ %s goes back to the learning queue.", item.Character)
	}
	if err := b.sendText(chatID, text); err != nil {
		return err
	}

	if !result.Snoozed {
		b.mu.Lock()
		l.reviewed++
		b.mu.Unlock()
	}
	return b.showNextCard(ctx, chatID, userID)
}

func (b *Bot) handleUndo(ctx context.Context, chatID, userID int64) error {
	l := b.learnerFor(userID)
	itemID, err := l.session.Undo(ctx)
	if errors.Is(err, study.ErrNothingToUndo) {
		return b.sendText(chatID, "Nothing to undo.")
	}
	if err != nil {
		return err
	}

	b.mu.Lock()
	if l.reviewed > 0 {
		l.reviewed--
	}
	b.mu.Unlock()

	item, err := b.items.GetByID(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return b.sendText(chatID, "↩️ Answer taken back.")
	}
	if err != nil {
		return err
	}
	if err := b.sendText(chatID, fmt.Sprintf("↩️ Took back your answer for %s.", item.Character)); err != nil {
		return err
	}

	b.mu.Lock()
	quizMode, deck := l.quiz, l.deck
	b.mu.Unlock()
	if quizMode {
		pool, err := b.items.List(ctx, deck)
		if err != nil {
			return err
		}
		return b.showQuestion(chatID, l.session, *item, pool)
	}
	return b.showCard(chatID, l.session, *item)
}

func (b *Bot) handleStats(ctx context.Context, chatID, userID int64) error {
	stats, err := database.NewReviewRepository(b.db, userID).Stats(ctx, b.srs.CurrentTime())
	if err != nil {
		return err
	}
	items, err := b.items.List(ctx, "")
	if err != nil {
		return err
	}
	unseen := len(items) - stats.Total
	if unseen < 0 {
		unseen = 0
	}

	text := fmt.Sprintf("📊 Your progress\n\n"+
		"Studied: %d\n"+
		"Due now: %d\n"+
		"In the learning queue: %d\n"+
		"Mastered: %d\n"+
		"Not seen yet: %d\n"+
		"Average ease: %.2f",
		stats.Total, stats.Due, stats.Learning, stats.Mastered, unseen, stats.AvgEase)
	return b.sendText(chatID, text)
}

func (b *Bot) handleReset(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "⚠️ This deletes all your review progress. Are you sure?")
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{
		{Text: "🗑 Yes, reset", CallbackData: callbackResetConfirm},
		{Text: "Cancel", CallbackData: callbackResetCancel},
	}})
	return b.sendMessage(msg)
}

func (b *Bot) handleResetConfirm(ctx context.Context, chatID, userID int64) error {
	l := b.learnerFor(userID)
	if err := l.session.Reset(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	l.reviewed = 0
	b.mu.Unlock()
	return b.sendText(chatID, "🗑 Your progress has been reset.")
}

func (b *Bot) handleNotifyCommand(ctx context.Context, chatID int64, user *models.User, args string) error {
	args = strings.ToLower(strings.TrimSpace(args))
	if args == "" {
		status := "off"
		if user.NotificationEnabled {
			status = fmt.Sprintf("on at %02d:00", user.NotificationHour)
		}
		return b.sendText(chatID, fmt.Sprintf("🔔 Reminders are %s.\nUse /notify <hour|on|off> to change them.", status))
	}

	enabled, hour := true, user.NotificationHour
	switch args {
	case "on":
	case "off":
		enabled = false
	default:
		h, err := strconv.Atoi(args)
		if err != nil || h < 0 || h > 23 {
			return b.sendText(chatID, "Please give an hour from 0 to 23, or on/off: /notify <hour|on|off>")
		}
		hour = h
	}

	if err := b.users.UpdateNotification(ctx, user.ID, enabled, hour); err != nil {
		return err
	}

	if !enabled {
		return b.sendText(chatID, "🔕 Reminders are off.")
	}
	return b.sendText(chatID, fmt.Sprintf("🔔 I will remind you at %02d:00.", hour))
}

// Bounds for /session
const (
	minReviewsPerSession = 1
	maxReviewsPerSession = 100
)

func (b *Bot) handleSessionCommand(ctx context.Context, chatID int64, user *models.User, args string) error {
	args = strings.TrimSpace(args)
	if args == "" {
		return b.sendText(chatID, fmt.Sprintf("📏 A session shows %d cards.\nUse /session <cards> to change it.", user.ReviewsPerSession))
	}

	count, err := strconv.Atoi(args)
	if err != nil || count < minReviewsPerSession || count > maxReviewsPerSession {
		return b.sendText(chatID, fmt.Sprintf("Please give a number from %d to %d: /session <cards>",
			minReviewsPerSession, maxReviewsPerSession))
	}

	if err := b.users.UpdateReviewsPerSession(ctx, user.ID, count); err != nil {
		return err
	}

	// An ongoing session picks up the new size
	l := b.learnerFor(user.ID)
	b.mu.Lock()
	l.limit = count
	b.mu.Unlock()

	return b.sendText(chatID, fmt.Sprintf("📏 Sessions now show %d cards.", count))
}

func (b *Bot) handleDecks(ctx context.Context, chatID int64) error {
	decks, err := b.items.Decks(ctx)
	if err != nil {
		return err
	}
	if len(decks) == 0 {
		return b.sendText(chatID, "There are no decks yet.")
	}

	var text strings.Builder
	text.WriteString("📚 Decks\n\n")
	for _, d := range decks {
		name := d.Name
		if name == "" {
			name = "(no deck)"
		}
		fmt.Fprintf(&text, "• %s: %d cards\n", name, d.Items)
	}
	text.WriteString("\nUse /review <deck> to study one deck.")
	return b.sendText(chatID, text.String())
}

func (b *Bot) handleImport(ctx context.Context, chatID int64, args string) error {
	path := strings.TrimSpace(args)
	if path == "" {
		return b.sendText(chatID, "Usage: /import <path to .xlsx or .csv>")
	}

	cfg := excel.DefaultImportConfig()
	cfg.FilePath = path
	result, err := excel.ImportItems(ctx, cfg, b.items)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("❌ Import failed: %v", err))
	}

	text := fmt.Sprintf("📥 Import finished\n\nProcessed: %d\nCreated: %d\nUpdated: %d\nSkipped: %d",
		result.TotalProcessed, result.Created, result.Updated, result.Skipped)
	for i, e := range result.Errors {
		if i == 5 {
			text += fmt.Sprintf("\n…and %d more errors", len(result.Errors)-5)
			break
		}
		text += "\n" + e
	}
	return b.sendText(chatID, text)
}

// clearKeyboard removes the answer buttons from an answered card
func (b *Bot) clearKeyboard(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := b.api.Request(edit); err != nil {
		log.Printf("Warning: Failed to clear keyboard: %v", err)
	}
}
