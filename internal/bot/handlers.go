package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/wordbank/internal/database"
	"github.com/example/wordbank/internal/excel"
	"github.com/example/wordbank/internal/quiz"
	"github.com/example/wordbank/internal/review"
	"github.com/example/wordbank/internal/wordbank"
	"github.com/example/wordbank/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Constants for callback data
const (
	callbackMainMenu = "main_menu"
	callbackReview   = "review"
	callbackLearn    = "learn"
	callbackQuiz     = "quiz"
	callbackStats    = "stats"
	callbackShow     = "show"
	callbackSkip     = "skip"
	callbackStop     = "stop"
	callbackClear    = "clear_confirm"

	// Rating and quiz buttons carry the card position: rate_<pos>_<quality>
	// and quiz_<pos>_<option>
	prefixRate       = "rate_"
	prefixQuizAnswer = "quiz_"
)

const alreadyAnswered = "Already answered."

// maxListed is the number of words a list reply shows
const maxListed = 50

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		return b.handleStart(chatID)
	case "help":
		return b.handleHelp(chatID)
	case "add":
		return b.handleAdd(ctx, chatID, args)
	case "list":
		if args == "fav" {
			return b.handleList(ctx, chatID, wordbank.ListOptions{FavoritesOnly: true})
		}
		return b.handleList(ctx, chatID, wordbank.ListOptions{Category: args})
	case "categories":
		return b.handleCategories(ctx, chatID)
	case "search":
		if args == "" {
			return b.sendText(chatID, "Usage: /search <text>")
		}
		return b.handleList(ctx, chatID, wordbank.ListOptions{Search: args})
	case "sort":
		return b.handleSort(chatID)
	case "note":
		return b.handleNote(ctx, chatID, args)
	case "fav":
		return b.handleFavorite(ctx, chatID, args)
	case "delete":
		return b.handleDelete(ctx, chatID, args)
	case "clear":
		return b.handleClear(chatID)
	case "stats":
		return b.handleStats(ctx, chatID)
	case "review":
		return b.startSession(ctx, chatID, review.ModeReview)
	case "learn":
		return b.startSession(ctx, chatID, review.ModeLearn)
	case "quiz":
		if args == "fill" {
			return b.startQuiz(ctx, chatID, quiz.FillBlank)
		}
		return b.startQuiz(ctx, chatID, quiz.MultipleChoice)
	case "export":
		return b.handleExport(ctx, chatID, args)
	default:
		return b.handleUnknownCommand(chatID)
	}
}

// handleText answers a running fill-in-the-blank quiz, otherwise it treats
// the text as a word to add
func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	if strings.TrimSpace(message.Text) == "" {
		return b.showMainMenu(chatID)
	}
	if b.fillBlankActive(chatID) {
		return b.answerFillBlank(ctx, chatID, message.Text)
	}
	return b.handleAdd(ctx, chatID, message.Text)
}

func (b *Bot) handleStart(chatID int64) error {
	text := "👋 Welcome to your word bank!\n\n" +
		"Send me any English word to save it with its dictionary definitions. " +
		"Saved words come back for review using spaced repetition.\n\n" +
		"Use /help to see all commands."

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(chatID int64) error {
	text := "📖 Commands\n\n" +
		"/add <word> [#tag ...] [url [page title]] - Save a word\n" +
		"/list [category|fav] - List saved words\n" +
		"/categories - Show the categories in use\n" +
		"/search <text> - Search words and definitions\n" +
		"/sort - Toggle between recent and alphabetical order\n" +
		"/note <word> [text] - Set or clear a personal note\n" +
		"/fav <word> - Toggle a favorite\n" +
		"/delete <word> - Remove a word\n" +
		"/clear - Remove every word\n" +
		"/stats - Show your progress\n" +
		"/review - Review words that are due\n" +
		"/learn - Study words you have not reviewed yet\n" +
		"/quiz [fill] - Multiple choice or fill-in-the-blank quiz\n" +
		"/export [xlsx|csv|json] - Download the word bank\n\n" +
		"Rate each card from 0 (forgot) to 5 (perfect). " +
		"Ratings of 3 or more count as correct."

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "⬅️ Back to menu", CallbackData: callbackMainMenu}},
	})
	return b.sendMessage(msg)
}

// parseAddArgs reads "<word> [#tag ...] [url [page title]]"
func parseAddArgs(text string) wordbank.AddWordRequest {
	var (
		r     wordbank.AddWordRequest
		parts []string
	)
	fields := strings.Fields(text)
	for i, field := range fields {
		switch {
		case strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://"):
			r.URL = field
			r.PageTitle = strings.Join(fields[i+1:], " ")
			r.Word = strings.Join(parts, " ")
			return r
		case strings.HasPrefix(field, "#") && len(field) > 1:
			r.Tags = append(r.Tags, strings.ToLower(field[1:]))
		default:
			parts = append(parts, field)
		}
	}
	r.Word = strings.Join(parts, " ")
	return r
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, text string) error {
	word, err := b.words.AddWord(ctx, parseAddArgs(text))
	if errors.Is(err, wordbank.ErrEmptyWord) {
		return b.sendText(chatID, "Usage: /add <word>")
	}
	if err != nil {
		b.sendText(chatID, "❌ Could not save the word. Please try again later.")
		return fmt.Errorf("failed to add word: %w", err)
	}
	return b.sendText(chatID, "✅ Saved\n\n"+formatWord(*word))
}

func (b *Bot) handleList(ctx context.Context, chatID int64, opts wordbank.ListOptions) error {
	opts.Sort = b.sortOrder(chatID)
	words, err := b.words.List(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to list words: %w", err)
	}
	if len(words) == 0 {
		return b.sendText(chatID, "No words found. Send me a word to save it.")
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("📚 %d words (%s)\n\n", len(words), opts.Sort))
	for i, w := range words {
		if i == maxListed {
			text.WriteString(fmt.Sprintf("… and %d more", len(words)-maxListed))
			break
		}
		text.WriteString(formatListLine(w))
		text.WriteString("\n")
	}
	return b.sendText(chatID, text.String())
}

func (b *Bot) sortOrder(chatID int64) wordbank.SortOrder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if order, ok := b.sortOrders[chatID]; ok {
		return order
	}
	return wordbank.SortRecent
}

func (b *Bot) handleSort(chatID int64) error {
	b.mu.Lock()
	order := wordbank.SortAlphabetical
	if b.sortOrders[chatID] == wordbank.SortAlphabetical {
		order = wordbank.SortRecent
	}
	b.sortOrders[chatID] = order
	b.mu.Unlock()

	return b.sendText(chatID, fmt.Sprintf("Words are now sorted by %s order.", order))
}

func (b *Bot) handleCategories(ctx context.Context, chatID int64) error {
	categories, err := b.words.Categories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	if len(categories) == 0 {
		return b.sendText(chatID, "No words found. Send me a word to save it.")
	}

	var text strings.Builder
	text.WriteString("🗂 Categories\n\n")
	for _, c := range categories {
		text.WriteString("• " + c + "\n")
	}
	text.WriteString("\nUse /list <category> to see its words.")
	return b.sendText(chatID, text.String())
}

func (b *Bot) handleNote(ctx context.Context, chatID int64, args string) error {
	fields := strings.SplitN(args, " ", 2)
	if fields[0] == "" {
		return b.sendText(chatID, "Usage: /note <word> [text]")
	}
	word, note := fields[0], ""
	if len(fields) == 2 {
		note = fields[1]
	}

	err := b.words.SetNote(ctx, word, note)
	if errors.Is(err, database.ErrWordNotFound) {
		return b.sendText(chatID, fmt.Sprintf("“%s” is not in your word bank.", word))
	}
	if err != nil {
		return fmt.Errorf("failed to set note: %w", err)
	}
	if strings.TrimSpace(note) == "" {
		return b.sendText(chatID, fmt.Sprintf("📝 Cleared the note of “%s”.", models.NormalizeWord(word)))
	}
	return b.sendText(chatID, fmt.Sprintf("📝 Saved the note of “%s”.", models.NormalizeWord(word)))
}

func (b *Bot) handleFavorite(ctx context.Context, chatID int64, word string) error {
	if word == "" {
		return b.sendText(chatID, "Usage: /fav <word>")
	}
	favorite, err := b.words.ToggleFavorite(ctx, word)
	if errors.Is(err, database.ErrWordNotFound) {
		return b.sendText(chatID, fmt.Sprintf("“%s” is not in your word bank.", word))
	}
	if err != nil {
		return fmt.Errorf("failed to toggle favorite: %w", err)
	}
	if favorite {
		return b.sendText(chatID, fmt.Sprintf("⭐ Added “%s” to favorites.", models.NormalizeWord(word)))
	}
	return b.sendText(chatID, fmt.Sprintf("Removed “%s” from favorites.", models.NormalizeWord(word)))
}

func (b *Bot) handleDelete(ctx context.Context, chatID int64, word string) error {
	if word == "" {
		return b.sendText(chatID, "Usage: /delete <word>")
	}
	err := b.words.Delete(ctx, word)
	if errors.Is(err, database.ErrWordNotFound) {
		return b.sendText(chatID, fmt.Sprintf("“%s” is not in your word bank.", word))
	}
	if err != nil {
		return fmt.Errorf("failed to delete word: %w", err)
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 Deleted “%s”.", models.NormalizeWord(word)))
}

// handleClear asks for confirmation before removing every word
func (b *Bot) handleClear(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "⚠️ This removes every saved word and its progress. Are you sure?")
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "🗑 Yes, clear everything", CallbackData: callbackClear}},
		{{Text: "⬅️ Cancel", CallbackData: callbackMainMenu}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) clearWords(ctx context.Context, chatID int64) error {
	if err := b.words.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear words: %w", err)
	}
	return b.sendText(chatID, "🗑 Your word bank is empty now.")
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) error {
	d, err := b.reviews.Dashboard(ctx)
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}
	week, err := b.words.AddedThisWeek(ctx)
	if err != nil {
		return fmt.Errorf("failed to count recent words: %w", err)
	}

	s := d.Stats
	var text strings.Builder
	text.WriteString("📊 Your statistics\n\n")
	text.WriteString(fmt.Sprintf("Total words: %d\n", s.TotalWords))
	text.WriteString(fmt.Sprintf("Added this week: %d\n", week))
	text.WriteString(fmt.Sprintf("Learned: %d\n", s.WordsLearned))
	text.WriteString(fmt.Sprintf("Learning: %d · Review: %d · Mastered: %d\n", s.WordsInLearning, s.WordsInReview, s.WordsMastered))
	text.WriteString(fmt.Sprintf("Total reviews: %d\n", s.TotalReviews))
	text.WriteString(fmt.Sprintf("Accuracy: %d%%\n", s.OverallAccuracy))
	text.WriteString(fmt.Sprintf("Average mastery: %d%%\n\n", s.AverageMastery))
	text.WriteString(fmt.Sprintf("Due now: %d (hard %d, medium %d, easy %d)\n", len(d.Due),
		d.DueByDifficulty[models.DifficultyHard], d.DueByDifficulty[models.DifficultyMedium], d.DueByDifficulty[models.DifficultyEasy]))
	text.WriteString(fmt.Sprintf("New words: %d", len(d.New)))

	msg := tgbotapi.NewMessage(chatID, text.String())
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleExport(ctx context.Context, chatID int64, args string) error {
	format := excel.FormatXLSX
	if args != "" {
		var err error
		if format, err = excel.ParseFormat(args); err != nil {
			return b.sendText(chatID, "Usage: /export [xlsx|csv|json]")
		}
	}

	words, err := b.words.List(ctx, wordbank.ListOptions{Sort: wordbank.SortAlphabetical})
	if err != nil {
		return fmt.Errorf("failed to list words: %w", err)
	}

	var buf bytes.Buffer
	if err := excel.Export(&buf, words, format); err != nil {
		return fmt.Errorf("failed to export words: %w", err)
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "wordbank" + format.Extension(),
		Bytes: buf.Bytes(),
	})
	doc.Caption = fmt.Sprintf("📦 %d words", len(words))
	return b.sendMessage(doc)
}

func (b *Bot) handleUnknownCommand(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Unknown command. Use /help to see what I can do.")
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

// HandleCallback handles inline keyboard presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil {
		return fmt.Errorf("invalid callback data: required fields are missing")
	}

	// Always send an answer to the callback query to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}

	chatID := callback.Message.Chat.ID
	switch data := callback.Data; {
	case data == callbackMainMenu:
		return b.showMainMenu(chatID)
	case data == callbackReview:
		return b.startSession(ctx, chatID, review.ModeReview)
	case data == callbackLearn:
		return b.startSession(ctx, chatID, review.ModeLearn)
	case data == callbackQuiz:
		return b.startQuiz(ctx, chatID, quiz.MultipleChoice)
	case data == callbackStats:
		return b.handleStats(ctx, chatID)
	case data == callbackShow:
		return b.revealCard(chatID, callback.Message.MessageID)
	case data == callbackSkip:
		return b.skipCard(chatID)
	case data == callbackStop:
		return b.finishSession(chatID)
	case data == callbackClear:
		return b.clearWords(ctx, chatID)
	case strings.HasPrefix(data, prefixRate):
		position, quality, err := parsePositioned(strings.TrimPrefix(data, prefixRate))
		if err != nil {
			return fmt.Errorf("invalid rating in callback data: %w", err)
		}
		return b.rateCard(ctx, chatID, position, quality)
	case strings.HasPrefix(data, prefixQuizAnswer):
		position, choice, err := parsePositioned(strings.TrimPrefix(data, prefixQuizAnswer))
		if err != nil {
			return fmt.Errorf("invalid quiz answer in callback data: %w", err)
		}
		return b.answerQuiz(ctx, chatID, position, choice)
	default:
		return b.sendText(chatID, "⚠️ Unknown action")
	}
}

func positionedData(prefix string, position, value int) string {
	return prefix + strconv.Itoa(position) + "_" + strconv.Itoa(value)
}

// parsePositioned splits "<pos>_<value>" callback data
func parsePositioned(data string) (position, value int, err error) {
	pos, val, ok := strings.Cut(data, "_")
	if !ok {
		return 0, 0, fmt.Errorf("missing position in %q", data)
	}
	if position, err = strconv.Atoi(pos); err != nil {
		return 0, 0, err
	}
	if value, err = strconv.Atoi(val); err != nil {
		return 0, 0, err
	}
	return position, value, nil
}

// formatWord renders a word with its definitions
func formatWord(w models.Word) string {
	var text strings.Builder
	text.WriteString(w.Word)
	if w.Pronunciation != "" {
		text.WriteString(" " + w.Pronunciation)
	}
	text.WriteString("\n")
	if len(w.Definitions) == 0 {
		text.WriteString("\nNo definitions found.")
	}
	for i, d := range w.Definitions {
		text.WriteString(fmt.Sprintf("\n%d. (%s) %s", i+1, d.PartOfSpeech, d.Definition))
		if d.Example != "" {
			text.WriteString(fmt.Sprintf("\n   “%s”", d.Example))
		}
	}
	if w.PersonalNote != "" {
		text.WriteString("\n\n📝 " + w.PersonalNote)
	}
	if len(w.Tags) > 0 {
		text.WriteString("\n\n🏷 #" + strings.Join(w.Tags, " #"))
	}
	if w.URL != "" {
		source := w.URL
		if w.PageTitle != "" {
			source = w.PageTitle + " (" + w.URL + ")"
		}
		text.WriteString("\n\n🔗 " + source)
	}
	return text.String()
}

// formatListLine renders a word as a single list entry
func formatListLine(w models.Word) string {
	line := fmt.Sprintf("• %s [%s]", w.Word, w.EffectiveCategory())
	if w.IsFavorite {
		line += " ⭐"
	}
	if w.Progress != nil {
		line += fmt.Sprintf(" %d%%", w.Progress.MasteryLevel)
	}
	return line
}

// quizButtons lays out one button per option of the question at position
func quizButtons(q quiz.Question, position int) [][]MenuButton {
	buttons := make([][]MenuButton, 0, len(q.Options))
	for i, option := range q.Options {
		buttons = append(buttons, []MenuButton{{
			Text:         truncate(option, 60),
			CallbackData: positionedData(prefixQuizAnswer, position, i),
		}})
	}
	return buttons
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
