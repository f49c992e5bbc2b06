package bot

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/example/wordbank/internal/quiz"
	"github.com/example/wordbank/internal/review"
	"github.com/example/wordbank/internal/wordbank"
	"github.com/example/wordbank/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultQuizSize is the number of questions in a quiz
const DefaultQuizSize = 5

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

// sender is the part of the Telegram API the bot uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// updateSource delivers updates, implemented by *tgbotapi.BotAPI
type updateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// WordBank manages saved words
type WordBank interface {
	AddWord(ctx context.Context, r wordbank.AddWordRequest) (*models.Word, error)
	List(ctx context.Context, opts wordbank.ListOptions) ([]models.Word, error)
	Categories(ctx context.Context) ([]string, error)
	AddedThisWeek(ctx context.Context) (int, error)
	SetNote(ctx context.Context, word, note string) error
	ToggleFavorite(ctx context.Context, word string) (bool, error)
	Delete(ctx context.Context, word string) error
	Clear(ctx context.Context) error
}

// Reviewer runs review sessions
type Reviewer interface {
	Dashboard(ctx context.Context) (*review.Dashboard, error)
	StartSession(ctx context.Context, mode review.Mode) (review.Session, error)
	Session(id string) (review.Session, error)
	AnswerAt(ctx context.Context, sessionID string, position, quality int) (*review.Result, error)
	Skip(sessionID string) (review.Session, error)
	Finish(sessionID string) (review.Summary, error)
	Rate(ctx context.Context, word string, quality int) (models.WordProgress, error)
}

// Config holds the bot settings
type Config struct {
	OwnerChatIDs []int64
	QuizSize     int
}

// quizState tracks a running quiz of a chat
type quizState struct {
	Questions []quiz.Question
	Position  int
	Correct   int
}

// Bot represents the Telegram bot application
type Bot struct {
	api      sender
	words    WordBank
	reviews  Reviewer
	owners   map[int64]bool
	quizSize int

	mu         sync.Mutex
	rnd        *rand.Rand
	sessions   map[int64]string // chat ID → review session ID
	quizzes    map[int64]*quizState
	sortOrders map[int64]wordbank.SortOrder
}

// New creates a new bot instance
func New(api sender, words WordBank, reviews Reviewer, cfg Config) *Bot {
	b := &Bot{
		api:        api,
		words:      words,
		reviews:    reviews,
		owners:     make(map[int64]bool),
		quizSize:   cfg.QuizSize,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions:   make(map[int64]string),
		quizzes:    make(map[int64]*quizState),
		sortOrders: make(map[int64]wordbank.SortOrder),
	}
	if b.quizSize <= 0 {
		b.quizSize = DefaultQuizSize
	}
	for _, id := range cfg.OwnerChatIDs {
		b.owners[id] = true
	}
	return b
}

// NewAPI authorizes against Telegram with the given token
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	log.Printf("Authorized on account %s", botAPI.Self.UserName)
	return botAPI, nil
}

// Run handles incoming updates until ctx is cancelled
func (b *Bot) Run(ctx context.Context, source updateSource) {
	// Set up the update configuration
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := source.GetUpdatesChan(updateConfig)
	defer source.StopReceivingUpdates()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Println("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(count int) error {
	wordForm := "words"
	if count == 1 {
		wordForm = "word"
	}
	text := fmt.Sprintf("⏰ You have %d %s to review! Use /review to start.", count, wordForm)

	var firstErr error
	for chatID := range b.owners {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "🔁 Review now", CallbackData: callbackReview}}})
		if _, err := b.api.Send(msg); err != nil {
			log.Printf("Error sending reminder to chat %d: %v", chatID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Printf("Successfully sent reminder to chat %d for %d words", chatID, count)
	}
	return firstErr
}

// isOwner checks if the chat may use the word bank
func (b *Bot) isOwner(chatID int64) bool {
	return b.owners[chatID]
}

// HandleUpdate dispatches a single update
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil:
		if !b.isOwner(update.Message.Chat.ID) {
			log.Printf("Ignoring message from unknown chat %d", update.Message.Chat.ID)
			return
		}
		if update.Message.IsCommand() {
			err = b.HandleCommand(ctx, update.Message)
		} else {
			err = b.handleText(ctx, update.Message)
		}
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil || !b.isOwner(cb.Message.Chat.ID) {
			return
		}
		err = b.HandleCallback(ctx, cb)
	}

	if err != nil {
		log.Printf("Error handling update %d: %v", update.UpdateID, err)
	}
}

// sendMessage sends a message, logging failures
func (b *Bot) sendMessage(msg tgbotapi.Chattable) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// showMainMenu shows the main menu
func (b *Bot) showMainMenu(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "Main Menu - choose an option:")
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🔁 Review", CallbackData: callbackReview},
			{Text: "🎯 Learn new", CallbackData: callbackLearn},
		},
		{
			{Text: "❓ Quiz", CallbackData: callbackQuiz},
			{Text: "📊 Statistics", CallbackData: callbackStats},
		},
	}
}
