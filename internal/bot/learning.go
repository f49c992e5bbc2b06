package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/wordbank/internal/quiz"
	"github.com/example/wordbank/internal/review"
	"github.com/example/wordbank/internal/spaced_repetition"
	"github.com/example/wordbank/internal/wordbank"
	"github.com/example/wordbank/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// startSession starts a review or learn session for the chat, replacing a
// running one
func (b *Bot) startSession(ctx context.Context, chatID int64, mode review.Mode) error {
	sess, err := b.reviews.StartSession(ctx, mode)
	if errors.Is(err, review.ErrNothingToReview) {
		text := "🎉 Nothing is due right now. Come back later or try /learn."
		if mode == review.ModeLearn {
			text = "🎉 You have started learning every saved word. Add more with /add."
		}
		return b.sendText(chatID, text)
	}
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	b.mu.Lock()
	previous, running := b.sessions[chatID]
	b.sessions[chatID] = sess.ID
	b.mu.Unlock()

	if running {
		if _, err := b.reviews.Finish(previous); err != nil && !errors.Is(err, review.ErrSessionNotFound) {
			log.Printf("Error finishing session %s: %v", previous, err)
		}
	}

	log.Printf("Started %s session %s with %d cards for chat %d", mode, sess.ID, len(sess.Cards), chatID)
	return b.sendCard(chatID, sess)
}

// currentSession returns the running session of the chat
func (b *Bot) currentSession(chatID int64) (review.Session, error) {
	b.mu.Lock()
	id, ok := b.sessions[chatID]
	b.mu.Unlock()
	if !ok {
		return review.Session{}, review.ErrSessionNotFound
	}
	return b.reviews.Session(id)
}

// sendCard shows the front of the current card, or the summary when the
// session is done
func (b *Bot) sendCard(chatID int64, sess review.Session) error {
	card, ok := sess.Current()
	if !ok {
		return b.finishSession(chatID)
	}

	text := fmt.Sprintf("🃏 %d/%d\n\n%s", sess.Position+1, len(sess.Cards), card.Word)
	if card.Pronunciation != "" {
		text += " " + card.Pronunciation
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "👀 Show", CallbackData: callbackShow}},
		{{Text: "⏭ Skip", CallbackData: callbackSkip}, {Text: "⏹ Stop", CallbackData: callbackStop}},
	})
	return b.sendMessage(msg)
}

// revealCard replaces the card front with the definitions and rating buttons
func (b *Bot) revealCard(chatID int64, messageID int) error {
	sess, err := b.currentSession(chatID)
	if err != nil {
		return b.sendText(chatID, "No active session. Use /review or /learn.")
	}
	card, ok := sess.Current()
	if !ok {
		return b.finishSession(chatID)
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID,
		formatWord(card)+"\n\nHow well did you remember it?", ratingKeyboard(sess.Position))
	return b.sendMessage(edit)
}

// ratingKeyboard offers ratings 0-5 for the card at position
func ratingKeyboard(position int) tgbotapi.InlineKeyboardMarkup {
	labels := []string{"0 😶", "1 😣", "2 😕", "3 🙂", "4 😊", "5 😎"}
	var row1, row2 []MenuButton
	for q, label := range labels {
		button := MenuButton{Text: label, CallbackData: positionedData(prefixRate, position, q)}
		if q < 3 {
			row1 = append(row1, button)
		} else {
			row2 = append(row2, button)
		}
	}
	return createKeyboard([][]MenuButton{row1, row2})
}

// rateCard records the rating of the card at position and shows the next
// one. Ratings for a card that is no longer current are rejected.
func (b *Bot) rateCard(ctx context.Context, chatID int64, position, quality int) error {
	b.mu.Lock()
	id, ok := b.sessions[chatID]
	b.mu.Unlock()
	if !ok {
		return b.sendText(chatID, "No active session. Use /review or /learn.")
	}

	res, err := b.reviews.AnswerAt(ctx, id, position, quality)
	if errors.Is(err, review.ErrAlreadyAnswered) {
		return b.sendText(chatID, alreadyAnswered)
	}
	if errors.Is(err, review.ErrSessionFinished) || errors.Is(err, review.ErrSessionNotFound) {
		return b.finishSession(chatID)
	}
	if err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}

	verdict := "❌"
	if res.Correct {
		verdict = "✅"
	}
	if err := b.sendText(chatID, fmt.Sprintf("%s %s: next review in %d day(s)", verdict, res.Word, res.Progress.Interval)); err != nil {
		return err
	}
	return b.sendCard(chatID, res.Session)
}

func (b *Bot) skipCard(chatID int64) error {
	b.mu.Lock()
	id, ok := b.sessions[chatID]
	b.mu.Unlock()
	if !ok {
		return b.sendText(chatID, "No active session. Use /review or /learn.")
	}

	sess, err := b.reviews.Skip(id)
	if err != nil {
		return b.finishSession(chatID)
	}
	return b.sendCard(chatID, sess)
}

// finishSession ends the running session of the chat and reports the summary
func (b *Bot) finishSession(chatID int64) error {
	b.mu.Lock()
	id, ok := b.sessions[chatID]
	delete(b.sessions, chatID)
	b.mu.Unlock()
	if !ok {
		return b.sendText(chatID, "No active session. Use /review or /learn.")
	}

	sum, err := b.reviews.Finish(id)
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}

	text := fmt.Sprintf("🏁 Session finished\n\nReviewed: %d\nCorrect: %d\nIncorrect: %d\nAccuracy: %d%%",
		sum.Reviewed, sum.Correct, sum.Incorrect, sum.Accuracy)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

// startQuiz builds a quiz of the given type from the whole word bank
func (b *Bot) startQuiz(ctx context.Context, chatID int64, questionType quiz.QuestionType) error {
	words, err := b.words.List(ctx, wordbank.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list words: %w", err)
	}

	b.mu.Lock()
	questions := quiz.NewQuiz(words, b.quizSize, questionType, b.rnd)
	if len(questions) > 0 {
		b.quizzes[chatID] = &quizState{Questions: questions}
	} else {
		delete(b.quizzes, chatID)
	}
	b.mu.Unlock()

	if len(questions) == 0 {
		if questionType == quiz.FillBlank {
			return b.sendText(chatID, "Save a few words with example sentences first.")
		}
		return b.sendText(chatID, "Save a few words with definitions first.")
	}
	return b.sendQuestion(chatID, questions[0], 0, len(questions))
}

func (b *Bot) sendQuestion(chatID int64, q quiz.Question, position, total int) error {
	if q.Type == quiz.FillBlank {
		text := fmt.Sprintf("✏️ %d/%d\n\nType the missing word:\n\n%s", position+1, total, q.ContextSentence)
		if def := firstDefinition(q.Word); def != "" {
			text += "\n\nHint: " + def
		}
		return b.sendText(chatID, text)
	}

	text := fmt.Sprintf("❓ %d/%d\n\nWhat does “%s” mean?", position+1, total, q.Word.Word)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(quizButtons(q, position))
	return b.sendMessage(msg)
}

// fillBlankActive reports whether the chat waits for a typed quiz answer
func (b *Bot) fillBlankActive(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.quizzes[chatID]
	return ok && state.Position < len(state.Questions) &&
		state.Questions[state.Position].Type == quiz.FillBlank
}

// answerQuiz grades a multiple choice answer for the question at position
func (b *Bot) answerQuiz(ctx context.Context, chatID int64, position, choice int) error {
	return b.gradeQuiz(ctx, chatID, quiz.MultipleChoice, position, func(q quiz.Question) spaced_repetition.QualityResponse {
		return q.Grade(choice)
	})
}

// answerFillBlank grades a typed answer for the current question
func (b *Bot) answerFillBlank(ctx context.Context, chatID int64, answer string) error {
	return b.gradeQuiz(ctx, chatID, quiz.FillBlank, currentQuestion, func(q quiz.Question) spaced_repetition.QualityResponse {
		return q.GradeText(answer)
	})
}

// currentQuestion makes gradeQuiz grade whichever question is current
const currentQuestion = -1

// gradeQuiz grades the question at position, feeds the result into the
// review schedule and asks the next question
func (b *Bot) gradeQuiz(ctx context.Context, chatID int64, kind quiz.QuestionType, position int,
	grade func(quiz.Question) spaced_repetition.QualityResponse) error {
	b.mu.Lock()
	state, ok := b.quizzes[chatID]
	if !ok || state.Position >= len(state.Questions) {
		b.mu.Unlock()
		return b.sendText(chatID, "No active quiz. Use /quiz to start one.")
	}
	if position == currentQuestion {
		position = state.Position
	}
	if position != state.Position || state.Questions[position].Type != kind {
		b.mu.Unlock()
		return b.sendText(chatID, alreadyAnswered)
	}
	q := state.Questions[position]
	quality := grade(q)
	correct := quality >= spaced_repetition.QualityCorrectDifficult
	if correct {
		state.Correct++
	}
	state.Position++
	next, total, score := state.Position, len(state.Questions), state.Correct
	var nextQuestion quiz.Question
	if next == total {
		delete(b.quizzes, chatID)
	} else {
		nextQuestion = state.Questions[next]
	}
	b.mu.Unlock()

	if _, err := b.reviews.Rate(ctx, q.Word.Word, int(quality)); err != nil {
		return fmt.Errorf("failed to record quiz answer: %w", err)
	}

	feedback := "✅ Correct!"
	if !correct {
		if q.Type == quiz.FillBlank {
			feedback = fmt.Sprintf("❌ The missing word was “%s”", q.Word.Word)
		} else {
			feedback = fmt.Sprintf("❌ “%s” means: %s", q.Word.Word, q.Options[q.CorrectIndex])
		}
	}
	if err := b.sendText(chatID, feedback); err != nil {
		return err
	}

	if next == total {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🏁 Quiz finished: %d/%d correct", score, total))
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		return b.sendMessage(msg)
	}
	return b.sendQuestion(chatID, nextQuestion, next, total)
}

func firstDefinition(w models.Word) string {
	for _, d := range w.Definitions {
		if d.Definition != "" {
			return d.Definition
		}
	}
	return ""
}
