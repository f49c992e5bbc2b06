package quiz

import (
	"math/rand"
	"regexp"
	"strings"

	"github.com/example/wordbank/internal/spaced_repetition"
	"github.com/example/wordbank/pkg/models"
)

// QuestionType represents different types of questions
type QuestionType string

const (
	// MultipleChoice asks for the definition of a word
	MultipleChoice QuestionType = "multiple-choice"
	// FillBlank asks for the word missing from an example sentence
	FillBlank QuestionType = "fill-blank"
)

// OptionsPerQuestion is the number of answers offered for multiple choice
const OptionsPerQuestion = 4

const blank = "_______"

// Question represents a single quiz question
type Question struct {
	Word            models.Word
	Type            QuestionType
	Options         []string // Possible answers (for multiple choice)
	CorrectIndex    int      // Index of correct answer in options
	ContextSentence string   // Sentence with blank (for fill-blank)
}

// NewQuiz generates up to count questions from the word bank. Words that
// cannot produce a question of the requested type are skipped.
func NewQuiz(words []models.Word, count int, questionType QuestionType, rnd *rand.Rand) []Question {
	pool := make([]models.Word, len(words))
	copy(pool, words)
	rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	questions := make([]Question, 0, count)
	for _, word := range pool {
		if len(questions) >= count {
			break
		}

		var (
			q  Question
			ok bool
		)
		switch questionType {
		case FillBlank:
			q, ok = fillBlankQuestion(word)
		default:
			q, ok = multipleChoiceQuestion(word, words, rnd)
		}
		if ok {
			questions = append(questions, q)
		}
	}
	return questions
}

func firstDefinition(w models.Word) string {
	for _, d := range w.Definitions {
		if strings.TrimSpace(d.Definition) != "" {
			return d.Definition
		}
	}
	return ""
}

func multipleChoiceQuestion(word models.Word, all []models.Word, rnd *rand.Rand) (Question, bool) {
	correct := firstDefinition(word)
	if correct == "" {
		return Question{}, false
	}

	options := append(incorrectOptions(word, correct, all, OptionsPerQuestion-1, rnd), correct)
	correctIndex := len(options) - 1

	// Shuffle options
	rnd.Shuffle(len(options), func(i, j int) {
		if i == correctIndex {
			correctIndex = j
		} else if j == correctIndex {
			correctIndex = i
		}
		options[i], options[j] = options[j], options[i]
	})

	return Question{
		Word:         word,
		Type:         MultipleChoice,
		Options:      options,
		CorrectIndex: correctIndex,
	}, true
}

// incorrectOptions picks up to count distinct definitions of other words
func incorrectOptions(word models.Word, correct string, all []models.Word, count int, rnd *rand.Rand) []string {
	candidates := make([]string, 0, len(all))
	seen := map[string]bool{correct: true}
	for _, w := range all {
		if w.Word == word.Word {
			continue
		}
		def := firstDefinition(w)
		if def == "" || seen[def] {
			continue
		}
		seen[def] = true
		candidates = append(candidates, def)
	}

	rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates
}

func fillBlankQuestion(word models.Word) (Question, bool) {
	for _, d := range word.Definitions {
		if d.Example == "" {
			continue
		}
		if sentence, ok := replaceWordWithBlank(d.Example, word.Word); ok {
			return Question{
				Word:            word,
				Type:            FillBlank,
				ContextSentence: sentence,
			}, true
		}
	}
	return Question{}, false
}

// replaceWordWithBlank blanks out the first whole-word, case-insensitive
// occurrence of word
func replaceWordWithBlank(sentence, word string) (string, bool) {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return sentence, false
	}
	loc := re.FindStringIndex(sentence)
	if loc == nil {
		return sentence, false
	}
	return sentence[:loc[0]] + blank + sentence[loc[1]:], true
}

// Grade maps a multiple choice answer to an SM-2 quality rating
func (q Question) Grade(choice int) spaced_repetition.QualityResponse {
	if choice == q.CorrectIndex {
		return spaced_repetition.QualityCorrectHesitation
	}
	return spaced_repetition.QualityIncorrect
}

// GradeText maps a typed answer to an SM-2 quality rating
func (q Question) GradeText(answer string) spaced_repetition.QualityResponse {
	if models.NormalizeWord(answer) == models.NormalizeWord(q.Word.Word) {
		return spaced_repetition.QualityCorrectHesitation
	}
	return spaced_repetition.QualityIncorrect
}
