package models

import "strings"

// DefaultCategory is used when a word has neither a category nor a part of speech
const DefaultCategory = "other"

// Definition is a single dictionary sense of a word
type Definition struct {
	PartOfSpeech string `json:"partOfSpeech"`
	Definition   string `json:"definition"`
	Example      string `json:"example,omitempty"`
}

// Word represents an entry of the personal word bank
type Word struct {
	ID            int64         `json:"-"`
	Word          string        `json:"word"`
	Definitions   []Definition  `json:"definitions"`
	Category      string        `json:"category,omitempty"`
	Timestamp     int64         `json:"timestamp"` // When the word was saved, ms since epoch
	URL           string        `json:"url,omitempty"`
	PageTitle     string        `json:"pageTitle,omitempty"`
	PersonalNote  string        `json:"personalNote,omitempty"`
	IsFavorite    bool          `json:"isFavorite,omitempty"`
	Tags          []string      `json:"tags,omitempty"`
	Pronunciation string        `json:"pronunciation,omitempty"`
	Progress      *WordProgress `json:"progress,omitempty"`
}

// EffectiveCategory returns the explicit category, falling back to the
// part of speech of the first definition
func (w Word) EffectiveCategory() string {
	category := w.Category
	if category == "" && len(w.Definitions) > 0 {
		category = w.Definitions[0].PartOfSpeech
	}
	if category == "" {
		category = DefaultCategory
	}
	return strings.ToLower(category)
}

// NormalizeWord converts user input into the key words are stored under
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
