package dictionary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/wordbank/pkg/models"
)

// ErrNotFound is returned when the dictionary has no entry for the word
var ErrNotFound = errors.New("no definition found")

// MaxDefinitions limits how many definitions of an entry are kept
const MaxDefinitions = 5

// Client represents a client for the Free Dictionary API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new dictionary client
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Entry is the result of a lookup
type Entry struct {
	Word          string
	Pronunciation string
	Definitions   []models.Definition
}

// entryResponse represents one element of the API response
type entryResponse struct {
	Word     string `json:"word"`
	Phonetic string `json:"phonetic"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
			Example    string `json:"example"`
		} `json:"definitions"`
	} `json:"meanings"`
}

// Lookup fetches the definitions of a word. Definitions of all meanings are
// returned in order, at most MaxDefinitions of them.
func (c *Client) Lookup(ctx context.Context, word string) (*Entry, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, fmt.Errorf("%w: empty word", ErrNotFound)
	}

	endpoint := c.baseURL + "/api/v2/entries/en/" + url.PathEscape(word)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, word)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("dictionary API returned status %d", resp.StatusCode)
	}

	var entries []entryResponse
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, word)
	}

	first := entries[0]
	entry := &Entry{
		Word:          first.Word,
		Pronunciation: first.Phonetic,
	}
	for _, meaning := range first.Meanings {
		for _, def := range meaning.Definitions {
			if len(entry.Definitions) == MaxDefinitions {
				return entry, nil
			}
			entry.Definitions = append(entry.Definitions, models.Definition{
				PartOfSpeech: meaning.PartOfSpeech,
				Definition:   def.Definition,
				Example:      def.Example,
			})
		}
	}

	return entry, nil
}
