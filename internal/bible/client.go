package bible

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const maxResponseSize = 5 * 1024 * 1024

// ContentOptions control how the provider renders verse and passage
// bodies. The zero value requests flat text with every annotation off.
type ContentOptions struct {
	// ContentType is "text" (flat string) or "json" (node tree).
	// Empty defaults to "text".
	ContentType           string
	IncludeNotes          bool
	IncludeTitles         bool
	IncludeChapterNumbers bool
	IncludeVerseNumbers   bool
	IncludeVerseSpans     bool
}

func (o ContentOptions) values() url.Values {
	ct := o.ContentType
	if ct == "" {
		ct = "text"
	}
	v := url.Values{}
	v.Set("content-type", ct)
	v.Set("include-notes", strconv.FormatBool(o.IncludeNotes))
	v.Set("include-titles", strconv.FormatBool(o.IncludeTitles))
	v.Set("include-chapter-numbers", strconv.FormatBool(o.IncludeChapterNumbers))
	v.Set("include-verse-numbers", strconv.FormatBool(o.IncludeVerseNumbers))
	v.Set("include-verse-spans", strconv.FormatBool(o.IncludeVerseSpans))
	return v
}

// Client fetches books, chapters, verses, passages, and search results
// from the remote scripture provider for one configured translation.
type Client struct {
	baseURL    string
	apiKey     string
	bibleID    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, apiKey, bibleID string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		bibleID:    bibleID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Books returns the book list of the configured translation.
func (c *Client) Books(ctx context.Context) ([]Book, error) {
	var books []Book
	if err := c.get(ctx, fmt.Sprintf("/v1/bibles/%s/books", c.bibleID), nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// Chapters returns the chapter list for a book code.
func (c *Client) Chapters(ctx context.Context, bookID string) ([]Chapter, error) {
	var chapters []Chapter
	path := fmt.Sprintf("/v1/bibles/%s/books/%s/chapters", c.bibleID, url.PathEscape(bookID))
	if err := c.get(ctx, path, nil, &chapters); err != nil {
		return nil, err
	}
	return chapters, nil
}

// Verse fetches a single verse by BOOK.CHAPTER.VERSE identifier. A nil
// result with a nil error means the provider had no matching verse.
func (c *Client) Verse(ctx context.Context, verseID string, opts ContentOptions) (*Passage, error) {
	var data *Passage
	path := fmt.Sprintf("/v1/bibles/%s/verses/%s", c.bibleID, url.PathEscape(verseID))
	if err := c.get(ctx, path, opts.values(), &data); err != nil {
		return nil, err
	}
	return data, nil
}

// Passage fetches a passage or chapter by identifier. A nil result with a
// nil error means the provider had no matching passage.
func (c *Client) Passage(ctx context.Context, passageID string, opts ContentOptions) (*Passage, error) {
	var data *Passage
	path := fmt.Sprintf("/v1/bibles/%s/passages/%s", c.bibleID, url.PathEscape(passageID))
	if err := c.get(ctx, path, opts.values(), &data); err != nil {
		return nil, err
	}
	return data, nil
}

// Search runs a free-text query sorted by relevance with fuzzy matching.
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", "relevance")
	q.Set("fuzziness", "AUTO")

	var data *SearchResult
	if err := c.get(ctx, fmt.Sprintf("/v1/bibles/%s/search", c.bibleID), q, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// get issues one authenticated GET and decodes the provider's {"data": ...}
// envelope into out. Absent data leaves out untouched.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("provider returned non-success status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("provider returned status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read provider response: %w", err)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}
