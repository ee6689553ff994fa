package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/scriptura/bible-mcp-server/internal/bible"
)

// ContentToolset exposes the bible_content tool: keyword search plus
// verse, passage, and chapter retrieval.
type ContentToolset struct {
	client Fetcher
}

func NewContentToolset(client Fetcher) *ContentToolset {
	return &ContentToolset{client: client}
}

func (t *ContentToolset) Tool() Tool {
	return Tool{
		Name:        "bible_content",
		Title:       "Bible Content",
		Description: "Retrieve Bible text: search by keywords, or fetch a single verse, a passage range, or a whole chapter.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"action": map[string]interface{}{
					"type":        "string",
					"enum":        []string{actionSearch, actionVerse, actionPassage, actionChapter},
					"description": "Operation to perform",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search keywords (required for search)",
				},
				"verse_id": map[string]interface{}{
					"type":        "string",
					"description": "Verse identifier like GEN.1.1 (required for verse)",
				},
				"passage_id": map[string]interface{}{
					"type":        "string",
					"description": "Passage range like GEN.1.1-GEN.1.10 (required for passage)",
				},
				"book_id": map[string]interface{}{
					"type":        "string",
					"description": "Book code like GEN (required for chapter)",
				},
				"chapter": map[string]interface{}{
					"type":        "integer",
					"description": "Chapter number (required for chapter)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"default":     defaultSearchLimit,
					"description": "Maximum search results, clamped to 1-200",
				},
				"response_format": responseFormatSchema(),
			},
			"required": []string{"action"},
		},
	}
}

func (t *ContentToolset) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	opts := resolveOptions(args)
	switch action := getStr(args, "action"); action {
	case actionSearch:
		return t.search(ctx, args, opts)
	case actionVerse:
		return t.verse(ctx, args, opts)
	case actionPassage:
		return t.passage(ctx, args, opts)
	case actionChapter:
		return t.chapter(ctx, args, opts)
	default:
		return "", fmt.Errorf("unknown action %q: valid actions are %s, %s, %s, %s",
			action, actionSearch, actionVerse, actionPassage, actionChapter)
	}
}

func (t *ContentToolset) search(ctx context.Context, args map[string]interface{}, opts callOptions) (string, error) {
	query := getStr(args, "query")
	if query == "" {
		return "", fmt.Errorf("query is required for search")
	}

	res, err := t.client.Search(ctx, query, opts.limit)
	if err != nil {
		return "", err
	}
	if res == nil || len(res.Verses) == 0 {
		return fmt.Sprintf("No verses found for %q.", query), nil
	}

	verses := res.Verses
	if !opts.detailed && len(verses) > conciseSearchResults {
		verses = verses[:conciseSearchResults]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result(s) for %q:\n\n", res.Total, query)
	for _, v := range verses {
		text := strings.TrimSpace(v.Text)
		if !opts.detailed {
			text = truncate(text, conciseTextLimit)
		}
		fmt.Fprintf(&b, "%s\n%s\n\n", v.Reference, text)
	}
	return strings.TrimSpace(b.String()), nil
}

func (t *ContentToolset) verse(ctx context.Context, args map[string]interface{}, opts callOptions) (string, error) {
	verseID := strings.ToUpper(getStr(args, "verse_id"))
	if verseID == "" {
		return "", fmt.Errorf("verse_id is required for verse")
	}

	p, err := t.client.Verse(ctx, verseID, bible.ContentOptions{
		ContentType:         "text",
		IncludeVerseNumbers: opts.detailed,
	})
	if err != nil {
		return "", err
	}
	if p == nil {
		return fmt.Sprintf("Verse %s not found.", verseID), nil
	}

	text := strings.TrimSpace(p.Content.Text)
	if !opts.detailed {
		text = truncate(text, conciseTextLimit)
	}
	return fmt.Sprintf("%s\n%s", p.Reference, text), nil
}

func (t *ContentToolset) passage(ctx context.Context, args map[string]interface{}, opts callOptions) (string, error) {
	passageID := strings.ToUpper(getStr(args, "passage_id"))
	if passageID == "" {
		return "", fmt.Errorf("passage_id is required for passage")
	}

	p, text, err := t.fetchBody(ctx, passageID, opts)
	if err != nil {
		return "", err
	}
	if p == nil {
		return fmt.Sprintf("Passage %s not found.", passageID), nil
	}
	if !opts.detailed {
		text = truncate(text, conciseTextLimit)
	}
	return fmt.Sprintf("%s\n%s", p.Reference, text), nil
}

func (t *ContentToolset) chapter(ctx context.Context, args map[string]interface{}, opts callOptions) (string, error) {
	bookID := strings.ToUpper(getStr(args, "book_id"))
	if bookID == "" {
		return "", fmt.Errorf("book_id is required for chapter")
	}
	number := getInt(args, "chapter", 0)
	if number <= 0 {
		return "", fmt.Errorf("chapter is required for chapter and must be a positive number")
	}

	chapters, err := t.client.Chapters(ctx, bookID)
	if err != nil {
		return "", err
	}

	want := strconv.Itoa(number)
	var chapterID string
	for _, c := range chapters {
		if c.Number == want {
			chapterID = c.ID
			break
		}
	}
	if chapterID == "" {
		return fmt.Sprintf("Chapter %d not found in book %s.", number, bookID), nil
	}

	p, text, err := t.fetchBody(ctx, chapterID, opts)
	if err != nil {
		return "", err
	}
	if p == nil {
		return fmt.Sprintf("Chapter %d not found in book %s.", number, bookID), nil
	}
	return fmt.Sprintf("%s\n%s", p.Reference, text), nil
}

// fetchBody fetches a passage or chapter body with the fidelity-dependent
// parameter set: detailed requests the structured tree with verse numbers
// and flattens it, concise requests flat text and uses it as-is (trimmed).
func (t *ContentToolset) fetchBody(ctx context.Context, id string, opts callOptions) (*bible.Passage, string, error) {
	if opts.detailed {
		p, err := t.client.Passage(ctx, id, bible.ContentOptions{
			ContentType:         "json",
			IncludeVerseNumbers: true,
		})
		if err != nil || p == nil {
			return nil, "", err
		}
		return p, bible.FlattenContent(p.Content.Nodes), nil
	}

	p, err := t.client.Passage(ctx, id, bible.ContentOptions{ContentType: "text"})
	if err != nil || p == nil {
		return nil, "", err
	}
	return p, strings.TrimSpace(p.Content.Text), nil
}
