package tools

import (
	"context"
	"fmt"
	"strings"
)

// ReferenceToolset exposes the bible_reference tool: structural
// navigation over books and chapters.
type ReferenceToolset struct {
	client Fetcher
}

func NewReferenceToolset(client Fetcher) *ReferenceToolset {
	return &ReferenceToolset{client: client}
}

func (t *ReferenceToolset) Tool() Tool {
	return Tool{
		Name:        "bible_reference",
		Title:       "Bible Reference",
		Description: "Navigate the Bible's structure: list books, or list the chapters of a book.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"action": map[string]interface{}{
					"type":        "string",
					"enum":        []string{actionListBooks, actionListChapters},
					"description": "Operation to perform",
				},
				"book_id": map[string]interface{}{
					"type":        "string",
					"description": "Book code like GEN (required for list_chapters)",
				},
				"response_format": responseFormatSchema(),
			},
			"required": []string{"action"},
		},
	}
}

func (t *ReferenceToolset) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	opts := resolveOptions(args)
	switch action := getStr(args, "action"); action {
	case actionListBooks:
		return t.listBooks(ctx, opts)
	case actionListChapters:
		return t.listChapters(ctx, args, opts)
	default:
		return "", fmt.Errorf("unknown action %q: valid actions are %s, %s",
			action, actionListBooks, actionListChapters)
	}
}

func (t *ReferenceToolset) listBooks(ctx context.Context, opts callOptions) (string, error) {
	books, err := t.client.Books(ctx)
	if err != nil {
		return "", err
	}
	if len(books) == 0 {
		return "No books available.", nil
	}

	var b strings.Builder
	for _, bk := range books {
		if opts.detailed {
			fmt.Fprintf(&b, "- %s (%s) [%s]\n", bk.Name, bk.Abbreviation, bk.ID)
		} else {
			fmt.Fprintf(&b, "- %s (%s)\n", bk.Name, bk.Abbreviation)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func (t *ReferenceToolset) listChapters(ctx context.Context, args map[string]interface{}, opts callOptions) (string, error) {
	bookID := strings.ToUpper(getStr(args, "book_id"))
	if bookID == "" {
		return "", fmt.Errorf("book_id is required for list_chapters")
	}

	chapters, err := t.client.Chapters(ctx, bookID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	count := 0
	for _, c := range chapters {
		if c.Number == "intro" {
			continue
		}
		count++
		if opts.detailed {
			fmt.Fprintf(&b, "- Chapter %s (%s)\n", c.Number, c.Reference)
		} else {
			fmt.Fprintf(&b, "- Chapter %s\n", c.Number)
		}
	}
	if count == 0 {
		return fmt.Sprintf("No chapters found for book %s.", bookID), nil
	}
	return strings.TrimSpace(b.String()), nil
}
