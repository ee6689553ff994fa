package tools

import (
	"context"
	"strconv"

	"github.com/scriptura/bible-mcp-server/internal/bible"
)

// Tool describes a callable tool exposed over the protocol.
type Tool struct {
	Name        string
	Title       string
	Description string
	InputSchema map[string]interface{}
}

// Toolset is implemented by each tool family. Call runs one action; a
// returned error marks the invocation as failed (bad usage or provider
// failure), while "not found" outcomes are ordinary result strings.
type Toolset interface {
	Tool() Tool
	Call(ctx context.Context, args map[string]interface{}) (string, error)
}

// Fetcher is the provider surface the toolsets depend on.
type Fetcher interface {
	Books(ctx context.Context) ([]bible.Book, error)
	Chapters(ctx context.Context, bookID string) ([]bible.Chapter, error)
	Verse(ctx context.Context, verseID string, opts bible.ContentOptions) (*bible.Passage, error)
	Passage(ctx context.Context, passageID string, opts bible.ContentOptions) (*bible.Passage, error)
	Search(ctx context.Context, query string, limit int) (*bible.SearchResult, error)
}

// Registry holds every toolset keyed by tool name, preserving
// registration order for tools/list.
type Registry struct {
	order []string
	sets  map[string]Toolset
}

func NewRegistry(sets ...Toolset) *Registry {
	r := &Registry{sets: make(map[string]Toolset)}
	for _, ts := range sets {
		name := ts.Tool().Name
		if _, ok := r.sets[name]; !ok {
			r.order = append(r.order, name)
		}
		r.sets[name] = ts
	}
	return r
}

// Tools returns every tool descriptor in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sets[name].Tool())
	}
	return out
}

// Get returns a toolset by tool name.
func (r *Registry) Get(name string) (Toolset, bool) {
	ts, ok := r.sets[name]
	return ts, ok
}

// Action and format values shared between the schemas and the handler
// switches. Both must read from these constants only.
const (
	actionSearch  = "search"
	actionVerse   = "verse"
	actionPassage = "passage"
	actionChapter = "chapter"

	actionListBooks    = "list_books"
	actionListChapters = "list_chapters"

	formatConcise  = "concise"
	formatDetailed = "detailed"
)

const (
	defaultSearchLimit   = 10
	maxSearchLimit       = 200
	conciseSearchResults = 5
	conciseTextLimit     = 100
)

// callOptions is the fully resolved set of cross-cutting parameters for
// one invocation. Every downstream branch reads these resolved values,
// never the raw arguments.
type callOptions struct {
	detailed bool
	limit    int
}

func resolveOptions(args map[string]interface{}) callOptions {
	limit := getInt(args, "limit", defaultSearchLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	return callOptions{
		detailed: getStr(args, "response_format") == formatDetailed,
		limit:    limit,
	}
}

func getStr(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getInt(m map[string]interface{}, key string, def int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// responseFormatSchema is shared by both tools.
func responseFormatSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{formatConcise, formatDetailed},
		"default":     formatConcise,
		"description": "Output fidelity: concise truncates text and omits structural metadata, detailed returns everything",
	}
}
