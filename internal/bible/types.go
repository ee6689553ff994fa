package bible

import "encoding/json"

// Book is one book of the configured translation.
type Book struct {
	ID           string `json:"id"`
	BibleID      string `json:"bibleId,omitempty"`
	Abbreviation string `json:"abbreviation"`
	Name         string `json:"name"`
	NameLong     string `json:"nameLong,omitempty"`
}

// Chapter is one entry of a book's chapter list. Number is a string on the
// wire; the provider uses the literal "intro" for introduction sections.
type Chapter struct {
	ID        string `json:"id"`
	BibleID   string `json:"bibleId,omitempty"`
	BookID    string `json:"bookId,omitempty"`
	Number    string `json:"number"`
	Reference string `json:"reference"`
}

// Passage is the body of a verse, passage, or chapter fetch.
type Passage struct {
	ID        string  `json:"id"`
	Reference string  `json:"reference"`
	Content   Content `json:"content"`
}

// Content holds a passage body in whichever form the provider returned it:
// flat text (content-type=text) or a node tree (content-type=json). The
// shape is decided once here so callers never inspect raw JSON.
type Content struct {
	Text  string
	Nodes []ContentNode
}

func (c *Content) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.Text)
	}
	return json.Unmarshal(data, &c.Nodes)
}

// ContentNode is one node of a structured passage body: a text leaf
// (Type "text") or a composite wrapping child nodes in order.
type ContentNode struct {
	Type  string        `json:"type,omitempty"`
	Name  string        `json:"name,omitempty"`
	Text  string        `json:"text,omitempty"`
	Items []ContentNode `json:"items,omitempty"`
}

// SearchResult is the payload of a free-text search.
type SearchResult struct {
	Query  string        `json:"query"`
	Total  int           `json:"total"`
	Verses []SearchVerse `json:"verses"`
}

// SearchVerse is one search hit.
type SearchVerse struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Text      string `json:"text"`
}
