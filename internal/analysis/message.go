package analysis

import "errors"

// ErrEmptyMessage means the analysis response carried no textual payload.
var ErrEmptyMessage = errors.New("analysis message has no text content")

// ContentKind tags which variant of Content is populated.
type ContentKind int

const (
	// KindText marks content delivered as one plain string.
	KindText ContentKind = iota
	// KindBlocks marks content delivered as an ordered sequence of typed blocks.
	KindBlocks
)

// Block is one typed content block in a multi-part analysis response.
type Block struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Content is the tagged union of the two payload shapes the analysis backend
// may deliver. Construct with TextContent or BlockContent; never populate both.
type Content struct {
	Kind   ContentKind
	Text   string
	Blocks []Block
}

// TextContent wraps a plain string payload.
func TextContent(text string) Content {
	return Content{Kind: KindText, Text: text}
}

// BlockContent wraps a block-sequence payload.
func BlockContent(blocks []Block) Content {
	return Content{Kind: KindBlocks, Blocks: blocks}
}

// Message is one analysis response.
type Message struct {
	Content Content
}

// Text normalizes the union into the textual payload: the string itself, or
// the text of the first block. An empty payload yields ErrEmptyMessage.
func (m *Message) Text() (string, error) {
	switch m.Content.Kind {
	case KindText:
		if m.Content.Text == "" {
			return "", ErrEmptyMessage
		}
		return m.Content.Text, nil
	case KindBlocks:
		if len(m.Content.Blocks) == 0 || m.Content.Blocks[0].Text == "" {
			return "", ErrEmptyMessage
		}
		return m.Content.Blocks[0].Text, nil
	default:
		return "", ErrEmptyMessage
	}
}
