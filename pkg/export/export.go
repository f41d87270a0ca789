// Package export normalizes a raw conversation archive into ordered,
// typed threads. Each parsed message carries a confidence score and any
// drift markers found in its text.
package export

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RawConversation is one conversation in the export document: a mapping
// of node-id to node, where nodes optionally carry a message plus
// parent/child links.
type RawConversation struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	CreateTime float64            `json:"create_time"`
	UpdateTime float64            `json:"update_time"`
	Mapping    map[string]RawNode `json:"mapping"`
}

// RawNode is a node in a conversation's mapping.
type RawNode struct {
	ID       string      `json:"id"`
	Message  *RawMessage `json:"message"`
	Parent   *string     `json:"parent"`
	Children []string    `json:"children"`
}

// RawMessage is the optional message payload of a node.
type RawMessage struct {
	ID         string         `json:"id"`
	Author     RawAuthor      `json:"author"`
	CreateTime float64        `json:"create_time"`
	Content    RawContent     `json:"content"`
	Metadata   map[string]any `json:"metadata"`
}

// RawAuthor carries the role of a message author.
type RawAuthor struct {
	Role string `json:"role"`
}

// RawContent carries the text parts of a message.
type RawContent struct {
	ContentType string   `json:"content_type"`
	Parts       []string `json:"parts"`
}

// Text concatenates the non-empty content parts.
func (c RawContent) Text() string {
	var sb strings.Builder
	for _, p := range c.Parts {
		sb.WriteString(p)
	}
	return strings.TrimSpace(sb.String())
}

// envelope matches the object form of the export document.
type envelope struct {
	Conversations []RawConversation `json:"conversations"`
}

// DecodeExport parses the export document, accepting either a top-level
// array of conversations or an object with a "conversations" array.
// A document that is neither is an input error, fatal to the run.
func DecodeExport(data []byte) ([]RawConversation, error) {
	trimmed := strings.TrimLeftFunc(string(data), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	if strings.HasPrefix(trimmed, "[") {
		var convs []RawConversation
		if err := json.Unmarshal(data, &convs); err != nil {
			return nil, fmt.Errorf("parsing export array: %w", err)
		}
		return convs, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing export document: %w", err)
	}
	if env.Conversations == nil {
		return nil, fmt.Errorf("export document has no conversations array")
	}

	return env.Conversations, nil
}
