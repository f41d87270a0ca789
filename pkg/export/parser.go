package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/threadworksco/strata/pkg/audit"
	"github.com/threadworksco/strata/pkg/thread"
)

// Config holds the parser's collaborators.
type Config struct {
	Logger *slog.Logger
	Sink   audit.Sink
}

// Parser normalizes raw conversations into threads. Parsing is pure and
// deterministic given the same input; there are no retries.
type Parser struct {
	logger *slog.Logger
	sink   audit.Sink
}

// NewParser creates a Parser. Nil collaborators default to no-ops.
func NewParser(cfg Config) *Parser {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sink := cfg.Sink
	if sink == nil {
		sink = audit.NewNopSink()
	}

	return &Parser{logger: logger, sink: sink}
}

// Parse converts raw conversations into threads. A malformed conversation
// fails the parse for that conversation only: it is logged, audited, and
// skipped, and parsing continues. The skipped count is returned alongside
// the threads.
func (p *Parser) Parse(ctx context.Context, convs []RawConversation) ([]*thread.Thread, int) {
	threads := make([]*thread.Thread, 0, len(convs))
	skipped := 0

	for _, rc := range convs {
		t, err := p.parseConversation(rc)
		if err != nil {
			skipped++
			p.logger.Warn("skipping malformed conversation",
				"conversation_id", rc.ID,
				"error", err,
			)
			_ = p.sink.Append(ctx, audit.Event{
				Type:        "conversation_skipped",
				Severity:    audit.SeverityMedium,
				Stage:       audit.StageParser,
				Description: fmt.Sprintf("conversation %s skipped: %v", rc.ID, err),
			})
			continue
		}

		threads = append(threads, t)
		_ = p.sink.Append(ctx, audit.Event{
			Type:        "conversation_parsed",
			Severity:    audit.SeverityInfo,
			Stage:       audit.StageParser,
			Description: fmt.Sprintf("conversation %s parsed", t.ID),
			Detail: map[string]any{
				"thread_id":     t.ID,
				"message_count": len(t.Messages),
			},
		})
	}

	return threads, skipped
}

// parseConversation builds one thread: messages ordered by creation time
// with zero-based sequence numbers, each scored and scanned for markers.
// Nodes without a message and messages with empty content are ignored.
func (p *Parser) parseConversation(rc RawConversation) (*thread.Thread, error) {
	if rc.ID == "" {
		return nil, fmt.Errorf("conversation has no id")
	}
	if rc.Mapping == nil {
		return nil, fmt.Errorf("conversation %s has no node mapping", rc.ID)
	}

	type pending struct {
		nodeID string
		raw    *RawMessage
		text   string
	}

	var msgs []pending
	for nodeID, node := range rc.Mapping {
		if node.Message == nil {
			continue
		}

		text := node.Message.Content.Text()
		if text == "" {
			continue
		}

		msgs = append(msgs, pending{nodeID: nodeID, raw: node.Message, text: text})
	}

	// Order by creation time; node id breaks ties so output is stable.
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].raw.CreateTime != msgs[j].raw.CreateTime {
			return msgs[i].raw.CreateTime < msgs[j].raw.CreateTime
		}
		return msgs[i].nodeID < msgs[j].nodeID
	})

	t := &thread.Thread{
		ID:        rc.ID,
		Title:     rc.Title,
		CreatedAt: epochToTime(rc.CreateTime),
		UpdatedAt: epochToTime(rc.UpdateTime),
		Messages:  make([]thread.Message, 0, len(msgs)),
	}

	for seq, m := range msgs {
		role, err := thread.ParseRole(m.raw.Author.Role)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", m.nodeID, err)
		}

		id := m.raw.ID
		if id == "" {
			id = m.nodeID
		}

		msg := thread.Message{
			ID:        id,
			ThreadID:  rc.ID,
			Role:      role,
			Content:   m.text,
			CreatedAt: epochToTime(m.raw.CreateTime),
			Seq:       seq,
			Markers:   ScanMarkers(m.text),
		}
		msg.Score = ScoreConfidence(role, m.text)

		t.Messages = append(t.Messages, msg)
	}

	return t, nil
}

func epochToTime(secs float64) time.Time {
	if secs == 0 {
		return time.Time{}
	}
	return time.Unix(int64(secs), 0).UTC()
}
