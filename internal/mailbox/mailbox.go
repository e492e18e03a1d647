// Package mailbox reads messages handed off by the mail gateway. The gateway
// drops each inbound message as a JSON file into a spool directory; this
// package is the read side the sync job polls.
package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bidline/crm-api/internal/service"
)

// DirSource reads messages from a spool directory of JSON files.
type DirSource struct {
	dir    string
	logger *zap.Logger
}

func NewDirSource(dir string, logger *zap.Logger) *DirSource {
	return &DirSource{dir: dir, logger: logger}
}

// message is the wire format the gateway writes.
type message struct {
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// FetchSince returns messages received after the given time, ordered oldest
// first. Files that fail to parse are logged and skipped so one bad message
// cannot wedge the sync.
func (s *DirSource) FetchSince(ctx context.Context, since time.Time) ([]service.EmailMessage, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mailbox directory: %w", err)
	}

	var result []service.EmailMessage
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("failed to read mailbox file", zap.String("file", path), zap.Error(err))
			continue
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("failed to parse mailbox file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !msg.ReceivedAt.After(since) {
			continue
		}

		result = append(result, service.EmailMessage{
			From:       msg.From,
			Subject:    msg.Subject,
			Body:       msg.Body,
			ReceivedAt: msg.ReceivedAt,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ReceivedAt.Before(result[j].ReceivedAt)
	})

	return result, nil
}
