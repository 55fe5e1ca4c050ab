package sessions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mudler/xlog"
)

// Store persists the per-agent chat registry as a single JSON file holding
// { agentId: [chatId, ...] }. Insertion order is recency order, most-recent
// last. A corrupted or missing file is treated as an empty registry: the
// store logs and carries on, it never blocks agent or chat selection.
type Store struct {
	filePath string
	mu       sync.Mutex
}

type registry map[string][]string

// NewStore creates a store backed by the given file path. The file is only
// created on the first Save.
func NewStore(filePath string) *Store {
	return &Store{filePath: filePath}
}

// Save appends chatID to the agent's sequence if it is not already present
// and persists the registry. Empty arguments make it a no-op.
func (s *Store) Save(agentID, chatID string) {
	if agentID == "" || chatID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reg := s.read()
	for _, id := range reg[agentID] {
		if id == chatID {
			return
		}
	}
	reg[agentID] = append(reg[agentID], chatID)

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		xlog.Error("Failed to encode chat registry", "error", err)
		return
	}

	os.MkdirAll(filepath.Dir(s.filePath), 0755)
	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		xlog.Error("Failed to persist chat registry", "path", s.filePath, "error", err)
	}
}

// Load returns the ordered chat ids saved for the agent, or an empty slice
// if the agent has none or the underlying file is unreadable.
func (s *Store) Load(agentID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.read()[agentID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func (s *Store) read() registry {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			xlog.Warn("Chat registry unreadable, starting empty", "path", s.filePath, "error", err)
		}
		return registry{}
	}

	if len(data) == 0 {
		return registry{}
	}

	var reg registry
	if err := json.Unmarshal(data, &reg); err != nil {
		xlog.Warn("Chat registry corrupted, starting empty", "path", s.filePath, "error", err)
		return registry{}
	}
	if reg == nil {
		reg = registry{}
	}
	return reg
}

// NewChatID mints a chat id of the form chat_<epochMillis>. The timestamp is
// recoverable for display labels; it is not a global uniqueness guarantee,
// two calls within the same millisecond collide and rely on call-site
// debouncing.
func NewChatID() string {
	return fmt.Sprintf("chat_%d", time.Now().UnixMilli())
}

// ChatCreatedAt recovers the creation time encoded in a chat id, or the zero
// time if the id does not carry one.
func ChatCreatedAt(chatID string) time.Time {
	suffix, ok := strings.CutPrefix(chatID, "chat_")
	if !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
