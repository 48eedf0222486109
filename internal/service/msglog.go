package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MessageLog appends one line per inbound message to messages.log in the
// configured log directory
type MessageLog struct {
	dir string
}

// NewMessageLog creates a message log rooted at dir
func NewMessageLog(dir string) *MessageLog {
	return &MessageLog{dir: dir}
}

// Append writes one log line for a message
func (l *MessageLog) Append(jid, text string) error {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(l.dir, "messages.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open message log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s -> %s\n",
		time.Now().Format(time.RFC3339), jid, strings.ReplaceAll(text, "\n", "\\n"))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append message log: %w", err)
	}
	return nil
}
