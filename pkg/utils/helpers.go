package utils

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

var idSeq uint64

// GenNoteID generates a unique note ID using the current UTC nanosecond
// timestamp and an atomic sequence number. The format is "note-<timestamp>-<seq>".
func GenNoteID() string {
	n := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&idSeq, 1)
	return fmt.Sprintf("note-%d-%d", n, s)
}

// SplitPath splits a path string into its non-empty segments, separated by '/'.
// For example, "/foo/bar/" becomes []string{"foo", "bar"}.
func SplitPath(p string) []string {
	out := make([]string, 0)
	cur := ""
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			continue
		}
		cur += string(c)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

// ToRawMessages converts a slice of JSON-encoded strings to a slice of json.RawMessage.
func ToRawMessages(vals []string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(vals))
	for _, s := range vals {
		out = append(out, json.RawMessage(s))
	}
	return out
}
