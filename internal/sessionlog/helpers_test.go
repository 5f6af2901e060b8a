package sessionlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var baseTime = time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)

type contentItem map[string]any

func textItem(text string) contentItem {
	return contentItem{"type": "text", "text": text}
}

func toolItem(name string, args map[string]any) contentItem {
	return contentItem{"type": "toolCall", "id": "call_1", "name": name, "arguments": args}
}

func messageLine(t *testing.T, role string, items ...contentItem) string {
	t.Helper()
	rec := map[string]any{
		"type":      "message",
		"timestamp": baseTime.Format(time.RFC3339),
		"message": map[string]any{
			"role":    role,
			"content": items,
		},
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	return string(data)
}

func userLine(t *testing.T, text string) string {
	return messageLine(t, "user", textItem(text))
}

func assistantLine(t *testing.T, text string) string {
	return messageLine(t, "assistant", textItem(text))
}

func planningWriteLine(t *testing.T, tool, path string) string {
	return messageLine(t, "assistant", toolItem(tool, map[string]any{"path": path, "content": "x"}))
}

const sessionHeader = `{"type":"session","version":3,"id":"hdr","cwd":"/work/project"}`

// writeSession writes lines to dir/name and sets its modification time to
// baseTime plus the given number of minutes.
func writeSession(t *testing.T, dir, name string, minutes int, lines ...string) Source {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, name)
	body := strings.Join(lines, "\n")
	if len(lines) > 0 {
		body += "\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	mtime := baseTime.Add(time.Duration(minutes) * time.Minute)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return Source{Path: path, Name: name, ModTime: info.ModTime(), Size: info.Size()}
}

func sessionName(minutes int, id string) string {
	return baseTime.Add(time.Duration(minutes)*time.Minute).Format("2006-01-02T15-04-05-000Z") + "_" + id + ".jsonl"
}

func texts(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Text)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
