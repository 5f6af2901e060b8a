package sessionlog

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind discriminates the record variants the catchup cares about.
type Kind int

const (
	KindOther Kind = iota
	KindUser
	KindAssistant
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindAssistant:
		return "assistant"
	default:
		return "other"
	}
}

// Record type and content item discriminators in Pi session logs.
const (
	recordTypeMessage = "message"
	itemTypeText      = "text"
	itemTypeToolCall  = "toolCall"

	roleUser      = "user"
	roleAssistant = "assistant"
)

// Tool names with a display-relevant argument.
const (
	toolWrite = "write"
	toolEdit  = "edit"
	toolRead  = "read"
	toolBash  = "bash"
)

// ToolInvocation is a tool call made by the assistant.
type ToolInvocation struct {
	Name    string
	Path    string
	Command string
}

// Summary renders the invocation as "Edit: path", "Bash: cmd" and so on.
// Tools without a known display argument render as their bare name.
func (t ToolInvocation) Summary() string {
	switch strings.ToLower(t.Name) {
	case toolEdit:
		return "Edit: " + orUnknown(t.Path)
	case toolWrite:
		return "Write: " + orUnknown(t.Path)
	case toolRead:
		return "Read: " + orUnknown(t.Path)
	case toolBash:
		return "Bash: " + t.Command
	default:
		return t.Name
	}
}

// writes reports whether the invocation creates or modifies a file.
func (t ToolInvocation) writes() bool {
	switch strings.ToLower(t.Name) {
	case toolWrite, toolEdit:
		return true
	}
	return false
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Event is one conversational record from a session log.
type Event struct {
	Kind  Kind
	Text  string
	Tools []ToolInvocation

	// Offset is the zero-based line index of the record within its source.
	Offset int
	// Session is the short label of the source; SourceName its file name.
	Session    string
	SourceName string
}

// PlanningTarget returns the planning document touched by a write or edit
// in this event. Paths are matched by suffix against planningFiles in order.
// When several invocations match, the last one wins.
func (e Event) PlanningTarget(planningFiles []string) (string, bool) {
	if e.Kind != KindAssistant {
		return "", false
	}
	found := ""
	for _, tool := range e.Tools {
		if !tool.writes() || tool.Path == "" {
			continue
		}
		for _, name := range planningFiles {
			if strings.HasSuffix(tool.Path, name) {
				found = name
				break
			}
		}
	}
	return found, found != ""
}

// DecodeRecord parses one JSONL line. ok is false when the line is not a
// JSON object; records that are not conversational messages decode as
// KindOther.
func DecodeRecord(line []byte) (Event, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || !gjson.ValidBytes(line) {
		return Event{}, false
	}
	rec := gjson.ParseBytes(line)
	if !rec.IsObject() {
		return Event{}, false
	}
	if rec.Get("type").String() != recordTypeMessage {
		return Event{Kind: KindOther}, true
	}

	msg := rec.Get("message")
	var kind Kind
	switch msg.Get("role").String() {
	case roleUser:
		kind = KindUser
	case roleAssistant:
		kind = KindAssistant
	default:
		return Event{Kind: KindOther}, true
	}

	text, tools := decodeContent(msg.Get("content"))
	if kind == KindUser {
		tools = nil
	}
	return Event{Kind: kind, Text: text, Tools: tools}, true
}

func decodeContent(content gjson.Result) (string, []ToolInvocation) {
	if content.Type == gjson.String {
		return content.String(), nil
	}
	if !content.IsArray() {
		return "", nil
	}

	var text strings.Builder
	var tools []ToolInvocation
	content.ForEach(func(_, item gjson.Result) bool {
		switch item.Get("type").String() {
		case itemTypeText:
			text.WriteString(item.Get("text").String())
		case itemTypeToolCall:
			tools = append(tools, decodeToolCall(item))
		}
		return true
	})
	return text.String(), tools
}

func decodeToolCall(item gjson.Result) ToolInvocation {
	args := item.Get("arguments")
	if args.Type == gjson.String {
		args = gjson.Parse(args.String())
	}
	path := args.Get("path")
	if !path.Exists() {
		path = args.Get("file_path")
	}
	return ToolInvocation{
		Name:    item.Get("name").String(),
		Path:    stringValue(path),
		Command: stringValue(args.Get("command")),
	}
}

func stringValue(r gjson.Result) string {
	if r.Type != gjson.String {
		return ""
	}
	return r.String()
}

// mayWritePlanning is a cheap pre-filter: lines without a "write" or "edit"
// token cannot hold a planning write.
func mayWritePlanning(line []byte) bool {
	lower := bytes.ToLower(line)
	return bytes.Contains(lower, []byte(`"write"`)) || bytes.Contains(lower, []byte(`"edit"`))
}
