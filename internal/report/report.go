// Package report renders recovered session context for the operator.
package report

import (
	"fmt"
	"strings"

	"github.com/norm/session-catchup/internal/sessionlog"
)

const (
	defaultMaxMessages    = 100
	defaultUserLimit      = 300
	defaultAssistantLimit = 300
	defaultMaxTools       = 4
	defaultAssistantName  = "PI"
)

// Options bounds what Render prints.
type Options struct {
	// MaxMessages keeps only the most recent events of a longer report.
	MaxMessages int
	// UserTextLimit and AssistantTextLimit cap each message, in runes.
	UserTextLimit      int
	AssistantTextLimit int
	// MaxTools caps the tool summaries listed per assistant turn.
	MaxTools int
	// AssistantName prefixes assistant lines.
	AssistantName string
	// PlanningFiles are listed in the recommended checklist.
	PlanningFiles []string
	// Digest, when set, is printed in its own section.
	Digest string
}

// DefaultOptions returns the bounds of the planning-with-files catchup hook.
func DefaultOptions() Options {
	return Options{
		MaxMessages:        defaultMaxMessages,
		UserTextLimit:      defaultUserLimit,
		AssistantTextLimit: defaultAssistantLimit,
		MaxTools:           defaultMaxTools,
		AssistantName:      defaultAssistantName,
		PlanningFiles:      append([]string(nil), sessionlog.DefaultPlanningFiles...),
	}
}

func (o Options) withDefaults() Options {
	if o.MaxMessages <= 0 {
		o.MaxMessages = defaultMaxMessages
	}
	if o.UserTextLimit <= 0 {
		o.UserTextLimit = defaultUserLimit
	}
	if o.AssistantTextLimit <= 0 {
		o.AssistantTextLimit = defaultAssistantLimit
	}
	if o.MaxTools <= 0 {
		o.MaxTools = defaultMaxTools
	}
	if o.AssistantName == "" {
		o.AssistantName = defaultAssistantName
	}
	if len(o.PlanningFiles) == 0 {
		o.PlanningFiles = sessionlog.DefaultPlanningFiles
	}
	return o
}

// Render formats r as the catchup digest. A nil report renders as "".
func Render(r *sessionlog.Report, opts Options) string {
	if r == nil {
		return ""
	}
	opts = opts.withDefaults()

	var b strings.Builder
	b.WriteString("\n[planning-with-files] SESSION CATCHUP DETECTED\n")
	fmt.Fprintf(&b, "Last planning update: %s in session %s...\n", r.PlanningFile, r.Origin)
	if r.SessionsCovered > 1 {
		fmt.Fprintf(&b, "Scanning %d sessions for unsynced context\n", r.SessionsCovered)
	}
	fmt.Fprintf(&b, "Unsynced messages: %d\n", len(r.Events))

	b.WriteString("\n--- UNSYNCED CONTEXT ---\n")
	shown, omitted := window(r.Events, opts.MaxMessages)
	if omitted > 0 {
		fmt.Fprintf(&b, "(Showing last %d of %d messages)\n\n", len(shown), len(r.Events))
	}

	current := ""
	for i, ev := range shown {
		if i == 0 || ev.SourceName != current {
			current = ev.SourceName
			fmt.Fprintf(&b, "\n[Session: %s...]\n", ev.Session)
		}
		writeEvent(&b, ev, opts)
	}

	if digest := strings.TrimSpace(opts.Digest); digest != "" {
		b.WriteString("\n--- DIGEST ---\n")
		b.WriteString(digest)
		b.WriteString("\n")
	}

	b.WriteString("\n--- RECOMMENDED ---\n")
	b.WriteString("1. Run: git diff --stat\n")
	fmt.Fprintf(&b, "2. Read: %s\n", strings.Join(opts.PlanningFiles, ", "))
	b.WriteString("3. Update planning files based on above context\n")
	b.WriteString("4. Continue with task\n")
	return b.String()
}

// Transcript renders the displayed window without headers or checklist,
// one line per message, for use as summarizer input.
func Transcript(r *sessionlog.Report, opts Options) string {
	if r == nil {
		return ""
	}
	opts = opts.withDefaults()
	shown, _ := window(r.Events, opts.MaxMessages)

	var b strings.Builder
	for _, ev := range shown {
		writeEvent(&b, ev, opts)
	}
	return b.String()
}

func writeEvent(b *strings.Builder, ev sessionlog.Event, opts Options) {
	switch ev.Kind {
	case sessionlog.KindUser:
		fmt.Fprintf(b, "USER: %s\n", truncate(ev.Text, opts.UserTextLimit))
	case sessionlog.KindAssistant:
		if ev.Text != "" {
			fmt.Fprintf(b, "%s: %s\n", opts.AssistantName, truncate(ev.Text, opts.AssistantTextLimit))
		}
		if len(ev.Tools) > 0 {
			fmt.Fprintf(b, "  Tools: %s\n", strings.Join(toolSummaries(ev.Tools, opts.MaxTools), ", "))
		}
	}
}

// window returns the last limit events and how many were left out.
func window(events []sessionlog.Event, limit int) ([]sessionlog.Event, int) {
	if len(events) <= limit {
		return events, 0
	}
	return events[len(events)-limit:], len(events) - limit
}

func toolSummaries(tools []sessionlog.ToolInvocation, limit int) []string {
	if len(tools) > limit {
		tools = tools[:limit]
	}
	out := make([]string, 0, len(tools))
	for _, tool := range tools {
		out = append(out, tool.Summary())
	}
	return out
}

func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
