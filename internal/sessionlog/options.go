package sessionlog

import (
	"log/slog"

	logpkg "github.com/norm/session-catchup/internal/log"
)

// DefaultPlanningFiles are the planning documents whose modification marks a
// synchronization checkpoint.
var DefaultPlanningFiles = []string{"task_plan.md", "progress.md", "findings.md"}

const (
	defaultAssistantTextLimit = 600
	defaultCommandPreview     = 80
)

// Options tunes scanning and merging.
type Options struct {
	PlanningFiles []string

	// AssistantTextLimit caps the text kept per assistant event, in runes.
	AssistantTextLimit int
	// CommandPreview caps the command shown in Bash tool summaries, in runes.
	CommandPreview int

	Logger *slog.Logger
}

// DefaultOptions returns the options used by the CLI when nothing is configured.
func DefaultOptions() Options {
	return Options{
		PlanningFiles:      append([]string(nil), DefaultPlanningFiles...),
		AssistantTextLimit: defaultAssistantTextLimit,
		CommandPreview:     defaultCommandPreview,
	}
}

func (o Options) withDefaults() Options {
	if len(o.PlanningFiles) == 0 {
		o.PlanningFiles = DefaultPlanningFiles
	}
	if o.AssistantTextLimit <= 0 {
		o.AssistantTextLimit = defaultAssistantTextLimit
	}
	if o.CommandPreview <= 0 {
		o.CommandPreview = defaultCommandPreview
	}
	if o.Logger == nil {
		o.Logger = logpkg.Discard()
	}
	return o
}

// truncateRunes returns the first n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
