package sessionlog

// Merge returns the conversational events recorded after the checkpoint:
// the events of found after offset, followed by every event of newer.
// newer is ordered newest first, as produced by Store.List; its sessions are
// replayed oldest first so the result stays chronological. Within a source
// events keep their line order.
func Merge(found Source, offset int, newer []Source, opts Options) []Event {
	opts = opts.withDefaults()

	seen := map[string]struct{}{found.Path: {}}
	events := readEvents(found, offset, opts)
	for i := len(newer) - 1; i >= 0; i-- {
		src := newer[i]
		if _, dup := seen[src.Path]; dup {
			continue
		}
		seen[src.Path] = struct{}{}
		events = append(events, readEvents(src, -1, opts)...)
	}
	return events
}

// readEvents parses every user and assistant event of src at an offset
// greater than after. A read failure keeps the events parsed so far.
func readEvents(src Source, after int, opts Options) []Event {
	label := src.Label()
	var events []Event

	err := eachLine(src.Path, func(offset int, line []byte) bool {
		if offset <= after {
			return true
		}
		ev, ok := DecodeRecord(line)
		if !ok {
			return true
		}
		ev, keep := trimEvent(ev, opts)
		if !keep {
			return true
		}
		ev.Offset = offset
		ev.Session = label
		ev.SourceName = src.Name
		events = append(events, ev)
		return true
	})
	if err != nil {
		opts.Logger.Warn("read session failed", "path", src.Path, "error", err, "events", len(events))
	}
	return events
}

// trimEvent applies display bounds and drops events with nothing to show.
func trimEvent(ev Event, opts Options) (Event, bool) {
	switch ev.Kind {
	case KindUser:
		return ev, ev.Text != ""
	case KindAssistant:
		ev.Text = truncateRunes(ev.Text, opts.AssistantTextLimit)
		for i := range ev.Tools {
			ev.Tools[i].Command = truncateRunes(ev.Tools[i].Command, opts.CommandPreview)
		}
		return ev, ev.Text != "" || len(ev.Tools) > 0
	default:
		return ev, false
	}
}
