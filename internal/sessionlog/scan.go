package sessionlog

// Checkpoint locates the last planning document write found by the
// backward scan.
type Checkpoint struct {
	Source       Source
	Offset       int
	PlanningFile string
	// Rank is the index of Source in the slice that was scanned.
	Rank int
}

// FindLastPlanningUpdate walks sources in the given order (newest first,
// current session already excluded) and returns the last planning write in
// the first source that has one. Unreadable sources and malformed lines are
// skipped.
func FindLastPlanningUpdate(sources []Source, opts Options) (Checkpoint, bool) {
	opts = opts.withDefaults()

	for rank, src := range sources {
		offset, file, err := lastPlanningWrite(src, opts.PlanningFiles)
		if err != nil {
			opts.Logger.Warn("scan session failed", "path", src.Path, "error", err)
		}
		if offset < 0 {
			continue
		}
		opts.Logger.Debug("planning update found",
			"path", src.Path,
			"line", offset,
			"file", file,
			"rank", rank,
		)
		return Checkpoint{Source: src, Offset: offset, PlanningFile: file, Rank: rank}, true
	}
	return Checkpoint{}, false
}

// lastPlanningWrite returns the offset and document name of the last
// planning write in src, or -1 when there is none. A read error keeps the
// matches seen before it.
func lastPlanningWrite(src Source, planningFiles []string) (int, string, error) {
	lastOffset := -1
	lastFile := ""

	err := eachLine(src.Path, func(offset int, line []byte) bool {
		if !mayWritePlanning(line) {
			return true
		}
		ev, ok := DecodeRecord(line)
		if !ok {
			return true
		}
		if file, ok := ev.PlanningTarget(planningFiles); ok {
			lastOffset = offset
			lastFile = file
		}
		return true
	})
	return lastOffset, lastFile, err
}
