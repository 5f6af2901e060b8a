package sessionlog

import "fmt"

// Report is the unsynced context recovered for one project.
type Report struct {
	// PlanningFile is the planning document whose write anchors the report.
	PlanningFile string
	// Origin is the label of the session holding that write.
	Origin     string
	OriginPath string
	// SessionsCovered counts the origin session plus every newer previous
	// session whose events were replayed.
	SessionsCovered int
	Events          []Event
}

// Catchup runs the full pipeline for key. It returns a nil report when there
// is nothing to recover: no bucket, fewer than two sessions, no planning
// write outside the current session, or no events after the checkpoint.
func Catchup(store *Store, key ProjectKey, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	sources, err := store.List(key)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	opts.Logger.Debug("sessions listed", "bucket", store.BucketDir(key), "count", len(sources))
	if len(sources) < 2 {
		return nil, nil
	}

	// sources[0] is the session in progress.
	previous := sources[1:]
	cp, ok := FindLastPlanningUpdate(previous, opts)
	if !ok {
		return nil, nil
	}

	events := Merge(cp.Source, cp.Offset, previous[:cp.Rank], opts)
	if len(events) == 0 {
		return nil, nil
	}

	return &Report{
		PlanningFile:    cp.PlanningFile,
		Origin:          cp.Source.Label(),
		OriginPath:      cp.Source.Path,
		SessionsCovered: cp.Rank + 1,
		Events:          events,
	}, nil
}
