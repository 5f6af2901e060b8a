package sessionlog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	sessionExt    = ".jsonl"
	labelLength   = 8
	labelFieldSep = "_"
)

// Source is one session log file.
type Source struct {
	Path    string
	Name    string
	ModTime time.Time
	Size    int64
}

// Label returns the short session id shown in reports. Pi names sessions
// <timestamp>_<uuid>.jsonl; the label is the first eight characters of the
// id after the last underscore.
func (s Source) Label() string {
	stem := strings.TrimSuffix(s.Name, filepath.Ext(s.Name))
	id := stem
	if idx := strings.LastIndex(stem, labelFieldSep); idx >= 0 {
		id = stem[idx+1:]
	}
	if parsed, err := uuid.Parse(id); err == nil {
		id = parsed.String()
	}
	if len(id) > labelLength {
		id = id[:labelLength]
	}
	return id
}

// List returns the non-empty session logs in the bucket for key, newest
// first. A missing bucket is not an error. Equal modification times are
// ordered by file name so repeated runs see the same order.
func (s *Store) List(key ProjectKey) ([]Source, error) {
	dir := s.BucketDir(key)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read bucket %s: %w", dir, err)
	}

	var sources []Source
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), sessionExt) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.Size() == 0 {
			continue
		}
		sources = append(sources, Source{
			Path:    path,
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}

	sortNewestFirst(sources)
	return sources, nil
}

func sortNewestFirst(sources []Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		if !sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].ModTime.After(sources[j].ModTime)
		}
		return sources[i].Name < sources[j].Name
	})
}
