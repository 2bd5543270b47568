package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cankoe/filepulse/internal/models"
)

// DirStore treats every matching file in a directory as a report. The
// generation time is the file's modification time.
type DirStore struct {
	dir        string
	extensions map[string]bool
}

func NewDirStore(dir string, extensions []string) *DirStore {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	return &DirStore{dir: dir, extensions: exts}
}

func (s *DirStore) List(ctx context.Context) ([]models.Report, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reports dir: %w", err)
	}

	list := make([]models.Report, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if len(s.extensions) > 0 && !s.extensions[ext] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		list = append(list, models.Report{
			Path:        filepath.Join(s.dir, e.Name()),
			Title:       titleFromName(e.Name()),
			GeneratedAt: info.ModTime(),
		})
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].GeneratedAt.Equal(list[j].GeneratedAt) {
			return list[i].Path > list[j].Path
		}
		return list[i].GeneratedAt.After(list[j].GeneratedAt)
	})
	return list, nil
}

func titleFromName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	title := strings.Join(strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}), " ")
	if title == "" {
		return "Report"
	}
	return title
}
