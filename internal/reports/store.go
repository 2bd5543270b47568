package reports

import (
	"context"

	"github.com/cankoe/filepulse/internal/models"
)

// Store lists generated reports, newest first.
type Store interface {
	List(ctx context.Context) ([]models.Report, error)
}

// Latest returns the newest report, or false when the store is empty.
func Latest(ctx context.Context, s Store) (models.Report, bool, error) {
	list, err := s.List(ctx)
	if err != nil {
		return models.Report{}, false, err
	}
	if len(list) == 0 {
		return models.Report{}, false, nil
	}
	return list[0], true, nil
}
