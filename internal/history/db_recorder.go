package history

import (
	"context"
	"fmt"

	"blitzscan/internal/dao"
	"blitzscan/internal/models"
	"blitzscan/pkg/errors"
)

// DBRecorder keeps history in the scans table with the same cap as the
// key-value history.
type DBRecorder struct {
	dao   dao.ScanDAO
	limit int
}

func NewDBRecorder(scanDAO dao.ScanDAO) *DBRecorder {
	return &DBRecorder{dao: scanDAO, limit: MaxEntries}
}

func (r *DBRecorder) Save(_ context.Context, owner string, scan *models.Scan) error {
	if owner == "" {
		return errors.ErrNotAuthenticated
	}
	row := *scan
	row.Owner = owner

	if _, err := r.dao.GetScanByID(row.ID); err == nil {
		if err := r.dao.UpdateScan(&row); err != nil {
			return fmt.Errorf("update scan %s: %w", row.ID, err)
		}
	} else if errors.Is(err, errors.ErrScanNotFound) {
		if err := r.dao.SaveScan(&row); err != nil {
			return fmt.Errorf("save scan %s: %w", row.ID, err)
		}
	} else {
		return err
	}

	if _, err := r.dao.PruneScans(owner, r.limit); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

func (r *DBRecorder) List(_ context.Context, owner string) ([]models.Scan, error) {
	if owner == "" {
		return nil, errors.ErrNotAuthenticated
	}
	return r.dao.ListScans(owner)
}

func (r *DBRecorder) Get(_ context.Context, owner, id string) (*models.Scan, error) {
	scan, err := r.dao.GetScanByID(id)
	if err != nil {
		return nil, err
	}
	if scan.Owner != owner {
		return nil, fmt.Errorf("%w: %s", errors.ErrScanNotFound, id)
	}
	return scan, nil
}

func (r *DBRecorder) Delete(ctx context.Context, owner, id string) error {
	if _, err := r.Get(ctx, owner, id); err != nil {
		return err
	}
	return r.dao.DeleteScan(id)
}
