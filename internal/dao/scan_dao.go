package dao

import (
	"fmt"

	"blitzscan/internal/models"
	"blitzscan/pkg/errors"

	"gorm.io/gorm"
)

type ScanDAO interface {
	SaveScan(scan *models.Scan) error
	GetScanByID(id string) (*models.Scan, error)
	ListScans(owner string) ([]models.Scan, error)
	ListScansWithPagination(owner string, page, limit int) ([]models.Scan, int64, error)
	UpdateScan(scan *models.Scan) error
	DeleteScan(id string) error
	PruneScans(owner string, keep int) (int64, error)
}

// ListLimit caps every unpaginated listing.
const ListLimit = 50

type scanDAO struct {
	db *gorm.DB
}

func NewScanDAO(db *gorm.DB) ScanDAO {
	return &scanDAO{db: db}
}

func (dao *scanDAO) SaveScan(scan *models.Scan) error {
	return dao.db.Create(scan).Error
}

func (dao *scanDAO) UpdateScan(scan *models.Scan) error {
	return dao.db.Save(scan).Error
}

func (dao *scanDAO) GetScanByID(id string) (*models.Scan, error) {
	var scan models.Scan
	if err := dao.db.Where("id = ?", id).First(&scan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", errors.ErrScanNotFound, id)
		}
		return nil, err
	}
	return &scan, nil
}

// ListScans returns the owner's newest scans first. An empty owner lists
// every owner.
func (dao *scanDAO) ListScans(owner string) ([]models.Scan, error) {
	scans := make([]models.Scan, 0)
	if err := dao.byOwner(owner).Order("created_at desc").Limit(ListLimit).Find(&scans).Error; err != nil {
		return nil, err
	}
	return scans, nil
}

func (dao *scanDAO) ListScansWithPagination(owner string, page, limit int) ([]models.Scan, int64, error) {
	var scans []models.Scan
	var total int64

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	offset := (page - 1) * limit

	if err := dao.byOwner(owner).Model(&models.Scan{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := dao.byOwner(owner).Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&scans).Error; err != nil {
		return nil, 0, err
	}

	return scans, total, nil
}

func (dao *scanDAO) DeleteScan(id string) error {
	result := dao.db.Where("id = ?", id).Delete(&models.Scan{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", errors.ErrScanNotFound, id)
	}
	return nil
}

// PruneScans deletes everything but the owner's keep newest scans.
func (dao *scanDAO) PruneScans(owner string, keep int) (int64, error) {
	var ids []string
	if err := dao.db.Model(&models.Scan{}).
		Where("owner = ?", owner).
		Order("created_at desc").
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(ids) <= keep {
		return 0, nil
	}

	result := dao.db.Where("id IN ?", ids[keep:]).Delete(&models.Scan{})
	return result.RowsAffected, result.Error
}

func (dao *scanDAO) byOwner(owner string) *gorm.DB {
	if owner == "" {
		return dao.db
	}
	return dao.db.Where("owner = ?", owner)
}
