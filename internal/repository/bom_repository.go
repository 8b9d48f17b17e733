package repository

import (
	"github.com/officina/distinta/internal/entity"
	"gorm.io/gorm"
)

type BOMRepository struct {
	db *gorm.DB
}

func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

func (r *BOMRepository) Create(bom *entity.BOM) error {
	return r.db.Create(bom).Error
}

func (r *BOMRepository) GetByID(id string) (*entity.BOM, error) {
	var bom entity.BOM
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&bom).Error
	if err != nil {
		return nil, err
	}
	return &bom, nil
}

func (r *BOMRepository) List() ([]entity.BOM, error) {
	var boms []entity.BOM
	err := r.db.Where("deleted_at IS NULL").Order("created_at ASC").Find(&boms).Error
	return boms, err
}

func (r *BOMRepository) Update(bom *entity.BOM) error {
	return r.db.Save(bom).Error
}
