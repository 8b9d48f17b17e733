package repository

import (
	"time"

	"github.com/officina/distinta/internal/entity"
	"gorm.io/gorm"
)

type ComponentRepository struct {
	db *gorm.DB
}

func NewComponentRepository(db *gorm.DB) *ComponentRepository {
	return &ComponentRepository{db: db}
}

func (r *ComponentRepository) Create(component *entity.Component) error {
	return r.db.Create(component).Error
}

func (r *ComponentRepository) GetByID(id string) (*entity.Component, error) {
	var component entity.Component
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&component).Error
	if err != nil {
		return nil, err
	}
	return &component, nil
}

// ListByBOM returns the BOM's components in insertion order.
func (r *ComponentRepository) ListByBOM(bomID string) ([]entity.Component, error) {
	var components []entity.Component
	err := r.db.Where("bom_id = ? AND deleted_at IS NULL", bomID).
		Order("created_at ASC").Find(&components).Error
	return components, err
}

func (r *ComponentRepository) CountByBOM(bomID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Component{}).
		Where("bom_id = ? AND deleted_at IS NULL", bomID).Count(&count).Error
	return count, err
}

func (r *ComponentRepository) Update(component *entity.Component) error {
	return r.db.Save(component).Error
}

func (r *ComponentRepository) Delete(id string) error {
	return r.db.Model(&entity.Component{}).
		Where("id = ?", id).Update("deleted_at", time.Now()).Error
}
