package repository

import (
	"time"

	"github.com/officina/distinta/internal/entity"
	"gorm.io/gorm"
)

type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) Create(supplier *entity.Supplier) error {
	return r.db.Create(supplier).Error
}

func (r *SupplierRepository) GetByID(id string) (*entity.Supplier, error) {
	var supplier entity.Supplier
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&supplier).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *SupplierRepository) List() ([]entity.Supplier, error) {
	var suppliers []entity.Supplier
	err := r.db.Where("deleted_at IS NULL").Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *SupplierRepository) Update(supplier *entity.Supplier) error {
	return r.db.Save(supplier).Error
}

func (r *SupplierRepository) Delete(id string) error {
	return r.db.Model(&entity.Supplier{}).
		Where("id = ?", id).Update("deleted_at", time.Now()).Error
}
