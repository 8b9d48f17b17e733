package repository

import (
	"time"

	"github.com/officina/distinta/internal/entity"
	"gorm.io/gorm"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(client *entity.Client) error {
	return r.db.Create(client).Error
}

func (r *ClientRepository) GetByID(id string) (*entity.Client, error) {
	var client entity.Client
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) List() ([]entity.Client, error) {
	var clients []entity.Client
	err := r.db.Where("deleted_at IS NULL").Order("code ASC").Find(&clients).Error
	return clients, err
}

// Count includes soft-deleted rows so generated codes are never reused.
func (r *ClientRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entity.Client{}).Count(&count).Error
	return count, err
}

func (r *ClientRepository) Update(client *entity.Client) error {
	return r.db.Save(client).Error
}

func (r *ClientRepository) Delete(id string) error {
	return r.db.Model(&entity.Client{}).
		Where("id = ?", id).Update("deleted_at", time.Now()).Error
}
