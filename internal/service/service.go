package service

import (
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/officina/distinta/internal/config"
	"github.com/officina/distinta/internal/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services service collection.
type Services struct {
	Costing  *CostingService
	BOM      *BOMService
	Supplier *SupplierService
	Order    *OrderService
	Client   *ClientService
}

func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Services {
	// Object storage is optional: without it attachments are rejected but
	// everything else works.
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			minioClient = nil
		}
	}

	costing := NewCostingService(repos.BOM, repos.Component, rdb)
	return &Services{
		Costing:  costing,
		BOM:      NewBOMService(repos.BOM, repos.Component, costing, minioClient, cfg.MinIO.Bucket, db),
		Supplier: NewSupplierService(repos.Supplier, repos.Price, repos.Component),
		Order:    NewOrderService(repos.Order, repos.BOM, repos.Component, repos.Price, repos.Supplier, db),
		Client:   NewClientService(repos.Client),
	}
}
