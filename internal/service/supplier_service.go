package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/officina/distinta/internal/entity"
	"github.com/officina/distinta/internal/repository"
)

// SupplierService manages suppliers and their per-component prices.
type SupplierService struct {
	supplierRepo  *repository.SupplierRepository
	priceRepo     *repository.PriceRepository
	componentRepo *repository.ComponentRepository
}

func NewSupplierService(supplierRepo *repository.SupplierRepository, priceRepo *repository.PriceRepository, componentRepo *repository.ComponentRepository) *SupplierService {
	return &SupplierService{
		supplierRepo:  supplierRepo,
		priceRepo:     priceRepo,
		componentRepo: componentRepo,
	}
}

type CreateSupplierRequest struct {
	Name         string `json:"name" binding:"required"`
	Address      string `json:"address"`
	VATNumber    string `json:"vat_number"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	IBAN         string `json:"iban"`
	Capabilities string `json:"capabilities"`
}

func (s *SupplierService) Create(req CreateSupplierRequest) (*entity.Supplier, error) {
	supplier := &entity.Supplier{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Address:      req.Address,
		VATNumber:    req.VATNumber,
		Email:        req.Email,
		Phone:        req.Phone,
		IBAN:         req.IBAN,
		Capabilities: req.Capabilities,
	}
	if err := s.supplierRepo.Create(supplier); err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}
	return supplier, nil
}

func (s *SupplierService) List() ([]entity.Supplier, error) {
	return s.supplierRepo.List()
}

func (s *SupplierService) Get(id string) (*entity.Supplier, error) {
	return s.supplierRepo.GetByID(id)
}

func (s *SupplierService) Update(id string, req CreateSupplierRequest) (*entity.Supplier, error) {
	supplier, err := s.supplierRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("supplier not found: %w", err)
	}
	supplier.Name = req.Name
	supplier.Address = req.Address
	supplier.VATNumber = req.VATNumber
	supplier.Email = req.Email
	supplier.Phone = req.Phone
	supplier.IBAN = req.IBAN
	supplier.Capabilities = req.Capabilities
	if err := s.supplierRepo.Update(supplier); err != nil {
		return nil, fmt.Errorf("update supplier: %w", err)
	}
	return supplier, nil
}

// Delete removes a supplier and its quoted prices, so later consolidation
// runs can no longer assign orders to it.
func (s *SupplierService) Delete(id string) error {
	if _, err := s.supplierRepo.GetByID(id); err != nil {
		return fmt.Errorf("supplier not found: %w", err)
	}
	if err := s.priceRepo.DeleteBySupplier(id); err != nil {
		return fmt.Errorf("delete supplier prices: %w", err)
	}
	return s.supplierRepo.Delete(id)
}

type AddPriceRequest struct {
	SupplierID string  `json:"supplier_id" binding:"required"`
	Price      float64 `json:"price" binding:"gte=0"`
}

// AddPrice records (or replaces) a supplier's unit price for a component.
func (s *SupplierService) AddPrice(componentID string, req AddPriceRequest) (*entity.SupplierPrice, error) {
	if _, err := s.componentRepo.GetByID(componentID); err != nil {
		return nil, fmt.Errorf("component not found: %w", err)
	}
	if _, err := s.supplierRepo.GetByID(req.SupplierID); err != nil {
		return nil, fmt.Errorf("supplier not found: %w", err)
	}
	price := &entity.SupplierPrice{
		ID:          uuid.New().String(),
		ComponentID: componentID,
		SupplierID:  req.SupplierID,
		Price:       req.Price,
	}
	if err := s.priceRepo.Upsert(price); err != nil {
		return nil, fmt.Errorf("upsert supplier price: %w", err)
	}
	return s.priceRepo.GetForPair(componentID, req.SupplierID)
}

// ListPrices returns every recorded supplier price for a component,
// cheapest first.
func (s *SupplierService) ListPrices(componentID string) ([]entity.SupplierPrice, error) {
	if _, err := s.componentRepo.GetByID(componentID); err != nil {
		return nil, fmt.Errorf("component not found: %w", err)
	}
	return s.priceRepo.ListByComponent(componentID)
}
