package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/officina/distinta/internal/entity"
	"github.com/officina/distinta/internal/repository"
)

// ClientService anagrafica clienti. Codes are sequential and generated here.
type ClientService struct {
	clientRepo *repository.ClientRepository
}

func NewClientService(clientRepo *repository.ClientRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo}
}

type ClientRequest struct {
	BusinessName  string `json:"business_name" binding:"required"`
	Address       string `json:"address"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	IBAN          string `json:"iban"`
	ContactPerson string `json:"contact_person"`
	Notes         string `json:"notes"`
}

func (s *ClientService) Create(req ClientRequest) (*entity.Client, error) {
	count, err := s.clientRepo.Count()
	if err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}
	client := &entity.Client{
		ID:            uuid.New().String(),
		Code:          fmt.Sprintf("CLI-%04d", count+1),
		BusinessName:  req.BusinessName,
		Address:       req.Address,
		Email:         req.Email,
		Phone:         req.Phone,
		IBAN:          req.IBAN,
		ContactPerson: req.ContactPerson,
		Notes:         req.Notes,
	}
	if err := s.clientRepo.Create(client); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

func (s *ClientService) List() ([]entity.Client, error) {
	return s.clientRepo.List()
}

func (s *ClientService) Get(id string) (*entity.Client, error) {
	return s.clientRepo.GetByID(id)
}

func (s *ClientService) Update(id string, req ClientRequest) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("client not found: %w", err)
	}
	client.BusinessName = req.BusinessName
	client.Address = req.Address
	client.Email = req.Email
	client.Phone = req.Phone
	client.IBAN = req.IBAN
	client.ContactPerson = req.ContactPerson
	client.Notes = req.Notes
	if err := s.clientRepo.Update(client); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return client, nil
}

func (s *ClientService) Delete(id string) error {
	if _, err := s.clientRepo.GetByID(id); err != nil {
		return fmt.Errorf("client not found: %w", err)
	}
	return s.clientRepo.Delete(id)
}
