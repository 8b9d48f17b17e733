package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/officina/distinta/internal/entity"
	"github.com/officina/distinta/internal/repository"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// BOMService manages distinte and their components. Component codes are
// always recomputed from category and name; the caller can never set one.
type BOMService struct {
	bomRepo       *repository.BOMRepository
	componentRepo *repository.ComponentRepository
	costingSvc    *CostingService
	minioClient   *minio.Client
	bucketName    string
	db            *gorm.DB
}

func NewBOMService(
	bomRepo *repository.BOMRepository,
	componentRepo *repository.ComponentRepository,
	costingSvc *CostingService,
	minioClient *minio.Client,
	bucketName string,
	db *gorm.DB,
) *BOMService {
	return &BOMService{
		bomRepo:       bomRepo,
		componentRepo: componentRepo,
		costingSvc:    costingSvc,
		minioClient:   minioClient,
		bucketName:    bucketName,
		db:            db,
	}
}

type CreateBOMRequest struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
}

func (s *BOMService) Create(req CreateBOMRequest) (*entity.BOM, error) {
	bom := &entity.BOM{
		ID:          uuid.New().String(),
		Code:        req.Code,
		Description: req.Description,
	}
	if err := s.bomRepo.Create(bom); err != nil {
		return nil, fmt.Errorf("create bom: %w", err)
	}
	return bom, nil
}

// BOMListItem list row: BOM plus component count and rolled-up total cost.
type BOMListItem struct {
	entity.BOM
	ComponentCount int64   `json:"component_count"`
	TotalCost      float64 `json:"total_cost"`
}

func (s *BOMService) List(ctx context.Context) ([]BOMListItem, error) {
	boms, err := s.bomRepo.List()
	if err != nil {
		return nil, fmt.Errorf("list boms: %w", err)
	}
	items := make([]BOMListItem, 0, len(boms))
	for _, bom := range boms {
		count, err := s.componentRepo.CountByBOM(bom.ID)
		if err != nil {
			return nil, fmt.Errorf("count components: %w", err)
		}
		summary, err := s.costingSvc.Rollup(ctx, bom.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, BOMListItem{
			BOM:            bom,
			ComponentCount: count,
			TotalCost:      summary.TotalCost,
		})
	}
	return items, nil
}

// BOMDetail a BOM with its components and cost rollup.
type BOMDetail struct {
	BOM        entity.BOM         `json:"bom"`
	Components []entity.Component `json:"components"`
	Summary    *CostSummary       `json:"summary"`
}

func (s *BOMService) Get(ctx context.Context, id string) (*BOMDetail, error) {
	bom, err := s.bomRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("bom not found: %w", err)
	}
	components, err := s.componentRepo.ListByBOM(id)
	if err != nil {
		return nil, fmt.Errorf("list components: %w", err)
	}
	summary, err := s.costingSvc.Rollup(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BOMDetail{BOM: *bom, Components: components, Summary: summary}, nil
}

func (s *BOMService) Update(id string, req CreateBOMRequest) (*entity.BOM, error) {
	bom, err := s.bomRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("bom not found: %w", err)
	}
	bom.Code = req.Code
	bom.Description = req.Description
	if err := s.bomRepo.Update(bom); err != nil {
		return nil, fmt.Errorf("update bom: %w", err)
	}
	return bom, nil
}

// Delete removes a BOM and its components in one transaction.
func (s *BOMService) Delete(ctx context.Context, id string) error {
	if _, err := s.bomRepo.GetByID(id); err != nil {
		return fmt.Errorf("bom not found: %w", err)
	}
	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Component{}).
			Where("bom_id = ? AND deleted_at IS NULL", id).Update("deleted_at", now).Error; err != nil {
			return fmt.Errorf("delete components: %w", err)
		}
		if err := tx.Model(&entity.BOM{}).
			Where("id = ?", id).Update("deleted_at", now).Error; err != nil {
			return fmt.Errorf("delete bom: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.costingSvc.InvalidateRollup(ctx, id)
	return nil
}

// ComponentRequest create/update payload. Code is intentionally absent.
type ComponentRequest struct {
	Category   string  `json:"category" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Material   string  `json:"material"`
	Thickness  string  `json:"thickness"`
	Quantity   float64 `json:"quantity" binding:"gte=0"`
	Processing string  `json:"processing"`
	UnitCost   float64 `json:"unit_cost" binding:"gte=0"`
	Type       string  `json:"type"`
}

func (s *BOMService) AddComponent(ctx context.Context, bomID string, req ComponentRequest) (*entity.Component, error) {
	if _, err := s.bomRepo.GetByID(bomID); err != nil {
		return nil, fmt.Errorf("bom not found: %w", err)
	}
	component := &entity.Component{
		ID:         uuid.New().String(),
		BOMID:      bomID,
		Category:   req.Category,
		Name:       req.Name,
		Code:       entity.ComponentCode(req.Category, req.Name),
		Material:   req.Material,
		Thickness:  req.Thickness,
		Quantity:   req.Quantity,
		Processing: req.Processing,
		UnitCost:   req.UnitCost,
		Type:       req.Type,
	}
	if err := s.componentRepo.Create(component); err != nil {
		return nil, fmt.Errorf("create component: %w", err)
	}
	s.costingSvc.InvalidateRollup(ctx, bomID)
	return component, nil
}

func (s *BOMService) UpdateComponent(ctx context.Context, id string, req ComponentRequest) (*entity.Component, error) {
	component, err := s.componentRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("component not found: %w", err)
	}
	component.Category = req.Category
	component.Name = req.Name
	component.Code = entity.ComponentCode(req.Category, req.Name)
	component.Material = req.Material
	component.Thickness = req.Thickness
	component.Quantity = req.Quantity
	component.Processing = req.Processing
	component.UnitCost = req.UnitCost
	component.Type = req.Type
	if err := s.componentRepo.Update(component); err != nil {
		return nil, fmt.Errorf("update component: %w", err)
	}
	s.costingSvc.InvalidateRollup(ctx, component.BOMID)
	return component, nil
}

func (s *BOMService) DeleteComponent(ctx context.Context, id string) error {
	component, err := s.componentRepo.GetByID(id)
	if err != nil {
		return fmt.Errorf("component not found: %w", err)
	}
	if err := s.componentRepo.Delete(id); err != nil {
		return fmt.Errorf("delete component: %w", err)
	}
	s.costingSvc.InvalidateRollup(ctx, component.BOMID)
	return nil
}

// AttachFile stores a drawing or datasheet for a component in the object
// store and records the object key on the component row.
func (s *BOMService) AttachFile(ctx context.Context, componentID, fileName string, reader io.Reader, size int64, contentType string) (*entity.Component, error) {
	component, err := s.componentRepo.GetByID(componentID)
	if err != nil {
		return nil, fmt.Errorf("component not found: %w", err)
	}
	if s.minioClient == nil {
		return nil, fmt.Errorf("object storage not configured")
	}

	objectKey := fmt.Sprintf("components/%s/%d%s", componentID, time.Now().UnixNano(), filepath.Ext(fileName))
	_, err = s.minioClient.PutObject(ctx, s.bucketName, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	component.FileName = fileName
	component.ObjectKey = objectKey
	if err := s.componentRepo.Update(component); err != nil {
		return nil, fmt.Errorf("update component: %w", err)
	}
	return component, nil
}

// OpenAttachment streams a component's stored attachment.
func (s *BOMService) OpenAttachment(ctx context.Context, componentID string) (io.ReadCloser, string, error) {
	component, err := s.componentRepo.GetByID(componentID)
	if err != nil {
		return nil, "", fmt.Errorf("component not found: %w", err)
	}
	if component.ObjectKey == "" {
		return nil, "", fmt.Errorf("component has no attachment")
	}
	if s.minioClient == nil {
		return nil, "", fmt.Errorf("object storage not configured")
	}
	object, err := s.minioClient.GetObject(ctx, s.bucketName, component.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("open attachment: %w", err)
	}
	return object, component.FileName, nil
}

var componentExportHeaders = []string{
	"Code", "Category", "Name", "Material", "Thickness",
	"Quantity", "Processing", "Unit Cost", "Line Cost", "Type",
}

// ExportComponents renders the BOM's component table as an xlsx workbook.
func (s *BOMService) ExportComponents(bomID string) (*excelize.File, string, error) {
	bom, err := s.bomRepo.GetByID(bomID)
	if err != nil {
		return nil, "", fmt.Errorf("bom not found: %w", err)
	}
	components, err := s.componentRepo.ListByBOM(bomID)
	if err != nil {
		return nil, "", fmt.Errorf("list components: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Componenti"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range componentExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	var total float64
	for rowIdx, c := range components {
		row := rowIdx + 2
		lineCost := round2(c.Quantity * c.UnitCost)
		total += c.Quantity * c.UnitCost
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), c.Code)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), c.Category)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), c.Name)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), c.Material)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), c.Thickness)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), c.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), c.Processing)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), c.UnitCost)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), lineCost)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), c.Type)
	}

	totalRow := len(components) + 2
	f.SetCellValue(sheet, fmt.Sprintf("H%d", totalRow), "Totale")
	f.SetCellValue(sheet, fmt.Sprintf("I%d", totalRow), round2(total))
	f.SetCellStyle(sheet, fmt.Sprintf("H%d", totalRow), fmt.Sprintf("I%d", totalRow), boldStyle)

	fileName := fmt.Sprintf("distinta_%s.xlsx", bom.Code)
	return f, fileName, nil
}
