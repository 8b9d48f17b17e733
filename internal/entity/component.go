package entity

import (
	"strings"
	"time"
)

// Component BOM line item. Quantity is the per-assembly quantity; UnitCost
// may stay zero until a supplier price is recorded.
type Component struct {
	ID         string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	BOMID      string     `json:"bom_id" gorm:"type:uuid;not null;index"`
	Category   string     `json:"category" gorm:"size:100;not null"` // macrozona
	Name       string     `json:"name" gorm:"size:200;not null"`
	Code       string     `json:"code" gorm:"size:20"` // derived, see ComponentCode
	Material   string     `json:"material" gorm:"size:100"`
	Thickness  string     `json:"thickness" gorm:"size:50"`
	Quantity   float64    `json:"quantity" gorm:"type:decimal(12,4);not null;default:0"`
	Processing string     `json:"processing" gorm:"type:text"`
	UnitCost   float64    `json:"unit_cost" gorm:"type:decimal(12,4);not null;default:0"`
	Type       string     `json:"type" gorm:"size:50"`
	FileName   string     `json:"file_name" gorm:"size:255"`
	ObjectKey  string     `json:"object_key" gorm:"size:512"` // minio object for the attached drawing
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at" gorm:"index"`
}

func (Component) TableName() string {
	return "components"
}

// ComponentCode derives the display code from category and name:
// first 3 chars of the category and first 5 of the name, both uppercased.
// Shorter strings truncate without padding. The code is recomputed on every
// create and edit, never taken from the caller.
func ComponentCode(category, name string) string {
	return strings.ToUpper(truncate(category, 3)) + "-" + strings.ToUpper(truncate(name, 5))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
