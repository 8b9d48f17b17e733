package entity

import (
	"time"
)

// BOM distinta base: a named assembly that owns an ordered set of components.
type BOM struct {
	ID          string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code        string     `json:"code" gorm:"size:50;not null;index"`
	Description string     `json:"description" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at" gorm:"index"`

	Components []Component `json:"components,omitempty" gorm:"foreignKey:BOMID"`
}

func (BOM) TableName() string {
	return "boms"
}
