package entity

import (
	"time"
)

// Client anagrafica cliente. Not consumed by the costing or order engines;
// kept for schema completeness. Code is generated, never caller-supplied.
type Client struct {
	ID            string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code          string     `json:"code" gorm:"size:20;not null;uniqueIndex"`
	BusinessName  string     `json:"business_name" gorm:"size:200;not null"`
	Address       string     `json:"address" gorm:"size:500"`
	Email         string     `json:"email" gorm:"size:100"`
	Phone         string     `json:"phone" gorm:"size:20"`
	IBAN          string     `json:"iban" gorm:"size:50"`
	ContactPerson string     `json:"contact_person" gorm:"size:100"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`
}

func (Client) TableName() string {
	return "clients"
}
