package entity

import "gorm.io/gorm"

// AutoMigrate migrates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&BOM{},
		&Component{},
		&Supplier{},
		&SupplierPrice{},
		&PurchaseOrder{},
		&OrderLine{},
		&Client{},
	)
}
