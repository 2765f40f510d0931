package model

type Product struct {
	ProductID      uint64 `gorm:"column:product_id;primaryKey;autoIncrement"`
	Name           string `gorm:"column:name;type:text;not null;uniqueIndex"`
	ManufacturerID uint64 `gorm:"column:manufacturer_id;not null;index"`
}

func (Product) TableName() string {
	return "products"
}
