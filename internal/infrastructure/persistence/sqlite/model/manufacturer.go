package model

type Manufacturer struct {
	ManufacturerID uint64 `gorm:"column:manufacturer_id;primaryKey;autoIncrement"`
	Name           string `gorm:"column:name;type:text;not null"`
}

func (Manufacturer) TableName() string {
	return "manufacturers"
}

// ManufacturerStoreID maps an external store identifier to its canonical
// manufacturer. The primary key on store_id is what makes lookup-or-create
// race-free.
type ManufacturerStoreID struct {
	StoreID        string `gorm:"column:store_id;type:text;primaryKey"`
	ManufacturerID uint64 `gorm:"column:manufacturer_id;not null;index"`
}

func (ManufacturerStoreID) TableName() string {
	return "manufacturer_store_ids"
}
