package model

type StatusKV struct {
	Key       string `gorm:"column:key;type:text;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
	// ExpiresAt is RFC3339Nano; empty means the entry never expires.
	ExpiresAt string `gorm:"column:expires_at;type:text;not null;default:''"`
}

func (StatusKV) TableName() string {
	return "status_kv"
}
