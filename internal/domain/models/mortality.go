package models

import "time"

// Mortality records birds that died in a batch.
type Mortality struct {
	Base      `bson:",inline"`
	BatchID   string    `gorm:"size:36;not null;index" bson:"batch_id" json:"batch_id"`
	DeathDate time.Time `gorm:"not null" bson:"death_date" json:"death_date"`
	Quantity  int       `gorm:"not null" bson:"quantity" json:"quantity"`
	Cause     string    `gorm:"size:255" bson:"cause" json:"cause"`
}

// TableName pins the mortality table name.
func (Mortality) TableName() string { return "mortalities" }
