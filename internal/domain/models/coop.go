package models

// Coop ("kandang") is a physical enclosure with a fixed bird capacity.
type Coop struct {
	Base              `bson:",inline"`
	Name              string `gorm:"size:128;not null" bson:"name" json:"name"`
	Capacity          int    `gorm:"not null" bson:"capacity" json:"capacity"`
	Location          string `gorm:"size:255" bson:"location" json:"location"`
	ResponsibleUserID string `gorm:"size:64" bson:"responsible_user_id" json:"responsible_user_id"`
	Version           int64  `gorm:"not null;default:0" bson:"version" json:"-"`
}

// TableName pins the coop table name.
func (Coop) TableName() string { return "coops" }
