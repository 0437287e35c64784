package models

import "time"

// BatchOrigin records how a batch came into a coop.
type BatchOrigin string

const (
	OriginIntake     BatchOrigin = "intake"
	OriginRelocation BatchOrigin = "relocation"
)

// Batch ("ayam") is a cohort of chickens that entered one coop on one date.
// Its live stock is never stored; see BatchStock.
type Batch struct {
	Base               `bson:",inline"`
	CoopID             string      `gorm:"size:36;not null;index" bson:"coop_id" json:"coop_id"`
	EntryDate          time.Time   `gorm:"not null;index" bson:"entry_date" json:"entry_date"`
	IntakeQuantity     int         `gorm:"not null" bson:"intake_quantity" json:"intake_quantity"`
	IsRemainder        bool        `gorm:"not null;default:false" bson:"is_remainder" json:"is_remainder"`
	RemainderReason    string      `gorm:"size:255" bson:"remainder_reason,omitempty" json:"remainder_reason,omitempty"`
	RemainderMarkedAt  *time.Time  `bson:"remainder_marked_at,omitempty" json:"remainder_marked_at,omitempty"`
	Origin             BatchOrigin `gorm:"size:16;not null;default:intake" bson:"origin" json:"origin"`
	SourceRelocationID string      `gorm:"size:36" bson:"source_relocation_id,omitempty" json:"source_relocation_id,omitempty"`
	ForcedOverCapacity bool        `gorm:"not null;default:false" bson:"forced_over_capacity" json:"forced_over_capacity"`
	ForceReason        string      `gorm:"size:255" bson:"force_reason,omitempty" json:"force_reason,omitempty"`
	CreatedBy          string      `gorm:"size:64" bson:"created_by,omitempty" json:"created_by,omitempty"`
	Version            int64       `gorm:"not null;default:0" bson:"version" json:"-"`
}

// TableName pins the batch table name.
func (Batch) TableName() string { return "batches" }

// Movements aggregates the quantity-reducing events of one batch.
type Movements struct {
	Harvested    int `json:"harvested"`
	Died         int `json:"died"`
	RelocatedOut int `json:"relocated_out"`
}

// Total returns every bird that left the batch.
func (m Movements) Total() int {
	return m.Harvested + m.Died + m.RelocatedOut
}

// BatchStock is the derived stock view of a batch.
type BatchStock struct {
	BatchID      string `json:"batch_id"`
	Intake       int    `json:"intake"`
	Harvested    int    `json:"harvested"`
	Died         int    `json:"died"`
	RelocatedOut int    `json:"relocated_out"`
	Live         int    `json:"live"`
}

// LiveBatch pairs a batch with its current live stock.
type LiveBatch struct {
	Batch Batch `json:"batch"`
	Live  int   `json:"live"`
}

// BatchEventTotals is the bulk aggregate used to render batch lists.
type BatchEventTotals struct {
	Harvested int `json:"harvested"`
	Died      int `json:"died"`
}
