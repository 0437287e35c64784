package models

import "time"

// RelocationReason explains why birds were moved.
type RelocationReason string

const (
	ReasonSick       RelocationReason = "Sick"
	ReasonQuarantine RelocationReason = "Quarantine"
	ReasonRecovered  RelocationReason = "Recovered"
	ReasonOther      RelocationReason = "Other"
)

// Valid reports whether the reason is one of the known values.
func (r RelocationReason) Valid() bool {
	switch r {
	case ReasonSick, ReasonQuarantine, ReasonRecovered, ReasonOther:
		return true
	}
	return false
}

// RelocationStatus is the lifecycle state of a relocation record.
type RelocationStatus string

const (
	RelocationPending   RelocationStatus = "Pending"
	RelocationCompleted RelocationStatus = "Completed"
	RelocationCancelled RelocationStatus = "Cancelled"
)

// Valid reports whether the status is one of the known values.
func (s RelocationStatus) Valid() bool {
	switch s {
	case RelocationPending, RelocationCompleted, RelocationCancelled:
		return true
	}
	return false
}

// Relocation is the audit record of birds moved from a batch in one coop to a
// new batch in another coop. Cancelling it never reverses the stock movement.
type Relocation struct {
	Base          `bson:",inline"`
	SourceCoopID  string           `gorm:"size:36;not null;index" bson:"source_coop_id" json:"source_coop_id"`
	DestCoopID    string           `gorm:"size:36;not null;index" bson:"dest_coop_id" json:"dest_coop_id"`
	SourceBatchID string           `gorm:"size:36;not null;index" bson:"source_batch_id" json:"source_batch_id"`
	DestBatchID   *string          `gorm:"size:36" bson:"dest_batch_id,omitempty" json:"dest_batch_id,omitempty"`
	Quantity      int              `gorm:"not null" bson:"quantity" json:"quantity"`
	Date          time.Time        `gorm:"not null" bson:"date" json:"date"`
	Reason        RelocationReason `gorm:"size:16;not null" bson:"reason" json:"reason"`
	Status        RelocationStatus `gorm:"size:16;not null" bson:"status" json:"status"`
	Notes         string           `gorm:"type:text" bson:"notes" json:"notes"`
	CreatedBy     string           `gorm:"size:64" bson:"created_by,omitempty" json:"created_by,omitempty"`
	CancelledAt   *time.Time       `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
}

// TableName pins the relocation table name.
func (Relocation) TableName() string { return "relocations" }
