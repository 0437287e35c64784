package models

import "time"

// OccupancyRow is one coop line of the occupancy snapshot.
type OccupancyRow struct {
	Date         time.Time `json:"date"`
	CoopID       string    `json:"coop_id"`
	CoopName     string    `json:"coop_name"`
	Capacity     int       `json:"capacity"`
	Live         int       `json:"live"`
	Available    int       `json:"available"`
	LiveBatches  int       `json:"live_batches"`
	HasRemainder bool      `json:"has_remainder"`
}
