package models

import "time"

// Ride statuses carried on supply-stream records.
const (
	StatusAvailable = "available"
	StatusOccupied  = "occupied"
	StatusEnroute   = "enroute_to_pickup"
	StatusDropoff   = "dropoff"
)

// RideEvent is a point-in-time snapshot of a single taxi, produced by a
// state transition and never mutated afterwards. RideID is nil whenever the
// taxi has no active ride.
type RideEvent struct {
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
	TaxiID         string    `bson:"taxi_id" json:"taxi_id"`
	RideID         *string   `bson:"ride_id,omitempty" json:"ride_id"`
	Latitude       float64   `bson:"latitude" json:"latitude"`
	Longitude      float64   `bson:"longitude" json:"longitude"`
	SpatialBucket  string    `bson:"spatial_bucket" json:"spatial_bucket"`
	RideStatus     string    `bson:"ride_status" json:"ride_status"`
	MeterReading   float64   `bson:"meter_reading" json:"meter_reading"`
	PassengerCount int       `bson:"passenger_count" json:"passenger_count"`
}
