package models

import "time"

// RideRequest is a single demand-stream record: a passenger asking for a
// pickup at a location, heading to a destination address.
type RideRequest struct {
	Timestamp          time.Time `bson:"timestamp" json:"timestamp"`
	RequestID          string    `bson:"request_id" json:"request_id"`
	Latitude           float64   `bson:"latitude" json:"latitude"`
	Longitude          float64   `bson:"longitude" json:"longitude"`
	SpatialBucket      string    `bson:"spatial_bucket" json:"spatial_bucket"`
	DestinationAddress string    `bson:"destination_address" json:"destination_address"`
}
