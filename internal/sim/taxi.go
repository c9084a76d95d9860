package sim

import (
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rydersim/taxistream/internal/geo"
	"github.com/rydersim/taxistream/internal/models"
)

// Mid-trip movement and metering constants.
const (
	moveJitterMeters  = 40.0
	minMeterIncrement = 0.5
	maxMeterIncrement = 2.0
	minPassengers     = 1
	maxPassengers     = 4
)

// Params holds the knobs of the taxi state machine. All probabilities are
// evaluated once per tick per taxi.
type Params struct {
	CenterLat       float64
	CenterLon       float64
	MaxRadiusKm     float64
	TripMin         time.Duration
	TripMax         time.Duration
	StartProb       float64
	MoveProb        float64
	Heartbeat       time.Duration
	Cooldown        time.Duration
	BaseFare        float64
	BucketPrecision uint
}

// DefaultParams returns the standard simulation parameters, centered on
// lower Manhattan.
func DefaultParams() Params {
	return Params{
		CenterLat:       40.7128,
		CenterLon:       -74.0060,
		MaxRadiusKm:     15.0,
		TripMin:         120 * time.Second,
		TripMax:         900 * time.Second,
		StartProb:       0.03,
		MoveProb:        0.15,
		Heartbeat:       60 * time.Second,
		Cooldown:        120 * time.Second,
		BaseFare:        2.50,
		BucketPrecision: 6,
	}
}

// Taxi is one simulated vehicle. Its state is owned exclusively by the taxi
// and mutated only through Step; the scheduler never touches fields directly.
type Taxi struct {
	ID            string
	Status        string
	RideID        string
	Lat           float64
	Lon           float64
	Passengers    int
	Meter         float64
	TripEnd       time.Time
	NextPickup    time.Time
	LastHeartbeat time.Time

	params Params
}

// NewTaxi creates an available taxi at a random position within the service
// area.
func NewTaxi(id string, now time.Time, rng *rand.Rand, p Params) *Taxi {
	lat, lon := geo.SampleNear(rng, p.CenterLat, p.CenterLon, p.MaxRadiusKm)
	return &Taxi{
		ID:            id,
		Status:        models.StatusAvailable,
		Lat:           lat,
		Lon:           lon,
		LastHeartbeat: now,
		params:        p,
	}
}

// Step evaluates the transition rule for one tick and returns the events it
// emitted, possibly none. The rules form an ordered decision table:
//
//	available + cooldown elapsed + p(start)   -> begin trip, emit enroute_to_pickup
//	available + heartbeat stale               -> emit available heartbeat
//	occupied  + deadline reached              -> end trip, emit dropoff then available
//	occupied  + p(move)                       -> move + meter, emit occupied
func (t *Taxi) Step(now time.Time, rng *rand.Rand) []models.RideEvent {
	switch t.Status {
	case models.StatusAvailable:
		if now.Before(t.NextPickup) {
			return nil
		}
		if rng.Float64() < t.params.StartProb {
			return []models.RideEvent{t.beginTrip(now, rng)}
		}
		if now.Sub(t.LastHeartbeat) > t.params.Heartbeat {
			t.LastHeartbeat = now
			return []models.RideEvent{t.snapshot(now, models.StatusAvailable)}
		}
		return nil
	case models.StatusOccupied:
		if !now.Before(t.TripEnd) {
			return t.endTrip(now, rng)
		}
		if rng.Float64() < t.params.MoveProb {
			t.Lat, t.Lon = geo.Jitter(rng, t.Lat, t.Lon, moveJitterMeters)
			t.Meter += minMeterIncrement + rng.Float64()*(maxMeterIncrement-minMeterIncrement)
			return []models.RideEvent{t.snapshot(now, models.StatusOccupied)}
		}
		return nil
	}
	return nil
}

// beginTrip starts a new ride. The enroute_to_pickup event carries the
// pre-trip position and the flat base fare.
func (t *Taxi) beginTrip(now time.Time, rng *rand.Rand) models.RideEvent {
	t.Status = models.StatusOccupied
	t.RideID = primitive.NewObjectID().Hex()
	t.Passengers = minPassengers + rng.Intn(maxPassengers-minPassengers+1)
	t.Meter = t.params.BaseFare
	duration := t.params.TripMin + time.Duration(rng.Int63n(int64(t.params.TripMax-t.params.TripMin)+1))
	t.TripEnd = now.Add(duration)
	return t.snapshot(now, models.StatusEnroute)
}

// endTrip finishes the active ride: the dropoff event carries the final
// meter and passengers, then the cleared state is announced with an
// unconditional available heartbeat.
func (t *Taxi) endTrip(now time.Time, rng *rand.Rand) []models.RideEvent {
	t.Lat, t.Lon = geo.SampleNear(rng, t.params.CenterLat, t.params.CenterLon, t.params.MaxRadiusKm)
	dropoff := t.snapshot(now, models.StatusDropoff)

	t.Status = models.StatusAvailable
	t.RideID = ""
	t.Meter = 0
	t.Passengers = 0
	t.NextPickup = now.Add(t.params.Cooldown)
	t.LastHeartbeat = now

	return []models.RideEvent{dropoff, t.snapshot(now, models.StatusAvailable)}
}

func (t *Taxi) snapshot(now time.Time, status string) models.RideEvent {
	ev := models.RideEvent{
		Timestamp:      now.UTC(),
		TaxiID:         t.ID,
		Latitude:       t.Lat,
		Longitude:      t.Lon,
		SpatialBucket:  geo.BucketKey(t.Lat, t.Lon, t.params.BucketPrecision),
		RideStatus:     status,
		MeterReading:   t.Meter,
		PassengerCount: t.Passengers,
	}
	if t.RideID != "" {
		rid := t.RideID
		ev.RideID = &rid
	}
	return ev
}
