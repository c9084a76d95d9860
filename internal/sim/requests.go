package sim

import (
	"fmt"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rydersim/taxistream/internal/geo"
	"github.com/rydersim/taxistream/internal/models"
)

var streetNames = []string{
	"Main St", "Oak Ave", "Park Blvd", "Washington St", "Maple Dr",
	"Broadway", "Cedar Ln", "Riverside Dr", "Church St", "Highland Ave",
	"Lexington Ave", "Sunset Blvd", "Elm St", "Madison Ave", "Harbor Rd",
}

const maxHouseNumber = 2000

// RequestGenerator produces one ride request per call. It keeps no state
// between calls; cadence is the scheduler's concern.
type RequestGenerator struct {
	params Params
}

// NewRequestGenerator returns a generator sampling pickups within the same
// service area as the fleet.
func NewRequestGenerator(p Params) RequestGenerator {
	return RequestGenerator{params: p}
}

// Generate samples one demand record: a fresh request id, a pickup position
// near the service center and a destination drawn from the street
// vocabulary.
func (g RequestGenerator) Generate(now time.Time, rng *rand.Rand) models.RideRequest {
	lat, lon := geo.SampleNear(rng, g.params.CenterLat, g.params.CenterLon, g.params.MaxRadiusKm)
	street := streetNames[rng.Intn(len(streetNames))]
	return models.RideRequest{
		Timestamp:          now.UTC(),
		RequestID:          primitive.NewObjectID().Hex(),
		Latitude:           lat,
		Longitude:          lon,
		SpatialBucket:      geo.BucketKey(lat, lon, g.params.BucketPrecision),
		DestinationAddress: fmt.Sprintf("%d %s", 1+rng.Intn(maxHouseNumber), street),
	}
}
