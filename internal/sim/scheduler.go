package sim

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rydersim/taxistream/internal/dispatch"
)

// SchedulerConfig wires the fleet, cadences and stream routing together.
type SchedulerConfig struct {
	FleetSize    int
	Params       Params
	Tick         time.Duration
	RequestEvery time.Duration
	ErrorBackoff time.Duration
	SupplyStream string
	DemandStream string
	// Seed fixes the random source; zero means time-seeded.
	Seed int64
}

// Scheduler owns the fleet and drives the simulation: every tick it steps
// each taxi, generates demand on its own cadence and hands the batches to
// the dispatcher.
type Scheduler struct {
	cfg         SchedulerConfig
	taxis       []*Taxi
	gen         RequestGenerator
	disp        *dispatch.Dispatcher
	rng         *rand.Rand
	log         *log.Entry
	nextRequest time.Time
}

// NewScheduler creates the fleet with random starting positions and an
// available status.
func NewScheduler(cfg SchedulerConfig, disp *dispatch.Dispatcher, logger *log.Entry) *Scheduler {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	now := time.Now()
	taxis := make([]*Taxi, 0, cfg.FleetSize)
	for i := 0; i < cfg.FleetSize; i++ {
		taxis = append(taxis, NewTaxi(fmt.Sprintf("taxi-%04d", i+1), now, rng, cfg.Params))
	}
	return &Scheduler{
		cfg:   cfg,
		taxis: taxis,
		gen:   NewRequestGenerator(cfg.Params),
		disp:  disp,
		rng:   rng,
		log:   logger,
	}
}

// Run drives the tick loop until the context is cancelled, then emits the
// final statistics. Cancellation is not an error.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.WithFields(log.Fields{
		"fleet_size":    len(s.taxis),
		"tick":          s.cfg.Tick,
		"request_every": s.cfg.RequestEvery,
		"supply_stream": s.cfg.SupplyStream,
		"demand_stream": s.cfg.DemandStream,
	}).Info("starting fleet simulation")

	s.nextRequest = time.Now()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("simulation stopping")
			s.disp.FinalReport()
			return nil
		default:
		}
		s.tick(ctx)
	}
}

// tick runs one scheduling round. A panic anywhere in the round is caught
// here, logged and followed by a fixed backoff so the loop survives.
func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("tick failed, backing off")
			dispatch.Sleep(ctx, s.cfg.ErrorBackoff)
		}
	}()

	tickStart := time.Now()

	supply := s.stepFleet(tickStart)
	s.disp.Deliver(ctx, s.cfg.SupplyStream, supply)

	if !tickStart.Before(s.nextRequest) {
		s.nextRequest = tickStart.Add(s.cfg.RequestEvery)
		req := s.gen.Generate(tickStart, s.rng)
		s.disp.Deliver(ctx, s.cfg.DemandStream, []interface{}{req})
	}

	s.disp.MaybeReport(time.Now())
	s.disp.ShapeTick(ctx, tickStart)
}

// stepFleet evaluates every taxi's transition rule once and collects the
// emitted events. Ordering between taxis carries no meaning.
func (s *Scheduler) stepFleet(now time.Time) []interface{} {
	var batch []interface{}
	for _, t := range s.taxis {
		for _, ev := range t.Step(now, s.rng) {
			batch = append(batch, ev)
		}
	}
	return batch
}

// Fleet exposes the taxis for inspection in tests.
func (s *Scheduler) Fleet() []*Taxi {
	return s.taxis
}
