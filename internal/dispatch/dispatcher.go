package dispatch

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rydersim/taxistream/internal/sink"
)

// Options tunes delivery and reporting behavior.
type Options struct {
	// Tick is the target cadence of the simulation loop; ShapeTick sleeps
	// the remainder of it.
	Tick time.Duration
	// ReportEvery is how often a throughput observation is logged.
	ReportEvery time.Duration
	// FailPause is the short pause after a failed delivery before the loop
	// is allowed to continue.
	FailPause time.Duration
	// CallTimeout bounds a single sink call so cadence drift stays small.
	CallTimeout time.Duration
}

// Dispatcher delivers batches to the sink, counts delivered rows, shapes the
// loop to the target cadence and reports throughput. It is driven by a
// single goroutine and keeps no locks.
type Dispatcher struct {
	sink sink.Sink
	opts Options
	log  *log.Entry

	delivered  int64
	start      time.Time
	lastReport time.Time
}

// New builds a dispatcher around the given sink.
func New(s sink.Sink, opts Options, logger *log.Entry) *Dispatcher {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}
	now := time.Now()
	return &Dispatcher{
		sink:       s,
		opts:       opts,
		log:        logger,
		start:      now,
		lastReport: now,
	}
}

// Deliver sends one batch to the named stream. Failed batches are dropped,
// not retried: the error is logged, the loop pauses briefly and moves on.
func (d *Dispatcher) Deliver(ctx context.Context, stream string, records []interface{}) {
	if len(records) == 0 {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, d.opts.CallTimeout)
	defer cancel()

	rowErrs, err := d.sink.Deliver(callCtx, stream, records)
	if err != nil {
		d.log.WithError(err).WithFields(log.Fields{
			"stream": stream,
			"rows":   len(records),
		}).Error("batch delivery failed")
		Sleep(ctx, d.opts.FailPause)
		return
	}
	if len(rowErrs) > 0 {
		d.log.WithFields(log.Fields{
			"stream":      stream,
			"rows":        len(records),
			"row_errors":  len(rowErrs),
			"first_error": rowErrs[0].Error(),
		}).Error("sink rejected rows in batch")
		Sleep(ctx, d.opts.FailPause)
		return
	}
	d.delivered += int64(len(records))
}

// Delivered returns the total number of rows accepted by the sink so far.
func (d *Dispatcher) Delivered() int64 {
	return d.delivered
}

// MaybeReport logs a throughput observation when the reporting interval has
// elapsed. It never alters simulation state.
func (d *Dispatcher) MaybeReport(now time.Time) {
	if now.Sub(d.lastReport) < d.opts.ReportEvery {
		return
	}
	d.lastReport = now
	d.report(now)
}

// FinalReport emits the closing statistics line during shutdown.
func (d *Dispatcher) FinalReport() {
	d.report(time.Now())
}

func (d *Dispatcher) report(now time.Time) {
	elapsed := now.Sub(d.start).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(d.delivered) / elapsed
	}
	d.log.WithFields(log.Fields{
		"rows_delivered": d.delivered,
		"avg_rows_per_s": rate,
		"uptime_s":       int64(elapsed),
	}).Info("throughput")
}

// ShapeTick sleeps whatever remains of the tick budget since tickStart. If
// the tick already ran over budget it returns immediately; the loop
// self-throttles but never slows below real elapsed time.
func (d *Dispatcher) ShapeTick(ctx context.Context, tickStart time.Time) {
	remaining := d.opts.Tick - time.Since(tickStart)
	if remaining <= 0 {
		return
	}
	Sleep(ctx, remaining)
}

// Sleep waits for the duration or until the context is cancelled, whichever
// comes first.
func Sleep(ctx context.Context, dur time.Duration) {
	if dur <= 0 {
		return
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
