package pregel

import (
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/graphbolt/pregolin/utils"
)

// SuperstepStats summarizes one completed superstep.
type SuperstepStats struct {
	Superstep int
	Active    int    // vertices entering the next superstep's active set
	Sent      uint64 // messages sent during this superstep
	Elapsed   time.Duration
}

// Reporter receives an event at every superstep boundary. Called from the
// coordinator between barriers, so implementations need not be thread safe,
// but they do block the run and should return quickly.
type Reporter interface {
	OnSuperstep(s SuperstepStats)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) OnSuperstep(SuperstepStats) {}

// LogReporter logs superstep progress, throttled so that tight supersteps on
// small graphs do not flood the output. The final superstep of a run is
// reported by the executor's summary line regardless.
type LogReporter struct {
	lim *rate.Limiter
}

func NewLogReporter() *LogReporter {
	return &LogReporter{lim: rate.NewLimiter(rate.Every(time.Second), 1)}
}

func (r *LogReporter) OnSuperstep(s SuperstepStats) {
	if !r.lim.Allow() {
		return
	}
	log.Info().Msg("Superstep " + utils.V(s.Superstep) + " active " + utils.V(s.Active) + " sent " + utils.V(s.Sent) + " in " + s.Elapsed.String())
}
