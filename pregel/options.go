package pregel

import (
	"flag"
	"runtime"

	"github.com/rs/zerolog/log"

	"github.com/graphbolt/pregolin/utils"
)

// PartitionScheme selects how the internal id space is split into work units.
type PartitionScheme uint8

const (
	// Auto picks Degree when the degree distribution is large and skewed
	// enough to matter, else Range.
	Auto PartitionScheme = iota
	// Range makes equal-size contiguous slices. Cheapest; can be skewed.
	Range
	// Degree balances slices by cumulative degree. Needs a prefix sum.
	Degree
)

func (s PartitionScheme) String() string {
	switch s {
	case Auto:
		return "auto"
	case Range:
		return "range"
	case Degree:
		return "degree"
	}
	return "invalid"
}

// Policy selects when sent messages become visible to receivers.
type Policy uint8

const (
	// Synchronous double-buffers: messages sent in superstep k are visible
	// exactly at k+1. Default, deterministic with respect to superstep
	// boundaries.
	Synchronous Policy = iota
	// Asynchronous permits same-superstep visibility when the target has not
	// yet been processed this round. Trades determinism for convergence.
	Asynchronous
	// Reducing folds each arriving message into a per-target accumulator at
	// send time with the Program's Reducer. Memory stays O(vertices).
	Reducing
)

func (p Policy) String() string {
	switch p {
	case Synchronous:
		return "synchronous"
	case Asynchronous:
		return "asynchronous"
	case Reducing:
		return "reducing"
	}
	return "invalid"
}

// Options configures an executor run. MaxIterations is required; everything
// else has a usable default.
type Options struct {
	Name          string          // Input graph path, for cmd binaries.
	MaxIterations int             // Hard bound on supersteps. Required, >= 1.
	Concurrency   int             // Worker (= partition) count. Defaults to NumCPU.
	Tolerance     float64         // Passed through to user algorithms; the engine does not enforce it.
	Partitioning  PartitionScheme //
	Policy        Policy          //
	TrackSender   bool            // Drained messages expose the originating vertex id.
	AsyncReducing bool            // With Policy Reducing: fold with Asynchronous visibility instead of Synchronous.
	Undirected    bool            // Consumed by graph loaders, not by the engine.
	DebugLevel    uint8           // If non-zero, will print extra debug information.
	Reporter      Reporter        // Superstep boundary progress events. Nil for no reporting.
}

func (o *Options) validate() error {
	if o.MaxIterations < 1 {
		return &ConfigError{Option: "max_iterations", Reason: "must be a positive integer"}
	}
	if o.Concurrency == 0 {
		o.Concurrency = runtime.NumCPU()
	}
	if o.Concurrency < 0 {
		return &ConfigError{Option: "concurrency", Reason: "must be a positive worker count"}
	}
	switch o.Partitioning {
	case Auto, Range, Degree:
	default:
		return &ConfigError{Option: "partitioning", Reason: "unrecognized scheme"}
	}
	switch o.Policy {
	case Synchronous, Asynchronous, Reducing:
	default:
		return &ConfigError{Option: "messenger_policy", Reason: "unrecognized policy"}
	}
	return nil
}

// Declare your own flags before you call this function.
func FlagsToOptions() (opts Options) {
	graphPtr := flag.String("g", "", "Graph file (edge list).")
	iterPtr := flag.Int("i", 50, "Max supersteps. The only hard bound on a non-converging run.")
	threadPtr := flag.Int("t", runtime.NumCPU(), "Thread count for the superstep compute phase.")
	tolPtr := flag.Float64("tol", 0, "Tolerance handed to the algorithm; the engine does not interpret it.")
	partPtr := flag.String("part", "auto", "Partitioning: auto, range, or degree.")
	asyncPtr := flag.Bool("a", false, "Use the asynchronous messenger instead of the default synchronous.")
	senderPtr := flag.Bool("sender", false, "Track the sending vertex id on delivered messages.")
	undirectedPtr := flag.Bool("u", false, "Interpret the input graph as undirected (mirror each edge).")
	debugPtr := flag.Int("debug", 0, "Adds extra debug output. 0 info, 1 debug, 2+ trace.")
	colourPtr := flag.Bool("nc", false, "Removes the colouring from the log output.")
	flag.Parse()

	if *colourPtr {
		utils.SetLoggerConsole(true)
	}
	utils.SetLevel(*debugPtr)

	if *graphPtr == "" {
		flag.Usage()
		log.Fatal().Msg("A graph file is required.")
	}

	opts = Options{
		Name:          *graphPtr,
		MaxIterations: *iterPtr,
		Concurrency:   *threadPtr,
		Tolerance:     *tolPtr,
		TrackSender:   *senderPtr,
		Undirected:    *undirectedPtr,
		DebugLevel:    uint8(*debugPtr),
		Reporter:      NewLogReporter(),
	}
	if *asyncPtr {
		opts.Policy = Asynchronous
	}
	switch *partPtr {
	case "auto":
		opts.Partitioning = Auto
	case "range":
		opts.Partitioning = Range
	case "degree":
		opts.Partitioning = Degree
	default:
		log.Fatal().Msg("Unknown partitioning: " + *partPtr)
	}
	return opts
}
