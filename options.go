package bfs

// schedOptions holds configuration gathered from [Option] values.
type schedOptions struct {
	numCPUs       int
	rrIntervalMS  int
	schedISOCPU   int
	locality      *LocalityMatrix
	logger        *Logger
	metrics       *Metrics
	bindOSThreads bool
	panicOnInvariantViolation bool
}

// Option configures a [Scheduler] instance.
type Option interface {
	applySched(*schedOptions) error
}

type optionImpl struct {
	apply func(*schedOptions) error
}

func (o *optionImpl) applySched(opts *schedOptions) error {
	return o.apply(opts)
}

// WithNumCPUs sets the number of simulated CPUs. Required; there is no
// sensible default since it drives GRQ/Runqueue/LocalityMatrix sizing.
func WithNumCPUs(n int) Option {
	return &optionImpl{func(opts *schedOptions) error {
		if n <= 0 {
			return NewInvalidArgumentError("WithNumCPUs: n must be positive, got %d", n)
		}
		opts.numCPUs = n
		return nil
	}}
}

// WithRRInterval sets the base round-robin interval in milliseconds, before
// the CPU-count scaling described in spec.md §4.3. Defaults to 6ms, the
// original's rr_interval default.
func WithRRInterval(ms int) Option {
	return &optionImpl{func(opts *schedOptions) error {
		if ms <= 0 {
			return NewInvalidArgumentError("WithRRInterval: ms must be positive, got %d", ms)
		}
		opts.rrIntervalMS = ms
		return nil
	}}
}

// WithISOCPUPercent sets sched_iso_cpu, the percentage of CPU time
// SCHED_ISO tasks may consume in aggregate before being throttled back to
// SCHED_NORMAL. Defaults to 70, matching the original.
func WithISOCPUPercent(percent int) Option {
	return &optionImpl{func(opts *schedOptions) error {
		if percent < 0 || percent > 100 {
			return NewInvalidArgumentError("WithISOCPUPercent: percent must be in [0,100], got %d", percent)
		}
		opts.schedISOCPU = percent
		return nil
	}}
}

// WithLocality supplies a precomputed topology distance matrix (spec.md
// §4.5's cache_distance input). If omitted, the Scheduler builds a flat
// matrix where every CPU pair is equally distant.
func WithLocality(m *LocalityMatrix) Option {
	return &optionImpl{func(opts *schedOptions) error {
		opts.locality = m
		return nil
	}}
}

// WithLogger overrides the package-wide default [Logger] for a single
// Scheduler.
func WithLogger(l *Logger) Option {
	return &optionImpl{func(opts *schedOptions) error {
		opts.logger = l
		return nil
	}}
}

// WithMetrics enables runtime metrics collection (see metrics.go). A
// Scheduler built without this option records nothing.
func WithMetrics(enabled bool) Option {
	return &optionImpl{func(opts *schedOptions) error {
		if enabled {
			opts.metrics = NewMetrics()
		} else {
			opts.metrics = nil
		}
		return nil
	}}
}

// WithOSThreadAffinity records whether each simulated CPU's goroutine is to
// be pinned to a real OS thread via sched_setaffinity (affinity_linux.go).
// The Scheduler stores the setting and binds no thread itself: the caller
// driving the simulation loop does so with [BindOSThread] after
// runtime.LockOSThread, as cmd/bfssim does. Disabled by default.
func WithOSThreadAffinity(enabled bool) Option {
	return &optionImpl{func(opts *schedOptions) error {
		opts.bindOSThreads = enabled
		return nil
	}}
}

// WithPanicOnInvariantViolation opts a Scheduler into treating
// [Scheduler.CheckInvariants] violations as fatal: the first one found
// panics with the corresponding [SchedulerBugError] instead of only being
// logged and returned. Intended for tests and development builds; spec.md
// §7 requires production behavior to keep running regardless.
func WithPanicOnInvariantViolation(enabled bool) Option {
	return &optionImpl{func(opts *schedOptions) error {
		opts.panicOnInvariantViolation = enabled
		return nil
	}}
}

const (
	defaultRRIntervalMS = 6
	defaultISOCPUPercent = 70
)

// resolveOptions applies Option values over sane defaults, mirroring
// eventloop/options.go's resolveLoopOptions.
func resolveOptions(opts []Option) (*schedOptions, error) {
	cfg := &schedOptions{
		rrIntervalMS: defaultRRIntervalMS,
		schedISOCPU:  defaultISOCPUPercent,
		logger:       defaultLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applySched(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.numCPUs <= 0 {
		return nil, NewInvalidArgumentError("bfs: WithNumCPUs is required")
	}
	if cfg.locality == nil {
		cfg.locality = NewLocalityMatrix(cfg.numCPUs)
	}
	return cfg, nil
}
