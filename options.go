package mphkv

// Option is a functional option for construction and loading.
type Option func(*config)

type config struct {
	seed    uint64
	workers int
	hasher  Hasher
}

func defaultConfig() *config {
	return &config{
		seed:    0x1234567890abcdef, // arbitrary default; override via WithSeed
		workers: 0,                  // 0 means GOMAXPROCS
		hasher:  XXH3Hasher{},
	}
}

func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithSeed sets the hash seed. Two builds over the same key set and seed
// produce identical index assignments.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithWorkers sets the number of parallel construction workers.
// n <= 0 uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithHasher replaces the default XXH3 hasher. The same hasher must be used
// when loading a store persisted with it.
func WithHasher(h Hasher) Option {
	return func(c *config) {
		c.hasher = h
	}
}
