package eventloop

// Config holds the knobs a Loop and the server built on top of it need,
// the same functional-options shape the teacher uses for its Server
// (server.ServerOption over a server.Config).
type Config struct {
	// StreamBufferSize sizes every netio.Reader/Writer a connection
	// handler creates.
	StreamBufferSize int
	// PortRangeStart/PortRangeEnd bound the bind scan a server run on
	// top of this loop performs.
	PortRangeStart int
	PortRangeEnd   int
	// Backlog is the listen backlog; 0 means the platform maximum.
	Backlog int
}

// DefaultConfig returns the configuration spec.md §6 implies: a
// [9000,9200] bind range, platform-maximum backlog, and a buffer size
// generous enough for typical request/response framing.
func DefaultConfig() Config {
	return Config{
		StreamBufferSize: 4096,
		PortRangeStart:   9000,
		PortRangeEnd:     9200,
		Backlog:          0,
	}
}

// Option customizes a Config built by NewConfig.
type Option func(*Config)

// WithStreamBufferSize overrides the default stream buffer size.
func WithStreamBufferSize(n int) Option {
	return func(c *Config) { c.StreamBufferSize = n }
}

// WithPortRange overrides the default bind port scan range.
func WithPortRange(start, end int) Option {
	return func(c *Config) { c.PortRangeStart, c.PortRangeEnd = start, end }
}

// WithBacklog overrides the default listen backlog.
func WithBacklog(n int) Option {
	return func(c *Config) { c.Backlog = n }
}

// NewConfig applies opts over DefaultConfig.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
