package webui

type Config struct {
	ListenAddr string
}

type Option func(*Config)

func WithListenAddr(addr string) Option {
	return func(c *Config) {
		c.ListenAddr = addr
	}
}

func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func NewConfig(opts ...Option) *Config {
	c := &Config{
		ListenAddr: ":3000",
	}
	c.Apply(opts...)
	return c
}
