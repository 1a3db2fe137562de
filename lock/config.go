package lock

import "time"

// Config holds configuration for a Manager.
type Config struct {
	// LeaseDuration is how long an acquired lease stays valid without renewal.
	// Default: 10s
	LeaseDuration time.Duration

	// HeartbeatPeriod is the interval between renewals.
	// Default: LeaseDuration / 3
	HeartbeatPeriod time.Duration

	// Owner identifies this process in lock records.
	// Default: "dyalchemy-lock-manager"
	Owner string

	// RetryInterval is the wait between acquisition attempts on a held lock.
	// Default: 250ms
	RetryInterval time.Duration

	// Retries is the number of additional acquisition attempts.
	// Default: enough attempts to outlast one LeaseDuration, so a lease
	// abandoned by a crashed owner is always taken over.
	Retries int
}

// DefaultConfig returns the default lock settings.
func DefaultConfig() Config {
	c := Config{}
	c.validate()
	return c
}

// validate fills in defaults for unset values.
func (c *Config) validate() {
	if c.LeaseDuration <= 0 {
		c.LeaseDuration = 10 * time.Second
	}
	if c.HeartbeatPeriod <= 0 || c.HeartbeatPeriod >= c.LeaseDuration {
		c.HeartbeatPeriod = c.LeaseDuration / 3
	}
	if c.Owner == "" {
		c.Owner = "dyalchemy-lock-manager"
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 250 * time.Millisecond
	}
	if c.Retries <= 0 {
		c.Retries = int(c.LeaseDuration/c.RetryInterval) + 1
	}
}
