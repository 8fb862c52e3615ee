package crawler

import (
	"fmt"
	"time"
)

// Config captures every knob that influences one crawl run. It is decoupled from Viper so
// the engine can be configured and tested independently.
type Config struct {
	Mode            Mode
	Seeds           []string
	Concurrency     int
	MaxPages        int
	DeniedPaths     []string
	WaitBudget      time.Duration
	MaxContentPages int
}

// Validate rejects caller input that makes a crawl impossible before anything is fetched.
func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	if (c.Mode == ModeSingle || c.Mode == ModeFull) && len(c.Seeds) != 1 {
		return fmt.Errorf("%w: %s mode takes exactly one URL, got %d", ErrSeedCount, c.Mode, len(c.Seeds))
	}
	for _, seed := range c.Seeds {
		if _, err := Canonicalize(seed); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSeed, err)
		}
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages must be >= 0")
	}
	return nil
}

func (c Config) workers() int {
	if c.Concurrency <= 0 {
		return 1
	}
	return c.Concurrency
}
