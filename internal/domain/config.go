package domain

import "fmt"

// Config is the process-wide configuration, read once at startup.
type Config struct {
	// ProfilesDir is the directory of .md profile files. Empty means the
	// embedded stock catalog.
	ProfilesDir string

	LogLevel string

	// ComplexityRouting enables the post-selection upgrade to a profile's
	// _complex sibling.
	ComplexityRouting bool

	// Word-count thresholds for the analyser's complexity bucket and the
	// router's prefer-complex check.
	WordHighThreshold   int
	WordMediumThreshold int
	PreferThreshold     int

	// WriteMetadata enables the profiles_metadata.json write-back after a
	// successful reload.
	WriteMetadata bool
}

// DefaultConfig returns the compiled-in defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:            "info",
		ComplexityRouting:   true,
		WordHighThreshold:   80,
		WordMediumThreshold: 40,
		PreferThreshold:     60,
		WriteMetadata:       true,
	}
}

// Validate catches nonsensical threshold combinations before startup.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.WordMediumThreshold <= 0 || c.WordHighThreshold <= 0 || c.PreferThreshold <= 0 {
		return fmt.Errorf("complexity thresholds must be positive")
	}
	if c.WordMediumThreshold > c.WordHighThreshold {
		return fmt.Errorf("medium word threshold %d exceeds high threshold %d",
			c.WordMediumThreshold, c.WordHighThreshold)
	}
	return nil
}
