package ruleset

import "fmt"

// Coefficients is the tunable weight vector, one slot per registered signal
// in registry order. It is data, not code: retrained vectors can be loaded
// from configuration without touching rule logic.
type Coefficients []float64

// DefaultCoefficients returns the shipped weight vector, aligned with
// SignalNames().
func DefaultCoefficients() Coefficients {
	return Coefficients{
		2.3, // image_area
		1.2, // image_square_aspect
		0.9, // image_no_background_id
		1.5, // image_above_fold
		1.6, // title_font_size
		1.3, // title_above_fold
		1.1, // title_near_image
		1.4, // price_font_size
		2.1, // price_currency_symbol
		2.4, // price_id_class_hint
		1.2, // price_above_fold
		1.7, // price_near_image
		2.0, // price_cents_pattern
	}
}

// Validate checks that the vector has one weight per registered signal.
func (c Coefficients) Validate() error {
	if len(c) != len(signalRegistry) {
		return fmt.Errorf(
			"coefficient vector has %d slots, registry has %d signals",
			len(c), len(signalRegistry),
		)
	}
	return nil
}

// Biases holds the per-feature scalar offset added during aggregation.
type Biases map[Feature]float64

// DefaultBiases returns the shipped bias table.
func DefaultBiases() Biases {
	return Biases{
		FeatureImage: -1.1,
		FeatureTitle: -0.9,
		FeaturePrice: -2.4,
	}
}

// Thresholds holds the per-feature minimum total score a winning candidate
// must reach to be accepted.
type Thresholds map[Feature]float64

// DefaultThresholds returns the shipped acceptance thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FeatureImage: 2.5,
		FeatureTitle: 0.5,
		FeaturePrice: 1.5,
	}
}

// Config bundles the swappable scoring parameters for one extraction pass.
type Config struct {
	Coefficients Coefficients
	Biases       Biases
	Thresholds   Thresholds
}

// DefaultConfig returns the shipped scoring parameters.
func DefaultConfig() Config {
	return Config{
		Coefficients: DefaultCoefficients(),
		Biases:       DefaultBiases(),
		Thresholds:   DefaultThresholds(),
	}
}

// Validate checks the config for structural errors.
func (c Config) Validate() error {
	if err := c.Coefficients.Validate(); err != nil {
		return err
	}
	for _, f := range []Feature{FeatureImage, FeatureTitle, FeaturePrice} {
		if _, ok := c.Biases[f]; !ok {
			return fmt.Errorf("missing bias for feature %q", f)
		}
		if _, ok := c.Thresholds[f]; !ok {
			return fmt.Errorf("missing threshold for feature %q", f)
		}
	}
	return nil
}
