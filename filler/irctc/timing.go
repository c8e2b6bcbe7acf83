package irctc

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads "500ms" style strings from YAML.
type Duration time.Duration

// D converts back to time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return fmt.Errorf("irctc: duration: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("irctc: duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

// Timing holds the bounded waits of the pipeline. Each step pauses before it
// runs so the page can re-render after the previous one.
type Timing struct {
	// Ready bounds the wait for the passenger form; zero skips the wait.
	Ready        Duration `yaml:"ready"`
	Start        Duration `yaml:"start"`
	PerGrow      Duration `yaml:"per_grow"`
	AfterGrow    Duration `yaml:"after_grow"`
	PerPassenger Duration `yaml:"per_passenger"`
	Contact      Duration `yaml:"contact"`
	Payment      Duration `yaml:"payment"`
	// UPIRender bounds the wait for the UPI id field after selecting UPI.
	UPIRender Duration `yaml:"upi_render"`
	Submit    Duration `yaml:"submit"`
	Scroll    Duration `yaml:"scroll"`
}

func ms(n int) Duration { return Duration(time.Duration(n) * time.Millisecond) }

// DefaultTiming matches the pacing the site tolerates in practice.
func DefaultTiming() Timing {
	return Timing{
		Start:        ms(500),
		PerGrow:      ms(500),
		AfterGrow:    ms(800),
		PerPassenger: ms(300),
		Contact:      ms(300),
		Payment:      ms(500),
		UPIRender:    ms(700),
		Submit:       ms(1000),
		Scroll:       ms(300),
	}
}

// Instant is a zero-pause timing for documents that render synchronously.
func Instant() Timing { return Timing{} }
