// Package config holds the parameters of an analysis session and the
// leveled logger shared by the analyses.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cs-au-dk/invariant/analysis/absval"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Checker kinds.
const (
	NoChecks     = "none"
	AssertChecks = "assert"
)

var (
	ErrInvalidParams = errors.New("invalid analysis parameters")
	errUnknownFormat = errors.New("unknown configuration file format")
)

// Params configures an analysis session. Fields that are absent from a
// configuration file keep their default value.
type Params struct {
	// Domain is the name of the requested abstract domain.
	Domain string `yaml:"domain" toml:"domain"`
	// Inter selects the inter-procedural analysis.
	Inter    bool `yaml:"inter" toml:"inter"`
	Backward bool `yaml:"backward" toml:"backward"`
	// Liveness forgets dead variables at the end of every block.
	Liveness bool `yaml:"liveness" toml:"liveness"`
	// Relational domains are replaced by their non-relational counterpart
	// when some block has more live variables than this.
	RelationalThreshold int `yaml:"relational-threshold" toml:"relational-threshold"`

	WideningDelay  int `yaml:"widening-delay" toml:"widening-delay"`
	NarrowingIters int `yaml:"narrowing-iterations" toml:"narrowing-iterations"`
	// WideningJumpSet bounds the number of thresholds used when widening.
	// Zero disables widening with thresholds.
	WideningJumpSet int `yaml:"widening-jumpset" toml:"widening-jumpset"`

	Check        string `yaml:"check" toml:"check"`
	CheckVerbose bool   `yaml:"check-verbose" toml:"check-verbose"`

	StoreInvariants bool `yaml:"store-invariants" toml:"store-invariants"`
	KeepShadowVars  bool `yaml:"keep-shadow-vars" toml:"keep-shadow-vars"`
	PrintInvariants bool `yaml:"print-invariants" toml:"print-invariants"`

	// MaxCallingContexts bounds the number of contexts per procedure.
	// Zero means unbounded.
	MaxCallingContexts        int  `yaml:"max-calling-contexts" toml:"max-calling-contexts"`
	ExactSummaryReuse         bool `yaml:"exact-summary-reuse" toml:"exact-summary-reuse"`
	AnalyzeRecursiveFunctions bool `yaml:"analyze-recursive-functions" toml:"analyze-recursive-functions"`
	InterEntryMain            bool `yaml:"inter-entry-main" toml:"inter-entry-main"`

	Jobs     int  `yaml:"jobs" toml:"jobs"`
	LogLevel int  `yaml:"log-level" toml:"log-level"`
	NoColor  bool `yaml:"no-color" toml:"no-color"`
}

// Default returns the default parameters.
func Default() *Params {
	return &Params{
		Domain:              absval.TagInt.String(),
		RelationalThreshold: 10000,
		WideningDelay:       1,
		NarrowingIters:      10,
		Check:               NoChecks,
		StoreInvariants:     true,
		ExactSummaryReuse:   true,
		Jobs:                1,
		LogLevel:            int(InfoLevel),
	}
}

// Load reads parameters from a yaml or toml file, chosen by extension.
func Load(filename string) (*Params, error) {
	p := Default()
	switch filepath.Ext(filename) {
	case ".toml":
		if _, err := toml.DecodeFile(filename, p); err != nil {
			return nil, fmt.Errorf("could not decode %s: %w", filename, err)
		}
	case ".yaml", ".yml":
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(p); err != nil {
			return nil, fmt.Errorf("could not decode %s: %w", filename, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownFormat, filename)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// DomainTag resolves the requested domain.
func (p *Params) DomainTag() (absval.Tag, error) {
	tag, ok := absval.ParseTag(p.Domain)
	if !ok {
		return 0, fmt.Errorf("%w: unknown domain %q", ErrInvalidParams, p.Domain)
	}
	return tag, nil
}

// RunChecks holds if assertions should be checked.
func (p *Params) RunChecks() bool { return p.Check != NoChecks }

// Validate rejects inconsistent parameters.
func (p *Params) Validate() error {
	if _, err := p.DomainTag(); err != nil {
		return err
	}
	knobs := []struct {
		name  string
		value int
	}{
		{"relational-threshold", p.RelationalThreshold},
		{"widening-delay", p.WideningDelay},
		{"narrowing-iterations", p.NarrowingIters},
		{"widening-jumpset", p.WideningJumpSet},
		{"max-calling-contexts", p.MaxCallingContexts},
	}
	for _, k := range knobs {
		if k.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidParams, k.name, k.value)
		}
	}
	if p.Jobs < 1 {
		return fmt.Errorf("%w: jobs must be positive, got %d", ErrInvalidParams, p.Jobs)
	}
	if p.Check != NoChecks && p.Check != AssertChecks {
		return fmt.Errorf("%w: unknown checker %q", ErrInvalidParams, p.Check)
	}
	if l := LogLevel(p.LogLevel); l < ErrLevel || l > TraceLevel {
		return fmt.Errorf("%w: log level %d out of range", ErrInvalidParams, p.LogLevel)
	}
	return nil
}
