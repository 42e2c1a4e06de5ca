package scanjob

import (
	"time"

	"github.com/gridstore/client-go/pkg/clienterr"
	"github.com/gridstore/client-go/pkg/validator"
)

// Durability is the commit level for writes a scan UDF performs.
type Durability string

const (
	// DurabilityAll waits for all replicas to commit.
	DurabilityAll Durability = "all"
	// DurabilityMaster waits for the master replica only.
	DurabilityMaster Durability = "master"
)

// Replica selects which replica partition serves the scan.
type Replica string

const (
	ReplicaMaster   Replica = "master"
	ReplicaAny      Replica = "any"
	ReplicaSequence Replica = "sequence"
)

// ScanPolicyConfig holds caller-supplied submission settings. Nil fields
// take their defaults during resolution; a nil config means "no override"
// and the cluster default applies.
type ScanPolicyConfig struct {
	// TotalTimeout bounds the whole submission call. Zero means no
	// client-side limit.
	TotalTimeout *time.Duration `json:"total_timeout" validate:"omitempty,min=0"`

	// SocketTimeout bounds a single network exchange.
	SocketTimeout *time.Duration `json:"socket_timeout" validate:"omitempty,min=0"`

	// MaxRetries is the retry budget enforced by the submission primitive.
	MaxRetries *int `json:"max_retries" validate:"omitempty,min=0,max=10"`

	Durability *string `json:"durability" validate:"omitempty,durability"`
	Replica    *string `json:"replica" validate:"omitempty,replica"`
}

// ScanPolicy is the resolved submission policy.
type ScanPolicy struct {
	TotalTimeout  time.Duration
	SocketTimeout time.Duration
	MaxRetries    int
	Durability    Durability
	Replica       Replica
}

// Resolve validates the config and populates a concrete policy,
// substituting defaults for omitted fields. A nil config resolves to a
// nil policy, the explicit "no override" sentinel.
func (c *ScanPolicyConfig) Resolve(v *validator.Validator) (*ScanPolicy, error) {
	if c == nil {
		return nil, nil
	}

	if err := v.Validate(c); err != nil {
		return nil, clienterr.PolicyValidation("invalid scan policy").
			WithDetails(err)
	}

	p := &ScanPolicy{
		TotalTimeout:  0,
		SocketTimeout: 30 * time.Second,
		MaxRetries:    0,
		Durability:    DurabilityAll,
		Replica:       ReplicaMaster,
	}
	if c.TotalTimeout != nil {
		p.TotalTimeout = *c.TotalTimeout
	}
	if c.SocketTimeout != nil {
		p.SocketTimeout = *c.SocketTimeout
	}
	if c.MaxRetries != nil {
		p.MaxRetries = *c.MaxRetries
	}
	if c.Durability != nil {
		p.Durability = Durability(*c.Durability)
	}
	if c.Replica != nil {
		p.Replica = Replica(*c.Replica)
	}
	return p, nil
}

// InfoPolicyConfig holds caller-supplied status-query settings.
type InfoPolicyConfig struct {
	// Timeout bounds the status query call.
	Timeout *time.Duration `json:"timeout" validate:"omitempty,min=0"`
}

// InfoPolicy is the resolved status-query policy.
type InfoPolicy struct {
	Timeout time.Duration
}

// Resolve validates the config and populates a concrete policy. A nil
// config resolves to a nil policy and the cluster default applies.
func (c *InfoPolicyConfig) Resolve(v *validator.Validator) (*InfoPolicy, error) {
	if c == nil {
		return nil, nil
	}

	if err := v.Validate(c); err != nil {
		return nil, clienterr.PolicyValidation("invalid info policy").
			WithDetails(err)
	}

	p := &InfoPolicy{Timeout: time.Second}
	if c.Timeout != nil {
		p.Timeout = *c.Timeout
	}
	return p, nil
}

// ScanPolicyConfigFromMap parses a submission policy out of a
// loosely-typed map. Unknown keys and wrong-typed values are
// POLICY_VALIDATION errors. Durations accept Go duration strings
// ("30s") or integer milliseconds.
func ScanPolicyConfigFromMap(m map[string]any) (*ScanPolicyConfig, error) {
	if m == nil {
		return nil, nil
	}

	cfg := &ScanPolicyConfig{}
	for key, raw := range m {
		switch key {
		case "total_timeout":
			d, err := toDuration(key, raw)
			if err != nil {
				return nil, err
			}
			cfg.TotalTimeout = &d
		case "socket_timeout":
			d, err := toDuration(key, raw)
			if err != nil {
				return nil, err
			}
			cfg.SocketTimeout = &d
		case "max_retries":
			n, ok := toInt(raw)
			if !ok {
				return nil, wrongType(key, "integer")
			}
			cfg.MaxRetries = &n
		case "durability":
			s, ok := raw.(string)
			if !ok {
				return nil, wrongType(key, "string")
			}
			cfg.Durability = &s
		case "replica":
			s, ok := raw.(string)
			if !ok {
				return nil, wrongType(key, "string")
			}
			cfg.Replica = &s
		default:
			return nil, clienterr.PolicyValidation("unknown scan policy field: " + key)
		}
	}
	return cfg, nil
}

// InfoPolicyConfigFromMap parses a status-query policy out of a
// loosely-typed map with the same strictness as ScanPolicyConfigFromMap.
func InfoPolicyConfigFromMap(m map[string]any) (*InfoPolicyConfig, error) {
	if m == nil {
		return nil, nil
	}

	cfg := &InfoPolicyConfig{}
	for key, raw := range m {
		switch key {
		case "timeout":
			d, err := toDuration(key, raw)
			if err != nil {
				return nil, err
			}
			cfg.Timeout = &d
		default:
			return nil, clienterr.PolicyValidation("unknown info policy field: " + key)
		}
	}
	return cfg, nil
}

func toDuration(key string, raw any) (time.Duration, error) {
	switch x := raw.(type) {
	case string:
		d, err := time.ParseDuration(x)
		if err != nil {
			return 0, clienterr.PolicyValidation(key + " must be a duration, e.g. \"30s\"")
		}
		return d, nil
	case time.Duration:
		return x, nil
	default:
		// Integer values are milliseconds for wire compatibility with
		// older clients.
		if n, ok := toInt(raw); ok {
			return time.Duration(n) * time.Millisecond, nil
		}
		return 0, wrongType(key, "duration string or integer milliseconds")
	}
}
