// Package scanjob defines the background scan-apply job domain: the scan
// descriptor submitted to the cluster, the policies governing submission
// and status queries, and the job handle and status snapshot returned to
// callers.
package scanjob

import (
	"github.com/gridstore/client-go/pkg/clienterr"
	"github.com/gridstore/client-go/pkg/codec"
	"github.com/gridstore/client-go/pkg/validator"
)

// Priority is the execution priority tier of a scan.
type Priority string

const (
	PriorityAuto   Priority = "auto"
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority parses a priority tier.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityAuto, PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	default:
		return "", clienterr.PolicyValidation("priority must be one of: auto, low, medium, high")
	}
}

// ScanOptionsConfig holds caller-supplied scan options. Nil fields take
// their defaults: concurrent false, percent 100, priority auto,
// include_bins true.
type ScanOptionsConfig struct {
	Concurrent  *bool   `json:"concurrent" validate:"omitempty"`
	Percent     *int    `json:"percent" validate:"omitempty,min=0,max=100"`
	Priority    *string `json:"priority" validate:"omitempty,scan_priority"`
	IncludeBins *bool   `json:"include_bins" validate:"omitempty"`
}

// ScanOptionsConfigFromMap parses scan options out of a loosely-typed map.
// Unknown keys and wrong-typed values are POLICY_VALIDATION errors.
func ScanOptionsConfigFromMap(m map[string]any) (*ScanOptionsConfig, error) {
	if m == nil {
		return nil, nil
	}

	cfg := &ScanOptionsConfig{}
	for key, raw := range m {
		switch key {
		case "concurrent":
			b, ok := raw.(bool)
			if !ok {
				return nil, wrongType(key, "boolean")
			}
			cfg.Concurrent = &b
		case "percent":
			n, ok := toInt(raw)
			if !ok {
				return nil, wrongType(key, "integer")
			}
			cfg.Percent = &n
		case "priority":
			s, ok := raw.(string)
			if !ok {
				return nil, wrongType(key, "string")
			}
			cfg.Priority = &s
		case "include_bins":
			b, ok := raw.(bool)
			if !ok {
				return nil, wrongType(key, "boolean")
			}
			cfg.IncludeBins = &b
		default:
			return nil, clienterr.PolicyValidation("unknown scan option: " + key)
		}
	}
	return cfg, nil
}

// udfRef identifies the server-resident function applied to each matched
// record, together with its marshaled invocation arguments.
type udfRef struct {
	module   string
	function string
	args     codec.List
}

// Scan is the descriptor for one background scan-apply submission. It is a
// transient aggregate: built, submitted, and closed within a single call.
type Scan struct {
	namespace   string
	setName     string
	concurrent  bool
	percent     int
	priority    Priority
	includeBins bool

	udf    *udfRef
	closed bool
}

// NewScan builds a scan descriptor for the given namespace and set,
// applying options on top of their defaults. Empty identifiers are
// PARAMETER errors; malformed options are POLICY_VALIDATION errors.
func NewScan(namespace, set string, opts *ScanOptionsConfig, v *validator.Validator) (*Scan, error) {
	if namespace == "" {
		return nil, clienterr.Parameter("namespace should not be empty")
	}
	if set == "" {
		return nil, clienterr.Parameter("set should not be empty")
	}

	s := &Scan{
		namespace:   namespace,
		setName:     set,
		concurrent:  false,
		percent:     100,
		priority:    PriorityAuto,
		includeBins: true,
	}

	if opts != nil {
		if err := v.Validate(opts); err != nil {
			return nil, clienterr.PolicyValidation("invalid scan options").
				WithDetails(err)
		}
		if opts.Concurrent != nil {
			s.concurrent = *opts.Concurrent
		}
		if opts.Percent != nil {
			s.percent = *opts.Percent
		}
		if opts.Priority != nil {
			p, err := ParsePriority(*opts.Priority)
			if err != nil {
				return nil, err
			}
			s.priority = p
		}
		if opts.IncludeBins != nil {
			s.includeBins = *opts.IncludeBins
		}
	}

	return s, nil
}

// ApplyEach binds a UDF to the scan so that exactly one invocation runs
// per matched record. The descriptor owns the argument list from this
// point until Close.
func (s *Scan) ApplyEach(module, function string, args codec.List) error {
	if s.closed {
		return clienterr.Parameter("scan descriptor is closed")
	}
	if module == "" {
		return clienterr.Parameter("module should not be empty")
	}
	if function == "" {
		return clienterr.Parameter("function should not be empty")
	}
	if s.udf != nil {
		return clienterr.Parameter("scan descriptor already has a UDF bound")
	}

	s.udf = &udfRef{module: module, function: function, args: args}
	return nil
}

// Close tears the descriptor down and releases the bound argument list.
// Idempotent, and safe to call on a partially built descriptor.
func (s *Scan) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.udf = nil
}

// Closed reports whether the descriptor has been torn down.
func (s *Scan) Closed() bool { return s.closed }

// Namespace returns the target namespace.
func (s *Scan) Namespace() string { return s.namespace }

// SetName returns the target set.
func (s *Scan) SetName() string { return s.setName }

// Concurrent reports whether nodes are scanned in parallel.
func (s *Scan) Concurrent() bool { return s.concurrent }

// Percent returns the sampling percentage of records to scan.
func (s *Scan) Percent() int { return s.percent }

// Priority returns the execution priority tier.
func (s *Scan) Priority() Priority { return s.priority }

// IncludeBins reports whether record bins are read during the scan.
func (s *Scan) IncludeBins() bool { return s.includeBins }

// UDF returns the bound function reference and its argument list.
// The bool is false when no UDF is bound or the descriptor is closed.
func (s *Scan) UDF() (module, function string, args codec.List, ok bool) {
	if s.closed || s.udf == nil {
		return "", "", nil, false
	}
	return s.udf.module, s.udf.function, s.udf.args, true
}

func wrongType(key, want string) error {
	return clienterr.PolicyValidation(key + " must be a " + want)
}

func toInt(raw any) (int, bool) {
	switch n := raw.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
