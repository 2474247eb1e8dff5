package filing

import (
	"go.uber.org/zap"
)

// Trace records which tier produced each field of a record
type Trace map[FieldKey]string

// Resolver merges the form-field and page-text channels into one canonical
// record. Each field owns an ordered chain of tiers; the first tier that
// yields a non-blank value wins and the sentinel covers the rest.
type Resolver struct {
	chains map[FieldKey][]Tier
	logger *zap.Logger
}

// ResolverOption customises a Resolver
type ResolverOption func(*Resolver)

// WithLogger attaches a logger for resolution diagnostics
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTiers appends extra tiers to a field's chain, after the built-in ones
func WithTiers(key FieldKey, tiers ...Tier) ResolverOption {
	return func(r *Resolver) {
		r.chains[key] = append(r.chains[key], tiers...)
	}
}

// NewResolver builds the chains form → text → heuristics for every spec.
// Passing nil specs uses DefaultSpecs.
func NewResolver(specs []FieldSpec, opts ...ResolverOption) *Resolver {
	if specs == nil {
		specs = DefaultSpecs()
	}

	r := &Resolver{
		chains: make(map[FieldKey][]Tier, len(AllFields)),
		logger: zap.NewNop(),
	}

	heuristics := DefaultHeuristics()
	for _, spec := range specs {
		chain := []Tier{FormTier(spec), TextTier(spec)}
		chain = append(chain, heuristics[spec.Key]...)
		r.chains[spec.Key] = chain
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Chain returns the tiers tried for key, in order
func (r *Resolver) Chain(key FieldKey) []Tier {
	return append([]Tier(nil), r.chains[key]...)
}

// Resolve produces a complete record. It never fails: fields without any
// signal resolve to Sentinel.
func (r *Resolver) Resolve(text string, fields FormFields) (CanonicalRecord, Trace) {
	var record CanonicalRecord
	trace := make(Trace, len(AllFields))

	for _, key := range AllFields {
		value, tier := r.resolveField(key, fields, text)
		record.Set(key, value)
		trace[key] = tier

		if tier == TierSentinel {
			r.logger.Info("field unresolved", zap.String("field", string(key)))
		} else {
			r.logger.Debug("field resolved",
				zap.String("field", string(key)),
				zap.String("tier", tier),
				zap.String("value", value))
		}
	}

	return record, trace
}

func (r *Resolver) resolveField(key FieldKey, fields FormFields, text string) (string, string) {
	for _, tier := range r.chains[key] {
		if tier.Resolve == nil {
			continue
		}
		if value, ok := tier.Resolve(fields, text); ok && !isBlank(value) {
			return value, tier.Name
		}
	}
	return Sentinel, TierSentinel
}
