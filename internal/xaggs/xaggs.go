// Package xaggs is the extended-aggregation engine: historical
// per-calendar-day statistics across all years of an observation archive,
// and counts of days whose daily average clears a threshold. The engine is
// stateless; every call is a pure function of the request and the current
// archive contents, so concurrent renders can share one instance freely.
package xaggs

import (
	"errors"

	"github.com/tkeffer/weewx-xaggs/internal/modules/archive/repository"
	"github.com/tkeffer/weewx-xaggs/internal/units"
)

// Span is a half-open time interval [Start, Stop) in unix epoch seconds.
type Span struct {
	Start int64
	Stop  int64
}

// Options carries the optional parameters of an aggregation request.
type Options struct {
	// Threshold is required by the avg_* family and forbidden elsewhere.
	Threshold *units.Value
}

// Aggregator computes aggregates for the names it claims, answering
// UnknownAggregateError for everything else.
type Aggregator interface {
	GetAggregate(obsType string, span Span, aggType string, opt *Options) (units.Value, error)
}

// Registry holds an ordered list of aggregators and resolves a request by
// asking each in turn, skipping those that answer "not mine".
type Registry struct {
	aggregators []Aggregator
}

// NewRegistry builds a registry over the given aggregators, consulted in
// order.
func NewRegistry(aggs ...Aggregator) *Registry {
	return &Registry{aggregators: aggs}
}

// Register appends an aggregator to the resolution order.
func (r *Registry) Register(a Aggregator) {
	r.aggregators = append(r.aggregators, a)
}

// Remove drops a previously registered aggregator.
func (r *Registry) Remove(a Aggregator) {
	for i, reg := range r.aggregators {
		if reg == a {
			r.aggregators = append(r.aggregators[:i], r.aggregators[i+1:]...)
			return
		}
	}
}

// GetAggregate resolves the request against the registered aggregators. An
// UnknownAggregateError from one aggregator moves resolution on to the next;
// every other outcome is final. If no aggregator claims the name, the caller
// gets UnknownAggregateError and is expected to fall back to its own default
// aggregation handling.
func (r *Registry) GetAggregate(obsType string, span Span, aggType string, opt *Options) (units.Value, error) {
	for _, a := range r.aggregators {
		v, err := a.GetAggregate(obsType, span, aggType, opt)
		var unknown *UnknownAggregateError
		if errors.As(err, &unknown) {
			continue
		}
		return v, err
	}
	return units.Value{}, &UnknownAggregateError{Name: aggType}
}

// mapObsError converts the repository's unknown-observation error into the
// engine's taxonomy, leaving other errors untouched.
func mapObsError(obsType string, err error) error {
	if errors.Is(err, repository.ErrUnknownObservation) {
		return &UnknownTypeError{ObsType: obsType}
	}
	return err
}
