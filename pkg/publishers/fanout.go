package publishers

import (
	"context"
	"errors"
	"fmt"
)

// Fanout routes each event to the sinks whose kinds filter accepts it.
type Fanout struct {
	sinks []Sink
}

// NewFanout keeps the sinks that carry a publisher.
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s.Publisher != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Publish delivers evt to every sink routed for evt.Kind and returns how many
// accepted it. Sinks filtered out count neither as delivered nor as failed,
// so an event no sink subscribes to yields (0, nil).
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil {
		return 0, nil
	}
	delivered := 0
	var errs []error
	for _, s := range f.sinks {
		if !s.Kinds.Accepts(evt.Kind) {
			continue
		}
		if err := s.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s] %s %d: %w", s.Type(), s.ID(), evt.Kind, evt.ResourceID, err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Routes returns the ids of the sinks an event of kind would reach.
func (f *Fanout) Routes(kind string) []string {
	if f == nil {
		return nil
	}
	var ids []string
	for _, s := range f.sinks {
		if s.Kinds.Accepts(kind) {
			ids = append(ids, s.ID())
		}
	}
	return ids
}

// Close closes every sink and joins their errors.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", s.Type(), s.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Size returns the number of sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}
