package application

import (
	"context"
	"sync"

	"github.com/ericfisherdev/smartqpanel/internal/domain/port/driven"
)

// OptionState is the load state of a select column's option source.
type OptionState string

const (
	OptionsLoading OptionState = "loading"
	OptionsFailed  OptionState = "failed"
	OptionsReady   OptionState = "ready"
)

// Option is one choice of a select column.
type Option struct {
	Value string
	Label string
}

// OptionSource feeds a select column. Sources backed by an upstream
// collection start in OptionsLoading; static sources are ready at once.
type OptionSource struct {
	mu      sync.RWMutex
	state   OptionState
	options []Option
	err     error
	load    func(ctx context.Context) ([]Option, error)
}

// NewOptionSource creates a source that is populated by load.
func NewOptionSource(load func(ctx context.Context) ([]Option, error)) *OptionSource {
	return &OptionSource{state: OptionsLoading, load: load}
}

// StaticOptions creates a ready source with a fixed option list.
func StaticOptions(options ...Option) *OptionSource {
	return &OptionSource{state: OptionsReady, options: options}
}

// Refresh reloads the options. Static sources are left unchanged. On failure
// the source moves to OptionsFailed and keeps no options.
func (s *OptionSource) Refresh(ctx context.Context) error {
	if s.load == nil {
		return nil
	}

	options, err := s.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = OptionsFailed
		s.options = nil
		s.err = err
		return err
	}
	s.state = OptionsReady
	s.options = options
	s.err = nil
	return nil
}

// Snapshot returns the current state and a copy of the options.
func (s *OptionSource) Snapshot() (OptionState, []Option) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Option, len(s.options))
	copy(out, s.options)
	return s.state, out
}

// Err returns the last load error, if any.
func (s *OptionSource) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Lookup finds the option with the given value. It only succeeds when the
// source is ready.
func (s *OptionSource) Lookup(value string) (Option, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != OptionsReady {
		return Option{}, false
	}
	for _, o := range s.options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}

// collectionOptions builds an option loader from an upstream collection.
func collectionOptions[T Row](api driven.ResourceAPI, endpoint string, label func(T) string) func(context.Context) ([]Option, error) {
	return func(ctx context.Context) ([]Option, error) {
		var rows []T
		if err := api.FetchCollection(ctx, endpoint, nil, &rows); err != nil {
			return nil, err
		}
		options := make([]Option, 0, len(rows))
		for _, row := range rows {
			options = append(options, Option{Value: formatID(row.RowID()), Label: label(row)})
		}
		return options, nil
	}
}
