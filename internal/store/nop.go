package store

import (
	"context"
	"fmt"

	"github.com/fairchance/jobintake/internal/model"
)

// NopStore is a no-op store backing `add --dry-run` and `bulk --dry-run`.
// Nothing is persisted, so no URL is ever a duplicate and Get finds nothing.
type NopStore struct{}

var _ model.JobStore = NopStore{}

func NewNopStore() NopStore { return NopStore{} }

func (NopStore) Insert(context.Context, model.Job) error                  { return nil }
func (NopStore) Update(context.Context, string, model.JobPatch) error     { return nil }
func (NopStore) Delete(context.Context, string) error                     { return nil }
func (NopStore) Query(context.Context, model.JobQuery) ([]model.Job, error) { return nil, nil }

func (NopStore) Get(_ context.Context, id string) (model.Job, error) {
	return model.Job{}, fmt.Errorf("%w: %s", model.ErrJobNotFound, id)
}

func (NopStore) ExistingURLs(context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

// Subscribe returns a channel that never receives.
func (NopStore) Subscribe() (<-chan model.ChangeEvent, func()) {
	ch := make(chan model.ChangeEvent)
	return ch, func() {}
}
