package service

import (
	"context"

	"github.com/matkukla/DonorCRM/internal/store"
)

// Repository is the persistence the services depend on. *store.Store
// satisfies it.
type Repository interface {
	store.Querier
	WithTx(ctx context.Context, fn func(q store.Querier) error) error
}

var _ Repository = (*store.Store)(nil)
