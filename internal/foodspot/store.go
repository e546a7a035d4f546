package foodspot

import (
	"context"
	"time"
)

// Store is the durable listing collaborator. Mutate must run the callback and
// the write-back atomically with respect to other Mutate calls on the same id.
type Store interface {
	Insert(ctx context.Context, l Listing) (Listing, error)
	GetByID(ctx context.Context, id string) (Listing, error)
	List(ctx context.Context) ([]Listing, error)
	Update(ctx context.Context, l Listing) error
	Mutate(ctx context.Context, id string, fn func(*Listing) error) (Listing, error)
	FindByStatusCreatedBefore(ctx context.Context, status Status, before time.Time) ([]Listing, error)
	BatchUpdate(ctx context.Context, listings []Listing) error
}

type ImageStore interface {
	Upload(ctx context.Context, img Image) (string, error)
}

type Publisher interface {
	Publish(evt Event)
}
