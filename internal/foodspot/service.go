package foodspot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jayshxd/Open-Feast/internal/shared/geo"
)

const (
	// MaxPinDistanceMeters is the farthest a device may be from the pin it drops.
	MaxPinDistanceMeters = 100.0
	// VoteThreshold is the number of "finished" votes that closes a listing.
	VoteThreshold = 3

	DefaultPlaceholderImageURL = "https://placeholder.com/no-food.jpg"
)

// Rules holds the lifecycle constants handed to the service.
type Rules struct {
	MaxPinDistanceMeters float64
	VoteThreshold        int
	PlaceholderImageURL  string
}

func DefaultRules(placeholderURL string) Rules {
	if placeholderURL == "" {
		placeholderURL = DefaultPlaceholderImageURL
	}
	return Rules{
		MaxPinDistanceMeters: MaxPinDistanceMeters,
		VoteThreshold:        VoteThreshold,
		PlaceholderImageURL:  placeholderURL,
	}
}

type Service struct {
	store     Store
	images    ImageStore
	publisher Publisher
	rules     Rules
	log       *slog.Logger
	distance  func(lat1, lon1, lat2, lon2 float64) float64
}

// NewService wires the lifecycle engine. images and publisher may be nil: an
// upload then fails with ErrImageUpload and events are dropped.
func NewService(store Store, images ImageStore, publisher Publisher, rules Rules, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:     store,
		images:    images,
		publisher: publisher,
		rules:     rules,
		log:       log.With("component", "foodspot"),
		distance:  geo.DistanceMeters,
	}
}

func (s *Service) Rules() Rules {
	return s.rules
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Listing, error) {
	d := s.distance(req.DeviceLatitude, req.DeviceLongitude, req.Latitude, req.Longitude)
	if d > s.rules.MaxPinDistanceMeters {
		return Listing{}, &TooFarError{DistanceMeters: d, LimitMeters: s.rules.MaxPinDistanceMeters}
	}

	imageURL := s.rules.PlaceholderImageURL
	if req.Image != nil && len(req.Image.Data) > 0 {
		url, err := s.upload(ctx, *req.Image)
		if err != nil {
			s.log.Error("image upload failed", "error", err, "filename", req.Image.Filename)
			return Listing{}, &ImageUploadError{Err: err}
		}
		imageURL = url
	}

	listing, err := s.store.Insert(ctx, Listing{
		Title:             req.Title,
		Description:       req.Description,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		ImageURL:          imageURL,
		Status:            StatusActive,
		VerificationCount: 0,
	})
	if err != nil {
		return Listing{}, err
	}

	s.log.Info("food spot created", "id", listing.ID, "distance_m", d)
	s.publish(EventCreated, listing)
	return listing, nil
}

func (s *Service) upload(ctx context.Context, img Image) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("no image store configured")
	}
	return s.images.Upload(ctx, img)
}

// VoteFinished records one "food is gone" vote. The check, increment and
// threshold transition run inside Store.Mutate as a single atomic step.
func (s *Service) VoteFinished(ctx context.Context, id string) (VoteResult, error) {
	var finished bool
	listing, err := s.store.Mutate(ctx, id, func(l *Listing) error {
		if l.Status != StatusActive {
			return ErrAlreadyClosed
		}
		l.VerificationCount++
		if l.VerificationCount >= s.rules.VoteThreshold {
			l.Status = StatusFinished
			finished = true
		}
		return nil
	})
	if err != nil {
		return VoteResult{}, err
	}

	s.publish(EventVoted, listing)
	if finished {
		s.log.Info("food spot finished by votes", "id", listing.ID, "votes", listing.VerificationCount)
		s.publish(EventFinished, listing)
	}
	return VoteResult{
		ID:                listing.ID,
		VerificationCount: listing.VerificationCount,
		Status:            listing.Status,
	}, nil
}

func (s *Service) List(ctx context.Context) ([]Listing, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Listing, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) publish(t EventType, l Listing) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(Event{Type: t, Listing: l})
}
