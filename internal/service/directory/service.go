// Package directory serves the patient-facing doctor listing.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/consult-api/internal/model"
	"github.com/jwalitptl/consult-api/internal/repository"
	"github.com/jwalitptl/consult-api/internal/service/availability"

	apperrors "github.com/jwalitptl/consult-api/pkg/errors"
)

const listingKey = "doctors"

// Service caches the listing only. Booking always reads the live doctor row,
// so a stale cache can never admit a booking on a day the doctor dropped.
type Service struct {
	doctors repository.DoctorRepository
	cache   *cache.Cache
}

func NewService(doctors repository.DoctorRepository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		doctors: doctors,
		cache:   cache.New(ttl, 2*ttl),
	}
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.DoctorListing, error) {
	if cached, found := s.cache.Get(listingKey); found {
		return cached.([]*model.DoctorListing), nil
	}

	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list doctors: %w", err))
	}

	listings := make([]*model.DoctorListing, 0, len(doctors))
	for _, d := range doctors {
		listings = append(listings, listing(d))
	}
	s.cache.Set(listingKey, listings, cache.DefaultExpiration)
	return listings, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.DoctorListing, error) {
	d, err := s.doctors.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("get doctor: %w", err))
	}
	return listing(d), nil
}

// Invalidate drops the cached listing.
func (s *Service) Invalidate() {
	s.cache.Delete(listingKey)
}

func listing(d *model.Doctor) *model.DoctorListing {
	return &model.DoctorListing{
		Doctor:   d,
		Weekdays: availability.NormalizeDays(d.AvailableDays).Names(),
	}
}
