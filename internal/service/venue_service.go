package service

import (
	"context"
	"math"
	"sort"

	"github.com/pnpbots/pnptv-app-sub003/internal/domain"
	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/rs/zerolog"
)

const earthRadiusKM = 6371.0

// VenueService answers "what's near me" queries over the venue table.
type VenueService struct {
	repo     domain.Repository
	radiusKM float64
	limit    int
	logger   *zerolog.Logger
}

func NewVenueService(repo domain.Repository, radiusKM float64, limit int, logger *zerolog.Logger) *VenueService {
	if radiusKM <= 0 {
		radiusKM = 25
	}
	if limit <= 0 {
		limit = 10
	}
	return &VenueService{repo: repo, radiusKM: radiusKM, limit: limit, logger: logger}
}

// haversineKM is the great-circle distance between two coordinates.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}

// Nearby returns active venues within the configured radius, closest
// first, capped at the configured limit.
func (s *VenueService) Nearby(ctx context.Context, lat, lon float64) ([]models.VenueDistance, error) {
	venues, err := s.repo.GetActiveVenues(ctx)
	if err != nil {
		return nil, err
	}

	var nearby []models.VenueDistance
	for _, v := range venues {
		dist := haversineKM(lat, lon, v.Latitude, v.Longitude)
		if dist <= s.radiusKM {
			nearby = append(nearby, models.VenueDistance{Venue: *v, DistanceKM: dist})
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKM < nearby[j].DistanceKM
	})
	if len(nearby) > s.limit {
		nearby = nearby[:s.limit]
	}
	return nearby, nil
}

func (s *VenueService) AddVenue(ctx context.Context, v *models.Venue) error {
	v.IsActive = true
	if err := s.repo.CreateVenue(ctx, v); err != nil {
		return err
	}
	s.logger.Info().Int64("venue_id", v.ID).Str("name", v.Name).Msg("venue added")
	return nil
}
