package service

import (
	"context"
	"sort"
	"strings"

	"github.com/aliceryden/portalen/internal/domain"
	"github.com/aliceryden/portalen/internal/geo"
	"github.com/aliceryden/portalen/internal/models"

	"github.com/rs/zerolog"
)

// SearchFilters narrows and ranks the farrier listing. Pointer fields are
// absent filters, not zero values.
type SearchFilters struct {
	Latitude    *float64
	Longitude   *float64
	RadiusKm    *float64
	City        string
	MinRating   float64
	MaxPrice    *float64
	ServiceType string
}

func (f SearchFilters) hasCoordinates() bool {
	return f.Latitude != nil && f.Longitude != nil
}

type SearchService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewSearchService(repo domain.Repository, logger *zerolog.Logger) *SearchService {
	return &SearchService{repo: repo, logger: logger}
}

// Search returns the ranked farrier listing. Availability, city and
// minimum rating are filtered in storage; distance, price ceiling and
// service type are applied here where the loaded aggregates are at hand.
// With requester coordinates the sort is distance ascending with unknown
// distances last, otherwise rating descending.
func (s *SearchService) Search(ctx context.Context, filters SearchFilters) ([]models.FarrierSearchResult, error) {
	farriers, err := s.repo.SearchFarriers(ctx, filters.City, filters.MinRating)
	if err != nil {
		return nil, err
	}

	results := make([]models.FarrierSearchResult, 0, len(farriers))
	for _, farrier := range farriers {
		result := models.FarrierSearchResult{
			FarrierID:      farrier.ID,
			Name:           farrier.UserName,
			BusinessName:   farrier.BusinessName,
			AverageRating:  farrier.AverageRating,
			TotalReviews:   farrier.TotalReviews,
			TravelRadiusKm: farrier.TravelRadiusKm,
			BaseLatitude:   farrier.BaseLatitude,
			BaseLongitude:  farrier.BaseLongitude,
		}

		if min, max, ok := farrier.ActivePriceRange(); ok {
			result.MinPrice = &min
			result.MaxPrice = &max
		}
		// No active services means no known minimum; the price ceiling only
		// discards farriers whose cheapest service exceeds it.
		if filters.MaxPrice != nil && result.MinPrice != nil && *result.MinPrice > *filters.MaxPrice {
			continue
		}

		if filters.ServiceType != "" && !offersService(farrier, filters.ServiceType) {
			continue
		}

		if filters.hasCoordinates() && farrierHasBase(farrier) {
			dist := geo.Haversine(*filters.Latitude, *filters.Longitude, farrier.BaseLatitude, farrier.BaseLongitude)
			if farrier.TravelRadiusKm > 0 && dist > float64(farrier.TravelRadiusKm) {
				continue
			}
			if filters.RadiusKm != nil && dist > *filters.RadiusKm {
				continue
			}
			result.DistanceKm = &dist
		}

		results = append(results, result)
	}

	if filters.hasCoordinates() {
		sort.SliceStable(results, func(i, j int) bool {
			di, dj := results[i].DistanceKm, results[j].DistanceKm
			switch {
			case di == nil:
				return false
			case dj == nil:
				return true
			default:
				return *di < *dj
			}
		})
	} else {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].AverageRating > results[j].AverageRating
		})
	}
	return results, nil
}

func offersService(farrier *models.Farrier, serviceType string) bool {
	wanted := strings.ToLower(serviceType)
	for _, svc := range farrier.Services {
		if svc.IsActive && strings.Contains(strings.ToLower(svc.Name), wanted) {
			return true
		}
	}
	return false
}

func farrierHasBase(farrier *models.Farrier) bool {
	return farrier.BaseLatitude != 0 || farrier.BaseLongitude != 0
}
