package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aliceryden/portalen/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFarrierAggregate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	farrier := &models.Farrier{
		UserName:       "anna",
		BusinessName:   "Annas Hovslageri",
		Phone:          "+46700000000",
		BaseLatitude:   59.36,
		BaseLongitude:  18.0,
		TravelRadiusKm: 40,
		AverageRating:  4.8,
		TotalReviews:   12,
		IsAvailable:    true,
	}
	require.NoError(t, db.CreateFarrier(ctx, farrier))
	require.NotZero(t, farrier.ID)

	require.NoError(t, db.AddFarrierService(ctx, &models.FarrierService{
		FarrierID: farrier.ID, Name: "Trimming", Price: 600, DurationMinutes: 45, IsActive: true,
	}))
	require.NoError(t, db.AddFarrierService(ctx, &models.FarrierService{
		FarrierID: farrier.ID, Name: "Full shoeing", Price: 1400, DurationMinutes: 90, IsActive: false,
	}))
	require.NoError(t, db.AddScheduleEntry(ctx, &models.ScheduleEntry{
		FarrierID: farrier.ID, DayOfWeek: 0, StartTime: "08:00", EndTime: "16:00", IsAvailable: true,
	}))
	require.NoError(t, db.AddServiceArea(ctx, &models.ServiceArea{
		FarrierID: farrier.ID, City: "Stockholm", PostalCodePrefix: "114", TravelFee: 150,
	}))
	require.NoError(t, db.AddServiceArea(ctx, &models.ServiceArea{
		FarrierID: farrier.ID, City: "Solna", TravelFee: 200,
	}))

	t.Run("GetFarrierLoadsRelations", func(t *testing.T) {
		got, err := db.GetFarrier(ctx, farrier.ID)
		require.NoError(t, err)
		assert.Equal(t, "Annas Hovslageri", got.BusinessName)
		assert.Len(t, got.Services, 2)
		assert.Len(t, got.Schedules, 1)
		require.Len(t, got.Areas, 2)
		assert.Equal(t, "Stockholm", got.Areas[0].City)
		assert.Equal(t, "114", got.Areas[0].PostalCodePrefix)
	})

	t.Run("GetFarrierNotFound", func(t *testing.T) {
		_, err := db.GetFarrier(ctx, 9999)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("ServiceAreasInsertionOrder", func(t *testing.T) {
		areas, err := db.ServiceAreas(ctx, farrier.ID)
		require.NoError(t, err)
		require.Len(t, areas, 2)
		assert.Equal(t, "Stockholm", areas[0].City)
		assert.Equal(t, "Solna", areas[1].City)
	})

	t.Run("GetFarriersByID", func(t *testing.T) {
		byID, err := db.GetFarriersByID(ctx, []int64{farrier.ID, farrier.ID})
		require.NoError(t, err)
		require.Len(t, byID, 1)
		assert.Equal(t, "anna", byID[farrier.ID].UserName)
	})
}

func TestScheduleForDay(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	farrier := seedFarrier(t, db, "anna")

	require.NoError(t, db.AddScheduleEntry(ctx, &models.ScheduleEntry{
		FarrierID: farrier.ID, DayOfWeek: 0, StartTime: "09:00", EndTime: "15:00", IsAvailable: true,
	}))
	require.NoError(t, db.AddScheduleEntry(ctx, &models.ScheduleEntry{
		FarrierID: farrier.ID, DayOfWeek: 1, StartTime: "08:00", EndTime: "17:00", IsAvailable: false,
	}))

	t.Run("ConfiguredDay", func(t *testing.T) {
		entry, err := db.ScheduleForDay(ctx, farrier.ID, 0)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, "09:00", entry.StartTime)
		assert.Equal(t, "15:00", entry.EndTime)
	})

	t.Run("UnavailableDayBehavesLikeUnset", func(t *testing.T) {
		entry, err := db.ScheduleForDay(ctx, farrier.ID, 1)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("UnsetDay", func(t *testing.T) {
		entry, err := db.ScheduleForDay(ctx, farrier.ID, 5)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})
}

func TestSearchFarriers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	anna := seedFarrier(t, db, "anna")
	anna.AverageRating = 4.8
	_, err := db.ExecContext(ctx, `UPDATE farriers SET average_rating = ? WHERE id = ?`, 4.8, anna.ID)
	require.NoError(t, err)
	require.NoError(t, db.AddServiceArea(ctx, &models.ServiceArea{FarrierID: anna.ID, City: "Täby"}))

	bertil := seedFarrier(t, db, "bertil")
	_, err = db.ExecContext(ctx, `UPDATE farriers SET average_rating = ? WHERE id = ?`, 3.2, bertil.ID)
	require.NoError(t, err)

	hidden := seedFarrier(t, db, "cecilia")
	_, err = db.ExecContext(ctx, `UPDATE farriers SET is_available = 0 WHERE id = ?`, hidden.ID)
	require.NoError(t, err)

	t.Run("OnlyAvailableRatingOrder", func(t *testing.T) {
		farriers, err := db.SearchFarriers(ctx, "", 0)
		require.NoError(t, err)
		require.Len(t, farriers, 2)
		assert.Equal(t, "anna", farriers[0].UserName)
		assert.Equal(t, "bertil", farriers[1].UserName)
	})

	t.Run("MinRating", func(t *testing.T) {
		farriers, err := db.SearchFarriers(ctx, "", 4.0)
		require.NoError(t, err)
		require.Len(t, farriers, 1)
		assert.Equal(t, "anna", farriers[0].UserName)
	})

	t.Run("CityMatchesServiceArea", func(t *testing.T) {
		farriers, err := db.SearchFarriers(ctx, "täby", 0)
		require.NoError(t, err)
		require.Len(t, farriers, 1)
		assert.Equal(t, "anna", farriers[0].UserName)
	})

	t.Run("CityMatchesName", func(t *testing.T) {
		farriers, err := db.SearchFarriers(ctx, "bertil", 0)
		require.NoError(t, err)
		require.Len(t, farriers, 1)
	})
}

func TestHorseLastVisit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	horseID, err := db.CreateHorse(ctx, 1, "Blansten")
	require.NoError(t, err)

	t.Run("NeverVisited", func(t *testing.T) {
		visit, err := db.HorseLastVisit(ctx, horseID)
		require.NoError(t, err)
		assert.Nil(t, visit)
	})

	t.Run("UpdateAndRead", func(t *testing.T) {
		visitedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
		require.NoError(t, db.UpdateHorseLastVisit(ctx, horseID, visitedAt))

		visit, err := db.HorseLastVisit(ctx, horseID)
		require.NoError(t, err)
		require.NotNil(t, visit)
		assert.True(t, visit.Equal(visitedAt))
	})

	t.Run("UnknownHorse", func(t *testing.T) {
		err := db.UpdateHorseLastVisit(ctx, 9999, time.Now())
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
