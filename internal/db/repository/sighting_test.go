package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnoice/roachtrack/internal/db/repository"
	"github.com/dnoice/roachtrack/internal/policy"
)

func newSightingRepo(t *testing.T) *repository.SightingRepository {
	t.Helper()
	return repository.NewSightingRepository(newTestDB(t).DB)
}

func countOf(n int) *int {
	return &n
}

func TestSightingCreateAndGet(t *testing.T) {
	sightings := newSightingRepo(t)

	ts := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	temp := 23.5
	id, err := sightings.Create(repository.SightingInput{
		Timestamp:   ts,
		Location:    "  Kitchen  ",
		RoomType:    "kitchen",
		RoachCount:  countOf(3),
		RoachSize:   "medium",
		Notes:       "behind the fridge",
		Temperature: &temp,
	})
	require.NoError(t, err)

	s, err := sightings.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", s.Location)
	assert.Equal(t, 3, s.RoachCount)
	assert.Equal(t, "Afternoon", s.TimeOfDay)
	require.NotNil(t, s.Temperature)
	assert.Equal(t, 23.5, *s.Temperature)
	assert.Nil(t, s.UserID)
	assert.Nil(t, s.PropertyID)
}

func TestSightingCreateDefaultsTimestamp(t *testing.T) {
	sightings := newSightingRepo(t)

	before := time.Now().Add(-time.Second)
	id, err := sightings.Create(repository.SightingInput{Location: "Bathroom", RoachCount: countOf(1)})
	require.NoError(t, err)

	s, err := sightings.GetByID(id)
	require.NoError(t, err)
	assert.True(t, s.Timestamp.After(before))
	assert.NotEmpty(t, s.TimeOfDay)
}

func TestSightingCreateDefaultsRoachCount(t *testing.T) {
	sightings := newSightingRepo(t)

	id, err := sightings.Create(repository.SightingInput{Location: "Kitchen"})
	require.NoError(t, err)

	s, err := sightings.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, 1, s.RoachCount)

	// An update without a count gets the same default
	require.NoError(t, sightings.Update(id, repository.SightingInput{Location: "Bathroom"}))
	s, err = sightings.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, 1, s.RoachCount)
}

func TestSightingRejectsUnknownProperty(t *testing.T) {
	sightings := newSightingRepo(t)

	missing := int64(9999)
	_, err := sightings.Create(repository.SightingInput{Location: "Kitchen", PropertyID: &missing})
	assert.True(t, repository.IsValidation(err), "expected a validation error, got %v", err)
}

func TestSightingValidation(t *testing.T) {
	sightings := newSightingRepo(t)

	tests := []struct {
		name  string
		input repository.SightingInput
		field string
	}{
		{"missing location", repository.SightingInput{RoachCount: countOf(1)}, "location"},
		{"blank location", repository.SightingInput{Location: "   ", RoachCount: countOf(1)}, "location"},
		{"zero count", repository.SightingInput{Location: "Kitchen", RoachCount: countOf(0)}, "roach_count"},
		{"negative count", repository.SightingInput{Location: "Kitchen", RoachCount: countOf(-2)}, "roach_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sightings.Create(tt.input)
			var ve *policy.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestSightingListPagination(t *testing.T) {
	sightings := newSightingRepo(t)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := sightings.Create(repository.SightingInput{
			Timestamp:  base.Add(time.Duration(i) * time.Hour),
			Location:   "Kitchen",
			RoachCount: countOf(1),
		})
		require.NoError(t, err)
	}

	all, err := sightings.List(0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	// Newest first
	assert.True(t, all[0].Timestamp.After(all[4].Timestamp))

	page, err := sightings.List(2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, all[2].ID, page[0].ID)

	_, err = sightings.List(-1, 0)
	assert.True(t, repository.IsValidation(err))
}

func TestSightingUpdate(t *testing.T) {
	sightings := newSightingRepo(t)

	id, err := sightings.Create(repository.SightingInput{Location: "Kitchen", RoachCount: countOf(1)})
	require.NoError(t, err)

	err = sightings.Update(id, repository.SightingInput{
		Timestamp:  time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC),
		Location:   "Bathroom",
		RoachCount: countOf(4),
		RoachSize:  "large",
	})
	require.NoError(t, err)

	s, err := sightings.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Bathroom", s.Location)
	assert.Equal(t, 4, s.RoachCount)
	assert.Equal(t, "Night", s.TimeOfDay)

	err = sightings.Update(9999, repository.SightingInput{Location: "Kitchen", RoachCount: countOf(1)})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSightingDelete(t *testing.T) {
	sightings := newSightingRepo(t)

	id, err := sightings.Create(repository.SightingInput{Location: "Kitchen", RoachCount: countOf(1)})
	require.NoError(t, err)

	require.NoError(t, sightings.Delete(id))
	_, err = sightings.GetByID(id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, sightings.Delete(id), repository.ErrNotFound)
}

func TestSightingSearchEscapesWildcards(t *testing.T) {
	sightings := newSightingRepo(t)

	_, err := sightings.Create(repository.SightingInput{
		Location: "Kitchen", RoachCount: countOf(1), Notes: "humidity at 100% today",
	})
	require.NoError(t, err)
	_, err = sightings.Create(repository.SightingInput{
		Location: "Kitchen", RoachCount: countOf(1), Notes: "humidity at 100x today",
	})
	require.NoError(t, err)

	// A literal % must not act as a wildcard
	results, err := sightings.Search("100%")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Notes, "100%")

	results, err = sightings.Search("Kitchen")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = sightings.Search("basement")
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = sightings.Search("   ")
	assert.True(t, repository.IsValidation(err))
}

func TestSightingStatisticsEmpty(t *testing.T) {
	sightings := newSightingRepo(t)

	stats, err := sightings.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalSightings)
	assert.Equal(t, 0, stats.TotalRoaches)
	assert.Empty(t, stats.Locations)
	assert.Empty(t, stats.Sizes)
	assert.Empty(t, stats.TimesOfDay)
	assert.Empty(t, stats.RecentTrend)
}

func TestSightingStatistics(t *testing.T) {
	sightings := newSightingRepo(t)

	now := time.Now()
	inputs := []repository.SightingInput{
		{Timestamp: now, Location: "Kitchen", RoachCount: countOf(3), RoachSize: "small"},
		{Timestamp: now.Add(-time.Hour), Location: "Kitchen", RoachCount: countOf(2), RoachSize: "small"},
		{Timestamp: now.Add(-2 * time.Hour), Location: "Bathroom", RoachCount: countOf(1), RoachSize: "large"},
	}
	for _, in := range inputs {
		_, err := sightings.Create(in)
		require.NoError(t, err)
	}

	stats, err := sightings.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalSightings)
	assert.Equal(t, 6, stats.TotalRoaches)

	require.Len(t, stats.Locations, 2)
	assert.Equal(t, "Kitchen", stats.Locations[0].Key)
	assert.Equal(t, 2, stats.Locations[0].Count)

	require.Len(t, stats.Sizes, 2)
	assert.Equal(t, "small", stats.Sizes[0].Key)

	assert.NotEmpty(t, stats.RecentTrend)
}
