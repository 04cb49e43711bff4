package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "sdgcatalog/pkg/domain"
)

func day(t *testing.T, offset int) time.Time {
	t.Helper()
	base := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func version(num int, pub *time.Time) *ProductVersion {
	return &ProductVersion{
		ID:              id.NewVersionID(),
		Version:         num,
		PublicationDate: pub,
	}
}

func TestMostRecentVersion(t *testing.T) {
	assert.Nil(t, MostRecentVersion(nil))

	d1, d2 := day(t, -5), day(t, -2)
	v1 := version(1, &d1)
	v2 := version(2, &d2)
	v3 := version(3, nil)

	assert.Equal(t, v3, MostRecentVersion([]*ProductVersion{v2, v3, v1}))
}

func TestActiveVersion(t *testing.T) {
	today := day(t, 0)

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, ActiveVersion(nil, today))
	})

	t.Run("concepts and scheduled never qualify", func(t *testing.T) {
		future := day(t, 3)
		versions := []*ProductVersion{version(1, nil), version(2, &future)}
		assert.Nil(t, ActiveVersion(versions, today))
	})

	t.Run("latest publication date wins", func(t *testing.T) {
		older, newer := day(t, -10), day(t, -2)
		v1 := version(1, &older)
		v2 := version(2, &newer)
		assert.Equal(t, v2, ActiveVersion([]*ProductVersion{v1, v2}, today))
	})

	t.Run("same day resolved by version number", func(t *testing.T) {
		d := day(t, -1)
		v1 := version(1, &d)
		v2 := version(2, &d)
		assert.Equal(t, v2, ActiveVersion([]*ProductVersion{v2, v1}, today))
	})

	t.Run("published today is active", func(t *testing.T) {
		// Even when published at a later wall-clock time the same day.
		laterToday := day(t, 0).Add(23 * time.Hour)
		v := version(1, &laterToday)
		assert.Equal(t, v, ActiveVersion([]*ProductVersion{v}, today))
	})
}

func TestConceptAndScheduledVersion(t *testing.T) {
	today := day(t, 0)
	past, future := day(t, -3), day(t, 4)
	published := version(1, &past)
	scheduled := version(2, &future)
	concept := version(3, nil)

	versions := []*ProductVersion{published, scheduled, concept}
	assert.Equal(t, concept, ConceptVersion(versions))
	assert.Equal(t, scheduled, ScheduledVersion(versions, today))

	require.Nil(t, ConceptVersion([]*ProductVersion{published, scheduled}))
	require.Nil(t, ScheduledVersion([]*ProductVersion{published, concept}, today))
}

func TestDayGranularity(t *testing.T) {
	amsterdam, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	// Day compares on the UTC calendar; a local midnight normalizes.
	local := time.Date(2026, 8, 28, 1, 30, 0, 0, amsterdam)
	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), Day(local))

	assert.True(t, SameDay(
		time.Date(2026, 8, 28, 0, 0, 1, 0, time.UTC),
		time.Date(2026, 8, 28, 23, 59, 59, 0, time.UTC),
	))
}

func TestUntouched(t *testing.T) {
	created := day(t, -7)

	generated := &ProductVersion{CreatedAt: created, ModifiedAt: created.Add(5 * time.Second)}
	assert.True(t, generated.Untouched())

	edited := &ProductVersion{CreatedAt: created, ModifiedAt: created.Add(2 * time.Hour)}
	assert.False(t, edited.Untouched())
}
