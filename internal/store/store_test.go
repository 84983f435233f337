package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Shubhankar4862/weather/internal/models"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "weather.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	st := New(db)
	require.NoError(t, st.Migrate())
	return st
}

func TestEnsureUser_Idempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first, err := st.EnsureUser(ctx, "alice")
	require.NoError(t, err)
	second, err := st.EnsureUser(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, st.db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "EnsureUser twice must produce exactly one record")
}

func TestGetUser_NotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetUser(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAddListCountLocations(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user, err := st.EnsureUser(ctx, "alice")
	require.NoError(t, err)

	zipLoc, err := st.AddLocation(ctx, user.ID, models.LocationPayload{Zip: strPtr("94040,us")})
	require.NoError(t, err)
	coordLoc, err := st.AddLocation(ctx, user.ID, models.LocationPayload{Lat: floatPtr(35.6), Lon: floatPtr(139.7)})
	require.NoError(t, err)

	count, err := st.CountLocations(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	locations, err := st.ListLocations(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, zipLoc.ID, locations[0].ID, "list must be ordered by id")
	assert.Equal(t, coordLoc.ID, locations[1].ID)
	require.NotNil(t, locations[0].Zip)
	assert.Equal(t, "94040,us", *locations[0].Zip)
	require.NotNil(t, locations[1].Lat)
	assert.Equal(t, 35.6, *locations[1].Lat)
}

func TestUpdateLocation_ModeSwitchClearsOtherMode(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user, err := st.EnsureUser(ctx, "alice")
	require.NoError(t, err)

	loc, err := st.AddLocation(ctx, user.ID, models.LocationPayload{Zip: strPtr("94040,us")})
	require.NoError(t, err)

	// zip -> coordinates clears zip
	updated, err := st.UpdateLocation(ctx, user.ID, loc.ID, models.LocationPayload{Lat: floatPtr(37.4), Lon: floatPtr(-122.1)})
	require.NoError(t, err)
	assert.Nil(t, updated.Zip)
	require.NotNil(t, updated.Lat)
	assert.Equal(t, 37.4, *updated.Lat)

	// coordinates -> original zip restores the original record modulo id
	restored, err := st.UpdateLocation(ctx, user.ID, loc.ID, models.LocationPayload{Zip: strPtr("94040,us")})
	require.NoError(t, err)
	assert.Nil(t, restored.Lat)
	assert.Nil(t, restored.Lon)
	require.NotNil(t, restored.Zip)
	assert.Equal(t, "94040,us", *restored.Zip)
	assert.Equal(t, loc.ID, restored.ID)

	// re-read from storage to confirm the cleared columns persisted as NULL
	stored, err := st.ListLocations(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Nil(t, stored[0].Lat)
	assert.Nil(t, stored[0].Lon)
}

func TestUpdateLocation_NotFound(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user, err := st.EnsureUser(ctx, "alice")
	require.NoError(t, err)

	_, err = st.UpdateLocation(ctx, user.ID, 999, models.LocationPayload{Zip: strPtr("94040,us")})
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestUpdateLocation_OwnershipEnforced(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	alice, err := st.EnsureUser(ctx, "alice")
	require.NoError(t, err)
	bob, err := st.EnsureUser(ctx, "bob")
	require.NoError(t, err)

	loc, err := st.AddLocation(ctx, alice.ID, models.LocationPayload{Zip: strPtr("94040,us")})
	require.NoError(t, err)

	_, err = st.UpdateLocation(ctx, bob.ID, loc.ID, models.LocationPayload{Zip: strPtr("10001,us")})
	assert.ErrorIs(t, err, ErrLocationNotFound, "bob must not update alice's location")

	err = st.DeleteLocation(ctx, bob.ID, loc.ID)
	assert.ErrorIs(t, err, ErrLocationNotFound, "bob must not delete alice's location")

	// alice's record is untouched
	locations, err := st.ListLocations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "94040,us", *locations[0].Zip)
}

func TestDeleteLocation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	user, err := st.EnsureUser(ctx, "alice")
	require.NoError(t, err)

	loc, err := st.AddLocation(ctx, user.ID, models.LocationPayload{Zip: strPtr("94040,us")})
	require.NoError(t, err)

	require.NoError(t, st.DeleteLocation(ctx, user.ID, loc.ID))

	count, err := st.CountLocations(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	err = st.DeleteLocation(ctx, user.ID, loc.ID)
	assert.ErrorIs(t, err, ErrLocationNotFound)
}
