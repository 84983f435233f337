package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Shubhankar4862/weather/internal/models"
	"github.com/Shubhankar4862/weather/internal/observability"
)

// GormStore implements Store on a relational database via GORM. Safe for
// concurrent use; the underlying pool serializes access.
type GormStore struct {
	db *gorm.DB
}

// Open connects to Postgres with the given DSN and pool limits.
func Open(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	return &GormStore{db: db}, nil
}

// New wraps an existing GORM handle. Used by tests with the sqlite driver.
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the schema. Run once at startup, before the
// listener starts serving traffic.
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&models.User{}, &models.Location{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity. Used by the health endpoint.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) EnsureUser(ctx context.Context, username string) (models.User, error) {
	user := models.User{Username: username}
	err := s.db.WithContext(ctx).
		Where("username = ?", username).
		FirstOrCreate(&user).Error
	observability.RecordStoreQuery("ensure_user", err)
	if err != nil {
		return models.User{}, unavailable("ensure user", err)
	}
	return user, nil
}

func (s *GormStore) GetUser(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		observability.RecordStoreQuery("get_user", nil)
		return models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	observability.RecordStoreQuery("get_user", err)
	if err != nil {
		return models.User{}, unavailable("get user", err)
	}
	return user, nil
}

func (s *GormStore) CountLocations(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Location{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	observability.RecordStoreQuery("count_locations", err)
	if err != nil {
		return 0, unavailable("count locations", err)
	}
	return count, nil
}

func (s *GormStore) ListLocations(ctx context.Context, userID uint) ([]models.Location, error) {
	var locations []models.Location
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id").
		Find(&locations).Error
	observability.RecordStoreQuery("list_locations", err)
	if err != nil {
		return nil, unavailable("list locations", err)
	}
	return locations, nil
}

func (s *GormStore) AddLocation(ctx context.Context, userID uint, p models.LocationPayload) (models.Location, error) {
	location := models.Location{
		UserID: userID,
		Zip:    p.Zip,
		Lat:    p.Lat,
		Lon:    p.Lon,
	}
	err := s.db.WithContext(ctx).Create(&location).Error
	observability.RecordStoreQuery("add_location", err)
	if err != nil {
		return models.Location{}, unavailable("add location", err)
	}
	return location, nil
}

func (s *GormStore) UpdateLocation(ctx context.Context, userID, locationID uint, p models.LocationPayload) (models.Location, error) {
	var location models.Location
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", locationID, userID).
		First(&location).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		observability.RecordStoreQuery("update_location", nil)
		return models.Location{}, fmt.Errorf("%w: id %d", ErrLocationNotFound, locationID)
	}
	if err != nil {
		observability.RecordStoreQuery("update_location", err)
		return models.Location{}, unavailable("update location", err)
	}

	// Wholesale replacement of the mode fields: nils overwrite, so a mode
	// switch clears the previous mode's columns.
	location.Zip = p.Zip
	location.Lat = p.Lat
	location.Lon = p.Lon
	err = s.db.WithContext(ctx).Save(&location).Error
	observability.RecordStoreQuery("update_location", err)
	if err != nil {
		return models.Location{}, unavailable("update location", err)
	}
	return location, nil
}

func (s *GormStore) DeleteLocation(ctx context.Context, userID, locationID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", locationID, userID).
		Delete(&models.Location{})
	observability.RecordStoreQuery("delete_location", res.Error)
	if res.Error != nil {
		return unavailable("delete location", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrLocationNotFound, locationID)
	}
	return nil
}

// unavailable wraps a database error in ErrStoreUnavailable so handlers can
// map it to an opaque server failure without leaking driver detail upward.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

var _ Store = (*GormStore)(nil)
