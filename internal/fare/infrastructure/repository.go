package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mateusmacedo/go-rideshare/internal/fare/domain"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/gormdb"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/memstore"
)

type inMemorySettingsRepository struct {
	store    *memstore.Store
	settings *memstore.Table[string, domain.Settings]
}

func NewInMemorySettingsRepository(store *memstore.Store) domain.SettingsRepository {
	return &inMemorySettingsRepository{
		store:    store,
		settings: memstore.NewTable[string, domain.Settings](store),
	}
}

func (r *inMemorySettingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	settings := domain.DefaultSettings()
	err := r.store.Read(ctx, func() error {
		if stored, ok := r.settings.Get(domain.GlobalConfigType); ok {
			settings = stored
		}
		return nil
	})
	return settings, err
}

func (r *inMemorySettingsRepository) GetForUpdate(ctx context.Context) (domain.Settings, error) {
	return r.Get(ctx)
}

func (r *inMemorySettingsRepository) Save(ctx context.Context, settings domain.Settings) error {
	return r.store.Write(ctx, func() error {
		r.settings.Put(domain.GlobalConfigType, settings)
		return nil
	})
}

type gormSettingsRepository struct {
	db *gorm.DB
}

func NewGormSettingsRepository(db *gorm.DB) domain.SettingsRepository {
	return &gormSettingsRepository{db: db}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Settings{})
}

func (r *gormSettingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	return r.first(gormdb.Conn(ctx, r.db))
}

func (r *gormSettingsRepository) GetForUpdate(ctx context.Context) (domain.Settings, error) {
	return r.first(gormdb.Conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}))
}

func (r *gormSettingsRepository) first(tx *gorm.DB) (domain.Settings, error) {
	var settings domain.Settings
	err := tx.Where("config_type = ?", domain.GlobalConfigType).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.DefaultSettings(), nil
	}
	return settings, gormdb.ClassifyError(err)
}

// Save upserts the GLOBAL row.
func (r *gormSettingsRepository) Save(ctx context.Context, settings domain.Settings) error {
	settings.ConfigType = domain.GlobalConfigType
	err := gormdb.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_type"}},
		UpdateAll: true,
	}).Create(&settings).Error
	return gormdb.ClassifyError(err)
}
