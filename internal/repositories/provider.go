package repositories

import (
	"context"
	"errors"
	"fmt"

	errs "github.com/bbraka/wallet-pay-sub000/internal/errors"
	"github.com/bbraka/wallet-pay-sub000/internal/models"

	"gorm.io/gorm"
)

// ProviderRepository reads top-up provider reference data. The core never
// writes providers outside of seeding.
type ProviderRepository interface {
	GetByID(ctx context.Context, id uint) (*models.TopUpProvider, error)
	ListActive(ctx context.Context) ([]models.TopUpProvider, error)
	Upsert(ctx context.Context, provider *models.TopUpProvider) error
}

type providerRepository struct {
	db *gorm.DB
}

func NewProviderRepository(db *gorm.DB) ProviderRepository {
	return &providerRepository{db: db}
}

func (r *providerRepository) GetByID(ctx context.Context, id uint) (*models.TopUpProvider, error) {
	var provider models.TopUpProvider
	if err := r.db.WithContext(ctx).First(&provider, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("provider", id)
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return &provider, nil
}

func (r *providerRepository) ListActive(ctx context.Context) ([]models.TopUpProvider, error) {
	var providers []models.TopUpProvider
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("name ASC").Find(&providers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}

// Upsert creates the provider if no row with the same name exists. Used by
// the seed command; existing rows are left untouched.
func (r *providerRepository) Upsert(ctx context.Context, provider *models.TopUpProvider) error {
	var existing models.TopUpProvider
	err := r.db.WithContext(ctx).Where("name = ?", provider.Name).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check provider: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(provider).Error; err != nil {
		return fmt.Errorf("failed to seed provider: %w", err)
	}
	return nil
}
