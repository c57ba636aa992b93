package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/selahlabs/selah/internal/domain"
	"gorm.io/gorm"
)

// DevotionalRepository handles devotional record persistence.
type DevotionalRepository struct {
	db *gorm.DB
}

// NewDevotionalRepository creates a new DevotionalRepository bound to db.
func NewDevotionalRepository(db *gorm.DB) *DevotionalRepository {
	return &DevotionalRepository{db: db}
}

// Save inserts a new devotional record and returns its ID. A missing ID is
// generated here so callers can hand over an unkeyed record.
func (r *DevotionalRepository) Save(ctx context.Context, d *domain.Devotional) (string, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return "", fmt.Errorf("failed to create devotional: %w", err)
	}
	return d.ID, nil
}

// GetByID retrieves a devotional by its ID.
func (r *DevotionalRepository) GetByID(ctx context.Context, id string) (*domain.Devotional, error) {
	var d domain.Devotional
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByCategory retrieves devotionals by category with pagination.
func (r *DevotionalRepository) ListByCategory(ctx context.Context, categoryID string, limit, offset int) ([]domain.Devotional, error) {
	var devotionals []domain.Devotional
	query := r.db.WithContext(ctx)
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if err := query.
		Limit(limit).
		Offset(offset).
		Order("created_at DESC").
		Find(&devotionals).Error; err != nil {
		return nil, err
	}
	return devotionals, nil
}

// Count returns the number of devotional records.
func (r *DevotionalRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Devotional{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
