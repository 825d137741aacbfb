package paymentmethods

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListActive returns the full configs a vendor has switched on. Owner-facing;
// callers exposing these to anyone else must go through Sanitize.
func (s *Service) ListActive(ctx context.Context, vendorID string) ([]Method, error) {
	var methods []Method
	err := s.db.WithContext(ctx).
		Where("vendor_id = ? AND is_active = ?", vendorID, true).
		Order("type ASC").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}

type UpsertInput struct {
	Type     string
	Config   map[string]any
	IsActive *bool // nil defaults to true
}

// Upsert creates or replaces the (vendor, type) row. Config is replaced
// wholesale, not merged.
func (s *Service) Upsert(ctx context.Context, vendorID string, in UpsertInput) (Method, error) {
	cfg, err := json.Marshal(in.Config)
	if err != nil {
		return Method{}, fmt.Errorf("marshal config: %w", err)
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	now := time.Now()
	m := Method{
		ID:        uuid.NewString(),
		VendorID:  vendorID,
		Type:      strings.ToUpper(in.Type),
		Config:    cfg,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vendor_id"}, {Name: "type"}},
			DoUpdates: clause.Assignments(map[string]any{
				"config":     cfg,
				"is_active":  active,
				"updated_at": now,
			}),
		}).
		Create(&m).Error
	if err != nil {
		return Method{}, err
	}

	// Re-read so the caller sees the surviving row (the original id on
	// conflict, not the candidate one).
	var stored Method
	if err := s.db.WithContext(ctx).
		First(&stored, "vendor_id = ? AND type = ?", vendorID, m.Type).Error; err != nil {
		return Method{}, err
	}
	return stored, nil
}

// Delete removes the (vendor, type) pair. Deleting a pair that does not
// exist is a client error, not a fault.
func (s *Service) Delete(ctx context.Context, vendorID, methodType string) error {
	res := s.db.WithContext(ctx).
		Where("vendor_id = ? AND type = ?", vendorID, strings.ToUpper(methodType)).
		Delete(&Method{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveConfig resolves one vendor's decoded config for a provider type.
// Returns found=false for missing or inactive rows; the caller falls back to
// platform credentials.
func (s *Service) ActiveConfig(ctx context.Context, vendorID, methodType string) (map[string]any, bool, error) {
	var m Method
	err := s.db.WithContext(ctx).
		First(&m, "vendor_id = ? AND type = ?", vendorID, strings.ToUpper(methodType)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !m.IsActive {
		return nil, false, nil
	}

	cfg := map[string]any{}
	if err := json.Unmarshal(m.Config, &cfg); err != nil {
		return nil, false, fmt.Errorf("decode config for vendor %s: %w", vendorID, err)
	}
	return cfg, true, nil
}
