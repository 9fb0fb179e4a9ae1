package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ecommerized/adperfumes-sub001/internal/domain/shared"
)

// sequenceRow backs the document number sequences table. One row per
// prefix+period pair; the value only ever grows, so numbers are never reused
// even when the document they were issued for is rolled back later.
type sequenceRow struct {
	Prefix string `gorm:"type:varchar(30);primaryKey"`
	Period string `gorm:"type:varchar(30);primaryKey"`
	Value  int64  `gorm:"not null"`
}

func (sequenceRow) TableName() string {
	return "document_sequences"
}

// GormNumberSequencer issues monotonic document numbers from the database.
// The atomic upsert makes concurrent callers serialize on the row, so two
// transactions asking for the same prefix+period never see the same value.
type GormNumberSequencer struct {
	db *gorm.DB
}

// NewGormNumberSequencer creates a new GormNumberSequencer
func NewGormNumberSequencer(db *gorm.DB) *GormNumberSequencer {
	return &GormNumberSequencer{db: db}
}

// Next returns the next sequence value for a prefix+period pair
func (s *GormNumberSequencer) Next(ctx context.Context, prefix, period string) (int64, error) {
	if prefix == "" || period == "" {
		return 0, shared.NewDomainError("INVALID_SEQUENCE_KEY", "Sequence prefix and period cannot be empty")
	}

	var value int64
	err := s.db.WithContext(ctx).Raw(
		`INSERT INTO document_sequences (prefix, period, value) VALUES (?, ?, 1)
		 ON CONFLICT (prefix, period) DO UPDATE SET value = document_sequences.value + 1
		 RETURNING value`,
		prefix, period,
	).Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s-%s: %w", prefix, period, err)
	}
	return value, nil
}

var _ shared.NumberSequencer = (*GormNumberSequencer)(nil)
