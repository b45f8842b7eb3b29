package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrFundraiserNotFound = errors.New("fundraiser not found")

// Fundraiser stores the whole board as one JSONB document keyed by name.
type Fundraiser struct {
	ID       uint           `gorm:"primaryKey"`
	Name     string         `gorm:"uniqueIndex;not null"`
	Document datatypes.JSON `gorm:"type:jsonb;not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type FundraiserDAO struct {
	db *gorm.DB
}

func NewFundraiserDAO(db *gorm.DB) *FundraiserDAO {
	return &FundraiserDAO{
		db: db,
	}
}

func (d *FundraiserDAO) FindByName(ctx context.Context, name string) (Fundraiser, error) {
	var f Fundraiser

	result := d.db.WithContext(ctx).First(&f, "name = ?", name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Fundraiser{}, ErrFundraiserNotFound
		}

		return Fundraiser{}, result.Error
	}

	return f, nil
}

// Upsert replaces the document for f.Name and, in the same transaction,
// notifies channel with the name. Listeners only hear committed writes.
func (d *FundraiserDAO) Upsert(ctx context.Context, f Fundraiser, channel string) (Fundraiser, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
		}).Create(&f)
		if result.Error != nil {
			return result.Error
		}

		if channel == "" {
			return nil
		}

		return tx.Exec("SELECT pg_notify(?, ?)", channel, f.Name).Error
	})
	if err != nil {
		return Fundraiser{}, err
	}

	return f, nil
}
