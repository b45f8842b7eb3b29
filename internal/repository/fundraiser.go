package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietanh2810/squares-api/internal/repository/dao"
)

var ErrFundraiserNotFound = dao.ErrFundraiserNotFound

type FundraiserDAO interface {
	FindByName(ctx context.Context, name string) (dao.Fundraiser, error)
	Upsert(ctx context.Context, f dao.Fundraiser, channel string) (dao.Fundraiser, error)
}

// FundraiserRepository is the Postgres state store: one named JSONB document.
type FundraiserRepository struct {
	dao     FundraiserDAO
	name    string
	channel string
}

func NewFundraiserRepository(dao FundraiserDAO, name, channel string) *FundraiserRepository {
	return &FundraiserRepository{
		dao:     dao,
		name:    name,
		channel: channel,
	}
}

// Load returns nil without error when nothing has been saved yet.
func (r *FundraiserRepository) Load(ctx context.Context) ([]byte, error) {
	found, err := r.dao.FindByName(ctx, r.name)
	if err != nil {
		if errors.Is(err, dao.ErrFundraiserNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("r.dao.FindByName -> %w", err)
	}

	return found.Document, nil
}

func (r *FundraiserRepository) Save(ctx context.Context, doc []byte) error {
	_, err := r.dao.Upsert(ctx, dao.Fundraiser{
		Name:     r.name,
		Document: doc,
	}, r.channel)
	if err != nil {
		return fmt.Errorf("r.dao.Upsert -> %w", err)
	}

	return nil
}

func (r *FundraiserRepository) Name() string {
	return r.name
}
