package repositories

import (
	"context"

	"evewspace/sitetracker/internal/constants"
	"evewspace/sitetracker/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

type KeysRepo struct {
	db *sqlx.DB
}

func NewApiKeysRepo(db *sqlx.DB) *KeysRepo {
	return &KeysRepo{db}
}

func (r *KeysRepo) GetStatus(ctx context.Context, key string) (*entities.ApiKey, error) {
	var keyRes entities.ApiKey

	err := r.db.QueryRowxContext(ctx, constants.GetStatusByApiKey, key).StructScan(&keyRes)

	if err != nil {
		return nil, err
	}

	return &keyRes, nil
}

// Insert stores a new key and returns its id
func (r *KeysRepo) Insert(ctx context.Context, label string) (string, error) {
	var id string
	if err := r.db.QueryRowxContext(ctx, constants.InsertApiKey, label).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
