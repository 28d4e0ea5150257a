package repository

import (
	"context"

	"github.com/mr1hm/siaga-merapi/internal/models"
)

// ShelterRepository stores the latest shelter snapshot pulled from the CRUD
// API. Lookups of a missing shelter return nil without an error.
type ShelterRepository interface {
	UpsertShelter(ctx context.Context, s *models.Shelter) error
	GetShelter(ctx context.Context, id int64) (*models.Shelter, error)
	ListShelters(ctx context.Context) ([]models.Shelter, error)
	DeleteMissing(ctx context.Context, keepIDs []int64) (int64, error)
	CountShelters(ctx context.Context) (int, error)
}

// StatusRepository persists the current volcano status. LoadStatus returns
// nil when nothing has been saved yet.
type StatusRepository interface {
	LoadStatus(ctx context.Context) (*models.VolcanoStatus, error)
	SaveStatus(ctx context.Context, st models.VolcanoStatus) error
}
