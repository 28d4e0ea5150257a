package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mr1hm/siaga-merapi/internal/models"
)

type SQLiteDB struct {
	db *sqlx.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	// A second connection to ":memory:" would see an empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS shelters (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			capacity TEXT,
			facilities TEXT,
			address TEXT,
			region TEXT,
			sub_region TEXT,
			latitude TEXT,
			longitude TEXT,
			building_type TEXT,
			created_at TEXT,
			updated_at TEXT,
			synced_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS volcano_status (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			level TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_shelters_region ON shelters(region);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

const shelterColumns = `id, name, capacity, facilities, address, region, sub_region,
	latitude, longitude, building_type, created_at, updated_at`

func (s *SQLiteDB) UpsertShelter(ctx context.Context, sh *models.Shelter) error {
	query := `
		INSERT INTO shelters (` + shelterColumns + `, synced_at)
		VALUES (:id, :name, :capacity, :facilities, :address, :region, :sub_region,
			:latitude, :longitude, :building_type, :created_at, :updated_at, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			capacity = excluded.capacity,
			facilities = excluded.facilities,
			address = excluded.address,
			region = excluded.region,
			sub_region = excluded.sub_region,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			building_type = excluded.building_type,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			synced_at = CURRENT_TIMESTAMP`

	if _, err := s.db.NamedExecContext(ctx, query, sh); err != nil {
		return fmt.Errorf("error upserting shelter %d: %w", sh.ID, err)
	}
	return nil
}

func (s *SQLiteDB) GetShelter(ctx context.Context, id int64) (*models.Shelter, error) {
	var sh models.Shelter
	err := s.db.GetContext(ctx, &sh, `SELECT `+shelterColumns+` FROM shelters WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting shelter %d: %w", id, err)
	}
	return &sh, nil
}

// ListShelters returns the snapshot ordered by id, newest first, matching the
// CRUD API's listing order.
func (s *SQLiteDB) ListShelters(ctx context.Context) ([]models.Shelter, error) {
	shelters := []models.Shelter{}
	if err := s.db.SelectContext(ctx, &shelters, `SELECT `+shelterColumns+` FROM shelters ORDER BY id DESC`); err != nil {
		return nil, fmt.Errorf("error listing shelters: %w", err)
	}
	return shelters, nil
}

// DeleteMissing removes every shelter whose id is not in keepIDs.
func (s *SQLiteDB) DeleteMissing(ctx context.Context, keepIDs []int64) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if len(keepIDs) == 0 {
		res, err = s.db.ExecContext(ctx, `DELETE FROM shelters`)
	} else {
		query, args, inErr := sqlx.In(`DELETE FROM shelters WHERE id NOT IN (?)`, keepIDs)
		if inErr != nil {
			return 0, fmt.Errorf("error building prune query: %w", inErr)
		}
		res, err = s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	}
	if err != nil {
		return 0, fmt.Errorf("error pruning shelters: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteDB) CountShelters(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM shelters`); err != nil {
		return 0, fmt.Errorf("error counting shelters: %w", err)
	}
	return n, nil
}

type statusRow struct {
	Level     string           `db:"level"`
	UpdatedAt models.Timestamp `db:"updated_at"`
}

func (s *SQLiteDB) LoadStatus(ctx context.Context) (*models.VolcanoStatus, error) {
	var row statusRow
	err := s.db.GetContext(ctx, &row, `SELECT level, updated_at FROM volcano_status WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading status: %w", err)
	}
	return &models.VolcanoStatus{
		Level:     models.StatusLevel(row.Level),
		UpdatedAt: row.UpdatedAt.Time,
	}, nil
}

func (s *SQLiteDB) SaveStatus(ctx context.Context, st models.VolcanoStatus) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO volcano_status (id, level, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET level = excluded.level, updated_at = excluded.updated_at`,
		string(st.Level), models.Timestamp{Time: st.UpdatedAt},
	)
	if err != nil {
		return fmt.Errorf("error saving status: %w", err)
	}
	return nil
}
