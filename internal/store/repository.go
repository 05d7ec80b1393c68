// Package store reads supplier scores for the source API.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when a supplier id does not exist
var ErrNotFound = errors.New("supplier not found")

// Supplier is one row of dwh.supplier_scores, serialized as the upstream
// API record. Nullable columns are pointers and encode as null.
type Supplier struct {
	ID                    string   `json:"supplier_id"`
	Name                  string   `json:"supplier_name"`
	Location              *string  `json:"location"`
	Certifications        *string  `json:"environmental_certifications"`
	TransportType         *string  `json:"transport_type"`
	SustainabilityProgram *string  `json:"sustainability_program"`
	RenewablePct          *float64 `json:"renewable_energy_percentage"`
	CarbonFootprint       *float64 `json:"avg_carbon_footprint"`
	WaterConsumption      *float64 `json:"avg_water_consumption"`
	TransportDistance     *float64 `json:"avg_transport_distance"`
	MaterialsSupplied     *int32   `json:"materials_supplied"`
	Score                 *float64 `json:"sustainability_score"`
}

const columns = `
	supplier_id,
	supplier_name,
	location,
	environmental_certifications,
	transport_type,
	sustainability_program,
	renewable_energy_percentage,
	avg_carbon_footprint,
	avg_water_consumption,
	avg_transport_distance,
	materials_supplied,
	sustainability_score`

// Repository handles supplier score persistence
// ⭐ SSOT: dwh.supplier_scores is only queried here
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the table if it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// TopSuppliers returns the best scored suppliers, highest first
func (r *Repository) TopSuppliers(ctx context.Context, limit int) ([]Supplier, error) {
	query := `SELECT` + columns + `
		FROM dwh.supplier_scores
		ORDER BY sustainability_score DESC NULLS LAST, supplier_name
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query top suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]Supplier, 0, limit)
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top suppliers: %w", err)
	}

	return suppliers, nil
}

// Supplier returns one supplier by id
func (r *Repository) Supplier(ctx context.Context, id string) (Supplier, error) {
	query := `SELECT` + columns + `
		FROM dwh.supplier_scores
		WHERE supplier_id = $1`

	s, err := scan(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, ErrNotFound
	}
	if err != nil {
		return Supplier{}, err
	}
	return s, nil
}

// Upsert inserts or replaces a supplier row
func (r *Repository) Upsert(ctx context.Context, s Supplier) error {
	query := `
		INSERT INTO dwh.supplier_scores (` + columns + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (supplier_id) DO UPDATE SET
			supplier_name = EXCLUDED.supplier_name,
			location = EXCLUDED.location,
			environmental_certifications = EXCLUDED.environmental_certifications,
			transport_type = EXCLUDED.transport_type,
			sustainability_program = EXCLUDED.sustainability_program,
			renewable_energy_percentage = EXCLUDED.renewable_energy_percentage,
			avg_carbon_footprint = EXCLUDED.avg_carbon_footprint,
			avg_water_consumption = EXCLUDED.avg_water_consumption,
			avg_transport_distance = EXCLUDED.avg_transport_distance,
			materials_supplied = EXCLUDED.materials_supplied,
			sustainability_score = EXCLUDED.sustainability_score,
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query,
		s.ID,
		s.Name,
		s.Location,
		s.Certifications,
		s.TransportType,
		s.SustainabilityProgram,
		s.RenewablePct,
		s.CarbonFootprint,
		s.WaterConsumption,
		s.TransportDistance,
		s.MaterialsSupplied,
		s.Score,
	)
	if err != nil {
		return fmt.Errorf("upsert supplier %s: %w", s.ID, err)
	}
	return nil
}

func scan(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Location,
		&s.Certifications,
		&s.TransportType,
		&s.SustainabilityProgram,
		&s.RenewablePct,
		&s.CarbonFootprint,
		&s.WaterConsumption,
		&s.TransportDistance,
		&s.MaterialsSupplied,
		&s.Score,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, err
		}
		return Supplier{}, fmt.Errorf("scan supplier: %w", err)
	}
	return s, nil
}
