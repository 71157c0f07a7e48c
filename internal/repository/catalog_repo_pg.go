package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vuminhq/courtpay/internal/domain"
)

type CatalogRepository interface {
	GetSlotsByIDs(ctx context.Context, ids []int64) ([]domain.TimeSlot, error)
	GetServicesByIDs(ctx context.Context, ids []int64) ([]domain.FacilityService, error)
	GetDiscountByID(ctx context.Context, id int64) (*domain.Discount, error)
	GetFieldByID(ctx context.Context, id int64) (*domain.Field, error)
}

type PGCatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) CatalogRepository {
	return &PGCatalogRepository{db: db}
}

func (r *PGCatalogRepository) GetSlotsByIDs(ctx context.Context, ids []int64) ([]domain.TimeSlot, error) {
	rows, err := r.db.Query(ctx, `SELECT id, field_id, price, start_time, end_time, available FROM time_slots WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]domain.TimeSlot, 0, len(ids))
	for rows.Next() {
		var s domain.TimeSlot
		if err := rows.Scan(&s.ID, &s.FieldID, &s.Price, &s.StartTime, &s.EndTime, &s.Available); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *PGCatalogRepository) GetServicesByIDs(ctx context.Context, ids []int64) ([]domain.FacilityService, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, price FROM facility_services WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]domain.FacilityService, 0, len(ids))
	for rows.Next() {
		var s domain.FacilityService
		if err := rows.Scan(&s.ID, &s.Name, &s.Price); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *PGCatalogRepository) GetDiscountByID(ctx context.Context, id int64) (*domain.Discount, error) {
	row := r.db.QueryRow(ctx, `SELECT id, percent, active, valid_from, valid_to FROM discounts WHERE id=$1`, id)
	var d domain.Discount
	if err := row.Scan(&d.ID, &d.Percent, &d.Active, &d.ValidFrom, &d.ValidTo); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDiscountInapplicable
		}
		return nil, err
	}
	return &d, nil
}

func (r *PGCatalogRepository) GetFieldByID(ctx context.Context, id int64) (*domain.Field, error) {
	row := r.db.QueryRow(ctx, `SELECT id, facility_id, name FROM fields WHERE id=$1`, id)
	var f domain.Field
	if err := row.Scan(&f.ID, &f.FacilityID, &f.Name); err != nil {
		return nil, err
	}
	return &f, nil
}

var _ CatalogRepository = (*PGCatalogRepository)(nil)
