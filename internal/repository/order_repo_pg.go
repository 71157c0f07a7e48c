package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vuminhq/courtpay/internal/domain"
)

type OrderRepository interface {
	CreateFromBooking(ctx context.Context, booking *domain.Booking, facilityID int64) (*domain.Order, error)
	CreateOrderField(ctx context.Context, orderID, fieldID int64) error
}

type PGOrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &PGOrderRepository{db: db}
}

func (r *PGOrderRepository) CreateFromBooking(ctx context.Context, booking *domain.Booking, facilityID int64) (*domain.Order, error) {
	order := &domain.Order{
		BookingID:     booking.ID,
		FacilityID:    facilityID,
		TotalAmount:   booking.TotalAmount,
		DepositAmount: booking.DepositAmount,
	}
	if err := r.db.QueryRow(ctx, `INSERT INTO orders (booking_id, facility_id, total_amount, deposit_amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, order.BookingID, order.FacilityID, order.TotalAmount, order.DepositAmount).
		Scan(&order.ID, &order.CreatedAt); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *PGOrderRepository) CreateOrderField(ctx context.Context, orderID, fieldID int64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO order_fields (order_id, field_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, orderID, fieldID)
	return err
}

var _ OrderRepository = (*PGOrderRepository)(nil)
