package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vuminhq/courtpay/internal/domain"
)

type BookingRepository interface {
	CreatePending(ctx context.Context, booking *domain.Booking, slotIDs []int64) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetDetail(ctx context.Context, id int64) (*domain.BookingDetail, error)
	Confirm(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error)
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
	ReleaseSlots(ctx context.Context, bookingID int64) error
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking, slotIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE time_slots SET available=false, updated_at=now() WHERE id = ANY($1) AND available`, slotIDs)
	if err != nil {
		return err
	}
	if int(cmd.RowsAffected()) != len(slotIDs) {
		return domain.ErrSlotUnavailable
	}

	booking.Status = domain.BookingStatusPending
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (order_ref, email, status, total_amount, deposit_amount, discount_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`, booking.OrderRef, booking.Email, booking.Status, booking.TotalAmount, booking.DepositAmount, booking.DiscountID, booking.ExpiresAt).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	for _, slotID := range slotIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO booking_slots (booking_id, slot_id) VALUES ($1, $2)`, booking.ID, slotID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT id, order_ref, email, status, total_amount, deposit_amount, discount_id, expires_at, created_at, updated_at FROM bookings WHERE id=$1`, id)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.OrderRef, &b.Email, &b.Status, &b.TotalAmount, &b.DepositAmount, &b.DiscountID, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) GetDetail(ctx context.Context, id int64) (*domain.BookingDetail, error) {
	booking, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT bs.slot_id, ts.field_id FROM booking_slots bs JOIN time_slots ts ON ts.id = bs.slot_id WHERE bs.booking_id=$1 ORDER BY bs.slot_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	detail := &domain.BookingDetail{Booking: *booking}
	seen := make(map[int64]bool)
	for rows.Next() {
		var slotID, fieldID int64
		if err := rows.Scan(&slotID, &fieldID); err != nil {
			return nil, err
		}
		detail.SlotIDs = append(detail.SlotIDs, slotID)
		if !seen[fieldID] {
			seen[fieldID] = true
			detail.FieldIDs = append(detail.FieldIDs, fieldID)
		}
	}
	return detail, rows.Err()
}

// Confirm promotes a pending booking; a booking in any other status is
// rejected with ErrBookingNotPending.
func (r *PGBookingRepository) Confirm(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 AND status=$3 RETURNING id, order_ref, email, status, total_amount, deposit_amount, discount_id, expires_at, created_at, updated_at`, domain.BookingStatusConfirmed, id, domain.BookingStatusPending)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.OrderRef, &b.Email, &b.Status, &b.TotalAmount, &b.DepositAmount, &b.DiscountID, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotPending
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 RETURNING id, order_ref, email, status, total_amount, deposit_amount, discount_id, expires_at, created_at, updated_at`, status, id)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.OrderRef, &b.Email, &b.Status, &b.TotalAmount, &b.DepositAmount, &b.DiscountID, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE status=$2 AND expires_at <= $3 RETURNING id, order_ref, email, status, total_amount, deposit_amount, discount_id, expires_at, created_at, updated_at`, domain.BookingStatusExpired, domain.BookingStatusPending, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.ID, &b.OrderRef, &b.Email, &b.Status, &b.TotalAmount, &b.DepositAmount, &b.DiscountID, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		expired = append(expired, b)
	}
	return expired, rows.Err()
}

func (r *PGBookingRepository) ReleaseSlots(ctx context.Context, bookingID int64) error {
	_, err := r.db.Exec(ctx, `
        UPDATE time_slots SET available=true, updated_at=now()
        WHERE id IN (SELECT slot_id FROM booking_slots WHERE booking_id=$1)
    `, bookingID)
	return err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
