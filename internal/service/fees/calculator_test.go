package fees

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/vuminhq/courtpay/internal/domain"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetSlotsByIDs(ctx context.Context, ids []int64) ([]domain.TimeSlot, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.TimeSlot), args.Error(1)
}

func (m *MockCatalog) GetServicesByIDs(ctx context.Context, ids []int64) ([]domain.FacilityService, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.FacilityService), args.Error(1)
}

func (m *MockCatalog) GetDiscountByID(ctx context.Context, id int64) (*domain.Discount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Discount), args.Error(1)
}

func TestCalculate_SlotsServicesAndDiscount(t *testing.T) {
	mockCatalog := &MockCatalog{}
	calc := NewCalculator(mockCatalog)

	ctx := context.Background()
	slotIDs := []int64{1, 2}
	serviceIDs := []int64{10}

	mockCatalog.On("GetSlotsByIDs", ctx, slotIDs).Return([]domain.TimeSlot{
		{ID: 1, FieldID: 3, Price: 200000, Available: true},
		{ID: 2, FieldID: 3, Price: 200000, Available: true},
	}, nil).Once()
	mockCatalog.On("GetServicesByIDs", ctx, serviceIDs).Return([]domain.FacilityService{
		{ID: 10, Name: "racket rental", Price: 50000},
	}, nil).Once()
	mockCatalog.On("GetDiscountByID", ctx, int64(7)).Return(&domain.Discount{
		ID: 7, Percent: 10, Active: true,
	}, nil).Once()

	total, err := calc.Calculate(ctx, slotIDs, serviceIDs, 7)
	assert.NoError(t, err)
	assert.Equal(t, int64(405000), total)
	assert.Equal(t, int64(202500), Deposit(total))

	mockCatalog.AssertExpectations(t)
}

func TestCalculate_NoDiscount(t *testing.T) {
	mockCatalog := &MockCatalog{}
	calc := NewCalculator(mockCatalog)

	ctx := context.Background()
	slotIDs := []int64{1}

	mockCatalog.On("GetSlotsByIDs", ctx, slotIDs).Return([]domain.TimeSlot{
		{ID: 1, Price: 150000, Available: true},
	}, nil).Once()

	total, err := calc.Calculate(ctx, slotIDs, nil, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(150000), total)

	mockCatalog.AssertExpectations(t)
	mockCatalog.AssertNotCalled(t, "GetServicesByIDs")
	mockCatalog.AssertNotCalled(t, "GetDiscountByID")
}

func TestCalculate_NoSlots(t *testing.T) {
	calc := NewCalculator(&MockCatalog{})

	_, err := calc.Calculate(context.Background(), nil, nil, 0)
	assert.ErrorIs(t, err, domain.ErrSlotNotFound)
}

func TestCalculate_UnknownSlot(t *testing.T) {
	mockCatalog := &MockCatalog{}
	calc := NewCalculator(mockCatalog)

	ctx := context.Background()
	slotIDs := []int64{1, 999}

	mockCatalog.On("GetSlotsByIDs", ctx, slotIDs).Return([]domain.TimeSlot{
		{ID: 1, Price: 150000, Available: true},
	}, nil).Once()

	_, err := calc.Calculate(ctx, slotIDs, nil, 0)
	assert.ErrorIs(t, err, domain.ErrSlotNotFound)
}

func TestCalculate_UnavailableSlot(t *testing.T) {
	mockCatalog := &MockCatalog{}
	calc := NewCalculator(mockCatalog)

	ctx := context.Background()
	slotIDs := []int64{1}

	mockCatalog.On("GetSlotsByIDs", ctx, slotIDs).Return([]domain.TimeSlot{
		{ID: 1, Price: 150000, Available: false},
	}, nil).Once()

	_, err := calc.Calculate(ctx, slotIDs, nil, 0)
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
}

func TestCalculate_UnknownService(t *testing.T) {
	mockCatalog := &MockCatalog{}
	calc := NewCalculator(mockCatalog)

	ctx := context.Background()
	slotIDs := []int64{1}
	serviceIDs := []int64{10, 11}

	mockCatalog.On("GetSlotsByIDs", ctx, slotIDs).Return([]domain.TimeSlot{
		{ID: 1, Price: 150000, Available: true},
	}, nil).Once()
	mockCatalog.On("GetServicesByIDs", ctx, serviceIDs).Return([]domain.FacilityService{
		{ID: 10, Price: 50000},
	}, nil).Once()

	_, err := calc.Calculate(ctx, slotIDs, serviceIDs, 0)
	assert.ErrorIs(t, err, domain.ErrServiceNotFound)
}

func TestCalculate_InapplicableDiscount(t *testing.T) {
	mockCatalog := &MockCatalog{}
	calc := NewCalculator(mockCatalog)

	ctx := context.Background()
	slotIDs := []int64{1}

	mockCatalog.On("GetSlotsByIDs", ctx, slotIDs).Return([]domain.TimeSlot{
		{ID: 1, Price: 150000, Available: true},
	}, nil)

	testCases := []struct {
		name     string
		discount *domain.Discount
	}{
		{name: "inactive", discount: &domain.Discount{ID: 7, Percent: 10, Active: false}},
		{name: "expired window", discount: &domain.Discount{
			ID: 7, Percent: 10, Active: true,
			ValidTo: time.Now().Add(-time.Hour),
		}},
		{name: "zero percent", discount: &domain.Discount{ID: 7, Percent: 0, Active: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockCatalog.On("GetDiscountByID", ctx, int64(7)).Return(tc.discount, nil).Once()

			_, err := calc.Calculate(ctx, slotIDs, nil, 7)
			assert.ErrorIs(t, err, domain.ErrDiscountInapplicable)
		})
	}
}

func TestCalculate_CatalogError(t *testing.T) {
	mockCatalog := &MockCatalog{}
	calc := NewCalculator(mockCatalog)

	ctx := context.Background()
	expectedErr := errors.New("database error")
	mockCatalog.On("GetSlotsByIDs", ctx, []int64{1}).Return([]domain.TimeSlot{}, expectedErr).Once()

	_, err := calc.Calculate(ctx, []int64{1}, nil, 0)
	assert.Equal(t, expectedErr, err)
}

func TestDeposit_Rounding(t *testing.T) {
	assert.Equal(t, int64(202500), Deposit(405000))
	assert.Equal(t, int64(50001), Deposit(100001))
	assert.Equal(t, int64(1), Deposit(1))
	assert.Equal(t, int64(0), Deposit(0))
}
