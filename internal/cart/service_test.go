package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetSnapshot(ctx context.Context, userID uint) ([]Line, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Line), args.Error(1)
}

func (m *MockRepository) ReplaceSnapshot(ctx context.Context, userID uint, items []Line) error {
	return m.Called(ctx, userID, items).Error(0)
}

func TestService_Replace(t *testing.T) {
	ctx := context.Background()
	price := decimal.NewFromInt(3)

	t.Run("MergesDuplicates", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ReplaceSnapshot", ctx, uint(1), []Line{
			{ProductID: "p1", Name: "Mug", Price: price, Quantity: 3},
			{ProductID: "p2", Name: "Tee", Price: price, Quantity: 1},
		}).Return(nil)

		err := NewService(repo).Replace(ctx, 1, []Line{
			{ProductID: " p1 ", Name: "Mug", Price: price, Quantity: 1},
			{ProductID: "p2", Name: "Tee", Price: price, Quantity: 1},
			{ProductID: "p1", Name: "Mug", Price: price, Quantity: 2},
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("NegativePrice", func(t *testing.T) {
		repo := new(MockRepository)
		err := NewService(repo).Replace(ctx, 1, []Line{{ProductID: "p1", Price: decimal.NewFromInt(-1), Quantity: 1}})
		assert.ErrorIs(t, err, ErrNegativePrice)
		repo.AssertNotCalled(t, "ReplaceSnapshot")
	})

	t.Run("BlankID", func(t *testing.T) {
		err := NewService(new(MockRepository)).Replace(ctx, 1, []Line{{ProductID: "  ", Quantity: 1}})
		assert.ErrorIs(t, err, ErrEmptyProduct)
	})
}
