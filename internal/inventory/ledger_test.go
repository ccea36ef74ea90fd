package inventory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tallyforge/tallyforge/internal/catalog/products"
)

func stocked(qty int64) *products.Product {
	return &products.Product{Type: products.TypeProduct, StockQuantity: &qty}
}

func TestHasSufficientStock(t *testing.T) {
	require.True(t, HasSufficientStock(stocked(5), 5))
	require.True(t, HasSufficientStock(stocked(5), 2))
	require.False(t, HasSufficientStock(stocked(1), 5))
	require.False(t, HasSufficientStock(&products.Product{Type: products.TypeProduct}, 1))
}

func TestReduceStockClampsAtZero(t *testing.T) {
	require.Equal(t, int64(3), ReduceStock(stocked(5), 2))
	require.Equal(t, int64(0), ReduceStock(stocked(5), 5))
	require.Equal(t, int64(0), ReduceStock(stocked(1), 100))
	require.Equal(t, int64(0), ReduceStock(&products.Product{}, 3))
}

func TestIncreaseStock(t *testing.T) {
	require.Equal(t, int64(7), IncreaseStock(stocked(5), 2))
	require.Equal(t, int64(4), IncreaseStock(&products.Product{}, 4))
}
