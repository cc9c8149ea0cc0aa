package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailedError_BuildersDoNotMutateSharedValue(t *testing.T) {
	err := ErrBidTooLow.WithDetail("min_bid", "12.50").WithReason("amount 10")

	assert.Equal(t, "amount 10", err.Reason())
	assert.Equal(t, "12.50", err.Details()["min_bid"])
	assert.Empty(t, ErrBidTooLow.Details())
	assert.Empty(t, ErrBidTooLow.Reason())
}

func TestDetailedError_Is(t *testing.T) {
	wrapped := fmt.Errorf("placing bid: %w", ErrAuctionClosed.WithReason("ended"))
	assert.True(t, errors.Is(wrapped, ErrAuctionClosed))
	assert.False(t, errors.Is(wrapped, ErrBidTooLow))
}

func TestDetailedError_WithWrap(t *testing.T) {
	de := ErrProductNotFound.WithWrap(ErrRecordNotFound).WithRequestID("rid-1")
	require.NotNil(t, de)
	assert.Equal(t, http.StatusNotFound, de.StatusCode())
	assert.Equal(t, "PRODUCT_NOT_FOUND", de.ID())
	assert.Equal(t, "rid-1", de.RequestID())
	assert.Equal(t, "record not found", de.Debug())
	assert.True(t, errors.Is(de, ErrRecordNotFound))
	assert.Empty(t, ErrProductNotFound.Debug())

	assert.Equal(t, http.StatusText(http.StatusInternalServerError), ErrInternalServerError.Status())
	assert.Equal(t, ErrProductNotFound.Error(), fmt.Sprintf("%s", de))
}

func TestNewPagination_ClampsPage(t *testing.T) {
	p := NewPagination(9, 10, 35)
	assert.Equal(t, 4, p.Page)
	assert.Equal(t, 4, p.TotalPages)

	p = NewPagination(3, 10, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 0, p.TotalPages)
}
