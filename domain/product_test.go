package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProduct_MinNextBid(t *testing.T) {
	p := &Product{
		StartingPrice: decimal.RequireFromString("10.00"),
		MinIncrement:  decimal.RequireFromString("0.50"),
		CurrentPrice:  decimal.RequireFromString("10.00"),
	}
	assert.True(t, p.MinNextBid().Equal(decimal.RequireFromString("10")))

	p.BidCount = 3
	p.CurrentPrice = decimal.RequireFromString("12.25")
	assert.True(t, p.MinNextBid().Equal(decimal.RequireFromString("12.75")))
}

func TestProduct_IsOpen(t *testing.T) {
	p := &Product{Status: ProductSTTActive, EndsAt: 2000}
	assert.True(t, p.IsOpen(1999))
	assert.False(t, p.IsOpen(2000))

	p.Status = ProductSTTCancelled
	assert.False(t, p.IsOpen(1000))
}

func TestProduct_CanBeManagedBy(t *testing.T) {
	p := &Product{SellerID: "seller"}
	assert.True(t, p.CanBeManagedBy(&User{SQLModel: SQLModel{ID: "seller"}}))
	assert.False(t, p.CanBeManagedBy(&User{SQLModel: SQLModel{ID: "other"}}))
	assert.True(t, p.CanBeManagedBy(&User{SQLModel: SQLModel{ID: "other"}, Roles: []*Role{{ID: RoleIDAdmin}}}))
	assert.False(t, p.CanBeManagedBy(nil))
}
