package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"auction-market/common"
	"auction-market/domain"
	"auction-market/pkg/cache"
	"auction-market/pkg/log"
	"auction-market/pkg/pagination"
	"auction-market/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// auctionHouse backs both the bid repository and the product reader so a
// placed bid moves the product the way the database transaction does.
type auctionHouse struct {
	mu        sync.Mutex
	products  map[string]*domain.Product
	bids      []*domain.Bid
	forceMove bool
}

func (h *auctionHouse) GetByID(_ context.Context, id string) (*domain.Product, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (h *auctionHouse) Place(_ context.Context, bid *domain.Bid, expectedBidCount int, now int64) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := h.products[bid.ProductID]
	if h.forceMove || p.BidCount != expectedBidCount || !p.IsOpen(now) {
		return false, nil
	}
	bid.ID = uuid.NewString()
	h.bids = append(h.bids, bid)
	p.CurrentPrice = bid.Amount
	p.BidCount++
	leader := bid.BidderID
	p.LeaderID = &leader
	return true, nil
}

func (h *auctionHouse) FindPage(_ context.Context, filter *domain.BidFilter, option *domain.FindPageOption) ([]*domain.Bid, *domain.Pagination, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*domain.Bid
	for i := len(h.bids) - 1; i >= 0; i-- {
		b := h.bids[i]
		if filter.ProductID != nil && b.ProductID != *filter.ProductID {
			continue
		}
		if filter.BidderID != nil && b.BidderID != *filter.BidderID {
			continue
		}
		cp := *b
		cp.Bidder = &domain.User{SQLModel: domain.SQLModel{ID: b.BidderID}, Email: b.BidderID + "@example.com", Phone: "+16502530000"}
		out = append(out, &cp)
	}
	return out, domain.NewPagination(option.Page, option.PerPage, int64(len(out))), nil
}

func (h *auctionHouse) FindHighest(_ context.Context, productID string) (*domain.Bid, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var best *domain.Bid
	for _, b := range h.bids {
		if b.ProductID == productID && (best == nil || b.Amount.GreaterThan(best.Amount)) {
			best = b
		}
	}
	if best == nil {
		return nil, domain.ErrRecordNotFound
	}
	return best, nil
}

type fakeUsers struct {
	domain.UserUsecase
	users map[string]*domain.User
}

func (f *fakeUsers) FindByID(_ context.Context, id string, _ *domain.FindOneOption) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

type recordingNotifications struct {
	domain.NotificationUsecase
	mu   sync.Mutex
	sent []*domain.NotifyRequest
	// gate, when set, holds every Notify until it is closed
	gate chan struct{}
}

func (r *recordingNotifications) Notify(_ context.Context, req *domain.NotifyRequest) (*domain.Notification, error) {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, req)
	return &domain.Notification{UserID: req.UserID, Type: req.Type}, nil
}

func (r *recordingNotifications) ofType(t domain.NotificationType) []*domain.NotifyRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.NotifyRequest
	for _, req := range r.sent {
		if req.Type == t {
			out = append(out, req)
		}
	}
	return out
}

type fixture struct {
	uc            domain.BidUsecase
	house         *auctionHouse
	cache         cache.Client
	notifications *recordingNotifications
	alice, bob    *domain.User
}

func user(id string) *domain.User {
	return &domain.User{
		SQLModel:  domain.SQLModel{ID: id},
		Email:     id + "@example.com",
		FirstName: id,
		LastName:  "Bidder",
		Status:    domain.UserSTTActive,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := log.NewNopLogger()
	memCache := cache.NewMemoryCache(&cache.Config{}, common.NewLoggerAdapter(logger))
	t.Cleanup(func() { _ = memCache.Close() })

	f := &fixture{
		house: &auctionHouse{products: map[string]*domain.Product{
			"lamp": {
				SQLModel:      domain.SQLModel{ID: "lamp"},
				SellerID:      "seller",
				Title:         "Lamp",
				StartingPrice: decimal.NewFromInt(10),
				MinIncrement:  decimal.RequireFromString("0.50"),
				CurrentPrice:  decimal.NewFromInt(10),
				Status:        domain.ProductSTTActive,
				EndsAt:        time.Now().Add(time.Hour).UnixMilli(),
			},
			"closed": {
				SQLModel:      domain.SQLModel{ID: "closed"},
				SellerID:      "seller",
				StartingPrice: decimal.NewFromInt(10),
				MinIncrement:  decimal.NewFromInt(1),
				Status:        domain.ProductSTTActive,
				EndsAt:        utils.NowUnixMillis() - 1,
			},
		}},
		cache:         memCache,
		notifications: &recordingNotifications{},
		alice:         user("alice"),
		bob:           user("bob"),
	}
	f.uc = NewBidUsecase(&Deps{
		Repo:     f.house,
		Products: f.house,
		UserUsecase: &fakeUsers{users: map[string]*domain.User{
			"alice": f.alice,
			"bob":   f.bob,
		}},
		NotificationUsecase: f.notifications,
		Cache:               memCache,
		Paginator:           pagination.MustNewPaginator(pagination.Config{Policy: pagination.PolicyAnchored}),
		Logger:              logger,
		Config:              Config{AppName: "Auction Market", BaseURL: "https://auction.test", LockTTL: 5 * time.Second},
	})
	return f
}

func bidOf(amount string) *domain.PlaceBidRequest {
	return &domain.PlaceBidRequest{Amount: decimal.RequireFromString(amount)}
}

func TestBidUsecase_PlaceBid_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.PlaceBid(ctx, user("seller"), "lamp", bidOf("20"))
	assert.ErrorIs(t, err, domain.ErrBidOnOwnProduct)

	_, err = f.uc.PlaceBid(ctx, f.alice, "closed", bidOf("20"))
	assert.ErrorIs(t, err, domain.ErrAuctionClosed)

	_, err = f.uc.PlaceBid(ctx, f.alice, "lamp", bidOf("9.99"))
	require.ErrorIs(t, err, domain.ErrBidTooLow)
	de, ok := common.IsDetailError(err)
	require.True(t, ok)
	assert.Equal(t, "10.00", de.Details()["min_amount"])

	_, err = f.uc.PlaceBid(ctx, f.alice, "lamp", bidOf("10.001"))
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = f.uc.PlaceBid(ctx, f.alice, "missing", bidOf("10"))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	unverified := user("carol")
	unverified.Status = domain.UserSTTWaitingVerify
	_, err = f.uc.PlaceBid(ctx, unverified, "lamp", bidOf("20"))
	assert.ErrorIs(t, err, domain.ErrEmailNotVerified)
}

func TestBidUsecase_PlaceBid_OutbidFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.PlaceBid(ctx, f.alice, "lamp", bidOf("10"))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, f.alice, first.Bidder)

	_, err = f.uc.PlaceBid(ctx, f.alice, "lamp", bidOf("15"))
	assert.ErrorIs(t, err, domain.ErrAlreadyHighestBidder)

	_, err = f.uc.PlaceBid(ctx, f.bob, "lamp", bidOf("10.49"))
	assert.ErrorIs(t, err, domain.ErrBidTooLow)

	_, err = f.uc.PlaceBid(ctx, f.bob, "lamp", bidOf("10.50"))
	require.NoError(t, err)

	lamp, _ := f.house.GetByID(ctx, "lamp")
	assert.Equal(t, 2, lamp.BidCount)
	assert.Equal(t, "bob", *lamp.LeaderID)
	assert.True(t, lamp.CurrentPrice.Equal(decimal.RequireFromString("10.50")))

	require.Eventually(t, func() bool {
		return len(f.notifications.ofType(domain.NotificationOutbid)) == 1 &&
			len(f.notifications.ofType(domain.NotificationBidReceived)) == 2
	}, time.Second, 10*time.Millisecond)

	outbid := f.notifications.ofType(domain.NotificationOutbid)[0]
	assert.Equal(t, "alice", outbid.UserID)
	assert.Equal(t, domain.EmailCodeOutbid, outbid.EmailTemplate)
	assert.Equal(t, "alice@example.com", outbid.EmailTo)
	assert.Equal(t, "11.00", outbid.Data["min_next_bid"])
}

func TestBidUsecase_DrainWaitsForNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.notifications.gate = make(chan struct{})

	_, err := f.uc.PlaceBid(ctx, f.alice, "lamp", bidOf("10"))
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.uc.Drain(short), context.DeadlineExceeded)
	assert.Empty(t, f.notifications.ofType(domain.NotificationBidReceived))

	close(f.notifications.gate)
	require.NoError(t, f.uc.Drain(ctx))
	assert.Len(t, f.notifications.ofType(domain.NotificationBidReceived), 1)
}

func TestBidUsecase_PlaceBid_Conflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, ok, err := f.cache.Lock(ctx, "bid:product:lamp", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.uc.PlaceBid(ctx, f.alice, "lamp", bidOf("10"))
	assert.ErrorIs(t, err, domain.ErrBidConflict)
	require.NoError(t, f.cache.Unlock(ctx, "bid:product:lamp", token))

	f.house.forceMove = true
	_, err = f.uc.PlaceBid(ctx, f.alice, "lamp", bidOf("10"))
	assert.ErrorIs(t, err, domain.ErrBidConflict)

	f.house.forceMove = false
	_, err = f.uc.PlaceBid(ctx, f.alice, "lamp", bidOf("10"))
	assert.NoError(t, err, "lock is released after a failed attempt")
}

func TestBidUsecase_Listings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.HighestBid(ctx, "lamp")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.PlaceBid(ctx, f.alice, "lamp", bidOf("10"))
	require.NoError(t, err)
	_, err = f.uc.PlaceBid(ctx, f.bob, "lamp", bidOf("12"))
	require.NoError(t, err)

	highest, err := f.uc.HighestBid(ctx, "lamp")
	require.NoError(t, err)
	assert.Equal(t, "bob", highest.BidderID)

	history, err := f.uc.ListByProduct(ctx, "lamp", &domain.BidListQuery{})
	require.NoError(t, err)
	require.Len(t, history.Items, 2)
	assert.Equal(t, "bob", history.Items[0].BidderID)
	assert.Equal(t, "b***@example.com", history.Items[0].Bidder.Email)
	assert.Empty(t, history.Items[0].Bidder.Phone)
	assert.Equal(t, "1–2 of 2", history.Pagination.Label)

	mine, err := f.uc.ListByBidder(ctx, "alice", &domain.BidListQuery{PageQuery: domain.PageQuery{PerPage: 24}})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, 24, mine.Pagination.PerPage)
	assert.Equal(t, "alice@example.com", mine.Items[0].Bidder.Email)
}
