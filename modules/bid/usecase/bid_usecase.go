package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"auction-market/common"
	"auction-market/domain"
	"auction-market/pkg/cache"
	"auction-market/pkg/log"
	"auction-market/pkg/pagination"
	"auction-market/pkg/utils"
)

const notifyTimeout = 30 * time.Second

type BidRepository interface {
	Place(ctx context.Context, bid *domain.Bid, expectedBidCount int, nowMillis int64) (bool, error)
	FindPage(ctx context.Context, filter *domain.BidFilter, option *domain.FindPageOption) ([]*domain.Bid, *domain.Pagination, error)
	FindHighest(ctx context.Context, productID string) (*domain.Bid, error)
}

type ProductReader interface {
	GetByID(ctx context.Context, productID string) (*domain.Product, error)
}

type Config struct {
	AppName string
	BaseURL string
	// LockTTL bounds how long one bidder can hold a product while placing a bid
	LockTTL time.Duration
}

type Deps struct {
	Repo                BidRepository
	Products            ProductReader
	UserUsecase         domain.UserUsecase
	NotificationUsecase domain.NotificationUsecase
	Cache               cache.Client
	Paginator           *pagination.Paginator
	Logger              log.Logger
	Config              Config
}

type bidUsecase struct {
	repo                BidRepository
	products            ProductReader
	userUsecase         domain.UserUsecase
	notificationUsecase domain.NotificationUsecase
	cache               cache.Client
	paginator           *pagination.Paginator
	logger              log.Logger
	cfg                 Config

	// in-flight notifyAsync goroutines
	pending sync.WaitGroup
}

func NewBidUsecase(deps *Deps) domain.BidUsecase {
	return &bidUsecase{
		repo:                deps.Repo,
		products:            deps.Products,
		userUsecase:         deps.UserUsecase,
		notificationUsecase: deps.NotificationUsecase,
		cache:               deps.Cache,
		paginator:           deps.Paginator,
		logger:              deps.Logger,
		cfg:                 deps.Config,
	}
}

// PlaceBid serialises bidders of one product through a cache lock. The
// database update is conditional on the bid count read here, so a lost or
// expired lock surfaces as ErrBidConflict instead of a lost update.
func (b *bidUsecase) PlaceBid(ctx context.Context, bidder *domain.User, productID string, req *domain.PlaceBidRequest) (*domain.Bid, error) {
	if !bidder.IsActive() {
		return nil, domain.ErrEmailNotVerified
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		return nil, domain.ErrBadRequest.WithReason("amount supports at most two decimal places")
	}

	lockKey := "bid:product:" + productID
	token, acquired, err := b.cache.Lock(ctx, lockKey, b.cfg.LockTTL)
	if err != nil {
		b.logger.WarnContext(ctx, "Bid lock unavailable, relying on row check", log.ProductID(productID), log.Error(err))
	} else if !acquired {
		return nil, domain.ErrBidConflict
	}
	if token != "" {
		defer func() {
			if err := b.cache.Unlock(context.WithoutCancel(ctx), lockKey, token); err != nil && !errors.Is(err, cache.ErrLockNotHeld) {
				b.logger.WarnContext(ctx, "Failed to release bid lock", log.ProductID(productID), log.Error(err))
			}
		}()
	}

	product, err := b.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	now := utils.NowUnixMillis()
	switch {
	case product.SellerID == bidder.ID:
		return nil, domain.ErrBidOnOwnProduct
	case !product.IsOpen(now):
		return nil, domain.ErrAuctionClosed
	case product.LeaderID != nil && *product.LeaderID == bidder.ID:
		return nil, domain.ErrAlreadyHighestBidder
	}

	minBid := product.MinNextBid()
	if req.Amount.LessThan(minBid) {
		return nil, domain.ErrBidTooLow.
			WithReasonf("the next bid must be at least %s", minBid.StringFixed(2)).
			WithDetail("min_amount", minBid.StringFixed(2))
	}

	bid := &domain.Bid{
		ProductID: product.ID,
		BidderID:  bidder.ID,
		Amount:    req.Amount,
	}
	placed, err := b.repo.Place(ctx, bid, product.BidCount, now)
	if err != nil {
		return nil, domain.ErrBidPlaceFailed.WithWrap(err)
	}
	if !placed {
		return nil, domain.ErrBidConflict
	}

	if _, err := b.cache.DeletePattern(ctx, domain.ProductListCacheNamespace+":*"); err != nil {
		b.logger.WarnContext(ctx, "Failed to invalidate product list cache", log.Error(err))
	}

	b.logger.InfoContext(ctx, "Bid placed",
		log.ProductID(product.ID),
		log.UserID(bidder.ID),
		log.String("amount", bid.Amount.StringFixed(2)),
	)

	b.notifyAsync(ctx, product, bid, bidder)
	bid.Bidder = bidder
	return bid, nil
}

func (b *bidUsecase) ListByProduct(ctx context.Context, productID string, query *domain.BidListQuery) (*domain.PageResult[*domain.Bid], error) {
	page, perPage := b.paginator.Normalize(query.Page, query.PerPage)

	bids, pager, err := b.repo.FindPage(ctx, &domain.BidFilter{ProductID: &productID}, &domain.FindPageOption{
		Preloads: []string{common.FieldBidder},
		Sort:     []string{"bids.created_at DESC", "bids.id"},
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, domain.ErrBidListFailed.WithWrap(err)
	}

	// Bid history is public
	for _, bid := range bids {
		bid.Bidder = bid.Bidder.PublicProfile()
	}
	return domain.NewPageResult(bids, pager, b.paginator), nil
}

func (b *bidUsecase) ListByBidder(ctx context.Context, bidderID string, query *domain.BidListQuery) (*domain.PageResult[*domain.Bid], error) {
	page, perPage := b.paginator.Normalize(query.Page, query.PerPage)

	bids, pager, err := b.repo.FindPage(ctx, &domain.BidFilter{BidderID: &bidderID}, &domain.FindPageOption{
		Preloads: []string{"Product"},
		Sort:     []string{"bids.created_at DESC", "bids.id"},
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, domain.ErrBidListFailed.WithWrap(err)
	}
	return domain.NewPageResult(bids, pager, b.paginator), nil
}

func (b *bidUsecase) HighestBid(ctx context.Context, productID string) (*domain.Bid, error) {
	bid, err := b.repo.FindHighest(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrNotFound.WithReason("the product has no bids yet")
		}
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return bid, nil
}

// Drain waits for bid notifications still being delivered. It returns
// ctx.Err() if they do not finish in time.
func (b *bidUsecase) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// notifyAsync tells the previous leader they were outbid and the seller that
// a bid arrived. Delivery problems never fail the bid.
func (b *bidUsecase) notifyAsync(ctx context.Context, product *domain.Product, bid *domain.Bid, bidder *domain.User) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	b.pending.Add(1)
	go func() {
		defer b.pending.Done()
		defer cancel()

		amount := bid.Amount.StringFixed(2)
		productURL := common.JoinURLPath(b.cfg.BaseURL, "products", product.ID)

		if product.LeaderID != nil {
			nextBid := bid.Amount.Add(product.MinIncrement).StringFixed(2)
			b.notifyOutbid(ctx, *product.LeaderID, product, amount, nextBid, productURL)
		}

		_, err := b.notificationUsecase.Notify(ctx, &domain.NotifyRequest{
			UserID:  product.SellerID,
			Type:    domain.NotificationBidReceived,
			Title:   "New bid on " + product.Title,
			Message: bidder.FullName() + " bid " + amount + ".",
			Data: map[string]any{
				"product_id": product.ID,
				"bid_id":     bid.ID,
				"amount":     amount,
			},
		})
		if err != nil {
			b.logger.ErrorContext(ctx, "Failed to notify seller of bid", log.ProductID(product.ID), log.Error(err))
		}
	}()
}

func (b *bidUsecase) notifyOutbid(ctx context.Context, leaderID string, product *domain.Product, amount, nextBid, productURL string) {
	leader, err := b.userUsecase.FindByID(ctx, leaderID, nil)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to load outbid user", log.UserID(leaderID), log.Error(err))
		return
	}

	_, err = b.notificationUsecase.Notify(ctx, &domain.NotifyRequest{
		UserID:  leader.ID,
		Type:    domain.NotificationOutbid,
		Title:   "You were outbid on " + product.Title,
		Message: "The highest bid is now " + amount + ".",
		Data: map[string]any{
			"product_id":    product.ID,
			"product_title": product.Title,
			"product_url":   productURL,
			"amount":        amount,
			"min_next_bid":  nextBid,
			"app_name":      b.cfg.AppName,
			"user_name":     leader.FullName(),
		},
		EmailTemplate: domain.EmailCodeOutbid,
		EmailTo:       leader.Email,
	})
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to notify outbid user", log.UserID(leader.ID), log.Error(err))
	}
}
