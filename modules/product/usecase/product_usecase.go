package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"auction-market/common"
	"auction-market/domain"
	"auction-market/pkg/cache"
	"auction-market/pkg/log"
	"auction-market/pkg/pagination"
	"auction-market/pkg/utils"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	closeBatchSize       = 100
	closeNotifyParallel  = 4
	listCacheKeyWildcard = domain.ProductListCacheNamespace + ":*"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, productID string, option *domain.FindOneOption) (*domain.Product, error)
	FindMany(ctx context.Context, filter *domain.ProductFilter, option *domain.FindManyOption) ([]*domain.Product, error)
	FindPage(ctx context.Context, filter *domain.ProductFilter, option *domain.FindPageOption) ([]*domain.Product, *domain.Pagination, error)
	UpdateFields(ctx context.Context, productID string, fields map[string]any) error
	UpdateUnbidFields(ctx context.Context, productID string, fields map[string]any) (bool, error)
	CloseAuction(ctx context.Context, productID string, winnerID *string) (bool, error)
	DeleteByID(ctx context.Context, productID string) error
}

type Config struct {
	AppName             string
	BaseURL             string
	DefaultMinIncrement decimal.Decimal
	// ListCacheTTL of zero disables list caching
	ListCacheTTL time.Duration
}

type Deps struct {
	Repo                ProductRepository
	UploadUsecase       domain.UploadUsecase
	UserUsecase         domain.UserUsecase
	NotificationUsecase domain.NotificationUsecase
	Cache               cache.Client
	Paginator           *pagination.Paginator
	Logger              log.Logger
	Config              Config
}

type productUsecase struct {
	repo                ProductRepository
	uploadUsecase       domain.UploadUsecase
	userUsecase         domain.UserUsecase
	notificationUsecase domain.NotificationUsecase
	cache               cache.Client
	paginator           *pagination.Paginator
	logger              log.Logger
	cfg                 Config
}

func NewProductUsecase(deps *Deps) domain.ProductUsecase {
	return &productUsecase{
		repo:                deps.Repo,
		uploadUsecase:       deps.UploadUsecase,
		userUsecase:         deps.UserUsecase,
		notificationUsecase: deps.NotificationUsecase,
		cache:               deps.Cache,
		paginator:           deps.Paginator,
		logger:              deps.Logger,
		cfg:                 deps.Config,
	}
}

func (p *productUsecase) Create(ctx context.Context, seller *domain.User, req *domain.ProductCreateRequest) (*domain.Product, error) {
	if !seller.IsActive() {
		return nil, domain.ErrEmailNotVerified.WithReason("verify your email before listing products")
	}

	minIncrement := p.cfg.DefaultMinIncrement
	if req.MinIncrement != nil {
		minIncrement = *req.MinIncrement
	}

	product := &domain.Product{
		SellerID:      seller.ID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Category:      strings.ToLower(strings.TrimSpace(req.Category)),
		StartingPrice: req.StartingPrice,
		MinIncrement:  minIncrement,
		CurrentPrice:  req.StartingPrice,
		Status:        domain.ProductSTTActive,
		EndsAt:        req.EndsAt,
	}

	// Checked before the insert so a foreign file id does not leave an orphan product
	if len(req.ImageIDs) > 0 {
		if err := p.checkFileOwnership(ctx, seller, req.ImageIDs); err != nil {
			return nil, err
		}
	}

	if err := p.repo.Create(ctx, product); err != nil {
		return nil, domain.ErrProductCreationFailed.WithWrap(err)
	}

	product.Images = []*domain.File{}
	if len(req.ImageIDs) > 0 {
		images, err := p.uploadUsecase.ReplaceFileLinks(ctx, domain.ProductRelatedType, product.ID, domain.ProductImagesField, req.ImageIDs)
		if err != nil {
			return nil, err
		}
		product.Images = images
	}

	p.invalidateLists(ctx)
	p.logger.InfoContext(ctx, "Product created",
		log.ProductID(product.ID),
		log.UserID(seller.ID),
		log.String("starting_price", product.StartingPrice.String()),
	)
	return product, nil
}

func (p *productUsecase) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := p.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := p.attachImages(ctx, []*domain.Product{product}); err != nil {
		return nil, err
	}
	hideSellerContacts(product)
	return product, nil
}

func (p *productUsecase) List(ctx context.Context, query *domain.ProductListQuery) (*domain.PageResult[*domain.Product], error) {
	page, perPage := p.paginator.Normalize(query.Page, query.PerPage)

	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}

	cacheKey := cache.GenerateCacheKey(domain.ProductListCacheNamespace, cacheParams(query, page, perPage))
	if p.cfg.ListCacheTTL > 0 {
		var cached domain.PageResult[*domain.Product]
		err := p.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrKeyNotFound) {
			p.logger.WarnContext(ctx, "Product list cache read failed", log.Error(err))
		}
	}

	products, pager, err := p.repo.FindPage(ctx, filter, &domain.FindPageOption{
		Preloads: []string{common.FieldSeller},
		Sort:     sortColumns(query.Sort),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, domain.ErrProductListFailed.WithWrap(err)
	}
	if err := p.attachImages(ctx, products); err != nil {
		return nil, err
	}
	hideSellerContacts(products...)

	result := domain.NewPageResult(products, pager, p.paginator)
	if p.cfg.ListCacheTTL > 0 {
		if err := p.cache.SetJSON(ctx, cacheKey, result, p.cfg.ListCacheTTL); err != nil {
			p.logger.WarnContext(ctx, "Product list cache write failed", log.Error(err))
		}
	}
	return result, nil
}

func (p *productUsecase) Update(ctx context.Context, actor *domain.User, productID string, req *domain.ProductUpdateRequest) (*domain.Product, error) {
	product, err := p.findManaged(ctx, actor, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != domain.ProductSTTActive {
		return nil, domain.ErrAuctionClosed.WithReason("ended or cancelled products cannot be edited")
	}

	fields := map[string]any{}
	if req.Title != nil {
		product.Title = strings.TrimSpace(*req.Title)
		fields["title"] = product.Title
	}
	if req.Description != nil {
		product.Description = *req.Description
		fields["description"] = product.Description
	}
	if req.Category != nil {
		product.Category = strings.ToLower(strings.TrimSpace(*req.Category))
		fields["category"] = product.Category
	}

	locked := map[string]any{}
	if req.StartingPrice != nil {
		product.StartingPrice = *req.StartingPrice
		product.CurrentPrice = *req.StartingPrice
		locked["starting_price"] = product.StartingPrice
		locked["current_price"] = product.CurrentPrice
	}
	if req.MinIncrement != nil {
		product.MinIncrement = *req.MinIncrement
		locked["min_increment"] = product.MinIncrement
	}
	if req.EndsAt != nil {
		product.EndsAt = *req.EndsAt
		locked["ends_at"] = product.EndsAt
	}

	if len(locked) > 0 {
		if product.BidCount > 0 {
			return nil, domain.ErrProductPriceLocked
		}
		// A bid may land between the read above and this write
		updated, err := p.repo.UpdateUnbidFields(ctx, product.ID, lo.Assign(fields, locked))
		if err != nil {
			return nil, domain.ErrProductUpdateFailed.WithWrap(err)
		}
		if !updated {
			return nil, domain.ErrProductPriceLocked
		}
	} else if len(fields) > 0 {
		if err := p.repo.UpdateFields(ctx, product.ID, fields); err != nil {
			return nil, domain.ErrProductUpdateFailed.WithWrap(err)
		}
	}

	if err := p.attachImages(ctx, []*domain.Product{product}); err != nil {
		return nil, err
	}
	p.invalidateLists(ctx)
	return product, nil
}

func (p *productUsecase) Delete(ctx context.Context, actor *domain.User, productID string) error {
	product, err := p.findManaged(ctx, actor, productID)
	if err != nil {
		return err
	}
	if err := p.repo.DeleteByID(ctx, product.ID); err != nil {
		return domain.ErrProductDeletionFailed.WithWrap(err)
	}

	p.invalidateLists(ctx)
	p.logger.InfoContext(ctx, "Product deleted", log.ProductID(product.ID), log.UserID(actor.ID))
	return nil
}

func (p *productUsecase) AttachImages(ctx context.Context, actor *domain.User, productID string, req *domain.ProductImagesRequest) (*domain.Product, error) {
	product, err := p.findManaged(ctx, actor, productID)
	if err != nil {
		return nil, err
	}
	if err := p.checkFileOwnership(ctx, actor, req.FileIDs); err != nil {
		return nil, err
	}

	images, err := p.uploadUsecase.ReplaceFileLinks(ctx, domain.ProductRelatedType, product.ID, domain.ProductImagesField, lo.Uniq(req.FileIDs))
	if err != nil {
		return nil, err
	}
	product.Images = images

	p.invalidateLists(ctx)
	return product, nil
}

// CloseExpired ends every active auction whose end time has passed, records
// the leading bidder as winner and notifies winner and seller. It returns how
// many auctions this call closed.
func (p *productUsecase) CloseExpired(ctx context.Context) (int, error) {
	now := utils.NowUnixMillis()
	status := domain.ProductSTTActive
	limit := closeBatchSize

	expired, err := p.repo.FindMany(ctx, &domain.ProductFilter{
		Status:     &status,
		EndsBefore: &now,
	}, &domain.FindManyOption{
		Preloads: []string{common.FieldSeller},
		Sort:     []string{"ends_at ASC"},
		Limit:    &limit,
	})
	if err != nil {
		return 0, domain.ErrProductListFailed.WithWrap(err)
	}

	closed := make([]*domain.Product, 0, len(expired))
	for _, product := range expired {
		ok, err := p.repo.CloseAuction(ctx, product.ID, product.LeaderID)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to close auction", log.ProductID(product.ID), log.Error(err))
			continue
		}
		if !ok {
			continue
		}
		product.Status = domain.ProductSTTEnded
		product.WinnerID = product.LeaderID
		closed = append(closed, product)
	}

	if len(closed) == 0 {
		return 0, nil
	}
	p.invalidateLists(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(closeNotifyParallel)
	for _, product := range closed {
		g.Go(func() error {
			p.notifyClosed(gctx, product)
			return nil
		})
	}
	_ = g.Wait()

	p.logger.InfoContext(ctx, "Closed expired auctions", log.Int("count", len(closed)))
	return len(closed), nil
}

func (p *productUsecase) notifyClosed(ctx context.Context, product *domain.Product) {
	productURL := common.JoinURLPath(p.cfg.BaseURL, "products", product.ID)
	finalPrice := product.CurrentPrice.StringFixed(2)
	endedAt := utils.FormatMillis(product.EndsAt)

	var winnerName string
	if product.WinnerID != nil {
		winner, err := p.userUsecase.FindByID(ctx, *product.WinnerID, nil)
		if err != nil {
			p.logger.ErrorContext(ctx, "Failed to load auction winner", log.ProductID(product.ID), log.Error(err))
		} else {
			winnerName = winner.FullName()
			_, err = p.notificationUsecase.Notify(ctx, &domain.NotifyRequest{
				UserID:  winner.ID,
				Type:    domain.NotificationAuctionWon,
				Title:   "You won " + product.Title,
				Message: "Your bid of " + finalPrice + " won the auction.",
				Data: map[string]any{
					"product_id":    product.ID,
					"product_title": product.Title,
					"product_url":   productURL,
					"amount":        finalPrice,
					"ended_at":      endedAt,
					"app_name":      p.cfg.AppName,
					"user_name":     winnerName,
				},
				EmailTemplate: domain.EmailCodeAuctionWon,
				EmailTo:       winner.Email,
			})
			if err != nil {
				p.logger.ErrorContext(ctx, "Failed to notify auction winner", log.ProductID(product.ID), log.Error(err))
			}
		}
	}

	if product.Seller == nil {
		return
	}
	message := "The auction ended without bids."
	if product.WinnerID != nil {
		message = "The auction ended at " + finalPrice + " after " + strconv.Itoa(product.BidCount) + " bids."
	}
	_, err := p.notificationUsecase.Notify(ctx, &domain.NotifyRequest{
		UserID:  product.SellerID,
		Type:    domain.NotificationAuctionEnded,
		Title:   product.Title + " has ended",
		Message: message,
		Data: map[string]any{
			"product_id":    product.ID,
			"product_title": product.Title,
			"product_url":   productURL,
			"amount":        finalPrice,
			"bid_count":     product.BidCount,
			"ended_at":      endedAt,
			"winner_name":   winnerName,
			"app_name":      p.cfg.AppName,
			"user_name":     product.Seller.FullName(),
		},
		EmailTemplate: domain.EmailCodeAuctionEnded,
		EmailTo:       product.Seller.Email,
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to notify seller", log.ProductID(product.ID), log.Error(err))
	}
}

func (p *productUsecase) findProduct(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := p.repo.FindByID(ctx, productID, &domain.FindOneOption{
		Preloads: []string{common.FieldSeller},
	})
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return product, nil
}

func (p *productUsecase) findManaged(ctx context.Context, actor *domain.User, productID string) (*domain.Product, error) {
	product, err := p.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.CanBeManagedBy(actor) {
		return nil, domain.ErrProductNotOwned
	}
	return product, nil
}

func (p *productUsecase) checkFileOwnership(ctx context.Context, actor *domain.User, fileIDs []string) error {
	ids := lo.Uniq(fileIDs)
	files, err := p.uploadUsecase.FindManyFiles(ctx, &domain.FileFilter{IDIn: ids}, nil)
	if err != nil {
		return domain.ErrInternalServerError.WithWrap(err)
	}
	if len(files) != len(ids) {
		found := lo.Map(files, func(f *domain.File, _ int) string { return f.ID })
		missing, _ := lo.Difference(ids, found)
		return domain.ErrFileNotFound.WithDetail("missing", missing)
	}
	if actor.IsAdmin() {
		return nil
	}
	for _, f := range files {
		if f.UploaderID != actor.ID {
			return domain.ErrFileNotOwned.WithDetail("file_id", f.ID)
		}
	}
	return nil
}

func (p *productUsecase) attachImages(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := lo.Map(products, func(item *domain.Product, _ int) string { return item.ID })
	images, err := p.uploadUsecase.GetFilesByEntitiesAndField(ctx, domain.ProductRelatedType, ids, domain.ProductImagesField)
	if err != nil {
		return err
	}
	for _, product := range products {
		product.Images = images[product.ID]
		if product.Images == nil {
			product.Images = []*domain.File{}
		}
	}
	return nil
}

// Product reads are public and list pages are cached as served.
func hideSellerContacts(products ...*domain.Product) {
	for _, product := range products {
		product.Seller = product.Seller.PublicProfile()
	}
}

func (p *productUsecase) invalidateLists(ctx context.Context) {
	if p.cfg.ListCacheTTL <= 0 {
		return
	}
	if _, err := p.cache.DeletePattern(ctx, listCacheKeyWildcard); err != nil {
		p.logger.WarnContext(ctx, "Failed to invalidate product list cache", log.Error(err))
	}
}

func buildFilter(query *domain.ProductListQuery) (*domain.ProductFilter, error) {
	filter := &domain.ProductFilter{}

	status := domain.ProductSTTActive
	if query.Status != nil {
		status = *query.Status
	}
	filter.Status = &status

	if term := strings.TrimSpace(query.Search); term != "" {
		filter.SearchTerm = &term
	}
	if category := strings.ToLower(strings.TrimSpace(query.Category)); category != "" {
		filter.Category = &category
	}
	if query.SellerID != "" {
		filter.SellerID = &query.SellerID
	}

	if query.MinPrice != "" {
		minPrice, err := decimal.NewFromString(query.MinPrice)
		if err != nil {
			return nil, domain.ErrBadRequest.WithReason("min_price is not a number")
		}
		filter.MinPrice = &minPrice
	}
	if query.MaxPrice != "" {
		maxPrice, err := decimal.NewFromString(query.MaxPrice)
		if err != nil {
			return nil, domain.ErrBadRequest.WithReason("max_price is not a number")
		}
		filter.MaxPrice = &maxPrice
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, domain.ErrInvalidPriceRange
	}

	return filter, nil
}

func sortColumns(sort domain.ProductSort) []string {
	switch sort {
	case domain.ProductSortEndingSoon:
		return []string{"products.ends_at ASC", "products.id"}
	case domain.ProductSortPriceAsc:
		return []string{"products.current_price ASC", "products.id"}
	case domain.ProductSortPriceDesc:
		return []string{"products.current_price DESC", "products.id"}
	case domain.ProductSortMostBids:
		return []string{"products.bid_count DESC", "products.created_at DESC", "products.id"}
	default:
		return []string{"products.created_at DESC", "products.id"}
	}
}

func cacheParams(query *domain.ProductListQuery, page, perPage int) map[string]string {
	params := map[string]string{
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(perPage),
		"q":        strings.ToLower(strings.TrimSpace(query.Search)),
		"category": strings.ToLower(strings.TrimSpace(query.Category)),
		"seller":   query.SellerID,
		"min":      query.MinPrice,
		"max":      query.MaxPrice,
		"sort":     string(query.Sort),
	}
	if query.Status != nil {
		params["status"] = string(*query.Status)
	}
	return params
}
