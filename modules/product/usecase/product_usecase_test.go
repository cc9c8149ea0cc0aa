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
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryProducts struct {
	mu        sync.Mutex
	items     map[string]*domain.Product
	pageCalls int
}

func (m *memoryProducts) Create(_ context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product.ID = uuid.NewString()
	product.CreatedAt = utils.NowUnixMillis()
	cp := *product
	m.items[product.ID] = &cp
	return nil
}

func (m *memoryProducts) FindByID(_ context.Context, id string, _ *domain.FindOneOption) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.DeletedAt > 0 {
		return nil, domain.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryProducts) FindMany(_ context.Context, filter *domain.ProductFilter, _ *domain.FindManyOption) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Product
	for _, p := range m.items {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.EndsBefore != nil && p.EndsAt > *filter.EndsBefore {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memoryProducts) FindPage(_ context.Context, filter *domain.ProductFilter, option *domain.FindPageOption) ([]*domain.Product, *domain.Pagination, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageCalls++
	var out []*domain.Product
	for _, p := range m.items {
		if p.DeletedAt > 0 || (filter.Status != nil && p.Status != *filter.Status) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, domain.NewPagination(option.Page, option.PerPage, int64(len(out))), nil
}

func (m *memoryProducts) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if title, ok := fields["title"].(string); ok {
		m.items[id].Title = title
	}
	return nil
}

func (m *memoryProducts) UpdateUnbidFields(_ context.Context, id string, fields map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.items[id]
	if p.BidCount > 0 {
		return false, nil
	}
	if price, ok := fields["starting_price"].(decimal.Decimal); ok {
		p.StartingPrice = price
		p.CurrentPrice = price
	}
	return true, nil
}

func (m *memoryProducts) CloseAuction(_ context.Context, id string, winnerID *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.items[id]
	if p.Status != domain.ProductSTTActive {
		return false, nil
	}
	p.Status = domain.ProductSTTEnded
	p.WinnerID = winnerID
	return true, nil
}

func (m *memoryProducts) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id].DeletedAt = utils.NowUnixMillis()
	return nil
}

type fakeUploads struct {
	domain.UploadUsecase
	files map[string]*domain.File
	links map[string][]*domain.File
}

func (f *fakeUploads) FindManyFiles(_ context.Context, filter *domain.FileFilter, _ *domain.FindManyOption) ([]*domain.File, error) {
	var out []*domain.File
	for _, id := range filter.IDIn {
		if file, ok := f.files[id]; ok {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeUploads) ReplaceFileLinks(_ context.Context, _, relatedID, _ string, fileIDs []string) ([]*domain.File, error) {
	files := lo.Map(fileIDs, func(id string, _ int) *domain.File { return f.files[id] })
	f.links[relatedID] = files
	return files, nil
}

func (f *fakeUploads) GetFilesByEntitiesAndField(_ context.Context, _ string, relatedIDs []string, _ string) (map[string][]*domain.File, error) {
	return lo.PickByKeys(f.links, relatedIDs), nil
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
}

func (r *recordingNotifications) Notify(_ context.Context, req *domain.NotifyRequest) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, req)
	return &domain.Notification{UserID: req.UserID, Type: req.Type}, nil
}

type fixture struct {
	uc            domain.ProductUsecase
	repo          *memoryProducts
	uploads       *fakeUploads
	notifications *recordingNotifications
	seller        *domain.User
	bidder        *domain.User
	admin         *domain.User
}

func newUser(id string, status domain.UserStatus, roles ...domain.RoleID) *domain.User {
	return &domain.User{
		SQLModel:  domain.SQLModel{ID: id},
		Email:     id + "@example.com",
		FirstName: id,
		LastName:  "Tester",
		Status:    status,
		Roles:     lo.Map(roles, func(r domain.RoleID, _ int) *domain.Role { return &domain.Role{ID: r} }),
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := log.NewNopLogger()
	memCache := cache.NewMemoryCache(&cache.Config{}, common.NewLoggerAdapter(logger))
	t.Cleanup(func() { _ = memCache.Close() })

	f := &fixture{
		repo: &memoryProducts{items: map[string]*domain.Product{}},
		uploads: &fakeUploads{
			files: map[string]*domain.File{
				"img-1": {SQLModel: domain.SQLModel{ID: "img-1"}, UploaderID: "seller", URL: "/uploads/1.png"},
				"img-2": {SQLModel: domain.SQLModel{ID: "img-2"}, UploaderID: "seller", URL: "/uploads/2.png"},
				"img-x": {SQLModel: domain.SQLModel{ID: "img-x"}, UploaderID: "bidder", URL: "/uploads/x.png"},
			},
			links: map[string][]*domain.File{},
		},
		notifications: &recordingNotifications{},
		seller:        newUser("seller", domain.UserSTTActive, domain.RoleIDUser),
		bidder:        newUser("bidder", domain.UserSTTActive, domain.RoleIDUser),
		admin:         newUser("admin", domain.UserSTTActive, domain.RoleIDAdmin),
	}
	f.uc = NewProductUsecase(&Deps{
		Repo:          f.repo,
		UploadUsecase: f.uploads,
		UserUsecase: &fakeUsers{users: map[string]*domain.User{
			"seller": f.seller,
			"bidder": f.bidder,
		}},
		NotificationUsecase: f.notifications,
		Cache:               memCache,
		Paginator:           pagination.MustNewPaginator(pagination.Config{Policy: pagination.PolicyAnchored}),
		Logger:              logger,
		Config: Config{
			AppName:             "Auction Market",
			BaseURL:             "https://auction.test",
			DefaultMinIncrement: decimal.NewFromInt(1),
			ListCacheTTL:        time.Minute,
		},
	})
	return f
}

func (f *fixture) createProduct(t *testing.T, imageIDs ...string) *domain.Product {
	t.Helper()
	product, err := f.uc.Create(context.Background(), f.seller, &domain.ProductCreateRequest{
		Title:         "  Vintage lamp ",
		Category:      "Home",
		StartingPrice: decimal.RequireFromString("25.50"),
		EndsAt:        time.Now().Add(time.Hour).UnixMilli(),
		ImageIDs:      imageIDs,
	})
	require.NoError(t, err)
	return product
}

func TestProductUsecase_Create(t *testing.T) {
	f := newFixture(t)
	product := f.createProduct(t, "img-2", "img-1")

	assert.Equal(t, "Vintage lamp", product.Title)
	assert.Equal(t, "home", product.Category)
	assert.Equal(t, domain.ProductSTTActive, product.Status)
	assert.True(t, product.CurrentPrice.Equal(decimal.RequireFromString("25.50")))
	assert.True(t, product.MinIncrement.Equal(decimal.NewFromInt(1)))
	require.Len(t, product.Images, 2)
	assert.Equal(t, "img-2", product.Images[0].ID)

	t.Run("unverified seller", func(t *testing.T) {
		_, err := f.uc.Create(context.Background(), newUser("new", domain.UserSTTWaitingVerify), &domain.ProductCreateRequest{
			Title: "Lamp", Category: "home", StartingPrice: decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, domain.ErrEmailNotVerified)
	})

	t.Run("foreign image", func(t *testing.T) {
		_, err := f.uc.Create(context.Background(), f.seller, &domain.ProductCreateRequest{
			Title: "Lamp", Category: "home", StartingPrice: decimal.NewFromInt(1), ImageIDs: []string{"img-x"},
		})
		assert.ErrorIs(t, err, domain.ErrFileNotOwned)
	})

	t.Run("unknown image", func(t *testing.T) {
		_, err := f.uc.Create(context.Background(), f.seller, &domain.ProductCreateRequest{
			Title: "Lamp", Category: "home", StartingPrice: decimal.NewFromInt(1), ImageIDs: []string{"img-404"},
		})
		assert.ErrorIs(t, err, domain.ErrFileNotFound)
	})
}

func TestProductUsecase_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.createProduct(t)

	title := "Brass lamp"
	_, err := f.uc.Update(ctx, f.bidder, product.ID, &domain.ProductUpdateRequest{Title: &title})
	assert.ErrorIs(t, err, domain.ErrProductNotOwned)

	updated, err := f.uc.Update(ctx, f.admin, product.ID, &domain.ProductUpdateRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Brass lamp", updated.Title)

	price := decimal.NewFromInt(30)
	updated, err = f.uc.Update(ctx, f.seller, product.ID, &domain.ProductUpdateRequest{StartingPrice: &price})
	require.NoError(t, err)
	assert.True(t, updated.CurrentPrice.Equal(price))

	f.repo.items[product.ID].BidCount = 1
	_, err = f.uc.Update(ctx, f.seller, product.ID, &domain.ProductUpdateRequest{StartingPrice: &price})
	assert.ErrorIs(t, err, domain.ErrProductPriceLocked)

	_, err = f.uc.Update(ctx, f.seller, product.ID, &domain.ProductUpdateRequest{Title: &title})
	assert.NoError(t, err)
}

func TestProductUsecase_ListIsCachedUntilWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createProduct(t, "img-1")

	query := &domain.ProductListQuery{PageQuery: domain.PageQuery{Page: 3, PerPage: 5}}
	first, err := f.uc.List(ctx, query)
	require.NoError(t, err)
	require.Len(t, first.Items, 1)
	assert.Equal(t, 1, first.Pagination.Page)
	assert.Equal(t, 12, first.Pagination.PerPage)
	assert.Equal(t, "1–1 of 1", first.Pagination.Label)
	require.Len(t, first.Items[0].Images, 1)

	second, err := f.uc.List(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.pageCalls)
	assert.Equal(t, first.Items[0].ID, second.Items[0].ID)

	f.createProduct(t)
	third, err := f.uc.List(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, 2, f.repo.pageCalls)
	assert.Len(t, third.Items, 2)
}

func TestProductUsecase_PublicReadsHideSellerContacts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.createProduct(t)
	f.seller.Phone = "+84901234567"
	f.repo.items[product.ID].Seller = f.seller

	assertPublic := func(t *testing.T, seller *domain.User) {
		t.Helper()
		require.NotNil(t, seller)
		assert.Equal(t, "seller", seller.ID)
		assert.Equal(t, "s***@example.com", seller.Email)
		assert.Equal(t, "seller", seller.FirstName)
		assert.Empty(t, seller.Phone)
		assert.Empty(t, seller.Status)
		assert.Nil(t, seller.Roles)
	}

	got, err := f.uc.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assertPublic(t, got.Seller)

	page, err := f.uc.List(ctx, &domain.ProductListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assertPublic(t, page.Items[0].Seller)

	cached, err := f.uc.List(ctx, &domain.ProductListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.pageCalls)
	assertPublic(t, cached.Items[0].Seller)

	// the stored account is untouched
	assert.Equal(t, "seller@example.com", f.seller.Email)
	assert.Equal(t, "+84901234567", f.seller.Phone)
}

func TestProductUsecase_ListRejectsInvertedPriceRange(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.List(context.Background(), &domain.ProductListQuery{MinPrice: "50", MaxPrice: "10"})
	assert.ErrorIs(t, err, domain.ErrInvalidPriceRange)
}

func TestProductUsecase_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.createProduct(t)

	assert.ErrorIs(t, f.uc.Delete(ctx, f.bidder, product.ID), domain.ErrProductNotOwned)
	require.NoError(t, f.uc.Delete(ctx, f.seller, product.ID))

	_, err := f.uc.GetByID(ctx, product.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestProductUsecase_CloseExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sold := f.createProduct(t)
	unsold := f.createProduct(t)
	open := f.createProduct(t)

	past := utils.NowUnixMillis() - 1000
	leader := f.bidder.ID
	f.repo.items[sold.ID].EndsAt = past
	f.repo.items[sold.ID].LeaderID = &leader
	f.repo.items[sold.ID].BidCount = 3
	f.repo.items[sold.ID].Seller = f.seller
	f.repo.items[unsold.ID].EndsAt = past
	f.repo.items[unsold.ID].Seller = f.seller

	closed, err := f.uc.CloseExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, closed)

	assert.Equal(t, domain.ProductSTTEnded, f.repo.items[sold.ID].Status)
	assert.Equal(t, &leader, f.repo.items[sold.ID].WinnerID)
	assert.Nil(t, f.repo.items[unsold.ID].WinnerID)
	assert.Equal(t, domain.ProductSTTActive, f.repo.items[open.ID].Status)

	byType := lo.GroupBy(f.notifications.sent, func(r *domain.NotifyRequest) domain.NotificationType { return r.Type })
	require.Len(t, byType[domain.NotificationAuctionWon], 1)
	assert.Equal(t, f.bidder.ID, byType[domain.NotificationAuctionWon][0].UserID)
	assert.Equal(t, domain.EmailCodeAuctionWon, byType[domain.NotificationAuctionWon][0].EmailTemplate)
	assert.Len(t, byType[domain.NotificationAuctionEnded], 2)

	again, err := f.uc.CloseExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
}
