package usecase

import (
	"context"
	"testing"

	"auction-market/domain"
	"auction-market/pkg/log"
	"auction-market/pkg/pagination"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error)  { return "hashed:" + p, nil }
func (plainHasher) Compare(hashed, p string) bool { return hashed == "hashed:"+p }

type memoryUserRepo struct {
	users    map[string]*domain.User
	lastPage *domain.FindPageOption
	lastFilt *domain.UserFilter
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[string]*domain.User{}}
}

func (r *memoryUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = uuid.NewString()
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) FindByID(_ context.Context, id string, _ *domain.FindOneOption) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrRecordNotFound
}

func (r *memoryUserRepo) FindOne(_ context.Context, filter *domain.UserFilter, _ *domain.FindOneOption) (*domain.User, error) {
	for _, u := range r.users {
		if filter.Email != nil && u.Email == *filter.Email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *memoryUserRepo) FindPage(_ context.Context, filter *domain.UserFilter, option *domain.FindPageOption) ([]*domain.User, *domain.Pagination, error) {
	r.lastPage, r.lastFilt = option, filter
	items := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		items = append(items, u)
	}
	return items, domain.NewPagination(option.Page, option.PerPage, int64(len(items))), nil
}

func (r *memoryUserRepo) Update(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if v, ok := fields["status"]; ok {
		u.Status = v.(domain.UserStatus)
	}
	if v, ok := fields["password"]; ok {
		u.Password = v.(string)
	}
	return nil
}

func newTestUsecase(t *testing.T) (domain.UserUsecase, *memoryUserRepo) {
	t.Helper()
	repo := newMemoryUserRepo()
	paginator := pagination.MustNewPaginator(pagination.Config{Policy: "anchored"})
	return NewUserUsecase(repo, plainHasher{}, paginator, log.NewNopLogger()), repo
}

func createUser(t *testing.T, uc domain.UserUsecase) *domain.User {
	t.Helper()
	user, err := uc.Create(context.Background(), &domain.UserCreateRequest{
		Email:     "  Alice@Example.com ",
		Password:  "secret-pass",
		FirstName: "Alice",
		LastName:  "Smith",
		Phone:     "(650) 253-0000",
	})
	require.NoError(t, err)
	return user
}

func TestUserUsecase_Create(t *testing.T) {
	uc, _ := newTestUsecase(t)
	user := createUser(t, uc)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "+16502530000", user.Phone)
	assert.Equal(t, "hashed:secret-pass", user.Password)
	assert.Equal(t, domain.UserSTTWaitingVerify, user.Status)
	require.Len(t, user.Roles, 1)
	assert.Equal(t, domain.RoleIDUser, user.Roles[0].ID)

	_, err := uc.Create(context.Background(), &domain.UserCreateRequest{
		Email: "alice@example.com", Password: "another-pass", FirstName: "A", LastName: "S",
	})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestUserUsecase_CreateRejectsBadPhone(t *testing.T) {
	uc, _ := newTestUsecase(t)
	_, err := uc.Create(context.Background(), &domain.UserCreateRequest{
		Email: "bob@example.com", Password: "secret-pass", FirstName: "Bob", LastName: "Jones", Phone: "12",
	})
	assert.ErrorIs(t, err, domain.ErrPhoneInvalid)
}

func TestUserUsecase_VerifyCredentials(t *testing.T) {
	uc, repo := newTestUsecase(t)
	user := createUser(t, uc)
	ctx := context.Background()

	got, err := uc.VerifyCredentials(ctx, "ALICE@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = uc.VerifyCredentials(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = uc.VerifyCredentials(ctx, "nobody@example.com", "secret-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	repo.users[user.ID].Status = domain.UserSTTBanned
	_, err = uc.VerifyCredentials(ctx, "alice@example.com", "secret-pass")
	assert.ErrorIs(t, err, domain.ErrAccountBanned)
}

func TestUserUsecase_ChangePassword(t *testing.T) {
	uc, repo := newTestUsecase(t)
	user := createUser(t, uc)
	ctx := context.Background()

	err := uc.ChangePassword(ctx, user.ID, &domain.UserChangePasswordRequest{OldPassword: "nope", NewPassword: "new-secret"})
	assert.ErrorIs(t, err, domain.ErrWrongPassword)

	err = uc.ChangePassword(ctx, user.ID, &domain.UserChangePasswordRequest{OldPassword: "secret-pass", NewPassword: "new-secret"})
	require.NoError(t, err)
	assert.Equal(t, "hashed:new-secret", repo.users[user.ID].Password)
}

func TestUserUsecase_UpdateAndStatus(t *testing.T) {
	uc, _ := newTestUsecase(t)
	user := createUser(t, uc)
	ctx := context.Background()

	name := "Alicia"
	updated, err := uc.Update(ctx, user.ID, &domain.UserUpdateRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.FirstName)

	banned, err := uc.UpdateStatus(ctx, user.ID, domain.UserSTTBanned)
	require.NoError(t, err)
	assert.True(t, banned.IsBanned())

	_, err = uc.UpdateStatus(ctx, user.ID, "frozen")
	assert.ErrorIs(t, err, domain.ErrInvalidUserStatus)

	_, err = uc.FindByID(ctx, "missing", nil)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserUsecase_ListNormalizesPaging(t *testing.T) {
	uc, repo := newTestUsecase(t)
	createUser(t, uc)

	result, err := uc.List(context.Background(), &domain.UserListQuery{
		PageQuery: domain.PageQuery{Page: 0, PerPage: 7},
		Search:    "ali",
		Role:      "admin",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.lastPage.Page)
	assert.Equal(t, pagination.DefaultPageSize, repo.lastPage.PerPage)
	assert.Equal(t, "ali", *repo.lastFilt.SearchTerm)
	assert.Equal(t, []string{"admin"}, repo.lastFilt.HasRoles)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "1–1 of 1", result.Pagination.Label)
	assert.Empty(t, result.Pagination.Entries)
}
