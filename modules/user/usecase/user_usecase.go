package usecase

import (
	"context"
	"errors"

	"auction-market/common"
	"auction-market/domain"
	"auction-market/pkg/log"
	"auction-market/pkg/pagination"
	"auction-market/pkg/utils"

	"github.com/samber/lo"
)

type Hasher interface {
	Hash(password string) (string, error)
	Compare(hashed, password string) bool
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, userID string, option *domain.FindOneOption) (*domain.User, error)
	FindOne(ctx context.Context, filter *domain.UserFilter, option *domain.FindOneOption) (*domain.User, error)
	FindPage(ctx context.Context, filter *domain.UserFilter, option *domain.FindPageOption) ([]*domain.User, *domain.Pagination, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateFields(ctx context.Context, userID string, fields map[string]any) error
}

type userUsecase struct {
	repo      UserRepository
	hasher    Hasher
	paginator *pagination.Paginator
	logger    log.Logger
}

func NewUserUsecase(repo UserRepository, hasher Hasher, paginator *pagination.Paginator, logger log.Logger) domain.UserUsecase {
	return &userUsecase{
		repo:      repo,
		hasher:    hasher,
		paginator: paginator,
		logger:    logger,
	}
}

func (u *userUsecase) Create(ctx context.Context, req *domain.UserCreateRequest) (*domain.User, error) {
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:     utils.NormalizeEmail(req.Email),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     phone,
		Status:    domain.UserSTTWaitingVerify,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	existing, err := u.repo.FindOne(ctx, &domain.UserFilter{Email: &user.Email}, nil)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}

	hashedPassword, err := u.hasher.Hash(req.Password)
	if err != nil {
		return nil, domain.ErrPasswordHashFailed.WithWrap(err)
	}
	user.Password = hashedPassword

	roleIDs := req.Roles
	if len(roleIDs) == 0 {
		roleIDs = []domain.RoleID{domain.RoleIDUser}
	}
	user.Roles = lo.Map(roleIDs, func(id domain.RoleID, _ int) *domain.Role {
		return &domain.Role{ID: id}
	})

	if err := u.repo.Create(ctx, user); err != nil {
		return nil, domain.ErrUserCreationFailed.WithWrap(err)
	}

	u.logger.InfoContext(ctx, "User created",
		log.UserID(user.ID),
		log.String("email", utils.MaskEmail(user.Email)),
	)
	return user, nil
}

func (u *userUsecase) FindByID(ctx context.Context, userID string, option *domain.FindOneOption) (*domain.User, error) {
	user, err := u.repo.FindByID(ctx, userID, option)
	if err != nil {
		return nil, mapFindError(err)
	}
	return user, nil
}

func (u *userUsecase) FindByEmail(ctx context.Context, email string, option *domain.FindOneOption) (*domain.User, error) {
	normalized := utils.NormalizeEmail(email)
	user, err := u.repo.FindOne(ctx, &domain.UserFilter{Email: &normalized}, option)
	if err != nil {
		return nil, mapFindError(err)
	}
	return user, nil
}

func (u *userUsecase) Update(ctx context.Context, userID string, req *domain.UserUpdateRequest) (*domain.User, error) {
	user, err := u.repo.FindByID(ctx, userID, nil)
	if err != nil {
		return nil, mapFindError(err)
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		phone, err := normalizePhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		user.Phone = phone
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := u.repo.Update(ctx, user); err != nil {
		return nil, domain.ErrUserUpdateFailed.WithWrap(err)
	}
	return user, nil
}

func (u *userUsecase) UpdateStatus(ctx context.Context, userID string, status domain.UserStatus) (*domain.User, error) {
	if !status.IsValid() {
		return nil, domain.ErrInvalidUserStatus
	}

	user, err := u.repo.FindByID(ctx, userID, &domain.FindOneOption{Preloads: []string{common.FieldRoles}})
	if err != nil {
		return nil, mapFindError(err)
	}
	if user.Status == status {
		return user, nil
	}

	if err := u.repo.UpdateFields(ctx, userID, map[string]any{"status": status}); err != nil {
		return nil, domain.ErrUserUpdateFailed.WithWrap(err)
	}

	u.logger.InfoContext(ctx, "User status changed",
		log.UserID(userID),
		log.String("from", string(user.Status)),
		log.String("to", string(status)),
	)
	user.Status = status
	return user, nil
}

func (u *userUsecase) ChangePassword(ctx context.Context, userID string, req *domain.UserChangePasswordRequest) error {
	user, err := u.repo.FindByID(ctx, userID, nil)
	if err != nil {
		return mapFindError(err)
	}
	if !u.hasher.Compare(user.Password, req.OldPassword) {
		return domain.ErrWrongPassword
	}

	hashed, err := u.hasher.Hash(req.NewPassword)
	if err != nil {
		return domain.ErrPasswordHashFailed.WithWrap(err)
	}
	if err := u.repo.UpdateFields(ctx, userID, map[string]any{"password": hashed}); err != nil {
		return domain.ErrUserUpdateFailed.WithWrap(err)
	}
	return nil
}

// VerifyCredentials answers ErrInvalidCredentials for both an unknown email
// and a wrong password.
func (u *userUsecase) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := u.FindByEmail(ctx, email, &domain.FindOneOption{Preloads: []string{common.FieldRoles}})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.hasher.Compare(user.Password, password) {
		return nil, domain.ErrInvalidCredentials
	}
	if user.IsBanned() {
		return nil, domain.ErrAccountBanned
	}
	return user, nil
}

func (u *userUsecase) List(ctx context.Context, query *domain.UserListQuery) (*domain.PageResult[*domain.User], error) {
	page, perPage := u.paginator.Normalize(query.Page, query.PerPage)

	filter := &domain.UserFilter{Status: query.Status}
	if query.Search != "" {
		filter.SearchTerm = &query.Search
	}
	if query.Role != "" {
		filter.HasRoles = []string{query.Role}
	}

	users, p, err := u.repo.FindPage(ctx, filter, &domain.FindPageOption{
		Preloads: []string{common.FieldRoles},
		Sort:     []string{"created_at DESC", "id"},
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return domain.NewPageResult(users, p, u.paginator), nil
}

func normalizePhone(phone string) (string, error) {
	if phone == "" {
		return "", nil
	}
	formatted, err := utils.FormatE164(phone)
	if err != nil {
		return "", domain.ErrPhoneInvalid.WithWrap(err)
	}
	return formatted, nil
}

func mapFindError(err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.ErrUserNotFound.WithWrap(err)
	}
	return domain.ErrInternalServerError.WithWrap(err)
}
