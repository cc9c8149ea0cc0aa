package domain

import (
	"context"
	"net/http"

	"auction-market/pkg/utils"
)

/****************************
*        User errors        *
****************************/
var (
	ErrUserNotFound = &DetailedError{
		IDField:         "USER_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "User not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrEmailAlreadyExists = &DetailedError{
		IDField:         "EMAIL_ALREADY_EXISTS",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "User with this email already exists",
		StatusCodeField: http.StatusBadRequest,
	}
	ErrPhoneInvalid = &DetailedError{
		IDField:         "PHONE_INVALID",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "Phone number is not valid",
		StatusCodeField: http.StatusBadRequest,
	}
	ErrWrongPassword = &DetailedError{
		IDField:         "WRONG_PASSWORD",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "Current password is incorrect",
		StatusCodeField: http.StatusBadRequest,
	}
	ErrUserCreationFailed = &DetailedError{
		IDField:         "USER_CREATION_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to create user",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrUserUpdateFailed = &DetailedError{
		IDField:         "USER_UPDATE_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to update user",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrUserValidationFailed = &DetailedError{
		IDField:         "USER_VALIDATION_FAILED",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "User validation failed",
		StatusCodeField: http.StatusBadRequest,
	}
	ErrPasswordHashFailed = &DetailedError{
		IDField:         "PASSWORD_HASH_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to hash password",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrInvalidUserStatus = &DetailedError{
		IDField:         "INVALID_USER_STATUS",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "Invalid user status",
		StatusCodeField: http.StatusBadRequest,
	}
	ErrUserInactive = &DetailedError{
		IDField:         "USER_INACTIVE",
		StatusDescField: http.StatusText(http.StatusForbidden),
		ErrorField:      "User account is inactive",
		StatusCodeField: http.StatusForbidden,
	}
	ErrUserBanned = &DetailedError{
		IDField:         "USER_BANNED",
		StatusDescField: http.StatusText(http.StatusForbidden),
		ErrorField:      "User account is banned",
		StatusCodeField: http.StatusForbidden,
	}
)

/***************************************
*       User entities and types       *
***************************************/
type UserStatus string

const (
	UserSTTWaitingVerify UserStatus = "waiting_verify"
	UserSTTActive        UserStatus = "active"
	UserSTTBanned        UserStatus = "banned"
)

func (s UserStatus) IsValid() bool {
	switch s {
	case UserSTTWaitingVerify, UserSTTActive, UserSTTBanned:
		return true
	}
	return false
}

type User struct {
	SQLModel
	Email     string     `json:"email" gorm:"type:varchar(100);unique;not null"`
	Password  string     `json:"-" gorm:"type:varchar(60);not null"`
	FirstName string     `json:"first_name" gorm:"type:varchar(50);not null"`
	LastName  string     `json:"last_name" gorm:"type:varchar(50);not null"`
	Phone     string     `json:"phone,omitempty" gorm:"type:varchar(20)"`
	Status    UserStatus `json:"status" gorm:"type:varchar(20);default:'waiting_verify'"`
	Roles     []*Role    `json:"roles,omitempty" gorm:"many2many:user_roles;"`
}

func (u *User) Validate() error {
	if u.Email == "" {
		return ErrUserValidationFailed.WithError("email must be not empty")
	}
	if u.FirstName == "" {
		return ErrUserValidationFailed.WithError("first_name must be not empty")
	}
	if u.LastName == "" {
		return ErrUserValidationFailed.WithError("last_name must be not empty")
	}
	if !u.Status.IsValid() {
		return ErrInvalidUserStatus
	}
	return nil
}

// PublicProfile is the copy of u shown to anonymous callers: masked email,
// no phone, status or roles.
func (u *User) PublicProfile() *User {
	if u == nil {
		return nil
	}
	return &User{
		SQLModel:  SQLModel{ID: u.ID},
		Email:     utils.MaskEmail(u.Email),
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) HasAnyRole(roleIDs ...RoleID) bool {
	if len(u.Roles) == 0 || len(roleIDs) == 0 {
		return false
	}
	roleIDSet := make(map[RoleID]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		roleIDSet[id] = struct{}{}
	}
	for _, role := range u.Roles {
		if role != nil {
			if _, ok := roleIDSet[role.ID]; ok {
				return true
			}
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasAnyRole(AdminRoles...)
}

func (u *User) IsBanned() bool {
	return u.Status == UserSTTBanned
}

func (u *User) IsActive() bool {
	return u.Status == UserSTTActive
}

type UserFilter struct {
	ID             *string     `json:"id" form:"id"`
	IDNe           *string     `json:"id_ne" form:"id_ne"`
	IDIn           []string    `json:"id_in" form:"id_in"`
	Email          *string     `json:"email" form:"email"`
	Status         *UserStatus `json:"status" form:"status"`
	HasRoles       []string    `json:"has_roles" form:"has_roles"`
	SearchTerm     *string     `json:"search_term" form:"search_term"`
	SearchFields   []string    `json:"search_fields" form:"search_fields"`
	IncludeDeleted *bool       `json:"include_deleted" form:"include_deleted"`
}

/**********************************************
*       User usecase interfaces and types      *
**********************************************/
type UserUsecase interface {
	Create(ctx context.Context, req *UserCreateRequest) (*User, error)
	FindByID(ctx context.Context, userID string, option *FindOneOption) (*User, error)
	FindByEmail(ctx context.Context, email string, option *FindOneOption) (*User, error)
	Update(ctx context.Context, userID string, req *UserUpdateRequest) (*User, error)
	UpdateStatus(ctx context.Context, userID string, status UserStatus) (*User, error)
	ChangePassword(ctx context.Context, userID string, req *UserChangePasswordRequest) error
	VerifyCredentials(ctx context.Context, email, password string) (*User, error)
	List(ctx context.Context, query *UserListQuery) (*PageResult[*User], error)
}

type UserCreateRequest struct {
	Email     string   `json:"email" binding:"required,email,max=100"`
	Password  string   `json:"password" binding:"required,min=8,max=72"`
	FirstName string   `json:"first_name" binding:"required,not_blank,max=50"`
	LastName  string   `json:"last_name" binding:"required,not_blank,max=50"`
	Phone     string   `json:"phone,omitempty" binding:"omitempty,phone_number"`
	Roles     []RoleID `json:"-"`
}

type UserUpdateRequest struct {
	FirstName *string `json:"first_name,omitempty" binding:"omitempty,not_blank,max=50"`
	LastName  *string `json:"last_name,omitempty" binding:"omitempty,not_blank,max=50"`
	Phone     *string `json:"phone,omitempty" binding:"omitempty,phone_number"`
}

type UserStatusUpdateRequest struct {
	Status UserStatus `json:"status" binding:"required,oneof=waiting_verify active banned"`
}

type UserChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72,nefield=OldPassword"`
}

type UserListQuery struct {
	PageQuery
	Search string      `form:"q" binding:"omitempty,max=100"`
	Status *UserStatus `form:"status" binding:"omitempty,oneof=waiting_verify active banned"`
	Role   string      `form:"role" binding:"omitempty,oneof=super_admin admin user guest"`
}
