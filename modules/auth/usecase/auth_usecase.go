package usecase

import (
	"context"
	"errors"
	"time"

	"auction-market/common"
	"auction-market/domain"
	"auction-market/pkg/cache"
	"auction-market/pkg/log"
	"auction-market/pkg/utils"

	"github.com/google/uuid"
)

const (
	verifyTokenKeyPrefix = "email_verify:"
	emailSendTimeout     = 30 * time.Second
)

type TokenProvider interface {
	GenerateAccessToken(userID, sessionID string) (string, time.Time, error)
	GenerateRefreshToken() (string, time.Time, error)
}

type UserSessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	FindByID(ctx context.Context, sessionID string, option *domain.FindOneOption) (*domain.UserSession, error)
	FindByRefreshToken(ctx context.Context, refreshToken string) (*domain.UserSession, error)
	RotateRefreshToken(ctx context.Context, sessionID, oldToken string, fields map[string]any) (bool, error)
	Deactivate(ctx context.Context, sessionID string) error
}

type Config struct {
	AppName string
	// BaseURL is where the verification link points to
	BaseURL        string
	VerifyTokenTTL time.Duration
}

type Deps struct {
	SessionRepo   UserSessionRepository
	UserUsecase   domain.UserUsecase
	EmailUsecase  domain.EmailUsecase
	TokenProvider TokenProvider
	Cache         cache.Client
	Logger        log.Logger
	Config        Config
}

type authUsecase struct {
	sessionRepo   UserSessionRepository
	userUsecase   domain.UserUsecase
	emailUsecase  domain.EmailUsecase
	tokenProvider TokenProvider
	cache         cache.Client
	logger        log.Logger
	cfg           Config
}

func NewAuthUsecase(deps *Deps) domain.AuthUsecase {
	return &authUsecase{
		sessionRepo:   deps.SessionRepo,
		userUsecase:   deps.UserUsecase,
		emailUsecase:  deps.EmailUsecase,
		tokenProvider: deps.TokenProvider,
		cache:         deps.Cache,
		logger:        deps.Logger,
		cfg:           deps.Config,
	}
}

func (a *authUsecase) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	user, err := a.userUsecase.Create(ctx, &domain.UserCreateRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Roles:     []domain.RoleID{domain.RoleIDUser},
	})
	if err != nil {
		if de, ok := common.IsDetailError(err); ok {
			return nil, de
		}
		return nil, domain.ErrUserCreationFailed.WithWrap(err)
	}

	resp, err := a.startSession(ctx, user, req.ClientInfo)
	if err != nil {
		return nil, err
	}

	// Registration succeeds even when the mail cannot be sent
	a.sendAsync(ctx, "verification", func(ctx context.Context) error {
		return a.sendVerification(ctx, user)
	})

	return resp, nil
}

func (a *authUsecase) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	user, err := a.userUsecase.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		a.logger.WarnContext(ctx, "Login rejected",
			log.String("email", utils.MaskEmail(req.Email)),
			log.String("ip", req.IPAddress),
			log.Error(err),
		)
		return nil, err
	}
	return a.startSession(ctx, user, req.ClientInfo)
}

func (a *authUsecase) Logout(ctx context.Context, sessionID string) error {
	session, err := a.sessionRepo.FindByID(ctx, sessionID, nil)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.ErrSessionExpired
		}
		return domain.ErrSessionFindFailed.WithWrap(err)
	}
	if !session.Active {
		return nil
	}
	if err := a.sessionRepo.Deactivate(ctx, session.ID); err != nil {
		return domain.ErrInternalServerError.WithWrap(err)
	}
	return nil
}

// RefreshToken rotates the refresh token. A token can be exchanged once; a
// second exchange of the same token fails.
func (a *authUsecase) RefreshToken(ctx context.Context, req *domain.RefreshTokenRequest) (*domain.AuthResponse, error) {
	session, err := a.sessionRepo.FindByRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrInvalidToken.WithReason("unknown refresh token")
		}
		return nil, domain.ErrSessionFindFailed.WithWrap(err)
	}
	if !session.IsActive() {
		return nil, domain.ErrSessionExpired
	}

	user, err := a.userUsecase.FindByID(ctx, session.UserID, &domain.FindOneOption{
		Preloads: []string{common.FieldRoles},
	})
	if err != nil {
		return nil, err
	}
	if user.IsBanned() {
		if err := a.sessionRepo.Deactivate(ctx, session.ID); err != nil {
			a.logger.ErrorContext(ctx, "Failed to deactivate session of banned user", log.String("session_id", session.ID), log.Error(err))
		}
		return nil, domain.ErrAccountBanned
	}

	refreshToken, refreshExpiresAt, err := a.tokenProvider.GenerateRefreshToken()
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	fields := map[string]any{
		"refresh_token":    refreshToken,
		"expires_at":       refreshExpiresAt.UnixMilli(),
		"last_activity_at": utils.NowUnixMillis(),
	}
	if req.IPAddress != "" {
		fields["ip_address"] = req.IPAddress
	}
	if req.UserAgent != "" {
		fields["user_agent"] = req.UserAgent
	}
	rotated, err := a.sessionRepo.RotateRefreshToken(ctx, session.ID, req.RefreshToken, fields)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	if !rotated {
		return nil, domain.ErrInvalidToken.WithReason("refresh token already used")
	}

	accessToken, accessExpiresAt, err := a.tokenProvider.GenerateAccessToken(user.ID, session.ID)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	return &domain.AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpiresAt.UnixMilli(),
	}, nil
}

// SendVerificationEmail answers success for unknown addresses so the endpoint
// cannot be used to probe for accounts.
func (a *authUsecase) SendVerificationEmail(ctx context.Context, req *domain.SendVerificationEmailRequest) error {
	user, err := a.userUsecase.FindByEmail(ctx, req.Email, nil)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			a.logger.InfoContext(ctx, "Verification requested for unknown email", log.String("email", utils.MaskEmail(req.Email)))
			return nil
		}
		return err
	}

	switch user.Status {
	case domain.UserSTTActive:
		return domain.ErrEmailAlreadyVerified
	case domain.UserSTTBanned:
		return domain.ErrAccountBanned
	}

	return a.sendVerification(ctx, user)
}

func (a *authUsecase) VerifyEmail(ctx context.Context, req *domain.VerifyEmailRequest) (*domain.User, error) {
	key := verifyTokenKeyPrefix + req.Token
	raw, err := a.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return nil, domain.ErrVerificationTokenInvalid
		}
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	if err := a.cache.Delete(ctx, key); err != nil {
		a.logger.WarnContext(ctx, "Failed to delete verification token", log.Error(err))
	}

	user, err := a.userUsecase.FindByID(ctx, string(raw), nil)
	if err != nil {
		return nil, err
	}
	switch user.Status {
	case domain.UserSTTActive:
		return nil, domain.ErrEmailAlreadyVerified
	case domain.UserSTTBanned:
		return nil, domain.ErrAccountBanned
	}

	user, err = a.userUsecase.UpdateStatus(ctx, user.ID, domain.UserSTTActive)
	if err != nil {
		return nil, err
	}

	a.sendAsync(ctx, "welcome", func(ctx context.Context) error {
		_, err := a.emailUsecase.SendEmailWithTemplate(ctx, &domain.SendEmailWithTemplateRequest{
			To:           []string{user.Email},
			TemplateCode: domain.EmailCodeWelcome,
			Data: map[string]any{
				"app_name":  a.cfg.AppName,
				"user_name": user.FullName(),
				"login_url": common.JoinURLPath(a.cfg.BaseURL, "login"),
			},
			RequestID: log.RequestIDFromContext(ctx),
		})
		return err
	})

	return user, nil
}

func (a *authUsecase) startSession(ctx context.Context, user *domain.User, client domain.ClientInfo) (*domain.AuthResponse, error) {
	refreshToken, refreshExpiresAt, err := a.tokenProvider.GenerateRefreshToken()
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	now := utils.NowUnixMillis()
	session := &domain.UserSession{
		UserID:         user.ID,
		RefreshToken:   refreshToken,
		IPAddress:      client.IPAddress,
		UserAgent:      client.UserAgent,
		Active:         true,
		ExpiresAt:      refreshExpiresAt.UnixMilli(),
		LastActivityAt: now,
	}
	if err := a.sessionRepo.Create(ctx, session); err != nil {
		return nil, domain.ErrCannotCreateSession.WithWrap(err)
	}

	accessToken, accessExpiresAt, err := a.tokenProvider.GenerateAccessToken(user.ID, session.ID)
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}

	a.logger.InfoContext(ctx, "Session started",
		log.UserID(user.ID),
		log.String("session_id", session.ID),
		log.String("ip", client.IPAddress),
	)

	return &domain.AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpiresAt.UnixMilli(),
	}, nil
}

func (a *authUsecase) sendVerification(ctx context.Context, user *domain.User) error {
	token := uuid.NewString()
	if err := a.cache.Set(ctx, verifyTokenKeyPrefix+token, []byte(user.ID), a.cfg.VerifyTokenTTL); err != nil {
		return domain.ErrInternalServerError.WithWrap(err)
	}

	_, err := a.emailUsecase.SendEmailWithTemplate(ctx, &domain.SendEmailWithTemplateRequest{
		To:           []string{user.Email},
		TemplateCode: domain.EmailCodeVerification,
		Data: map[string]any{
			"app_name":         a.cfg.AppName,
			"user_name":        user.FullName(),
			"verification_url": common.WithQuery(common.JoinURLPath(a.cfg.BaseURL, "verify-email"), map[string]string{"token": token}),
			"expires_in_hours": int(a.cfg.VerifyTokenTTL.Hours()),
		},
		RequestID: log.RequestIDFromContext(ctx),
	})
	if err != nil {
		return domain.ErrEmailSendFailed.WithReason("failed to send verification email").WithWrap(err)
	}
	return nil
}

// sendAsync detaches fn from the request so a slow mail provider does not
// hold the response.
func (a *authUsecase) sendAsync(ctx context.Context, kind string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emailSendTimeout)
	go func() {
		defer cancel()
		if err := fn(ctx); err != nil {
			a.logger.ErrorContext(ctx, "Failed to send email", log.String("kind", kind), log.Error(err))
		}
	}()
}
