package usecase

import (
	"context"
	"errors"
	"strings"

	"medledger/internal/converter"
	"medledger/internal/delivery/dto"
	"medledger/internal/delivery/http/middleware"
	"medledger/internal/domain/entity"
	"medledger/internal/domain/repository"
	"medledger/internal/service"
	"medledger/pkg/jwt"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// TOTPIssuer labels the account in authenticator apps.
const TOTPIssuer = "MedLedger"

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrTOTPRequired       = errors.New("totp_required")
	ErrInvalidTOTPCode    = errors.New("invalid authentication code")
	ErrTOTPNotSetup       = errors.New("two-factor authentication has not been set up")
	ErrTOTPNotEnabled     = errors.New("two-factor authentication is not enabled")
	ErrTOTPAlreadyEnabled = errors.New("two-factor authentication is already enabled")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrUserNotFound       = errors.New("user not found")
)

type AuthUsecase interface {
	RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	// ChangePassword revokes every session of the user and returns a fresh pair.
	ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest) (*dto.TokenResponse, error)
	SetupTOTP(ctx context.Context) (*dto.TOTPSetupResponse, error)
	EnableTOTP(ctx context.Context, code string) error
	DisableTOTP(ctx context.Context, code string) error
}

type authUsecase struct {
	log          *logrus.Logger
	userRepo     repository.UserRepository
	tokenStore   service.TokenStore
	auditService service.AuditService
	sessions     *sessionIssuer
}

func NewAuthUsecase(
	log *logrus.Logger,
	userRepo repository.UserRepository,
	jwtService *jwt.JWTService,
	tokenStore service.TokenStore,
	auditService service.AuditService,
) AuthUsecase {
	return &authUsecase{
		log:          log,
		userRepo:     userRepo,
		tokenStore:   tokenStore,
		auditService: auditService,
		sessions: &sessionIssuer{
			realm:      jwt.RealmPortal,
			log:        log,
			jwtService: jwtService,
			tokenStore: tokenStore,
		},
	}
}

func (u *authUsecase) RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error) {
	user := &entity.User{
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:    req.FullName,
		RoleID:      entity.RoleIDPatient,
		PhoneNumber: req.PhoneNumber,
		Gender:      req.Gender,
		Address:     req.Address,
	}

	if req.DateOfBirth != "" {
		dob, err := parseDate(req.DateOfBirth)
		if err != nil {
			return nil, err
		}
		user.DateOfBirth = &dob
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}
	user.Password = string(hashedPassword)

	if err := u.userRepo.Create(ctx, user); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return nil, err
	}

	actor := entity.Actor{Realm: entity.RealmPortal, ID: user.ID.String(), IP: middleware.GetClientIP(ctx)}
	_ = u.auditService.LogEvent(ctx, actor, entity.AuditActionUserRegister, map[string]interface{}{"email": user.Email})

	user.Role = entity.Role{ID: entity.RoleIDPatient, RoleName: entity.RolePatient}
	return converter.UserToResponse(user), nil
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Active() {
		return nil, ErrAccountInactive
	}

	if user.TOTPEnabled {
		if req.TOTPCode == "" || !totp.Validate(req.TOTPCode, user.TOTPSecret) {
			return nil, ErrTOTPRequired
		}
	}

	tokens, err := u.sessions.issue(ctx, portalIdentity(user))
	if err != nil {
		return nil, err
	}

	actor := entity.Actor{Realm: entity.RealmPortal, ID: user.ID.String(), IP: middleware.GetClientIP(ctx)}
	_ = u.auditService.LogEvent(ctx, actor, entity.AuditActionUserLogin, nil)

	return tokens, nil
}

func (u *authUsecase) Logout(ctx context.Context, refreshToken string) error {
	if err := u.sessions.logout(ctx, refreshToken); err != nil {
		u.log.Warnf("Failed to logout: %+v", err)
		return err
	}
	return nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := u.sessions.consumeRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	// The account may have been disabled since the token was issued
	user, err := u.currentUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active() {
		return nil, ErrInvalidToken
	}

	return u.sessions.issue(ctx, portalIdentity(user))
}

func (u *authUsecase) GetCurrentUser(ctx context.Context) (*dto.UserResponse, error) {
	user, err := u.loadCaller(ctx)
	if err != nil {
		return nil, err
	}
	return converter.UserToResponse(user), nil
}

func (u *authUsecase) UpdateProfile(ctx context.Context, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := u.loadCaller(ctx)
	if err != nil {
		return nil, err
	}
	before := *user

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.BloodType != nil {
		user.BloodType = *req.BloodType
	}

	if err := u.userRepo.Update(ctx, user); err != nil {
		u.log.Warnf("Failed to update profile: %+v", err)
		return nil, err
	}

	_ = u.auditService.LogUpdate(ctx, middleware.ActorFromContext(ctx), entity.AuditActionProfileUpdate, "user", user.ID.String(),
		converter.UserToResponse(&before), converter.UserToResponse(user))

	return converter.UserToResponse(user), nil
}

func (u *authUsecase) ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest) (*dto.TokenResponse, error) {
	user, err := u.loadCaller(ctx)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return nil, ErrIncorrectPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}
	user.Password = string(hashedPassword)

	if err := u.userRepo.Update(ctx, user); err != nil {
		u.log.Warnf("Failed to update password: %+v", err)
		return nil, err
	}

	if err := u.tokenStore.RevokeAll(ctx, user.ID.String()); err != nil {
		return nil, err
	}

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionPasswordChange, nil)

	return u.sessions.issue(ctx, portalIdentity(user))
}

func (u *authUsecase) SetupTOTP(ctx context.Context) (*dto.TOTPSetupResponse, error) {
	user, err := u.loadCaller(ctx)
	if err != nil {
		return nil, err
	}
	if user.TOTPEnabled {
		return nil, ErrTOTPAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      TOTPIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		u.log.Warnf("Failed to generate TOTP key: %+v", err)
		return nil, err
	}

	user.TOTPSecret = key.Secret()
	if err := u.userRepo.Update(ctx, user); err != nil {
		u.log.Warnf("Failed to store TOTP secret: %+v", err)
		return nil, err
	}

	return &dto.TOTPSetupResponse{Secret: key.Secret(), URL: key.URL()}, nil
}

func (u *authUsecase) EnableTOTP(ctx context.Context, code string) error {
	user, err := u.loadCaller(ctx)
	if err != nil {
		return err
	}
	if user.TOTPEnabled {
		return ErrTOTPAlreadyEnabled
	}
	if user.TOTPSecret == "" {
		return ErrTOTPNotSetup
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}

	user.TOTPEnabled = true
	if err := u.userRepo.Update(ctx, user); err != nil {
		u.log.Warnf("Failed to enable TOTP: %+v", err)
		return err
	}

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionTOTPEnable, nil)
	return nil
}

func (u *authUsecase) DisableTOTP(ctx context.Context, code string) error {
	user, err := u.loadCaller(ctx)
	if err != nil {
		return err
	}
	if !user.TOTPEnabled {
		return ErrTOTPNotEnabled
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}

	user.TOTPEnabled = false
	user.TOTPSecret = ""
	if err := u.userRepo.Update(ctx, user); err != nil {
		u.log.Warnf("Failed to disable TOTP: %+v", err)
		return err
	}

	_ = u.auditService.LogEvent(ctx, middleware.ActorFromContext(ctx), entity.AuditActionTOTPDisable, nil)
	return nil
}

func (u *authUsecase) loadCaller(ctx context.Context) (*entity.User, error) {
	userID, ok := middleware.GetPortalUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (u *authUsecase) currentUser(ctx context.Context, subject string) (*entity.User, error) {
	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	return user, nil
}

func portalIdentity(user *entity.User) jwt.Identity {
	return jwt.Identity{
		Subject: user.ID.String(),
		Realm:   jwt.RealmPortal,
		Role:    entity.RoleNameByID(user.RoleID),
		Email:   user.Email,
	}
}
