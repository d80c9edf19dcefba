package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/core/security"
	"invoicehub/internal/core/tx"
	"invoicehub/pkg/logger"
)

// bcrypt ignores input beyond 72 bytes and newer versions reject it.
const maxPasswordBytes = 72

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
	BcryptCost        int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 8,
		BcryptCost:        bcrypt.DefaultCost,
	}
}

// BootstrapConfig names the super admin created at startup.
type BootstrapConfig struct {
	Username string
	Email    string
	Password string
}

// CreateShopAdminInput holds fields of a new shop admin.
type CreateShopAdminInput struct {
	Username string
	Email    string
	Password string
	ShopID   int64
}

// Service provides authentication and user administration.
type Service struct {
	userRepo   UserRepository
	roleRepo   RoleRepository
	shops      ShopChecker
	txManager  tx.Manager
	jwtService *JWTService
	config     ServiceConfig
	now        func() time.Time
}

// NewService creates a new auth service.
func NewService(
	userRepo UserRepository,
	roleRepo RoleRepository,
	shops ShopChecker,
	txManager tx.Manager,
	jwtService *JWTService,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		shops:      shops,
		txManager:  txManager,
		jwtService: jwtService,
		config:     config,
		now:        time.Now,
	}
}

// Login authenticates by email and password and issues an access token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Token, *User, error) {
	now := s.now()

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(creds.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if err := user.CanLogin(now); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(truncate(creds.Password))); err != nil {
		user.RecordFailedLogin(now, s.config.MaxLoginAttempts, s.config.LockDuration)
		if uerr := s.userRepo.UpdateLoginState(ctx, user); uerr != nil {
			logger.Warn(ctx, "failed to record failed login", "user_id", user.ID, "error", uerr)
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	roles, err := s.userRepo.LoadRoles(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load roles: %w", err)
	}
	user.Roles = roles

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}

	user.RecordSuccessfulLogin(now)
	if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
		logger.Warn(ctx, "failed to record login", "user_id", user.ID, "error", err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "roles", roles)

	return &Token{AccessToken: accessToken, TokenType: "Bearer", ExpiresAt: expiresAt}, user, nil
}

// CreateShopAdmin registers a shop admin bound to an existing shop. Super admin only.
func (s *Service) CreateShopAdmin(ctx context.Context, caller security.Caller, in CreateShopAdminInput) (*User, error) {
	if !caller.IsSuperAdmin() {
		return nil, apperror.NewPermissionDenied("super admin role required")
	}
	if err := s.validatePassword(in.Password); err != nil {
		return nil, err
	}

	exists, err := s.shops.Exists(ctx, in.ShopID)
	if err != nil {
		return nil, fmt.Errorf("check shop: %w", err)
	}
	if !exists {
		return nil, apperror.NewNotFound("shop", in.ShopID)
	}

	shopID := in.ShopID
	user, err := s.createUser(ctx, in.Username, in.Email, in.Password, &shopID, security.RoleShopAdmin)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "shop admin created", "user_id", user.ID, "shop_id", shopID, "by", caller.UserID)
	return user, nil
}

// GetUserByID returns a user with roles.
func (s *Service) GetUserByID(ctx context.Context, userID int64) (*User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.userRepo.LoadRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	user.Roles = roles
	return user, nil
}

// ListRoles lists all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.roleRepo.List(ctx)
}

// EnsureBootstrap creates the built-in roles and the configured super admin when missing.
// It is idempotent and runs at startup.
func (s *Service) EnsureBootstrap(ctx context.Context, cfg BootstrapConfig) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.roleRepo.Ensure(ctx, security.RoleSuperAdmin, "Full system access"); err != nil {
			return fmt.Errorf("ensure role %s: %w", security.RoleSuperAdmin, err)
		}
		if err := s.roleRepo.Ensure(ctx, security.RoleShopAdmin, "Access only for their shop"); err != nil {
			return fmt.Errorf("ensure role %s: %w", security.RoleShopAdmin, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if cfg.Email == "" {
		logger.Warn(ctx, "super admin bootstrap skipped: no email configured")
		return nil
	}

	_, err = s.userRepo.GetByEmail(ctx, normalizeEmail(cfg.Email))
	if err == nil {
		logger.Debug(ctx, "super admin already exists", "email", cfg.Email)
		return nil
	}
	if !apperror.IsNotFound(err) {
		return fmt.Errorf("lookup super admin: %w", err)
	}

	user, err := s.createUser(ctx, cfg.Username, cfg.Email, cfg.Password, nil, security.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}

	logger.Info(ctx, "super admin created", "user_id", user.ID)
	return nil
}

func (s *Service) createUser(ctx context.Context, username, email, password string, shopID *int64, role string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(truncate(password)), s.bcryptCost())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(username, email, string(hash))
	user.OrganizationID = shopID
	if err := user.Validate(); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		taken, err := s.userRepo.ExistsByEmailOrUsername(ctx, user.Email, user.Username)
		if err != nil {
			return fmt.Errorf("check user exists: %w", err)
		}
		if taken {
			return apperror.NewDuplicate("user", "email or username", user.Email)
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return s.userRepo.AssignRole(ctx, user.ID, role)
	})
	if err != nil {
		return nil, err
	}

	user.Roles = []string{role}
	return user, nil
}

func (s *Service) validatePassword(password string) error {
	if len(password) < s.config.PasswordMinLength {
		return apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	return nil
}

func (s *Service) bcryptCost() int {
	if s.config.BcryptCost == 0 {
		return bcrypt.DefaultCost
	}
	return s.config.BcryptCost
}

func truncate(password string) string {
	if len(password) > maxPasswordBytes {
		return password[:maxPasswordBytes]
	}
	return password
}
