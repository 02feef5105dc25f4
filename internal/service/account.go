package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour

	minPasswordLen = 6
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AccountService struct {
	Repo          *repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         *models.User
}

type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
	Phone           string
}

type ProfileInput struct {
	Name    *string
	Phone   *string
	Address *string
}

// UserInput is the admin form. An empty Password keeps the current one on update.
type UserInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Address  string
	Role     string
}

type UserList struct {
	Users  []repo.UserListItem `json:"users"`
	Counts map[string]int64    `json:"counts"`
}

func (s *AccountService) createAccessToken(u *models.User, exp time.Time) (string, error) {
	claims := tokens.AccessClaims{
		Role:  u.Role,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.AccessSecret)
}

func (s *AccountService) createRefreshToken(u *models.User, exp time.Time) (string, *models.RefreshToken, error) {
	jti := tokens.NewJTI()
	claims := tokens.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.RefreshSecret)
	if err != nil {
		return "", nil, err
	}
	return raw, &models.RefreshToken{
		Token:     tokens.Sha256Hex(raw),
		UserID:    u.ID,
		JTI:       jti,
		ExpiresAt: exp.Unix(),
	}, nil
}

func (s *AccountService) issue(u *models.User) (*LoginResult, *models.RefreshToken, error) {
	accessExp := time.Now().Add(AccessTTL)
	access, err := s.createAccessToken(u, accessExp)
	if err != nil {
		return nil, nil, err
	}
	refreshExp := time.Now().Add(RefreshTTL)
	refresh, stored, err := s.createRefreshToken(u, refreshExp)
	if err != nil {
		return nil, nil, err
	}
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User:         u,
	}, stored, nil
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "account.register")

	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" || name == "" {
		return nil, fmt.Errorf("email, password and name are required: %w", ErrValidation)
	}
	if !validEmail(email) {
		return nil, fmt.Errorf("malformed email: %w", ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrValidation)
	}
	if in.ConfirmPassword != in.Password {
		return nil, fmt.Errorf("passwords do not match: %w", ErrValidation)
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
		Name:         name,
		Phone:        strings.TrimSpace(in.Phone),
	}
	if err := s.createUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) createUser(ctx context.Context, u *models.User) error {
	if _, err := s.Repo.GetUserByEmail(ctx, u.Email); err == nil {
		return fmt.Errorf("email already registered: %w", ErrConflict)
	}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return err
	}
	return nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	res, stored, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, stored); err != nil {
		return nil, err
	}
	return res, nil
}

// Refresh rotates a refresh token: the old one is revoked and a fresh pair is issued.
// The role is read from the user row so role changes take effect on the next refresh.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidCredentials)
	}
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	res, stored, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, stored); err != nil {
		if errors.Is(err, repo.ErrRefreshRevoked) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
		return nil, err
	}
	return res, nil
}

func (s *AccountService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, refreshToken)
}

func (s *AccountService) Profile(ctx context.Context, actor Actor) (*models.User, error) {
	if err := Authorize(actor, models.RoleUser); err != nil {
		return nil, err
	}
	u, err := s.Repo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

// UpdateProfile changes name, phone and address. An empty name is ignored.
func (s *AccountService) UpdateProfile(ctx context.Context, actor Actor, in ProfileInput) (*models.User, error) {
	u, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		u.Address = strings.TrimSpace(*in.Address)
	}
	if err := s.Repo.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, actor Actor, current, next, confirm string) error {
	u, err := s.Profile(ctx, actor)
	if err != nil {
		return err
	}
	if current == "" || next == "" || confirm == "" {
		return fmt.Errorf("all password fields are required: %w", ErrValidation)
	}
	if !hash.CheckPassword(u.PasswordHash, current) {
		return fmt.Errorf("current password is wrong: %w", ErrValidation)
	}
	if next != confirm {
		return fmt.Errorf("passwords do not match: %w", ErrValidation)
	}
	if len(next) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrValidation)
	}

	if u.PasswordHash, err = hash.HashPassword(next); err != nil {
		return err
	}
	return s.Repo.SaveUser(ctx, u)
}

// ForgotPassword never reveals whether the email is registered.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) {
	_, err := s.Repo.GetUserByEmail(ctx, email)
	logging.FromContext(ctx).Info("forgot_password_requested", "known", err == nil)
}

func (s *AccountService) Wishlist(ctx context.Context, actor Actor) ([]models.Product, error) {
	if err := Authorize(actor, models.RoleUser); err != nil {
		return nil, err
	}
	return s.Repo.WishlistProducts(ctx, actor.ID)
}

func (s *AccountService) AddToWishlist(ctx context.Context, actor Actor, productID uuid.UUID) error {
	if err := Authorize(actor, models.RoleUser); err != nil {
		return err
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return notFound(err, "product")
	}
	return s.Repo.AddWishlist(ctx, actor.ID, productID)
}

func (s *AccountService) RemoveFromWishlist(ctx context.Context, actor Actor, productID uuid.UUID) error {
	if err := Authorize(actor, models.RoleUser); err != nil {
		return err
	}
	_, err := s.Repo.RemoveWishlist(ctx, actor.ID, productID)
	return err
}

func (s *AccountService) ListUsers(ctx context.Context, actor Actor, role string) (*UserList, error) {
	if err := Authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	if role == "all" {
		role = ""
	}
	if role != "" && !ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q: %w", role, ErrValidation)
	}

	users, err := s.Repo.ListUsers(ctx, role)
	if err != nil {
		return nil, err
	}
	counts, err := s.Repo.CountUsersByRole(ctx)
	if err != nil {
		return nil, err
	}
	var all int64
	for _, n := range counts {
		all += n
	}
	counts["all"] = all
	return &UserList{Users: users, Counts: counts}, nil
}

func (s *AccountService) CreateUser(ctx context.Context, actor Actor, in UserInput) (*models.User, error) {
	if err := Authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !validEmail(email) {
		return nil, fmt.Errorf("malformed email: %w", ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrValidation)
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if !ValidRole(in.Role) {
		return nil, fmt.Errorf("unknown role %q: %w", in.Role, ErrValidation)
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: pwHash,
		Role:         in.Role,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
	}
	if err := s.createUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) UpdateUser(ctx context.Context, actor Actor, id uuid.UUID, in UserInput) (*models.User, error) {
	if err := Authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	u, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if in.Role == "" {
		in.Role = u.Role
	}
	if !ValidRole(in.Role) {
		return nil, fmt.Errorf("unknown role %q: %w", in.Role, ErrValidation)
	}

	u.Name = strings.TrimSpace(in.Name)
	u.Phone = strings.TrimSpace(in.Phone)
	u.Address = strings.TrimSpace(in.Address)
	u.Role = in.Role
	if in.Password != "" {
		if len(in.Password) < minPasswordLen {
			return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrValidation)
		}
		if u.PasswordHash, err = hash.HashPassword(in.Password); err != nil {
			return nil, err
		}
	}
	if err := s.Repo.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser refuses self-deletion and users who still own orders.
func (s *AccountService) DeleteUser(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := Authorize(actor, models.RoleAdmin); err != nil {
		return err
	}
	if actor.ID == id {
		return fmt.Errorf("cannot delete your own account: %w", ErrConflict)
	}
	n, err := s.Repo.CountOrdersForUser(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("user has %d orders: %w", n, ErrConflict)
	}
	return notFound(s.Repo.DeleteUser(ctx, id), "user")
}

func (s *AccountService) CountUsers(ctx context.Context) (int64, error) {
	return s.Repo.CountUsers(ctx)
}
