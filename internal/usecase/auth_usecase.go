package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"roomchat/internal/entity"
	"roomchat/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)

type AuthUsecase interface {
	CreateAccount(ctx context.Context, req entity.Credentials) (entity.AuthResponse, error)
	Authenticate(ctx context.Context, req entity.Credentials) (entity.AuthResponse, error)
	ValidateAccessToken(token string) (*entity.TokenClaims, error)
}

type TokenManager interface {
	GenerateAccessToken(user entity.User) (string, error)
	ValidateAccessToken(token string) (*entity.TokenClaims, error)
}

// AttemptCounter counts failed logins per username within a lockout window.
type AttemptCounter interface {
	Increment(key string, delta int64, ttl time.Duration) int64
	Get(key string) (int64, bool)
	Delete(key string)
}

type AuthOptions struct {
	BcryptCost  int
	MaxFailures int
	Lockout     time.Duration
}

type authUsecase struct {
	userRepo repository.UserRepository
	tokens   TokenManager
	attempts AttemptCounter
	validate *validator.Validate
	opts     AuthOptions
}

func NewAuthUsecase(
	userRepo repository.UserRepository,
	tokens TokenManager,
	attempts AttemptCounter,
	opts AuthOptions,
) AuthUsecase {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &authUsecase{
		userRepo: userRepo,
		tokens:   tokens,
		attempts: attempts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		opts:     opts,
	}
}

func (u *authUsecase) CreateAccount(ctx context.Context, req entity.Credentials) (entity.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := u.validateCredentials(req); err != nil {
		return entity.AuthResponse{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), u.opts.BcryptCost)
	if err != nil {
		return entity.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := u.userRepo.Create(ctx, entity.User{
		Username: req.Username,
		Password: string(hashedPassword),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return entity.AuthResponse{}, ErrUsernameTaken
		}
		return entity.AuthResponse{}, err
	}

	return u.issue(user)
}

func (u *authUsecase) Authenticate(ctx context.Context, req entity.Credentials) (entity.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return entity.AuthResponse{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	key := "login:" + req.Username
	if u.lockedOut(key) {
		return entity.AuthResponse{}, ErrTooManyAttempts
	}

	user, err := u.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			u.recordFailure(key)
			return entity.AuthResponse{}, ErrInvalidCredentials
		}
		return entity.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		u.recordFailure(key)
		return entity.AuthResponse{}, ErrInvalidCredentials
	}

	if u.attempts != nil {
		u.attempts.Delete(key)
	}
	return u.issue(user)
}

func (u *authUsecase) ValidateAccessToken(token string) (*entity.TokenClaims, error) {
	return u.tokens.ValidateAccessToken(token)
}

func (u *authUsecase) issue(user entity.User) (entity.AuthResponse, error) {
	accessToken, err := u.tokens.GenerateAccessToken(user)
	if err != nil {
		return entity.AuthResponse{}, fmt.Errorf("sign token: %w", err)
	}
	return entity.AuthResponse{
		Username:    user.Username,
		AccessToken: accessToken,
	}, nil
}

func (u *authUsecase) lockedOut(key string) bool {
	if u.attempts == nil || u.opts.MaxFailures <= 0 {
		return false
	}
	failures, ok := u.attempts.Get(key)
	return ok && failures >= int64(u.opts.MaxFailures)
}

func (u *authUsecase) recordFailure(key string) {
	if u.attempts == nil {
		return
	}
	u.attempts.Increment(key, 1, u.opts.Lockout)
}

func (u *authUsecase) validateCredentials(req entity.Credentials) error {
	err := u.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
}
