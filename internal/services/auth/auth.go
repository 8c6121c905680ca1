// Package auth содержит логику регистрации, входа и проверки токенов доступа.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/storefront/internal/lib/password"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/models"
	"github.com/magabrotheeeer/storefront/internal/storage"
)

const bearerPrefix = "Bearer "

// UserRepository описывает контракт для работы с пользователями в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) error
}

// Service отвечает за регистрацию, вход и проверку JWT.
type Service struct {
	users    UserRepository
	hasher   *password.Hasher
	jwtMaker jwt.Maker
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

// NewService создаёт новый экземпляр Service.
func NewService(users UserRepository, hasher *password.Hasher, jwtMaker jwt.Maker,
	validate *validator.Validate, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		jwtMaker: jwtMaker,
		validate: validate,
		log:      log,
		now:      time.Now,
	}
}

// Registered - результат регистрации.
type Registered struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// LoginResult - выданный токен и данные пользователя.
type LoginResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// Register создаёт пользователя с ролью по умолчанию "user".
// Занятое имя или email (без учёта регистра) даёт ErrUserExists.
func (s *Service) Register(ctx context.Context, in models.RegisterInput) (Registered, error) {
	const op = "services.auth.Register"

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := s.validate.Struct(in); err != nil {
		return Registered{}, apperr.FromValidator(err)
	}

	user, err := s.createUser(ctx, in, models.RoleUser)
	if err != nil {
		return Registered{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.Int64("user_id", user.ID), slog.String("username", user.Username))
	return Registered{UserID: user.ID, Username: user.Username}, nil
}

func (s *Service) createUser(ctx context.Context, in models.RegisterInput, role models.Role) (models.User, error) {
	if err := s.ensureFree(ctx, in.Username, in.Email); err != nil {
		return models.User{}, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.CreateUser(ctx, models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashed,
		FullName:     in.FullName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return models.User{}, apperr.ErrUserExists
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ensureFree проверяет, что имя и email ещё не заняты.
func (s *Service) ensureFree(ctx context.Context, username, email string) error {
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return apperr.ErrUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return apperr.ErrUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

// Login проверяет пароль и выдаёт токен. Неизвестный email и неверный
// пароль неразличимы для клиента.
func (s *Service) Login(ctx context.Context, in models.LoginInput) (LoginResult, error) {
	const op = "services.auth.Login"

	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return LoginResult{}, apperr.FromValidator(err)
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return LoginResult{}, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.hasher.Compare(user.PasswordHash, in.Password); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.log.Error("stored password hash is unusable", slog.Int64("user_id", user.ID), sl.Err(err))
		}
		return LoginResult{}, apperr.ErrInvalidCredentials
	}
	if !user.IsActive {
		return LoginResult{}, apperr.ErrAccountDeactivated
	}

	token, err := s.jwtMaker.GenerateToken(models.Identity{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	user.LastLogin = &now
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return LoginResult{Token: token, User: user.Public()}, nil
}

// Verify разбирает заголовок Authorization и возвращает личность вызывающего.
func (s *Service) Verify(authHeader string) (models.Identity, error) {
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return models.Identity{}, apperr.ErrNoToken
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	if tokenStr == "" {
		return models.Identity{}, apperr.ErrNoToken
	}

	claims, err := s.jwtMaker.ParseToken(tokenStr)
	if err != nil {
		return models.Identity{}, err
	}
	return claims.Identity()
}

// Profile возвращает учётную запись вызывающего.
// Удалённый пользователь даёт ErrUserNotFound, отключённый ErrAccountDeactivated.
func (s *Service) Profile(ctx context.Context, caller models.Identity) (models.PublicUser, error) {
	const op = "services.auth.Profile"

	user, err := s.users.GetUserByID(ctx, caller.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.PublicUser{}, apperr.ErrUserNotFound
	}
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		return models.PublicUser{}, apperr.ErrAccountDeactivated
	}
	return user.Public(), nil
}

// AuthorizeAdmin проверяет, что вызывающий является администратором.
// Неизвестная роль означает отказ без уточнения причины.
func AuthorizeAdmin(identity models.Identity) error {
	if _, err := models.ParseRole(string(identity.Role)); err != nil {
		return apperr.ErrForbidden
	}
	if !identity.IsAdmin() {
		return apperr.ErrAdminRequired
	}
	return nil
}

// EnsureAdmin создаёт учётную запись администратора, если пользователя
// с таким email ещё нет. Возвращает true, если запись была создана.
func (s *Service) EnsureAdmin(ctx context.Context, in models.RegisterInput) (bool, error) {
	const op = "services.auth.EnsureAdmin"

	if err := s.validate.Struct(in); err != nil {
		return false, fmt.Errorf("%s: %w", op, apperr.FromValidator(err))
	}
	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return false, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.createUser(ctx, in, models.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("admin account created", slog.Int64("user_id", user.ID), slog.String("email", user.Email))
	return true, nil
}
