package postgresql

import (
	"context"
	"database/sql"

	"github.com/magabrotheeeer/storefront/internal/models"
)

const userColumns = `id, username, email, password_hash, full_name, role, is_active, created_at, last_login`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var role string
	var lastLogin sql.NullTime
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName,
		&role, &u.IsActive, &u.CreatedAt, &lastLogin); err != nil {
		return models.User{}, err
	}
	u.Role = models.Role(role)
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его с присвоенным ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.postgresql.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return models.User{}, err
	}

	query := `INSERT INTO users (username, email, password_hash, full_name, role, is_active, created_at, last_login)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`
	err := s.DB.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FullName, string(user.Role),
		user.IsActive, user.CreatedAt, user.LastLogin).Scan(&user.ID)
	if err != nil {
		return models.User{}, wrap(op, err)
	}
	return user, nil
}

// GetUserByID возвращает пользователя по ID.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	const op = "storage.postgresql.GetUserByID"
	return s.getUser(ctx, op, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgresql.GetUserByEmail"
	return s.getUser(ctx, op, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

// GetUserByUsername возвращает пользователя по имени без учёта регистра.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	const op = "storage.postgresql.GetUserByUsername"
	return s.getUser(ctx, op, `SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username)
}

func (s *Storage) getUser(ctx context.Context, op, query string, arg any) (models.User, error) {
	if err := checkCtx(ctx, op); err != nil {
		return models.User{}, err
	}
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		return models.User{}, wrap(op, err)
	}
	return u, nil
}

// UpdateUser обновляет пользователя.
func (s *Storage) UpdateUser(ctx context.Context, user models.User) error {
	const op = "storage.postgresql.UpdateUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE users
			  SET username = $1, email = $2, password_hash = $3, full_name = $4,
			      role = $5, is_active = $6, last_login = $7
			  WHERE id = $8`
	res, err := s.DB.ExecContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.FullName,
		string(user.Role), user.IsActive, user.LastLogin, user.ID)
	if err != nil {
		return wrap(op, err)
	}
	return expectOne(op, res)
}
