// Package models содержит доменные структуры магазина: пользователей,
// товары, заказы и вспомогательные типы, общие для сервисов и хранилищ.
package models

import (
	"fmt"
	"time"
)

// Role - роль пользователя. Набор значений закрыт.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleUser     Role = "user"
	RoleCustomer Role = "customer"
)

// ParseRole проверяет, что строка является известной ролью.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleUser, RoleCustomer:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// User представляет зарегистрированного пользователя.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"passwordHash"`
	FullName     string     `json:"fullName"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin"`
}

// Public возвращает представление пользователя без хеша пароля.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// PublicUser - пользователь в ответах API.
type PublicUser struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	Role      Role       `json:"role"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin"`
}

// Identity - личность вызывающего, полученная из проверенного токена.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// IsAdmin сообщает, обладает ли вызывающий правами администратора.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// RegisterInput - данные для регистрации.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
}

// LoginInput - учётные данные для входа.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
