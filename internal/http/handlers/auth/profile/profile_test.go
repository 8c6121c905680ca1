package profile

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// ServiceMock мок сервиса аутентификации.
type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Profile(ctx context.Context, caller models.Identity) (models.PublicUser, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(models.PublicUser), args.Error(1)
}

func TestProfileHandler_ServeHTTP(t *testing.T) {
	bob := models.Identity{ID: 2, Username: "bob", Email: "bob@x.com", Role: models.RoleUser}

	tests := []struct {
		name       string
		identity   *models.Identity
		setup      func(m *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name:     "active user",
			identity: &bob,
			setup: func(m *ServiceMock) {
				m.On("Profile", mock.Anything, bob).
					Return(models.PublicUser{ID: 2, Username: "bob", IsActive: true}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"username":"bob"`,
		},
		{
			name:     "deleted user",
			identity: &bob,
			setup: func(m *ServiceMock) {
				m.On("Profile", mock.Anything, bob).Return(models.PublicUser{}, apperr.ErrUserNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `"code":"USER_NOT_FOUND"`,
		},
		{
			name:     "deactivated user",
			identity: &bob,
			setup: func(m *ServiceMock) {
				m.On("Profile", mock.Anything, bob).Return(models.PublicUser{}, apperr.ErrAccountDeactivated).Once()
			},
			wantStatus: http.StatusForbidden,
			wantBody:   `"code":"ACCOUNT_DEACTIVATED"`,
		},
		{
			name:       "anonymous",
			setup:      func(*ServiceMock) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `"code":"NO_TOKEN"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setup(svc)
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.identity != nil {
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), *tt.identity))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
