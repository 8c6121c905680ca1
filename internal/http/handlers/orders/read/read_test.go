package read

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/storefront/internal/lib/apperr"
	"github.com/magabrotheeeer/storefront/internal/models"
)

// ServiceMock мок сервиса заказов.
type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Get(ctx context.Context, caller models.Identity, id int64) (models.Order, error) {
	args := m.Called(ctx, caller, id)
	return args.Get(0).(models.Order), args.Error(1)
}

func TestReadHandler_ServeHTTP(t *testing.T) {
	owner := models.Identity{ID: 2, Username: "bob", Email: "bob@x.com", Role: models.RoleUser}
	stranger := models.Identity{ID: 3, Username: "eve", Email: "eve@x.com", Role: models.RoleUser}

	tests := []struct {
		name       string
		path       string
		identity   *models.Identity
		setup      func(m *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name:     "owner",
			path:     "/orders/1",
			identity: &owner,
			setup: func(m *ServiceMock) {
				m.On("Get", mock.Anything, owner, int64(1)).
					Return(models.Order{ID: 1, UserID: 2, OrderNumber: "ORD-1-000001"}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"orderNumber":"ORD-1-000001"`,
		},
		{
			name:     "someone else's order",
			path:     "/orders/1",
			identity: &stranger,
			setup: func(m *ServiceMock) {
				m.On("Get", mock.Anything, stranger, int64(1)).
					Return(models.Order{}, apperr.ErrOrderNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `"code":"ORDER_NOT_FOUND"`,
		},
		{
			name:       "anonymous",
			path:       "/orders/1",
			setup:      func(*ServiceMock) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `"code":"NO_TOKEN"`,
		},
		{
			name:       "bad id",
			path:       "/orders/-4",
			identity:   &owner,
			setup:      func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"code":"VALIDATION_ERROR"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setup(svc)

			router := chi.NewRouter()
			router.Method(http.MethodGet, "/orders/{id}",
				New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.identity != nil {
				req = req.WithContext(middlewarectx.WithIdentity(req.Context(), *tt.identity))
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
