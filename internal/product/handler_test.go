package product

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ListResult), args.Error(1)
}

func (m *MockService) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockService) Create(ctx context.Context, input CreateInput) (*Product, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, id string, input UpdateInput) (*Product, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockService) ListAll(ctx context.Context) ([]Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Product), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestHandler_GetBySlug(t *testing.T) {
	svc := new(MockService)
	svc.On("GetBySlug", mock.Anything, "ghost").Return(nil, ErrProductNotFound)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/products/ghost", nil), map[string]string{"slug": "ghost"})
	w := httptest.NewRecorder()
	NewHandler(svc).GetBySlug(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_List(t *testing.T) {
	svc := new(MockService)
	svc.On("List", mock.Anything, ListOptions{Search: "mug", Limit: 5, Page: 2}).
		Return(&ListResult{Items: []Product{{ID: "p1"}}, Total: 6, Page: 2, Limit: 5}, nil)

	w := httptest.NewRecorder()
	NewHandler(svc).List(w, httptest.NewRequest(http.MethodGet, "/api/products?q=mug&limit=5&page=2", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":6`)
}

func TestHandler_Create(t *testing.T) {
	t.Run("Validation", func(t *testing.T) {
		svc := new(MockService)
		w := httptest.NewRecorder()
		NewHandler(svc).Create(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"M","price":"1","stock":-1}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create")
	})

	t.Run("SlugTaken", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Create", mock.Anything, mock.Anything).Return(nil, ErrSlugTaken)

		w := httptest.NewRecorder()
		NewHandler(svc).Create(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Mug","price":"12.5","stock":1}`)))

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHandler_Delete(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"Success", nil, http.StatusOK},
		{"NotFound", ErrProductNotFound, http.StatusNotFound},
		{"InUse", ErrProductInUse, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Delete", mock.Anything, "p1").Return(tt.err)

			req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/api/admin/products/p1", nil), map[string]string{"id": "p1"})
			w := httptest.NewRecorder()
			NewHandler(svc).Delete(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.err == nil {
				assert.JSONEq(t, `{"ok":true,"id":"p1"}`, w.Body.String())
			}
		})
	}
}
