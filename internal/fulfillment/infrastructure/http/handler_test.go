package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-io/fulfillment-service/internal/fulfillment/application"
	"github.com/stockroom-io/fulfillment-service/internal/fulfillment/domain"
)

func newTestServer(orders map[string]domain.Order) *httptest.Server {
	repo := &stubOrderRepository{orders: orders}
	engine := application.NewEngine(stubProductRepository{}, stubNotifier{})
	processor := application.NewProcessor(repo, engine)
	h := NewHandler(slog.New(slog.DiscardHandler), processor, repo)
	return httptest.NewServer(h.Routes())
}

func TestProcessOrderEndpoint(t *testing.T) {
	srv := newTestServer(map[string]domain.Order{
		"o1": {ID: "o1", Products: []domain.Product{
			{ID: "p1", Name: "USB cable", Type: domain.TypeNormal, Available: 5},
		}},
	})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/orders/o1/process", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProcessOrderEndpointNotFound(t *testing.T) {
	srv := newTestServer(nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/orders/missing/process", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProcessOrderEndpointUnsupportedType(t *testing.T) {
	srv := newTestServer(map[string]domain.Order{
		"o1": {ID: "o1", Products: []domain.Product{
			{ID: "p1", Name: "Mystery box", Type: "DIGITAL"},
		}},
	})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/orders/o1/process", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCreateOrderEndpoint(t *testing.T) {
	repo := &stubOrderRepository{orders: map[string]domain.Order{}}
	engine := application.NewEngine(stubProductRepository{}, stubNotifier{})
	h := NewHandler(slog.New(slog.DiscardHandler), application.NewProcessor(repo, engine), repo)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	body := strings.NewReader(`{"id":"o9","products":["p1","p2"]}`)
	resp, err := http.Post(srv.URL+"/orders", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "o9", repo.saved[0].ID)
	assert.Len(t, repo.saved[0].Products, 2)
}

type stubOrderRepository struct {
	orders map[string]domain.Order
	saved  []domain.Order
}

func (s *stubOrderRepository) FindOrderWithProducts(_ context.Context, orderID string) (domain.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, domain.ErrOrderNotFound)
	}
	return o, nil
}

func (s *stubOrderRepository) Save(_ context.Context, o domain.Order) error {
	s.saved = append(s.saved, o)
	return nil
}

type stubProductRepository struct{}

func (stubProductRepository) Update(context.Context, domain.Product) error         { return nil }
func (stubProductRepository) DecrementStock(context.Context, domain.Product) error { return nil }
func (stubProductRepository) SetOutOfStock(context.Context, domain.Product) error  { return nil }

type stubNotifier struct{}

func (stubNotifier) SendDelayNotification(context.Context, int, string)            {}
func (stubNotifier) SendOutOfStockNotification(context.Context, string)            {}
func (stubNotifier) SendExpirationNotification(context.Context, string, time.Time) {}
