package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/positionkeeping/internal/position/application"
	"github.com/wyfcoding/positionkeeping/internal/position/domain"
)

type stubRepo struct {
	positions []*domain.Position
}

func (r *stubRepo) Find(ctx context.Context, accountID, instrumentID int64, asOfDate time.Time) (*domain.Position, error) {
	return nil, domain.ErrNotFound
}

func (r *stubRepo) Save(ctx context.Context, position *domain.Position) error {
	return nil
}

func (r *stubRepo) FindByAccount(ctx context.Context, accountCode string, asOfDate time.Time) ([]*domain.Position, error) {
	var out []*domain.Position
	for _, p := range r.positions {
		if p.AccountCode == accountCode && p.AsOfDate.Equal(asOfDate) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubRepo) FindByID(ctx context.Context, positionID uint64) (*domain.Position, error) {
	for _, p := range r.positions {
		if p.ID == positionID {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubRepo) TotalMarketValue(ctx context.Context, accountCode string, asOfDate time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func newTestRouter(repo *stubRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewPositionHandler(application.NewPositionQueryService(repo))
	handler.RegisterRoutes(r.Group(""))
	return r
}

func testPosition() *domain.Position {
	return &domain.Position{
		ID:           1,
		AccountID:    7,
		AccountCode:  "ACC-007",
		InstrumentID: 42,
		Symbol:       "AAPL",
		Quantity:     decimal.NewFromInt(20),
		AvgCost:      decimal.NewFromInt(150),
		CostBasis:    decimal.NewFromInt(3000),
		RealizedPnL:  decimal.NewFromInt(200),
		Currency:     "USD",
		AsOfDate:     time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Version:      3,
		UpdatedAt:    time.Now(),
	}
}

func TestGetPosition(t *testing.T) {
	router := newTestRouter(&stubRepo{positions: []*domain.Position{testPosition()}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions/1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var dto application.PositionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	assert.Equal(t, uint64(1), dto.PositionID)
	assert.Equal(t, "AAPL", dto.Symbol)
	assert.Equal(t, "20", dto.Quantity)
	assert.Equal(t, "150", dto.AvgCost)
	assert.Equal(t, "2026-08-31", dto.AsOfDate)
}

func TestGetPosition_NotFoundHasEmptyBody(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions/99", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestGetPositionsByAccount_EmptyListNotError(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions/account/ACC-404?asOfDate=2026-08-31", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestGetPositionsByAccount(t *testing.T) {
	router := newTestRouter(&stubRepo{positions: []*domain.Position{testPosition()}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions/account/ACC-007?asOfDate=2026-08-31", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var dtos []application.PositionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dtos))
	require.Len(t, dtos, 1)
	assert.Equal(t, "ACC-007", dtos[0].AccountCode)
}

func TestGetAccountSummary(t *testing.T) {
	p2 := testPosition()
	p2.ID = 2
	p2.Symbol = "MSFT"
	p2.CostBasis = decimal.NewFromInt(1000)
	p2.RealizedPnL = decimal.NewFromInt(-50)

	router := newTestRouter(&stubRepo{positions: []*domain.Position{testPosition(), p2}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions/account/ACC-007/summary?asOfDate=2026-08-31", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary application.AccountSummaryDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.PositionCount)
	assert.Equal(t, "4000", summary.TotalCostBasis)
	assert.Equal(t, "150", summary.TotalRealizedPnL)
}

func TestGetPositionsByAccount_BadDate(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions/account/ACC-007?asOfDate=31-08-2026", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
