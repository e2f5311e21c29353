package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brandonvio/brightthread/internal/model"
)

// MockChangeService is a mock implementation of ChangeService.
type MockChangeService struct {
	mock.Mock
}

func (m *MockChangeService) Evaluate(ctx context.Context, orderID uuid.UUID, req *model.ChangeRequest) (*model.PolicyDecision, error) {
	args := m.Called(ctx, orderID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PolicyDecision), args.Error(1)
}

func (m *MockChangeService) Execute(ctx context.Context, orderID uuid.UUID, req *model.ChangeRequest, decision model.PolicyDecision, idempotencyKey string) (*model.ExecutionResult, error) {
	args := m.Called(ctx, orderID, req, decision, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExecutionResult), args.Error(1)
}

func newChangeRouter(svc *MockChangeService) http.Handler {
	h := NewChangeHandler(svc, zerolog.Nop())
	r := chi.NewRouter()
	r.Post("/api/orders/{id}/changes/evaluate", h.Evaluate)
	r.Post("/api/orders/{id}/changes/execute", h.Execute)
	return r
}

func TestChangeHandler_Evaluate(t *testing.T) {
	orderID := uuid.New()
	decision := &model.PolicyDecision{
		ApprovalStatus:     model.AllowedWithCostDelay,
		CostAdjustment:     decimal.NewFromInt(150),
		EstimatedDelayDays: 2,
		ResultingStatus:    model.StatusApproved,
	}

	mockService := new(MockChangeService)
	mockService.On("Evaluate", mock.Anything, orderID, mock.AnythingOfType("*model.ChangeRequest")).
		Return(decision, nil)

	body, _ := json.Marshal(model.ChangeRequest{Type: model.ChangeArtwork})
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/orders/%s/changes/evaluate", orderID), bytes.NewReader(body))
	rec := httptest.NewRecorder()

	newChangeRouter(mockService).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got model.PolicyDecision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.AllowedWithCostDelay, got.ApprovalStatus)
	assert.Equal(t, 2, got.EstimatedDelayDays)
	mockService.AssertExpectations(t)
}

func TestChangeHandler_Evaluate_InvalidOrderID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/orders/not-a-uuid/changes/evaluate", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	newChangeRouter(new(MockChangeService)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeHandler_Evaluate_OrderNotFound(t *testing.T) {
	orderID := uuid.New()

	mockService := new(MockChangeService)
	mockService.On("Evaluate", mock.Anything, orderID, mock.AnythingOfType("*model.ChangeRequest")).
		Return(nil, fmt.Errorf("%w: %s", model.ErrOrderNotFound, orderID))

	body, _ := json.Marshal(model.ChangeRequest{Type: model.ChangeCancel})
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/orders/%s/changes/evaluate", orderID), bytes.NewReader(body))
	rec := httptest.NewRecorder()

	newChangeRouter(mockService).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrCodeOrderNotFound, resp.Code)
}

func TestChangeHandler_Execute(t *testing.T) {
	orderID := uuid.New()
	result := &model.ExecutionResult{
		ChangeID: uuid.New(),
		Order:    model.Order{ID: orderID, Status: model.StatusCancelled},
	}

	mockService := new(MockChangeService)
	mockService.On("Execute", mock.Anything, orderID,
		mock.AnythingOfType("*model.ChangeRequest"),
		mock.AnythingOfType("model.PolicyDecision"),
		"retry-key-1").
		Return(result, nil)

	body, _ := json.Marshal(map[string]any{
		"request":  model.ChangeRequest{Type: model.ChangeCancel},
		"decision": model.PolicyDecision{ApprovalStatus: model.AllowedWithCost, ResultingStatus: model.StatusCancelled},
	})
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/orders/%s/changes/execute", orderID), bytes.NewReader(body))
	req.Header.Set("Idempotency-Key", "retry-key-1")
	rec := httptest.NewRecorder()

	newChangeRouter(mockService).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got model.ExecutionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, result.ChangeID, got.ChangeID)
	assert.Equal(t, model.StatusCancelled, got.Order.Status)
	mockService.AssertExpectations(t)
}

func TestChangeHandler_Execute_MissingIdempotencyKey(t *testing.T) {
	orderID := uuid.New()

	body, _ := json.Marshal(map[string]any{
		"request": model.ChangeRequest{Type: model.ChangeCancel},
	})
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/orders/%s/changes/execute", orderID), bytes.NewReader(body))
	rec := httptest.NewRecorder()

	newChangeRouter(new(MockChangeService)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeHandler_Execute_StaleDecision(t *testing.T) {
	orderID := uuid.New()

	mockService := new(MockChangeService)
	mockService.On("Execute", mock.Anything, orderID,
		mock.AnythingOfType("*model.ChangeRequest"),
		mock.AnythingOfType("model.PolicyDecision"),
		"retry-key-2").
		Return(nil, fmt.Errorf("%w: re-evaluate the change and confirm again", model.ErrStaleDecision))

	body, _ := json.Marshal(map[string]any{
		"request":  model.ChangeRequest{Type: model.ChangeCancel},
		"decision": model.PolicyDecision{ApprovalStatus: model.Allowed},
	})
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/orders/%s/changes/execute", orderID), bytes.NewReader(body))
	req.Header.Set("Idempotency-Key", "retry-key-2")
	rec := httptest.NewRecorder()

	newChangeRouter(mockService).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrCodeStaleDecision, resp.Code)
}
