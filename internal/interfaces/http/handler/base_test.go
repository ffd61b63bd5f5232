package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/stockledger/internal/domain/ledger"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_HandleDomainError(t *testing.T) {
	h := &BaseHandler{}

	t.Run("not found maps to 404", func(t *testing.T) {
		c, w := newTestContext()
		h.HandleDomainError(c, shared.ErrNotFound)

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("insufficient stock maps to 422 with quantities in message", func(t *testing.T) {
		c, w := newTestContext()
		err := &ledger.InsufficientStockError{
			ProductID:   uuid.New(),
			WarehouseID: uuid.New(),
			Available:   decimal.NewFromInt(3),
			Required:    decimal.NewFromInt(5),
		}
		h.HandleDomainError(c, err)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInsufficientStock, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "3")
		assert.Contains(t, resp.Error.Message, "5")
	})

	t.Run("invalid movement type maps to 400", func(t *testing.T) {
		c, w := newTestContext()
		h.HandleDomainError(c, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type: teleport"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
	})

	t.Run("conversion error maps to 422", func(t *testing.T) {
		c, w := newTestContext()
		h.HandleDomainError(c, shared.NewDomainError("CONVERSION_ERROR", "No unit BOX registered"))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeConversion, resp.Error.Code)
	})

	t.Run("unknown error maps to 500", func(t *testing.T) {
		c, w := newTestContext()
		h.HandleDomainError(c, assert.AnError)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newTestContext()
		h.HandleDomainError(c, nil)

		assert.Empty(t, w.Body.String())
	})
}

func TestBaseHandler_Responses(t *testing.T) {
	h := &BaseHandler{}

	t.Run("Success wraps payload", func(t *testing.T) {
		c, w := newTestContext()
		h.Success(c, gin.H{"on_hand": "12"})

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
	})

	t.Run("Created returns 201", func(t *testing.T) {
		c, w := newTestContext()
		h.Created(c, gin.H{"id": uuid.New().String()})

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("error carries request ID from header", func(t *testing.T) {
		c, w := newTestContext()
		c.Request.Header.Set("X-Request-ID", "req-789")
		h.BadRequest(c, "bad payload")

		resp := decodeResponse(t, w)
		assert.Equal(t, "req-789", resp.Error.RequestID)
	})
}
