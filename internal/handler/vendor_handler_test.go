package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finrecon/internal/domain"
	"finrecon/internal/handler"
	"finrecon/mocks"
)

func newVendorHandler() (*handler.VendorHandler, *mocks.MockResolutionService) {
	mockSvc := new(mocks.MockResolutionService)
	h := handler.NewVendorHandler(mockSvc)
	return h, mockSvc
}

func TestVendorHandler_Groups_Success(t *testing.T) {
	h, mockSvc := newVendorHandler()
	runID := uuid.New()

	groups := []domain.VendorGroup{{
		VendorGSTIN:   "27ABCDE1234F1Z5",
		VendorName:    "Acme Traders",
		Discrepancies: 2,
		AtRiskTax:     decimal.NewFromInt(540),
	}}
	mockSvc.On("VendorGroups", mock.Anything, runID).Return(groups, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	setRunParam(c, runID)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+runID.String()+"/vendors", http.NoBody)

	h.Groups(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestVendorHandler_Groups_NotCompleted(t *testing.T) {
	h, mockSvc := newVendorHandler()
	runID := uuid.New()

	mockSvc.On("VendorGroups", mock.Anything, runID).Return(nil, domain.ErrRunNotCompleted)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	setRunParam(c, runID)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/runs/"+runID.String()+"/vendors", http.NoBody)

	h.Groups(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVendorHandler_Notify_Success(t *testing.T) {
	h, mockSvc := newVendorHandler()
	runID := uuid.New()

	mockSvc.On("NotifyVendor", mock.Anything, runID, "27ABCDE1234F1Z5", "ap@acme.example").Return(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	setRunParam(c, runID)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/runs/"+runID.String()+"/vendors/notify",
		handler.NotifyInput{VendorGSTIN: "27ABCDE1234F1Z5", Email: "ap@acme.example"})

	h.Notify(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestVendorHandler_Notify_InvalidEmail(t *testing.T) {
	h, mockSvc := newVendorHandler()
	runID := uuid.New()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	setRunParam(c, runID)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/runs/"+runID.String()+"/vendors/notify",
		gin.H{"vendor_gstin": "27ABCDE1234F1Z5", "email": "not-an-email"})

	h.Notify(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "NotifyVendor", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVendorHandler_Notify_UnknownVendor(t *testing.T) {
	h, mockSvc := newVendorHandler()
	runID := uuid.New()

	mockSvc.On("NotifyVendor", mock.Anything, runID, "27ABCDE1234F1Z5", "ap@acme.example").
		Return(domain.ErrNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	setRunParam(c, runID)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/runs/"+runID.String()+"/vendors/notify",
		handler.NotifyInput{VendorGSTIN: "27ABCDE1234F1Z5", Email: "ap@acme.example"})

	h.Notify(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
