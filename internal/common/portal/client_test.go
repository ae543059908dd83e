package portal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"franchise-portal/internal/common/config"
	"franchise-portal/internal/common/errors"
	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewClient(config.PortalConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 2000,
		Endpoints: config.EndpointsConfig{
			CustomerApplication: "/api/customer-application/%s",
			Application:         "/api/application/%s",
			CustomerEvents:      "/api/customer-events/%s",
			BankDetails:         "/api/bank-details",
			PaymentNotification: "/api/customer-payment-notification",
		},
	}, logger.NewNoOpLogger())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestGetCustomerApplication(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/customer-application/C123", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"application": map[string]interface{}{
				"applicationId":    "A-1",
				"name":             "Asha",
				"status":           "Pending",
				"investmentAmount": 500000,
			},
		})
	}))

	rec, err := c.GetCustomerApplication(context.Background(), "C123")
	require.NoError(t, err)
	assert.Equal(t, "A-1", rec.ApplicationID)
	assert.Equal(t, models.StatusPending, rec.ApplicationStatus())
}

func TestGetCustomerApplication_NumericFields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"application":{"applicationId":7,"phone":9876543210,"pincode":560001,"businessExperience":5,"status":"Pending"}}`)
	}))

	rec, err := c.GetCustomerApplication(context.Background(), "C123")
	require.NoError(t, err)
	assert.Equal(t, "7", rec.ApplicationID)
	assert.Equal(t, "9876543210", rec.Phone)
	assert.Equal(t, "560001", rec.Pincode)
	assert.Equal(t, "5", rec.BusinessExperience)
}

func TestGetCustomerApplication_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    errors.ErrorCode
		message string
	}{
		{"backend message", http.StatusBadRequest, `{"message":"Customer has no application"}`, errors.ErrCodeApplicationNotFound, "Customer has no application"},
		{"plain 404", http.StatusNotFound, `not here`, errors.ErrCodeApplicationNotFound, "Application not found"},
		{"server error", http.StatusInternalServerError, ``, errors.ErrCodeApplicationFetchFailed, "Failed to load application"},
		{"envelope without application", http.StatusOK, `{"ok":true}`, errors.ErrCodeApplicationDecodeFailed, ""},
		{"garbage", http.StatusOK, `<html>`, errors.ErrCodeApplicationDecodeFailed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			rec, err := c.GetCustomerApplication(context.Background(), "C1")
			assert.Nil(t, rec)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), err.Error())
			if tt.message != "" {
				se, _ := errors.AsStandard(err)
				assert.Equal(t, tt.message, se.Message)
			}
		})
	}
}

func TestGetCustomerApplication_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(config.PortalConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 500,
		Endpoints:      config.EndpointsConfig{CustomerApplication: "/api/customer-application/%s"},
	}, logger.NewNoOpLogger())

	_, err := c.GetCustomerApplication(context.Background(), "C1")
	assert.True(t, errors.IsCode(err, errors.ErrCodeApplicationFetchFailed))
}

func TestGetApplication(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/application/APP001", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"application": map[string]interface{}{"applicationId": "APP001", "status": "Approved"},
		})
	}))

	rec, err := c.GetApplication(context.Background(), "APP001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, rec.ApplicationStatus())

	_, err = c.GetApplication(context.Background(), "")
	se, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, "No application ID found", se.Message)
}

func TestGetBankDetails(t *testing.T) {
	t.Run("with qr", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"bankDetails": map[string]interface{}{"qrCodePath": "/uploads/qr.png"},
			})
		}))
		bd, err := c.GetBankDetails(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "/uploads/qr.png", bd.QRCodePath)
	})

	t.Run("without bank details", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{})
		}))
		bd, err := c.GetBankDetails(context.Background())
		require.NoError(t, err)
		assert.Empty(t, bd.QRCodePath)
	})

	t.Run("failure", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		_, err := c.GetBankDetails(context.Background())
		assert.True(t, errors.IsCode(err, errors.ErrCodeBankDetailsFailed))
	})
}

func TestNotifyPayment(t *testing.T) {
	var got models.PaymentNotificationRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/customer-payment-notification", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]interface{}{})
	}))

	err := c.NotifyPayment(context.Background(), models.PaymentNotificationRequest{
		CustomerID: "C123", PaymentStage: "booking", PaymentMethod: "qr",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentNotificationRequest{CustomerID: "C123", PaymentStage: "booking", PaymentMethod: "qr"}, got)
}

func TestNotifyPayment_Failures(t *testing.T) {
	t.Run("backend message", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "Payment already recorded"})
		}))
		err := c.NotifyPayment(context.Background(), models.PaymentNotificationRequest{CustomerID: "C1"})
		se, ok := errors.AsStandard(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodePaymentNotificationFailed, se.Code)
		assert.Equal(t, "Payment already recorded", se.Message)
	})

	t.Run("no message", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		err := c.NotifyPayment(context.Background(), models.PaymentNotificationRequest{CustomerID: "C1"})
		se, _ := errors.AsStandard(err)
		require.NotNil(t, se)
		assert.Equal(t, "Failed to send payment notification", se.Message)
	})
}

func TestOpenEventStream(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/customer-events/C123" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Last-Event-ID"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"type\":\"appointment\",\"message\":\"hi\"}\n\n")
	}))

	body, err := c.OpenEventStream(context.Background(), "C123", "")
	require.NoError(t, err)
	defer body.Close()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"appointment"`)

	_, err = c.OpenEventStream(context.Background(), "other", "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeStreamTransportFailed))
}

func TestOpenEventStream_SendsLastEventID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.Header.Get("Last-Event-ID"))
		w.Header().Set("Content-Type", "text/event-stream")
	}))

	body, err := c.OpenEventStream(context.Background(), "C123", "42")
	require.NoError(t, err)
	body.Close()
}
