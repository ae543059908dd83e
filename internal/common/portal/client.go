// Package portal is the REST and push-channel client for the franchise portal
// backend endpoints the customer dashboard consumes.
package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"franchise-portal/internal/common/config"
	"franchise-portal/internal/common/errors"
	httpclient "franchise-portal/internal/common/http"
	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/common/validation"
	"franchise-portal/internal/models"

	"github.com/go-resty/resty/v2"
)

const (
	msgPaymentRejected = "Failed to send payment notification"
	msgPaymentNetwork  = "An error occurred. Please try again."
)

var applicationSchema = validation.MustCompile("application", validation.ApplicationEnvelopeSchema)

type Client struct {
	rest      *resty.Client
	stream    *resty.Client
	endpoints config.EndpointsConfig
	logger    logger.Logger
}

func NewClient(cfg config.PortalConfig, log logger.Logger) *Client {
	hc := httpclient.NewClient(config.GetDuration(cfg.RequestTimeout))
	base := strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		rest: resty.NewWithClient(hc.Standard()).
			SetBaseURL(base).
			SetHeader("Accept", "application/json"),
		stream: resty.NewWithClient(hc.Streaming()).
			SetBaseURL(base),
		endpoints: cfg.Endpoints,
		logger:    log.WithFields(map[string]interface{}{"component": "portal-client"}),
	}
}

func withID(template, id string) string {
	return fmt.Sprintf(template, url.PathEscape(id))
}

// GetCustomerApplication loads the application owned by a customer.
func (c *Client) GetCustomerApplication(ctx context.Context, customerID string) (*models.ApplicationRecord, error) {
	return c.getApplication(ctx, withID(c.endpoints.CustomerApplication, customerID), customerID)
}

// GetApplication loads one application by its id.
func (c *Client) GetApplication(ctx context.Context, applicationID string) (*models.ApplicationRecord, error) {
	if applicationID == "" {
		return nil, errors.NewApplicationNotFoundError("", "No application ID found")
	}
	return c.getApplication(ctx, withID(c.endpoints.Application, applicationID), applicationID)
}

func (c *Client) getApplication(ctx context.Context, path, id string) (*models.ApplicationRecord, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return nil, errors.NewApplicationFetchFailedError(id, err)
	}

	if resp.IsError() {
		msg := errorMessage(resp.Body())
		if msg != "" || resp.StatusCode() == http.StatusNotFound {
			return nil, errors.NewApplicationNotFoundError(id, msg)
		}
		return nil, errors.NewApplicationFetchFailedError(id, fmt.Errorf("status %d", resp.StatusCode()))
	}

	if err := applicationSchema.Validate(resp.Body()).Err(); err != nil {
		return nil, errors.NewApplicationDecodeFailedError(err)
	}
	var env models.ApplicationEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, errors.NewApplicationDecodeFailedError(err)
	}
	return env.Application, nil
}

// GetBankDetails loads the payee details shown in the payment window.
func (c *Client) GetBankDetails(ctx context.Context) (*models.BankDetails, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		Get(c.endpoints.BankDetails)
	if err != nil {
		return nil, errors.NewBankDetailsFailedError(err)
	}
	if resp.IsError() {
		return nil, errors.NewBankDetailsFailedError(fmt.Errorf("status %d", resp.StatusCode()))
	}

	var env models.BankDetailsEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, errors.NewBankDetailsFailedError(err)
	}
	if env.BankDetails == nil {
		return &models.BankDetails{}, nil
	}
	return env.BankDetails, nil
}

// NotifyPayment reports a customer's payment claim. The returned error's
// message is the text to show the customer.
func (c *Client) NotifyPayment(ctx context.Context, req models.PaymentNotificationRequest) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.endpoints.PaymentNotification)
	if err != nil {
		return errors.NewPaymentNotificationFailedError(msgPaymentNetwork, err)
	}
	if resp.IsError() {
		msg := errorMessage(resp.Body())
		if msg == "" {
			msg = msgPaymentRejected
		}
		return errors.NewPaymentNotificationFailedError(msg, fmt.Errorf("status %d", resp.StatusCode()))
	}
	return nil
}

// OpenEventStream starts the server-sent event channel for a customer,
// resuming after lastEventID when it is set. The caller owns the returned
// body; cancelling ctx also ends it.
func (c *Client) OpenEventStream(ctx context.Context, customerID, lastEventID string) (io.ReadCloser, error) {
	req := c.stream.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Cache-Control", "no-cache")
	if lastEventID != "" {
		req.SetHeader("Last-Event-ID", lastEventID)
	}
	resp, err := req.Get(withID(c.endpoints.CustomerEvents, customerID))
	if err != nil {
		return nil, errors.NewStreamTransportFailedError(customerID, err)
	}

	body := resp.RawBody()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		if body != nil {
			body.Close()
		}
		return nil, errors.NewStreamTransportFailedError(customerID, fmt.Errorf("status %d", resp.StatusCode()))
	}
	if body == nil {
		return nil, errors.NewStreamTransportFailedError(customerID, fmt.Errorf("empty stream body"))
	}

	c.logger.Debug("event stream opened", map[string]interface{}{"customerId": customerID})
	return body, nil
}

func errorMessage(body []byte) string {
	var eb models.ErrorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return eb.Message
}
