// Package remote binds the collection REST API. Every call is a single round trip: no
// retries, caching or request coalescing.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/collectibles/internal/records"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	// CollectionPath is the records resource relative to the API base URL.
	CollectionPath = "/collection/cs"

	opList   = "remote.list"
	opCreate = "remote.create"
	opDelete = "remote.delete"

	maxMessageLength = 200
)

var (
	errMissingBaseURL = errors.New("remote: base url or http client is required")
	noOpLogger        = zap.NewNop()
)

// NewHTTPClient returns a resty client rooted at baseURL that speaks JSON.
func NewHTTPClient(baseURL string, timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	client.SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return client
}

// ClientConfig describes the dependencies of a Client. HTTPClient wins over BaseURL.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *resty.Client
	Logger     *zap.Logger
}

// Client talks to the collection endpoints of the backend.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient validates the configuration and builds a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, errMissingBaseURL
		}
		httpClient = NewHTTPClient(cfg.BaseURL, cfg.Timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Client{http: httpClient, logger: logger}, nil
}

// List fetches the whole collection in server order.
func (c *Client) List(ctx context.Context) ([]records.Record, error) {
	response, err := c.http.R().
		SetContext(ctx).
		Get(CollectionPath)
	if err != nil {
		return nil, c.networkError(opList, err)
	}
	if !response.IsSuccess() {
		return nil, c.statusError(opList, response)
	}

	body := response.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return []records.Record{}, nil
	}
	var collection []records.Record
	if err := json.Unmarshal(body, &collection); err != nil {
		return nil, c.decodeError(opList, response.StatusCode(), err)
	}
	if collection == nil {
		collection = []records.Record{}
	}
	return collection, nil
}

// Create submits a draft and returns the canonical record with its assigned id and createdAt.
func (c *Client) Create(ctx context.Context, draft records.Draft) (records.Record, error) {
	response, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(draft).
		Post(CollectionPath)
	if err != nil {
		return records.Record{}, c.networkError(opCreate, err)
	}
	if !response.IsSuccess() {
		return records.Record{}, c.statusError(opCreate, response)
	}

	var created records.Record
	if err := json.Unmarshal(response.Body(), &created); err != nil {
		return records.Record{}, c.decodeError(opCreate, response.StatusCode(), err)
	}
	return created, nil
}

type deleteRequestPayload struct {
	ID records.RecordID `json:"id"`
}

// DeleteByID removes a record. A 404 answer is reported as ErrNotFound.
func (c *Client) DeleteByID(ctx context.Context, id records.RecordID) error {
	response, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(deleteRequestPayload{ID: id}).
		Delete(CollectionPath)
	if err != nil {
		return c.networkError(opDelete, err)
	}
	if response.StatusCode() == http.StatusNotFound {
		remoteErr := &Error{
			Kind:       KindNotFound,
			Operation:  opDelete,
			StatusCode: response.StatusCode(),
			Message:    fmt.Sprintf("record %s not found", id.String()),
		}
		c.logError(remoteErr, zap.String("record_id", id.String()))
		return remoteErr
	}
	if !response.IsSuccess() {
		return c.statusError(opDelete, response)
	}
	return nil
}

func (c *Client) networkError(operation string, cause error) error {
	remoteErr := &Error{
		Kind:      KindNetwork,
		Operation: operation,
		Message:   cause.Error(),
		err:       cause,
	}
	c.logError(remoteErr)
	return remoteErr
}

func (c *Client) statusError(operation string, response *resty.Response) error {
	remoteErr := &Error{
		Kind:       KindServer,
		Operation:  operation,
		StatusCode: response.StatusCode(),
		Message:    extractMessage(response.StatusCode(), response.Body()),
	}
	c.logError(remoteErr)
	return remoteErr
}

func (c *Client) decodeError(operation string, status int, cause error) error {
	remoteErr := &Error{
		Kind:       KindServer,
		Operation:  operation,
		StatusCode: status,
		Message:    "unreadable response body",
		err:        cause,
	}
	c.logError(remoteErr, zap.Error(cause))
	return remoteErr
}

func (c *Client) logError(remoteErr *Error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", remoteErr.Operation),
		zap.String("reason", string(remoteErr.Kind)),
		zap.Int("status", remoteErr.StatusCode),
		zap.String("message", remoteErr.Message),
	}
	attrs = append(attrs, fields...)
	c.logger.Warn("collection api call failed", attrs...)
}

// extractMessage prefers {"error": "..."} or {"message": "..."} bodies, then plain text,
// then the status text.
func extractMessage(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" {
		var payload struct {
			Error   any    `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			if payload.Message != "" {
				return payload.Message
			}
			switch value := payload.Error.(type) {
			case string:
				if value != "" {
					return value
				}
			case map[string]any:
				if message, ok := value["message"].(string); ok && message != "" {
					return message
				}
			}
		} else {
			if len(trimmed) > maxMessageLength {
				trimmed = trimmed[:maxMessageLength]
			}
			return trimmed
		}
	}
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("request failed with status %d (%s)", status, text)
	}
	return fmt.Sprintf("request failed with status %d", status)
}
