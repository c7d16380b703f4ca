// Package images loads the gallery shown in every record card. The gallery is decorative:
// failures are logged and degrade to an empty list instead of reaching the user.
package images

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ListPath is the image list resource relative to the images base URL.
const ListPath = "/collection/images"

var errMissingHTTPClient = errors.New("images: http client is required")

// Image describes one slide of the shared gallery.
type Image struct {
	URL string `json:"url"`
}

// ProviderConfig describes the dependencies of a Provider.
type ProviderConfig struct {
	HTTPClient *resty.Client
	Logger     *zap.Logger
}

// Provider fetches the shared image list.
type Provider struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewProvider builds a Provider around a resty client rooted at the images base URL.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.HTTPClient == nil {
		return nil, errMissingHTTPClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{http: cfg.HTTPClient, logger: logger}, nil
}

// List returns the gallery, or an empty list when it cannot be loaded. Entries without a
// URL are dropped.
func (p *Provider) List(ctx context.Context) []Image {
	response, err := p.http.R().
		SetContext(ctx).
		Get(ListPath)
	if err != nil {
		p.logger.Warn("image list request failed", zap.Error(err))
		return []Image{}
	}
	if !response.IsSuccess() {
		p.logger.Warn("image list request rejected", zap.Int("status", response.StatusCode()))
		return []Image{}
	}

	var payload []Image
	if err := json.Unmarshal(response.Body(), &payload); err != nil {
		p.logger.Warn("image list response unreadable", zap.Error(err))
		return []Image{}
	}

	gallery := make([]Image, 0, len(payload))
	for _, image := range payload {
		url := strings.TrimSpace(image.URL)
		if url == "" {
			continue
		}
		gallery = append(gallery, Image{URL: url})
	}
	p.logger.Debug("image list loaded", zap.Int("count", len(gallery)))
	return gallery
}
