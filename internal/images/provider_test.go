package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newProvider(t *testing.T, baseURL string) (*Provider, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	provider, err := NewProvider(ProviderConfig{
		HTTPClient: resty.New().SetBaseURL(baseURL).SetTimeout(time.Second),
		Logger:     zap.New(core),
	})
	require.NoError(t, err)
	return provider, logs
}

func TestProvider_List(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantURLs []string
		wantWarn bool
	}{
		{
			name: "returns gallery in order",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, ListPath, r.URL.Path)
				_, _ = w.Write([]byte(`[{"url":"https://img/1.jpg"},{"url":" "},{"url":"https://img/2.jpg"}]`))
			},
			wantURLs: []string{"https://img/1.jpg", "https://img/2.jpg"},
		},
		{
			name: "server error degrades to empty list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantURLs: []string{},
			wantWarn: true,
		},
		{
			name: "malformed payload degrades to empty list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"url":"not-a-list"}`))
			},
			wantURLs: []string{},
			wantWarn: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			provider, logs := newProvider(t, server.URL)
			gallery := provider.List(context.Background())

			urls := make([]string, 0, len(gallery))
			for _, image := range gallery {
				urls = append(urls, image.URL)
			}
			assert.Equal(t, tt.wantURLs, urls)
			assert.Equal(t, tt.wantWarn, logs.FilterLevelExact(zap.WarnLevel).Len() > 0)
		})
	}
}

func TestProvider_ListUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	provider, logs := newProvider(t, baseURL)
	assert.Empty(t, provider.List(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("image list request failed").Len())
}

func TestNewProviderRequiresClient(t *testing.T) {
	_, err := NewProvider(ProviderConfig{})
	assert.Error(t, err)
}
