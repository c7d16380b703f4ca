package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/collectibles/internal/images"
	"github.com/MarcoPoloResearchLab/collectibles/internal/remote"
	"github.com/MarcoPoloResearchLab/collectibles/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fakeBackend mimics the collection API: numeric ids, newest first.
type fakeBackend struct {
	mu         sync.Mutex
	collection []map[string]any
	nextID     int
	failCreate bool
	gallery    []string
	server     *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	backend := &fakeBackend{nextID: 1, gallery: []string{"one.jpg", "two.jpg", "three.jpg"}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /collection/cs", backend.handleList)
	mux.HandleFunc("POST /collection/cs", backend.handleCreate)
	mux.HandleFunc("DELETE /collection/cs", backend.handleDelete)
	mux.HandleFunc("GET /collection/images", backend.handleImages)
	backend.server = httptest.NewServer(mux)
	t.Cleanup(backend.server.Close)
	return backend
}

func (b *fakeBackend) seed(names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, name := range names {
		b.collection = append(b.collection, map[string]any{"id": b.nextID, "name": name})
		b.nextID++
	}
}

func (b *fakeBackend) handleList(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.collection)
}

func (b *fakeBackend) handleCreate(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failCreate {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "storage offline"})
		return
	}
	var draft map[string]any
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad draft"})
		return
	}
	draft["id"] = b.nextID
	draft["createdAt"] = "2024-01-01T00:00:00Z"
	b.nextID++
	b.collection = append([]map[string]any{draft}, b.collection...)
	writeJSON(w, http.StatusCreated, draft)
}

func (b *fakeBackend) handleDelete(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var request struct {
		ID json.Number `json:"id"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad id"})
		return
	}
	for index, record := range b.collection {
		if jsonNumber(record["id"]) == request.ID.String() {
			b.collection = append(b.collection[:index:index], b.collection[index+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func (b *fakeBackend) handleImages(w http.ResponseWriter, _ *http.Request) {
	gallery := make([]images.Image, 0, len(b.gallery))
	for _, url := range b.gallery {
		gallery = append(gallery, images.Image{URL: url})
	}
	writeJSON(w, http.StatusOK, gallery)
}

func jsonNumber(value any) string {
	encoded, _ := json.Marshal(value)
	return string(encoded)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type testHarness struct {
	backend    *fakeBackend
	store      *store.Store
	dispatcher *RealtimeDispatcher
	handler    http.Handler
}

func newTestHarness(t *testing.T, heartbeat time.Duration) *testHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := newFakeBackend(t)
	httpClient := remote.NewHTTPClient(backend.server.URL, 2*time.Second)
	client, err := remote.NewClient(remote.ClientConfig{HTTPClient: httpClient})
	if err != nil {
		t.Fatalf("failed to construct remote client: %v", err)
	}
	provider, err := images.NewProvider(images.ProviderConfig{HTTPClient: httpClient})
	if err != nil {
		t.Fatalf("failed to construct image provider: %v", err)
	}

	dispatcher := NewRealtimeDispatcher()
	recordStore, err := store.New(store.Config{
		Remote:    client,
		Images:    provider,
		Publisher: StorePublisher(dispatcher),
		PageSize:  5,
	})
	if err != nil {
		t.Fatalf("failed to construct store: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		Store:             recordStore,
		Realtime:          dispatcher,
		Logger:            zap.NewNop(),
		HeartbeatInterval: heartbeat,
	})
	if err != nil {
		t.Fatalf("failed to construct http handler: %v", err)
	}

	return &testHarness{backend: backend, store: recordStore, dispatcher: dispatcher, handler: handler}
}

func (h *testHarness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, path, http.NoBody)
	} else {
		request = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	h.handler.ServeHTTP(recorder, request)
	return recorder
}

type dashboardPayload struct {
	Version uint64 `json:"version"`
	Records []struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
	} `json:"records"`
	Page struct {
		Index      int `json:"index"`
		Size       int `json:"size"`
		TotalPages int `json:"total_pages"`
	} `json:"page"`
	PageLabel string `json:"page_label"`
	Cards     []struct {
		SlideIndex    int    `json:"slide_index"`
		SlidePosition string `json:"slide_position"`
		ImageURL      string `json:"image_url"`
	} `json:"cards"`
	Draft struct {
		Name string `json:"name"`
	} `json:"draft"`
	DraftOpen     bool `json:"draft_open"`
	Notifications []struct {
		ID        string `json:"id"`
		Kind      string `json:"kind"`
		Message   string `json:"message"`
		RecordID  string `json:"record_id"`
		ErrorKind string `json:"error_kind"`
	} `json:"notifications"`
	Operations map[string]struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	} `json:"operations"`
}

func decodeDashboard(t *testing.T, body []byte) dashboardPayload {
	t.Helper()
	var payload dashboardPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("failed to decode dashboard: %v (%s)", err, string(body))
	}
	return payload
}
