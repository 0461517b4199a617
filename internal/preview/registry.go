// Package preview issues revocable, client-local references to selected videos
// and serves their bytes to the webview.
package preview

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"violence-scanner/internal/domain"
	"violence-scanner/internal/logging"
)

// DefaultPrefix is the route under which previews are served.
const DefaultPrefix = "/preview/"

type entry struct {
	video   domain.Video
	created time.Time
}

// Registry maps preview references to selected videos until revoked.
type Registry struct {
	prefix string
	logger *slog.Logger
	newID  func() string

	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry whose references start with prefix.
func NewRegistry(prefix string, logger *slog.Logger) *Registry {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Registry{
		prefix:  prefix,
		logger:  logging.OrDefault(logger).With("component", "preview"),
		newID:   uuid.NewString,
		entries: make(map[string]entry),
	}
}

// Create registers video and returns its preview reference.
func (r *Registry) Create(video domain.Video) string {
	id := r.newID()

	r.mu.Lock()
	r.entries[id] = entry{video: video, created: time.Now()}
	r.mu.Unlock()

	ref := r.prefix + id
	r.logger.Debug("preview created", "ref", ref, "name", video.Name)
	return ref
}

// Revoke releases a reference. It reports false for unknown or already
// revoked references.
func (r *Registry) Revoke(ref string) bool {
	id, ok := r.idFromRef(ref)
	if !ok {
		return false
	}

	r.mu.Lock()
	_, found := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if found {
		r.logger.Debug("preview revoked", "ref", ref)
	}
	return found
}

// Live returns the number of unrevoked references.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Mount registers the preview route on router.
func (r *Registry) Mount(router chi.Router) {
	router.Get(r.prefix+"{id}", r.serve)
}

// serve streams a live preview, honouring range requests for seeking.
func (r *Registry) serve(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")

	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok || e.video.Source == nil {
		http.NotFound(w, req)
		return
	}

	src, err := e.video.Source.Open()
	if err != nil {
		r.logger.Warn("preview source unavailable", "ref", r.prefix+id, "error", err)
		http.Error(w, "preview unavailable", http.StatusGone)
		return
	}
	defer src.Close()

	if e.video.ContentType != "" {
		w.Header().Set("Content-Type", e.video.ContentType)
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, req, e.video.Name, e.created, src)
}

func (r *Registry) idFromRef(ref string) (string, bool) {
	if !strings.HasPrefix(ref, r.prefix) {
		return "", false
	}
	id := strings.TrimPrefix(ref, r.prefix)
	return id, id != ""
}
