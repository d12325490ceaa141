package sandbox

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DocumentPath is the route prefix under which transient documents are
// served.
const DocumentPath = "/sandbox/doc/"

// Attribute is the iframe sandbox attribute for preview surfaces: scripts
// may run, everything else (same-origin access, top navigation, forms,
// popups) is denied.
const Attribute = "allow-scripts"

// Store holds transient preview documents addressed by random ids. A
// document lives until it is revoked.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// Put stores doc and returns its id.
func (s *Store) Put(doc string) string {
	id := uuid.New().String()
	s.mu.Lock()
	s.docs[id] = []byte(doc)
	s.mu.Unlock()
	return id
}

// Get returns the document stored under id.
func (s *Store) Get(id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

// Revoke removes the document stored under id. Unknown ids are ignored.
func (s *Store) Revoke(id string) {
	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()
}

// Len returns the number of live documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// URL returns the path a surface navigates to in order to show id.
func URL(id string) string {
	return DocumentPath + id
}

// RegisterRoutes mounts the transient document endpoint.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get(DocumentPath+"{id}", func(w http.ResponseWriter, r *http.Request) {
		doc, ok := store.Get(chi.URLParam(r, "id"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		WriteDocument(w, doc)
	})
}

// WriteDocument serves a generated document with headers that keep it in
// an opaque origin even when it is opened outside its iframe.
func WriteDocument(w http.ResponseWriter, doc []byte) {
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Security-Policy", "sandbox "+Attribute)
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Cache-Control", "no-store")
	h.Set("Referrer-Policy", "no-referrer")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}
