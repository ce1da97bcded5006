package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/totegamma/tentd"
	"github.com/totegamma/tentd/client"
	"github.com/totegamma/tentd/internal/domain"
)

// --- remote tent server ---

type remoteEntity struct {
	srv *httptest.Server

	heads       atomic.Int32
	profileGets atomic.Int32
	probes      atomic.Int32
	deliveries  atomic.Int32

	noLink      bool
	noCore      bool
	canonical   string
	probeStatus int
}

func newRemoteEntity(t *testing.T, opts ...func(*remoteEntity)) *remoteEntity {
	t.Helper()
	r := &remoteEntity{probeStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		switch {
		case req.URL.Path == "/" && req.Method == http.MethodHead:
			r.heads.Add(1)
			if !r.noLink {
				w.Header().Set("Link", tent.ComposeLink(r.srv.URL+"/profile"))
			}
			w.WriteHeader(http.StatusOK)
		case req.URL.Path == "/profile" && req.Method == http.MethodGet:
			r.profileGets.Add(1)
			doc := map[string]any{
				"https://tent.io/types/info/basic/v0.1.0": map[string]any{"name": "remote"},
			}
			if !r.noCore {
				doc[tent.CoreProfileSchema] = map[string]any{"entity": r.canonicalURL()}
			}
			_ = json.NewEncoder(w).Encode(doc)
		case req.URL.Path == "/notify" && req.Method == http.MethodGet:
			r.probes.Add(1)
			w.WriteHeader(r.probeStatus)
		case req.URL.Path == "/notify" && req.Method == http.MethodPost:
			r.deliveries.Add(1)
			_, _ = io.Copy(io.Discard, req.Body)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	r.srv = httptest.NewUnstartedServer(mux)
	for _, opt := range opts {
		opt(r)
	}
	r.srv.Start()
	t.Cleanup(r.srv.Close)
	return r
}

func (r *remoteEntity) canonicalURL() string {
	if r.canonical != "" {
		return r.canonical
	}
	return r.srv.URL
}

func (r *remoteEntity) URL() string {
	return r.srv.URL
}

func newTestClient() *client.Client {
	return client.New(2 * time.Second)
}

// --- in-memory repositories ---

type mockFollowerRepo struct {
	mu        sync.Mutex
	followers map[string]domain.Follower
	listErr   error
}

func newMockFollowerRepo() *mockFollowerRepo {
	return &mockFollowerRepo{followers: map[string]domain.Follower{}}
}

func (m *mockFollowerRepo) Create(ctx context.Context, f domain.Follower) (domain.Follower, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.followers[f.ID] = f
	return f, nil
}

func (m *mockFollowerRepo) Get(ctx context.Context, entityID, id string) (domain.Follower, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.followers[id]
	if !ok || f.EntityID != entityID {
		return domain.Follower{}, domain.NotFoundError{Resource: "follower"}
	}
	return f, nil
}

func (m *mockFollowerRepo) Update(ctx context.Context, f domain.Follower) (domain.Follower, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.followers[f.ID]; !ok {
		return domain.Follower{}, domain.NotFoundError{Resource: "follower"}
	}
	m.followers[f.ID] = f
	return f, nil
}

func (m *mockFollowerRepo) Delete(ctx context.Context, entityID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.followers[id]
	if !ok || f.EntityID != entityID {
		return domain.NotFoundError{Resource: "follower"}
	}
	delete(m.followers, id)
	return nil
}

func (m *mockFollowerRepo) ListByEntity(ctx context.Context, entityID string) ([]domain.Follower, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Follower
	for _, f := range m.followers {
		if f.EntityID == entityID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockFollowerRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.followers)
}

type mockPostRepo struct {
	mu    sync.Mutex
	posts map[string]domain.Post
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{posts: map[string]domain.Post{}}
}

func (m *mockPostRepo) Create(ctx context.Context, p domain.Post) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[p.ID] = p
	return p, nil
}

func (m *mockPostRepo) Get(ctx context.Context, entityID, id string) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.EntityID != entityID {
		return domain.Post{}, domain.NotFoundError{Resource: "post"}
	}
	return p, nil
}

func (m *mockPostRepo) Update(ctx context.Context, p domain.Post) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[p.ID] = p
	return p, nil
}

func (m *mockPostRepo) Delete(ctx context.Context, entityID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return domain.NotFoundError{Resource: "post"}
	}
	delete(m.posts, id)
	return nil
}

func (m *mockPostRepo) ListByEntity(ctx context.Context, entityID string) ([]domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Post
	for _, p := range m.posts {
		if p.EntityID == entityID {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockEvents struct {
	mu     sync.Mutex
	events []tent.Event
}

func (m *mockEvents) Publish(ctx context.Context, entity string, event tent.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEvents) all() []tent.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tent.Event(nil), m.events...)
}

// --- fake outbound client for fan-out ---

type fakeRemote struct {
	mu           sync.Mutex
	posts        map[string]int
	bodies       map[string][]byte
	contentTypes map[string]string
	fail         map[string]error
	status       map[string]int
	block        map[string]chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		posts:        map[string]int{},
		bodies:       map[string][]byte{},
		contentTypes: map[string]string{},
		fail:         map[string]error{},
		status:       map[string]int{},
		block:        map[string]chan struct{}{},
	}
}

func (f *fakeRemote) Head(ctx context.Context, url string) (*client.Response, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRemote) Get(ctx context.Context, url string) (*client.Response, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRemote) Post(ctx context.Context, url string, contentType string, body []byte) (*client.Response, error) {
	f.mu.Lock()
	block := f.block[url]
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[url]++
	f.bodies[url] = body
	f.contentTypes[url] = contentType
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	status := http.StatusOK
	if s, ok := f.status[url]; ok {
		status = s
	}
	return &client.Response{StatusCode: status, Header: http.Header{}}, nil
}

func (f *fakeRemote) lastPost(url string) ([]byte, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[url], f.contentTypes[url]
}

func (f *fakeRemote) postCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[url]
}

func (f *fakeRemote) totalPosts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.posts {
		total += n
	}
	return total
}

var testEntity = domain.Entity{
	ID:          "8f2b3f1e-6a51-4cc4-9d3c-1c0e0a7c2c11",
	Name:        "alice",
	IdentityURL: "https://tent.example/alice",
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
