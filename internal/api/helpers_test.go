package api

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/oauth"
	"github.com/pablosocial/pablo/internal/service/apikey"
	"github.com/pablosocial/pablo/internal/service/build"
	"github.com/pablosocial/pablo/internal/service/connection"
)

// In-memory fakes for the three repositories.

type fakeBuildRepo struct {
	created []*domain.AdData
	err     error
}

func (f *fakeBuildRepo) CreateImport(_ context.Context, ad *domain.AdData) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, ad)
	return nil
}

func (f *fakeBuildRepo) Get(_ context.Context, buildID string) (*domain.AdData, error) {
	for _, ad := range f.created {
		if ad.BuildID == buildID {
			return ad, nil
		}
	}
	return nil, build.ErrNotFound
}

func (f *fakeBuildRepo) UpdateStatus(_ context.Context, buildID string, status domain.ImportStatus) error {
	for _, ad := range f.created {
		if ad.BuildID == buildID {
			ad.AdImportStatus = status
			return nil
		}
	}
	return build.ErrNotFound
}

type fakeCredRepo struct {
	creds map[string]*domain.ServiceCredential
}

func credKey(userID, service string) string { return userID + "|" + service }

func (f *fakeCredRepo) Upsert(_ context.Context, c *domain.ServiceCredential) error {
	f.creds[credKey(c.UserID, c.ServiceName)] = c
	return nil
}

func (f *fakeCredRepo) Get(_ context.Context, userID, service string) (*domain.ServiceCredential, error) {
	c, ok := f.creds[credKey(userID, service)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (f *fakeCredRepo) ListByUser(_ context.Context, userID string) ([]*domain.ServiceCredential, error) {
	var out []*domain.ServiceCredential
	for _, c := range f.creds {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCredRepo) Delete(_ context.Context, userID, service string) error {
	delete(f.creds, credKey(userID, service))
	return nil
}

type fakeKeyRepo struct {
	keys map[string]*domain.APIKey
}

func (f *fakeKeyRepo) Create(_ context.Context, k *domain.APIKey) error {
	f.keys[k.ID] = k
	return nil
}

func (f *fakeKeyRepo) GetByKey(_ context.Context, raw string) (*domain.APIKey, error) {
	for _, k := range f.keys {
		if k.Key == raw {
			return k, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeKeyRepo) ListByUser(_ context.Context, userID string) ([]*domain.APIKey, error) {
	var out []*domain.APIKey
	for _, k := range f.keys {
		if k.UserID == userID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeKeyRepo) Delete(_ context.Context, userID, id string) error {
	if k, ok := f.keys[id]; ok && k.UserID == userID {
		delete(f.keys, id)
	}
	return nil
}

func (f *fakeKeyRepo) TouchLastUsed(_ context.Context, _ string) error { return nil }

// stubProvider is a canned OAuth provider.
type stubProvider struct {
	name     string
	verifier string
	token    *oauth.Token
	err      error

	gotCode     string
	gotVerifier string
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) AuthURL(state string) (string, string) {
	return "https://auth.example.com/authorize?state=" + state, p.verifier
}

func (p *stubProvider) Exchange(_ context.Context, code, verifier string) (*oauth.Token, error) {
	p.gotCode = code
	p.gotVerifier = verifier
	if p.err != nil {
		return nil, p.err
	}
	return p.token, nil
}

// testEnv bundles the handler set with its fakes.
type testEnv struct {
	handlers *Handlers
	router   http.Handler
	builds   *fakeBuildRepo
	creds    *fakeCredRepo
	keys     *fakeKeyRepo
	provider *stubProvider
	apiKey   string // a pre-issued key for user "u1"
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	builds := &fakeBuildRepo{}
	creds := &fakeCredRepo{creds: map[string]*domain.ServiceCredential{}}
	keys := &fakeKeyRepo{keys: map[string]*domain.APIKey{}}

	provider := &stubProvider{
		name:     domain.ServiceNotion,
		verifier: "",
		token: &oauth.Token{
			AccessToken: "fresh-token",
			ExpiresAt:   time.Now().Add(time.Hour).UTC(),
		},
	}

	keySvc := apikey.NewService(keys)
	issued, err := keySvc.Generate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Failed to issue test key: %v", err)
	}

	h := NewHandlers(
		build.NewService(builds),
		connection.NewService(creds),
		keySvc,
		map[string]oauth.Provider{provider.name: provider},
		oauth.NewStateStore(rdb),
		nil,
	)

	return &testEnv{
		handlers: h,
		router:   SetupRoutes(h),
		builds:   builds,
		creds:    creds,
		keys:     keys,
		provider: provider,
		apiKey:   issued.Key,
	}
}
