package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"ig-bridge/internal/model"
	"ig-bridge/internal/session"
)

type fakeClient struct {
	device         Device
	proxy          *url.URL
	loginErr       error
	loggedIn       bool
	state          json.RawMessage
	deserialized   json.RawMessage
	deserializeErr error
}

func (f *fakeClient) Login(ctx context.Context, username, password string) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.loggedIn = true
	return nil
}

func (f *fakeClient) SerializeState() (json.RawMessage, error) { return f.state, nil }

func (f *fakeClient) DeserializeState(state json.RawMessage) error {
	if f.deserializeErr != nil {
		return f.deserializeErr
	}
	f.deserialized = state
	return nil
}

func (f *fakeClient) Device() Device { return f.device }

func (f *fakeClient) CurrentUser(ctx context.Context) (model.Profile, error) {
	return model.Profile{}, nil
}
func (f *fakeClient) UserIDByUsername(ctx context.Context, username string) (string, error) {
	return "", nil
}
func (f *fakeClient) UserInfo(ctx context.Context, userID string) (model.Profile, error) {
	return model.Profile{}, nil
}
func (f *fakeClient) SendText(ctx context.Context, toUserID, text string) error { return nil }
func (f *fakeClient) SendPhoto(ctx context.Context, toUserID string, photo []byte) error {
	return nil
}
func (f *fakeClient) Inbox(ctx context.Context) ([]model.Thread, error) { return nil, nil }
func (f *fakeClient) ThreadItems(ctx context.Context, threadID string) ([]model.ThreadItem, error) {
	return nil, nil
}
func (f *fakeClient) PublishPhoto(ctx context.Context, photo []byte, caption string) (model.PublishResult, error) {
	return model.PublishResult{}, nil
}
func (f *fakeClient) PublishStory(ctx context.Context, photo []byte) (model.PublishResult, error) {
	return model.PublishResult{}, nil
}
func (f *fakeClient) PublishVideo(ctx context.Context, video []byte, caption string) (model.PublishResult, error) {
	return model.PublishResult{}, nil
}
func (f *fakeClient) PublishVideoStory(ctx context.Context, video []byte) (model.PublishResult, error) {
	return model.PublishResult{}, nil
}
func (f *fakeClient) PublishReel(ctx context.Context, video []byte, caption string) (model.PublishResult, error) {
	return model.PublishResult{}, nil
}
func (f *fakeClient) EditProfile(ctx context.Context, edit model.ProfileEdit) error { return nil }
func (f *fakeClient) ChangeProfilePicture(ctx context.Context, photo []byte) error  { return nil }
func (f *fakeClient) UserStories(ctx context.Context, userID string) ([]model.Story, error) {
	return nil, nil
}

type fakeBuilder struct {
	next    *fakeClient
	created []*fakeClient
}

func (b *fakeBuilder) build(device Device, proxy *url.URL) Client {
	c := b.next
	if c == nil {
		c = &fakeClient{state: json.RawMessage(`{"token":"t"}`)}
	}
	b.next = nil
	c.device = device
	c.proxy = proxy
	b.created = append(b.created, c)
	return c
}

func newTestFactory(t *testing.T) (*Factory, *fakeBuilder) {
	t.Helper()
	store, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	b := &fakeBuilder{}
	return &Factory{Store: store, Build: b.build}, b
}

func TestFactory_CreateFreshPersistsSession(t *testing.T) {
	f, _ := newTestFactory(t)
	ctx := context.Background()

	_, state, err := f.CreateFresh(ctx, "alice", "secret", "http://proxy.local:8080")
	if err != nil {
		t.Fatalf("CreateFresh: %v", err)
	}
	if len(state) == 0 {
		t.Fatalf("expected serialized state")
	}

	rec, err := f.Store.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load after CreateFresh: %v", err)
	}
	if rec.Proxy != "http://proxy.local:8080" {
		t.Fatalf("expected proxy persisted, got %q", rec.Proxy)
	}
}

func TestFactory_CreateFreshRejectedCredentials(t *testing.T) {
	f, b := newTestFactory(t)
	b.next = &fakeClient{loginErr: errors.New("bad password")}

	_, _, err := f.CreateFresh(context.Background(), "alice", "wrong", "")
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if ok, _ := f.Store.Exists(context.Background(), "alice"); ok {
		t.Fatalf("failed login must not persist a session")
	}
}

func TestFactory_CreateFreshValidation(t *testing.T) {
	f, _ := newTestFactory(t)
	ctx := context.Background()

	if _, _, err := f.CreateFresh(ctx, "", "pw", ""); err == nil {
		t.Fatalf("expected error for empty identity")
	}
	if _, _, err := f.CreateFresh(ctx, "alice", "", ""); err == nil {
		t.Fatalf("expected error for empty password")
	}
	if _, _, err := f.CreateFresh(ctx, "alice", "pw", "not a proxy"); err == nil {
		t.Fatalf("expected error for malformed proxy")
	}
}

func TestFactory_ResumeMissingSession(t *testing.T) {
	f, _ := newTestFactory(t)
	_, err := f.Resume(context.Background(), "nobody")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestFactory_ResumeMatchesLoginFingerprint(t *testing.T) {
	f, b := newTestFactory(t)
	ctx := context.Background()

	fresh, _, err := f.CreateFresh(ctx, "alice", "secret", "http://proxy.local:8080")
	if err != nil {
		t.Fatalf("CreateFresh: %v", err)
	}

	resumed, err := f.Resume(ctx, "alice")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if fresh.Device() != resumed.Device() {
		t.Fatalf("resumed device %+v differs from login device %+v", resumed.Device(), fresh.Device())
	}

	// the stored proxy is re-attached on resume
	resumedFake := b.created[len(b.created)-1]
	if resumedFake.proxy == nil || resumedFake.proxy.Host != "proxy.local:8080" {
		t.Fatalf("expected stored proxy on resume, got %v", resumedFake.proxy)
	}
	if len(resumedFake.deserialized) == 0 {
		t.Fatalf("expected state handed to DeserializeState")
	}
}

func TestFactory_ResumeUndeserializableState(t *testing.T) {
	f, b := newTestFactory(t)
	ctx := context.Background()

	if _, _, err := f.CreateFresh(ctx, "alice", "secret", ""); err != nil {
		t.Fatalf("CreateFresh: %v", err)
	}
	b.next = &fakeClient{deserializeErr: errors.New("unknown state version")}

	_, err := f.Resume(ctx, "alice")
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestFactory_CreateFreshDefaultProxy(t *testing.T) {
	f, b := newTestFactory(t)
	f.DefaultProxy = "http://fallback.local:3128"
	ctx := context.Background()

	if _, _, err := f.CreateFresh(ctx, "alice", "secret", ""); err != nil {
		t.Fatalf("CreateFresh: %v", err)
	}
	if got := b.created[0].proxy; got == nil || got.Host != "fallback.local:3128" {
		t.Fatalf("expected fallback proxy on the client, got %v", got)
	}
	rec, err := f.Store.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Proxy != "http://fallback.local:3128" {
		t.Fatalf("expected fallback proxy persisted, got %q", rec.Proxy)
	}

	// an explicit proxy wins over the fallback
	if _, _, err := f.CreateFresh(ctx, "bob", "secret", "http://chosen.local:8080"); err != nil {
		t.Fatalf("CreateFresh: %v", err)
	}
	if got := b.created[1].proxy; got == nil || got.Host != "chosen.local:8080" {
		t.Fatalf("expected explicit proxy on the client, got %v", got)
	}
}
