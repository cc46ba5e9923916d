package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"ig-bridge/internal/session"
)

var (
	// ErrAuthentication means Instagram rejected the credentials. Terminal;
	// never retried here.
	ErrAuthentication = errors.New("instagram rejected the credentials")

	// ErrSessionNotFound means no session is stored for the identity.
	ErrSessionNotFound = errors.New("no stored session for identity")

	// ErrSessionInvalid means a stored session exists but cannot be turned
	// into a live client. The caller must re-authenticate.
	ErrSessionInvalid = errors.New("stored session is unusable")
)

// Factory builds authenticated clients. CreateFresh is the single place the
// credential handshake happens; every other caller resumes.
type Factory struct {
	Store session.Store
	Build Builder

	// DefaultProxy is used when a login supplies none. It is persisted with
	// the session like an explicit proxy would be.
	DefaultProxy string
}

// CreateFresh logs in with credentials, persists the resulting session, and
// returns the live client plus the serialized blob.
func (f *Factory) CreateFresh(ctx context.Context, identity, password, proxy string) (Client, json.RawMessage, error) {
	if identity == "" {
		return nil, nil, fmt.Errorf("identity required")
	}
	if password == "" {
		return nil, nil, fmt.Errorf("password required")
	}
	if proxy == "" {
		proxy = f.DefaultProxy
	}
	proxyURL, err := parseProxy(proxy)
	if err != nil {
		return nil, nil, err
	}

	client := f.Build(DeviceFor(identity), proxyURL)
	if err := client.Login(ctx, identity, password); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	state, err := client.SerializeState()
	if err != nil {
		return nil, nil, fmt.Errorf("serialize session: %w", err)
	}
	if err := f.Store.Save(ctx, identity, state, proxy); err != nil {
		return nil, nil, fmt.Errorf("persist session: %w", err)
	}
	return client, state, nil
}

// Resume rebuilds a client from the stored session. The remote provider may
// still reject the resumed state; that surfaces from the first action, not
// here.
func (f *Factory) Resume(ctx context.Context, identity string) (Client, error) {
	if identity == "" {
		return nil, fmt.Errorf("identity required")
	}

	rec, err := f.Store.Load(ctx, identity)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		if errors.Is(err, session.ErrCorrupt) {
			return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	proxyURL, err := parseProxy(rec.Proxy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}

	client := f.Build(DeviceFor(identity), proxyURL)
	if err := client.DeserializeState(rec.State); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}
	return client, nil
}

func parseProxy(proxy string) (*url.URL, error) {
	if proxy == "" {
		return nil, nil
	}
	u, err := url.Parse(proxy)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy url %q", proxy)
	}
	return u, nil
}
