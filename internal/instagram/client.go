// Package instagram holds the capability interface for the upstream private
// API, the deterministic device fingerprint, and the factory that turns
// stored session records into live clients. Everything above this package
// depends only on the Client interface; the concrete protocol implementation
// is swappable.
package instagram

import (
	"context"
	"encoding/json"
	"net/url"

	"ig-bridge/internal/model"
)

// Client is the authenticated handle for one identity. Handles are
// request-scoped: rebuilt from the session store per request, never cached
// or shared.
type Client interface {
	// Login performs the credential handshake and leaves the client
	// authenticated.
	Login(ctx context.Context, username, password string) error

	// SerializeState exports the opaque session blob (cookies, device,
	// auth) for persistence.
	SerializeState() (json.RawMessage, error)

	// DeserializeState restores a previously serialized blob.
	DeserializeState(state json.RawMessage) error

	// Device reports the fingerprint the client presents upstream.
	Device() Device

	CurrentUser(ctx context.Context) (model.Profile, error)
	UserIDByUsername(ctx context.Context, username string) (string, error)
	UserInfo(ctx context.Context, userID string) (model.Profile, error)

	SendText(ctx context.Context, toUserID, text string) error
	SendPhoto(ctx context.Context, toUserID string, photo []byte) error
	Inbox(ctx context.Context) ([]model.Thread, error)
	ThreadItems(ctx context.Context, threadID string) ([]model.ThreadItem, error)

	PublishPhoto(ctx context.Context, photo []byte, caption string) (model.PublishResult, error)
	PublishStory(ctx context.Context, photo []byte) (model.PublishResult, error)
	PublishVideo(ctx context.Context, video []byte, caption string) (model.PublishResult, error)
	PublishVideoStory(ctx context.Context, video []byte) (model.PublishResult, error)
	PublishReel(ctx context.Context, video []byte, caption string) (model.PublishResult, error)

	EditProfile(ctx context.Context, edit model.ProfileEdit) error
	ChangeProfilePicture(ctx context.Context, photo []byte) error
	UserStories(ctx context.Context, userID string) ([]model.Story, error)
}

// Builder constructs an unauthenticated client for a device, optionally
// routed through a proxy. Injected into the Factory so tests and alternate
// protocol implementations can substitute their own.
type Builder func(device Device, proxy *url.URL) Client
