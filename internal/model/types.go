package model

// Profile is the subset of an Instagram account the bridge exposes.
type Profile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	Biography     string `json:"biography,omitempty"`
	ExternalURL   string `json:"external_url,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
	Email         string `json:"email,omitempty"`
	ProfilePicURL string `json:"profile_pic_url,omitempty"`
	FollowerCount int    `json:"follower_count"`
	MediaCount    int    `json:"media_count"`
	IsPrivate     bool   `json:"is_private"`
	IsVerified    bool   `json:"is_verified"`
}

// ProfileEdit carries the full field set Instagram requires on every profile
// update, even when only the biography changes.
type ProfileEdit struct {
	Username    string
	FullName    string
	Biography   string
	ExternalURL string
	PhoneNumber string
	Email       string
}

type ThreadUser struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	ProfilePicURL string `json:"profile_pic_url,omitempty"`
}

// Thread is a simplified direct-message conversation summary.
type Thread struct {
	ThreadID      string       `json:"thread_id"`
	ThreadTitle   string       `json:"thread_title"`
	Users         []ThreadUser `json:"users"`
	LastMessage   string       `json:"last_message,omitempty"`
	LastMessageAt int64        `json:"last_message_timestamp,omitempty"`
}

type ThreadItem struct {
	ItemID    string `json:"item_id"`
	UserID    string `json:"user_id"`
	ItemType  string `json:"item_type"`
	Text      string `json:"text,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Story is one item from a user's story reel.
type Story struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	MediaType string `json:"media_type"`
	MediaURL  string `json:"media_url,omitempty"`
	TakenAt   string `json:"taken_at"`
}

// PublishResult identifies media created by a publish call.
type PublishResult struct {
	MediaID string `json:"media_id"`
	Code    string `json:"code,omitempty"`
	Status  string `json:"status"`
}
