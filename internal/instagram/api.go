package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"ig-bridge/internal/model"
)

const apiBase = "https://i.instagram.com/api/v1/"

// APIClient talks to Instagram's private REST surface directly. It is a
// minimal stand-in for a full protocol library: enough of the endpoints for
// the bridge's action set, with state carried in cookies plus the device
// fingerprint.
type APIClient struct {
	http     *http.Client
	jar      *cookiejar.Jar
	device   Device
	username string
	userID   string
}

// NewAPIClient satisfies Builder.
func NewAPIClient(device Device, proxy *url.URL) Client {
	jar, _ := cookiejar.New(nil)
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy)
	}
	return &APIClient{
		http: &http.Client{
			Jar:       jar,
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		jar:    jar,
		device: device,
	}
}

func (c *APIClient) Device() Device { return c.device }

type clientState struct {
	Username string        `json:"username"`
	UserID   string        `json:"user_id"`
	Device   Device        `json:"device"`
	Cookies  []stateCookie `json:"cookies"`
}

type stateCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (c *APIClient) SerializeState() (json.RawMessage, error) {
	base, err := url.Parse(apiBase)
	if err != nil {
		return nil, err
	}
	state := clientState{
		Username: c.username,
		UserID:   c.userID,
		Device:   c.device,
	}
	for _, ck := range c.jar.Cookies(base) {
		state.Cookies = append(state.Cookies, stateCookie{Name: ck.Name, Value: ck.Value})
	}
	return json.Marshal(state)
}

func (c *APIClient) DeserializeState(raw json.RawMessage) error {
	var state clientState
	if err := json.Unmarshal(raw, &state); err != nil {
		return fmt.Errorf("decode session state: %w", err)
	}
	if state.UserID == "" || len(state.Cookies) == 0 {
		return fmt.Errorf("session state missing user or cookies")
	}

	base, err := url.Parse(apiBase)
	if err != nil {
		return err
	}
	cookies := make([]*http.Cookie, 0, len(state.Cookies))
	for _, ck := range state.Cookies {
		cookies = append(cookies, &http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	c.jar.SetCookies(base, cookies)
	c.username = state.Username
	c.userID = state.UserID
	return nil
}

// apiError is a non-ok answer from Instagram.
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("instagram api: status %d: %s", e.StatusCode, e.Message)
}

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (c *APIClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.device.UserAgent)
	req.Header.Set("X-IG-Device-ID", c.device.GUID)
	req.Header.Set("X-IG-Android-ID", c.device.AndroidID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	_ = json.Unmarshal(data, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 || env.Status == "fail" {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &apiError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

func (c *APIClient) postForm(ctx context.Context, path string, form url.Values, out any) error {
	body := bytes.NewBufferString(form.Encode())
	return c.do(ctx, http.MethodPost, path, body, "application/x-www-form-urlencoded", out)
}

func (c *APIClient) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *APIClient) postPhoto(ctx context.Context, path string, photo []byte, fields map[string]string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("photo", "photo.jpg")
	if err != nil {
		return err
	}
	if _, err := part.Write(photo); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, &buf, mw.FormDataContentType(), out)
}

func (c *APIClient) postVideo(ctx context.Context, path string, video []byte, fields map[string]string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("video", "video.mp4")
	if err != nil {
		return err
	}
	if _, err := part.Write(video); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, &buf, mw.FormDataContentType(), out)
}

// igUser mirrors the fields the bridge exposes from Instagram's user object.
type igUser struct {
	Pk            json.Number `json:"pk"`
	Username      string      `json:"username"`
	FullName      string      `json:"full_name"`
	Biography     string      `json:"biography"`
	ExternalURL   string      `json:"external_url"`
	PhoneNumber   string      `json:"phone_number"`
	Email         string      `json:"email"`
	ProfilePicURL string      `json:"profile_pic_url"`
	FollowerCount int         `json:"follower_count"`
	MediaCount    int         `json:"media_count"`
	IsPrivate     bool        `json:"is_private"`
	IsVerified    bool        `json:"is_verified"`
}

func (u igUser) toProfile() model.Profile {
	return model.Profile{
		ID:            u.Pk.String(),
		Username:      u.Username,
		FullName:      u.FullName,
		Biography:     u.Biography,
		ExternalURL:   u.ExternalURL,
		PhoneNumber:   u.PhoneNumber,
		Email:         u.Email,
		ProfilePicURL: u.ProfilePicURL,
		FollowerCount: u.FollowerCount,
		MediaCount:    u.MediaCount,
		IsPrivate:     u.IsPrivate,
		IsVerified:    u.IsVerified,
	}
}

func (c *APIClient) Login(ctx context.Context, username, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("device_id", c.device.AndroidID)
	form.Set("guid", c.device.GUID)
	form.Set("phone_id", c.device.PhoneID)
	form.Set("adid", c.device.AdID)
	form.Set("login_attempt_count", "0")

	var resp struct {
		LoggedInUser igUser `json:"logged_in_user"`
	}
	if err := c.postForm(ctx, "accounts/login/", form, &resp); err != nil {
		return err
	}
	c.username = resp.LoggedInUser.Username
	c.userID = resp.LoggedInUser.Pk.String()
	return nil
}

func (c *APIClient) CurrentUser(ctx context.Context) (model.Profile, error) {
	var resp struct {
		User igUser `json:"user"`
	}
	if err := c.getJSON(ctx, "accounts/current_user/?edit=true", &resp); err != nil {
		return model.Profile{}, err
	}
	return resp.User.toProfile(), nil
}

func (c *APIClient) UserIDByUsername(ctx context.Context, username string) (string, error) {
	var resp struct {
		User igUser `json:"user"`
	}
	if err := c.getJSON(ctx, "users/"+url.PathEscape(username)+"/usernameinfo/", &resp); err != nil {
		return "", err
	}
	return resp.User.Pk.String(), nil
}

func (c *APIClient) UserInfo(ctx context.Context, userID string) (model.Profile, error) {
	var resp struct {
		User igUser `json:"user"`
	}
	if err := c.getJSON(ctx, "users/"+url.PathEscape(userID)+"/info/", &resp); err != nil {
		return model.Profile{}, err
	}
	return resp.User.toProfile(), nil
}

func recipientUsers(userID string) string {
	return fmt.Sprintf("[[%s]]", userID)
}

func (c *APIClient) SendText(ctx context.Context, toUserID, text string) error {
	form := url.Values{}
	form.Set("recipient_users", recipientUsers(toUserID))
	form.Set("text", text)
	form.Set("client_context", uuid.NewString())
	form.Set("action", "send_item")
	return c.postForm(ctx, "direct_v2/threads/broadcast/text/", form, nil)
}

func (c *APIClient) SendPhoto(ctx context.Context, toUserID string, photo []byte) error {
	fields := map[string]string{
		"recipient_users": recipientUsers(toUserID),
		"client_context":  uuid.NewString(),
		"action":          "send_item",
	}
	return c.postPhoto(ctx, "direct_v2/threads/broadcast/upload_photo/", photo, fields, nil)
}

// igThread and igThreadItem decode the inbox feed.
type igThread struct {
	ThreadID          string   `json:"thread_id"`
	ThreadTitle       string   `json:"thread_title"`
	Users             []igUser `json:"users"`
	LastPermanentItem *struct {
		Text      string      `json:"text"`
		Timestamp json.Number `json:"timestamp"`
	} `json:"last_permanent_item"`
}

type igThreadItem struct {
	ItemID    string      `json:"item_id"`
	UserID    json.Number `json:"user_id"`
	ItemType  string      `json:"item_type"`
	Text      string      `json:"text"`
	Timestamp json.Number `json:"timestamp"`
}

func (c *APIClient) Inbox(ctx context.Context) ([]model.Thread, error) {
	var resp struct {
		Inbox struct {
			Threads []igThread `json:"threads"`
		} `json:"inbox"`
	}
	if err := c.getJSON(ctx, "direct_v2/inbox/", &resp); err != nil {
		return nil, err
	}

	threads := make([]model.Thread, 0, len(resp.Inbox.Threads))
	for _, t := range resp.Inbox.Threads {
		thread := model.Thread{
			ThreadID:    t.ThreadID,
			ThreadTitle: t.ThreadTitle,
			Users:       make([]model.ThreadUser, 0, len(t.Users)),
		}
		for _, u := range t.Users {
			thread.Users = append(thread.Users, model.ThreadUser{
				Username:      u.Username,
				FullName:      u.FullName,
				ProfilePicURL: u.ProfilePicURL,
			})
		}
		if t.LastPermanentItem != nil {
			thread.LastMessage = t.LastPermanentItem.Text
			thread.LastMessageAt, _ = t.LastPermanentItem.Timestamp.Int64()
		}
		threads = append(threads, thread)
	}
	return threads, nil
}

func (c *APIClient) ThreadItems(ctx context.Context, threadID string) ([]model.ThreadItem, error) {
	var resp struct {
		Thread struct {
			Items []igThreadItem `json:"items"`
		} `json:"thread"`
	}
	if err := c.getJSON(ctx, "direct_v2/threads/"+url.PathEscape(threadID)+"/", &resp); err != nil {
		return nil, err
	}

	items := make([]model.ThreadItem, 0, len(resp.Thread.Items))
	for _, it := range resp.Thread.Items {
		ts, _ := it.Timestamp.Int64()
		items = append(items, model.ThreadItem{
			ItemID:    it.ItemID,
			UserID:    it.UserID.String(),
			ItemType:  it.ItemType,
			Text:      it.Text,
			Timestamp: ts,
		})
	}
	return items, nil
}

type igMedia struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

func (c *APIClient) PublishPhoto(ctx context.Context, photo []byte, caption string) (model.PublishResult, error) {
	uploadID := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := c.postPhoto(ctx, "upload/photo/", photo, map[string]string{"upload_id": uploadID}, nil); err != nil {
		return model.PublishResult{}, err
	}

	form := url.Values{}
	form.Set("upload_id", uploadID)
	form.Set("caption", caption)
	form.Set("device_id", c.device.AndroidID)

	var resp struct {
		Media  igMedia `json:"media"`
		Status string  `json:"status"`
	}
	if err := c.postForm(ctx, "media/configure/", form, &resp); err != nil {
		return model.PublishResult{}, err
	}
	return model.PublishResult{MediaID: resp.Media.ID, Code: resp.Media.Code, Status: resp.Status}, nil
}

func (c *APIClient) PublishStory(ctx context.Context, photo []byte) (model.PublishResult, error) {
	uploadID := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := c.postPhoto(ctx, "upload/photo/", photo, map[string]string{"upload_id": uploadID}, nil); err != nil {
		return model.PublishResult{}, err
	}

	form := url.Values{}
	form.Set("upload_id", uploadID)
	form.Set("source_type", "1")
	form.Set("configure_mode", "1")
	form.Set("device_id", c.device.AndroidID)

	var resp struct {
		Media  igMedia `json:"media"`
		Status string  `json:"status"`
	}
	if err := c.postForm(ctx, "media/configure_to_story/", form, &resp); err != nil {
		return model.PublishResult{}, err
	}
	return model.PublishResult{MediaID: resp.Media.ID, Code: resp.Media.Code, Status: resp.Status}, nil
}

func (c *APIClient) PublishVideo(ctx context.Context, video []byte, caption string) (model.PublishResult, error) {
	uploadID := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := c.postVideo(ctx, "upload/video/", video, map[string]string{"upload_id": uploadID, "media_type": "2"}, nil); err != nil {
		return model.PublishResult{}, err
	}

	form := url.Values{}
	form.Set("upload_id", uploadID)
	form.Set("caption", caption)
	form.Set("source_type", "4")
	form.Set("device_id", c.device.AndroidID)

	var resp struct {
		Media  igMedia `json:"media"`
		Status string  `json:"status"`
	}
	if err := c.postForm(ctx, "media/configure/?video=1", form, &resp); err != nil {
		return model.PublishResult{}, err
	}
	return model.PublishResult{MediaID: resp.Media.ID, Code: resp.Media.Code, Status: resp.Status}, nil
}

func (c *APIClient) PublishVideoStory(ctx context.Context, video []byte) (model.PublishResult, error) {
	uploadID := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := c.postVideo(ctx, "upload/video/", video, map[string]string{"upload_id": uploadID, "media_type": "2"}, nil); err != nil {
		return model.PublishResult{}, err
	}

	form := url.Values{}
	form.Set("upload_id", uploadID)
	form.Set("source_type", "4")
	form.Set("configure_mode", "1")
	form.Set("device_id", c.device.AndroidID)

	var resp struct {
		Media  igMedia `json:"media"`
		Status string  `json:"status"`
	}
	if err := c.postForm(ctx, "media/configure_to_story/?video=1", form, &resp); err != nil {
		return model.PublishResult{}, err
	}
	return model.PublishResult{MediaID: resp.Media.ID, Code: resp.Media.Code, Status: resp.Status}, nil
}

func (c *APIClient) PublishReel(ctx context.Context, video []byte, caption string) (model.PublishResult, error) {
	uploadID := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := c.postVideo(ctx, "upload/video/", video, map[string]string{"upload_id": uploadID, "media_type": "2"}, nil); err != nil {
		return model.PublishResult{}, err
	}

	form := url.Values{}
	form.Set("upload_id", uploadID)
	form.Set("caption", caption)
	form.Set("device_id", c.device.AndroidID)

	var resp struct {
		Media  igMedia `json:"media"`
		Status string  `json:"status"`
	}
	if err := c.postForm(ctx, "media/configure_to_clips/", form, &resp); err != nil {
		return model.PublishResult{}, err
	}
	return model.PublishResult{MediaID: resp.Media.ID, Code: resp.Media.Code, Status: resp.Status}, nil
}

func (c *APIClient) EditProfile(ctx context.Context, edit model.ProfileEdit) error {
	form := url.Values{}
	form.Set("username", edit.Username)
	form.Set("full_name", edit.FullName)
	form.Set("biography", edit.Biography)
	form.Set("external_url", edit.ExternalURL)
	form.Set("phone_number", edit.PhoneNumber)
	form.Set("email", edit.Email)
	form.Set("device_id", c.device.AndroidID)
	return c.postForm(ctx, "accounts/edit_profile/", form, nil)
}

func (c *APIClient) ChangeProfilePicture(ctx context.Context, photo []byte) error {
	return c.postPhoto(ctx, "accounts/change_profile_picture/", photo, nil, nil)
}

type igStoryItem struct {
	ID             string      `json:"id"`
	MediaType      int         `json:"media_type"`
	TakenAt        json.Number `json:"taken_at"`
	ImageVersions2 struct {
		Candidates []struct {
			URL string `json:"url"`
		} `json:"candidates"`
	} `json:"image_versions2"`
	VideoVersions []struct {
		URL string `json:"url"`
	} `json:"video_versions"`
}

func (c *APIClient) UserStories(ctx context.Context, userID string) ([]model.Story, error) {
	var resp struct {
		Reel struct {
			User  igUser        `json:"user"`
			Items []igStoryItem `json:"items"`
		} `json:"reel"`
	}
	if err := c.getJSON(ctx, "feed/user/"+url.PathEscape(userID)+"/story/", &resp); err != nil {
		return nil, err
	}

	stories := make([]model.Story, 0, len(resp.Reel.Items))
	for _, item := range resp.Reel.Items {
		story := model.Story{
			ID:       item.ID,
			Username: resp.Reel.User.Username,
		}
		switch item.MediaType {
		case 1:
			story.MediaType = "photo"
			if len(item.ImageVersions2.Candidates) > 0 {
				story.MediaURL = item.ImageVersions2.Candidates[0].URL
			}
		case 2:
			story.MediaType = "video"
			if len(item.VideoVersions) > 0 {
				story.MediaURL = item.VideoVersions[0].URL
			}
		}
		if ts, err := item.TakenAt.Int64(); err == nil {
			story.TakenAt = time.Unix(ts, 0).UTC().Format(time.RFC3339)
		}
		stories = append(stories, story)
	}
	return stories, nil
}
