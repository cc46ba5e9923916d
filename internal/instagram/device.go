package instagram

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Namespace for the SHA1-derived GUIDs. Fixed so fingerprints never change
// across releases; a resumed session must present the exact device the login
// created.
var deviceNamespace = uuid.MustParse("8c9f2a14-0d3b-4e57-9b61-2f84a0c6d1e3")

type handset struct {
	Manufacturer string
	Model        string
	Build        string
	Resolution   string
	DPI          string
	AndroidVer   int
	AndroidRel   string
}

var handsets = []handset{
	{"samsung", "SM-G973F", "PPR1.180610.011", "1080x2042", "420dpi", 28, "9.0"},
	{"samsung", "SM-G960F", "R16NW", "1080x2076", "480dpi", 26, "8.0.0"},
	{"OnePlus", "ONEPLUS A6013", "PKQ1.180716.001", "1080x2260", "420dpi", 28, "9.0"},
	{"Xiaomi", "MI 9", "PKQ1.181121.001", "1080x2218", "440dpi", 28, "9.0"},
	{"HUAWEI", "ELE-L29", "HUAWEIELE-L29", "1080x2244", "480dpi", 28, "9.0"},
	{"LGE", "LM-G710", "PKQ1.181105.001", "1440x2907", "560dpi", 28, "9.0"},
}

// Device is the fingerprint presented to Instagram. It is a pure function of
// the identity: same username, same device, so resumed sessions match the
// device their login registered.
type Device struct {
	AndroidID string `json:"android_id"`
	GUID      string `json:"guid"`
	PhoneID   string `json:"phone_id"`
	AdID      string `json:"ad_id"`
	UserAgent string `json:"user_agent"`
}

// DeviceFor derives the fingerprint for an identity. No randomness, no clock.
func DeviceFor(identity string) Device {
	seed := md5.Sum([]byte(identity))
	h := handsets[int(seed[0])%len(handsets)]

	ua := fmt.Sprintf(
		"Instagram 121.0.0.29.119 Android (%d/%s; %s; %s; %s; %s; %s; en_US)",
		h.AndroidVer, h.AndroidRel, h.DPI, h.Resolution, h.Manufacturer, h.Model, h.Build,
	)

	return Device{
		AndroidID: "android-" + hex.EncodeToString(seed[:8]),
		GUID:      uuid.NewSHA1(deviceNamespace, []byte(identity+":guid")).String(),
		PhoneID:   uuid.NewSHA1(deviceNamespace, []byte(identity+":phone")).String(),
		AdID:      uuid.NewSHA1(deviceNamespace, []byte(identity+":ad")).String(),
		UserAgent: ua,
	}
}
