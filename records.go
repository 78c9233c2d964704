package draco

import (
	"github.com/RobertWHurst/draco/wire"
)

// AuthType selects the identity provider used to sign in.
type AuthType int

const (
	AuthTypeDevice AuthType = 1
)

// ClientPlatform identifies the client build reported in map requests.
type ClientPlatform int

const (
	ClientPlatformAndroid ClientPlatform = 0
	ClientPlatformIOS     ClientPlatform = 1
)

// RegistrationTypeDevice is the registration type of device accounts.
const RegistrationTypeDevice = "dv"

// ClientInfo describes the device and build. It is sent with every event
// and with authentication calls.
type ClientInfo struct {
	Platform                      string `yaml:"platform"`
	PlatformVersion               string `yaml:"platform_version"`
	DeviceModel                   string `yaml:"device_model"`
	Revision                      string `yaml:"revision"`
	ScreenWidth                   int    `yaml:"screen_width"`
	ScreenHeight                  int    `yaml:"screen_height"`
	Language                      string `yaml:"language"`
	IOSAdvertisingTrackingEnabled bool   `yaml:"ios_advertising_tracking_enabled"`
	IOSVendorIdentifier           string `yaml:"ios_vendor_identifier"`
}

// DefaultClientInfo returns the client-info of the iOS build the protocol
// was observed with.
func DefaultClientInfo() ClientInfo {
	return ClientInfo{
		Platform:        "IPhonePlayer",
		PlatformVersion: "iOS 10.3.3",
		DeviceModel:     "iPhone8,1",
		Revision:        "6935",
		ScreenWidth:     750,
		ScreenHeight:    1334,
		Language:        "English",
	}
}

type AuthData struct {
	AuthType  AuthType
	ProfileID string
}

type RegistrationInfo struct {
	RegType string
}

type GeoCoords struct {
	Latitude           float64
	Longitude          float64
	HorizontalAccuracy float64
}

type ClientRequest struct {
	Time                    int64
	CurrentUTCOffsetSeconds int
	Coords                  GeoCoords
}

// Tile addresses one map tile.
type Tile struct {
	X    int
	Y    int
	Zoom int
}

// UpdateRequest asks for the map state around ClientRequest.Coords.
// TilesCache maps tiles the client already holds to their version.
type UpdateRequest struct {
	ClientRequest  ClientRequest
	ClientPlatform ClientPlatform
	TilesCache     map[Tile]int64
}

// merge copies the fields of o that are set over c. The advertising
// tracking flag can only be switched on this way.
func (c *ClientInfo) merge(o ClientInfo) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&c.Platform, o.Platform)
	setString(&c.PlatformVersion, o.PlatformVersion)
	setString(&c.DeviceModel, o.DeviceModel)
	setString(&c.Revision, o.Revision)
	setString(&c.Language, o.Language)
	setString(&c.IOSVendorIdentifier, o.IOSVendorIdentifier)
	if o.ScreenWidth != 0 {
		c.ScreenWidth = o.ScreenWidth
	}
	if o.ScreenHeight != 0 {
		c.ScreenHeight = o.ScreenHeight
	}
	if o.IOSAdvertisingTrackingEnabled {
		c.IOSAdvertisingTrackingEnabled = true
	}
}

// optional maps empty strings to Null on the wire.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func init() {
	r := wire.DefaultRegistry

	wire.MustRegister(r, wire.Descriptor[ClientInfo]{
		TypeID: "FClientInfo",
		Fields: []wire.FieldSpec[ClientInfo]{
			wire.FieldOf("platform", wire.KindBytes, func(c *ClientInfo) string { return c.Platform }),
			wire.FieldOf("platformVersion", wire.KindBytes, func(c *ClientInfo) string { return c.PlatformVersion }),
			wire.FieldOf("deviceModel", wire.KindBytes, func(c *ClientInfo) string { return c.DeviceModel }),
			wire.FieldOf("revision", wire.KindBytes, func(c *ClientInfo) string { return c.Revision }),
			wire.FieldOf("screenWidth", wire.KindInt, func(c *ClientInfo) int { return c.ScreenWidth }),
			wire.FieldOf("screenHeight", wire.KindInt, func(c *ClientInfo) int { return c.ScreenHeight }),
			wire.FieldOf("language", wire.KindBytes, func(c *ClientInfo) string { return c.Language }),
			wire.FieldOf("iOsAdvertisingTrackingEnabled", wire.KindBool, func(c *ClientInfo) bool { return c.IOSAdvertisingTrackingEnabled }),
			wire.OptionalFieldOf("iOsVendorIdentifier", wire.KindBytes, func(c *ClientInfo) (string, bool) {
				return c.IOSVendorIdentifier, c.IOSVendorIdentifier != ""
			}),
		},
	})

	wire.MustRegister(r, wire.Descriptor[AuthData]{
		TypeID: "AuthData",
		Fields: []wire.FieldSpec[AuthData]{
			wire.FieldOf("authType", wire.KindInt, func(a *AuthData) AuthType { return a.AuthType }),
			wire.FieldOf("profileId", wire.KindBytes, func(a *AuthData) any { return optional(a.ProfileID) }),
		},
	})

	wire.MustRegister(r, wire.Descriptor[RegistrationInfo]{
		TypeID: "FRegistrationInfo",
		Fields: []wire.FieldSpec[RegistrationInfo]{
			wire.FieldOf("regType", wire.KindBytes, func(ri *RegistrationInfo) string { return ri.RegType }),
		},
	})

	wire.MustRegister(r, wire.Descriptor[GeoCoords]{
		TypeID: "GeoCoords",
		Fields: []wire.FieldSpec[GeoCoords]{
			wire.FieldOf("latitude", wire.KindFloat, func(g *GeoCoords) float64 { return g.Latitude }),
			wire.FieldOf("longitude", wire.KindFloat, func(g *GeoCoords) float64 { return g.Longitude }),
			wire.FieldOf("horizontalAccuracy", wire.KindFloat, func(g *GeoCoords) float64 { return g.HorizontalAccuracy }),
		},
	})

	wire.MustRegister(r, wire.Descriptor[ClientRequest]{
		TypeID: "FClientRequest",
		Fields: []wire.FieldSpec[ClientRequest]{
			wire.FieldOf("time", wire.KindInt, func(cr *ClientRequest) int64 { return cr.Time }),
			wire.FieldOf("currentUtcOffsetSeconds", wire.KindInt, func(cr *ClientRequest) int { return cr.CurrentUTCOffsetSeconds }),
			wire.FieldOf("coords", wire.KindRecord, func(cr *ClientRequest) GeoCoords { return cr.Coords }),
		},
	})

	wire.MustRegister(r, wire.Descriptor[Tile]{
		TypeID: "FTile",
		Fields: []wire.FieldSpec[Tile]{
			wire.FieldOf("x", wire.KindInt, func(t *Tile) int { return t.X }),
			wire.FieldOf("y", wire.KindInt, func(t *Tile) int { return t.Y }),
			wire.FieldOf("zoom", wire.KindInt, func(t *Tile) int { return t.Zoom }),
		},
	})

	wire.MustRegister(r, wire.Descriptor[UpdateRequest]{
		TypeID: "FUpdateRequest",
		Fields: []wire.FieldSpec[UpdateRequest]{
			wire.FieldOf("clientRequest", wire.KindRecord, func(u *UpdateRequest) ClientRequest { return u.ClientRequest }),
			wire.FieldOf("clientPlatform", wire.KindInt, func(u *UpdateRequest) ClientPlatform { return u.ClientPlatform }),
			wire.FieldOf("tilesCache", wire.KindMapping, func(u *UpdateRequest) map[Tile]int64 { return u.TilesCache }),
		},
	})
}

// AuthResult is the part of a sign-in or registration reply the client
// acts on.
type AuthResult struct {
	UserID                  string
	AvatarAppearanceDetails int64
	HasAvatar               bool
	// Raw is the whole decoded reply.
	Raw wire.Value
}

var _ wire.Unmarshaler = &AuthResult{}

// UnmarshalWire reads userId and avatarAppearanceDetails either from the
// reply's info field or, if there is none, from the reply itself.
func (a *AuthResult) UnmarshalWire(v wire.Value) error {
	a.Raw = v
	info := v
	if inner, ok := v.Field("info"); ok {
		info = inner
	}

	if f, ok := info.Field("userId"); ok && !f.IsNull() {
		id, err := info.LookupString("userId")
		if err != nil {
			return err
		}
		a.UserID = id
	}
	if f, ok := info.Field("avatarAppearanceDetails"); ok && !f.IsNull() {
		avatar, err := info.LookupInt("avatarAppearanceDetails")
		if err != nil {
			return err
		}
		a.AvatarAppearanceDetails = avatar
		a.HasAvatar = true
	}
	return nil
}
