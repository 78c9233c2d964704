package draco

import (
	"context"
	"strconv"

	"github.com/RobertWHurst/draco/wire"
)

// Service names used by the game server.
const (
	ClientEventService  = "ClientEventService"
	AuthService         = "AuthService"
	PlayerService       = "PlayerService"
	ItemService         = "ItemService"
	UserCreatureService = "UserCreatureService"
	MapService          = "MapService"
)

// DefaultUTCOffsetSeconds is the UTC offset reported in map requests.
const DefaultUTCOffsetSeconds = 7200

// DefaultHorizontalAccuracy is the GPS accuracy in meters reported when the
// caller has none.
const DefaultHorizontalAccuracy = 20

// Event reports a client-lifecycle event. The server expects eight
// arguments: the event name, the user id, the client-info record, up to
// three event-specific arguments and two trailing nulls.
func (c *Client) Event(ctx context.Context, name string, args ...any) error {
	if len(args) > 3 {
		return ErrTooManyEventArgs
	}
	var extra [3]any
	copy(extra[:], args)

	var userID any
	if id := c.session.User().ID; id != "" {
		userID = id
	}

	err := c.Service(ClientEventService).CallWithCtx(ctx, "onEvent", []any{
		name,
		userID,
		c.session.ClientInfo(),
		extra[0],
		extra[1],
		extra[2],
		nil,
		nil,
	}).Err()

	c.publish(&Event{Name: name, Args: args, Err: err})
	return err
}

// BootInfo identifies an existing installation.
type BootInfo struct {
	UserID   string
	DeviceID string
	// ClientInfo, when set, overrides the fields of the session's
	// client-info record that it sets. Unset fields keep their values.
	ClientInfo *ClientInfo
}

// Boot adopts an existing installation's identity and reports the startup
// events.
func (c *Client) Boot(ctx context.Context, info BootInfo) error {
	c.session.UpdateUser(func(u *User) {
		u.ID = info.UserID
		u.DeviceID = info.DeviceID
	})
	c.session.UpdateClientInfo(func(ci *ClientInfo) {
		ci.IOSVendorIdentifier = info.DeviceID
		if info.ClientInfo != nil {
			ci.merge(*info.ClientInfo)
		}
	})

	if err := c.Event(ctx, "LoadingScreenPercent", "100"); err != nil {
		return err
	}
	return c.Event(ctx, "Initialized")
}

// Login signs in with the session's device id. The user id and avatar from
// the reply are adopted when present.
func (c *Client) Login(ctx context.Context) (*AuthResult, error) {
	if err := c.Event(ctx, "TrySingIn", "DEVICE"); err != nil {
		return nil, err
	}

	var result AuthResult
	err := c.Service(AuthService).CallWithCtx(ctx, "trySingIn", []any{
		c.authData(),
		c.session.ClientInfo(),
		RegistrationInfo{RegType: RegistrationTypeDevice},
	}).Into(&result)
	if err != nil {
		return nil, err
	}

	c.session.UpdateUser(func(u *User) {
		if result.UserID != "" {
			u.ID = result.UserID
		}
		if result.HasAvatar {
			u.Avatar = result.AvatarAppearanceDetails
		}
	})
	return &result, nil
}

// Load reports the events the game sends after signing in.
func (c *Client) Load(ctx context.Context) error {
	avatar := strconv.FormatInt(c.session.User().Avatar, 10)
	events := []struct {
		name string
		arg  string
	}{
		{"LoadingScreenPercent", "100"},
		{"CreateAvatarByType", "MageMale"},
		{"LoadingScreenPercent", "100"},
		{"AvatarUpdateView", avatar},
		{"InitPushNotifications", "True"},
	}
	for _, e := range events {
		if err := c.Event(ctx, e.name, e.arg); err != nil {
			return err
		}
	}
	return nil
}

// ValidateNickname asks whether nickname is available.
func (c *Client) ValidateNickname(ctx context.Context, nickname string) (wire.Value, error) {
	if err := c.Event(ctx, "ValidateNickname", nickname); err != nil {
		return wire.Value{}, err
	}
	return c.Service(AuthService).CallWithCtx(ctx, "validateNickname", []any{nickname}).Value()
}

// AcceptTOS reports that the licence was shown and accepted.
func (c *Client) AcceptTOS(ctx context.Context) error {
	if err := c.Event(ctx, "LicenceShown"); err != nil {
		return err
	}
	return c.Event(ctx, "LicenceAccepted")
}

// Register creates an account for the session's device.
func (c *Client) Register(ctx context.Context, nickname string) (*AuthResult, error) {
	c.session.UpdateUser(func(u *User) { u.Nickname = nickname })
	if err := c.Event(ctx, "Register", "DEVICE", nickname); err != nil {
		return nil, err
	}

	var result AuthResult
	err := c.Service(AuthService).CallWithCtx(ctx, "register", []any{
		c.authData(),
		nickname,
		c.session.ClientInfo(),
		RegistrationInfo{RegType: RegistrationTypeDevice},
	}).Into(&result)
	if err != nil {
		return nil, err
	}
	if result.UserID == "" {
		return nil, &CallError{Service: AuthService, Method: "register", Err: ErrMissingUserID}
	}

	c.session.UpdateUser(func(u *User) { u.ID = result.UserID })
	if err := c.Event(ctx, "ServerAuthSuccess", result.UserID); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetAvatar picks the avatar appearance and saves it.
func (c *Client) SetAvatar(ctx context.Context, avatar int64) (wire.Value, error) {
	c.session.UpdateUser(func(u *User) { u.Avatar = avatar })
	if err := c.Event(ctx, "AvatarPlayerGenderRace", "1", "1"); err != nil {
		return wire.Value{}, err
	}
	if err := c.Event(ctx, "AvatarPlayerSubmit", strconv.FormatInt(avatar, 10)); err != nil {
		return wire.Value{}, err
	}
	return c.Service(PlayerService).CallWithCtx(ctx, "saveUserSettings", []any{avatar}).Value()
}

// GetUserItems returns the player's inventory.
func (c *Client) GetUserItems(ctx context.Context) (wire.Value, error) {
	return c.Service(ItemService).CallWithCtx(ctx, "getUserItems", nil).Value()
}

// GetCreadex returns the creature index.
func (c *Client) GetCreadex(ctx context.Context) (wire.Value, error) {
	return c.Service(UserCreatureService).CallWithCtx(ctx, "getCreadex", []any{}).Value()
}

// GetUserCreatures returns the creatures the player owns.
func (c *Client) GetUserCreatures(ctx context.Context) (wire.Value, error) {
	return c.Service(UserCreatureService).CallWithCtx(ctx, "getUserCreatures", []any{}).Value()
}

// GetMapUpdate requests the map state around a position. A non-positive
// accuracy is replaced by DefaultHorizontalAccuracy.
func (c *Client) GetMapUpdate(ctx context.Context, latitude, longitude, accuracy float64) (wire.Value, error) {
	if accuracy <= 0 {
		accuracy = DefaultHorizontalAccuracy
	}
	return c.Service(MapService).CallWithCtx(ctx, "getUpdate", []any{
		UpdateRequest{
			ClientRequest: ClientRequest{
				Time:                    0,
				CurrentUTCOffsetSeconds: DefaultUTCOffsetSeconds,
				Coords: GeoCoords{
					Latitude:           latitude,
					Longitude:          longitude,
					HorizontalAccuracy: accuracy,
				},
			},
			ClientPlatform: ClientPlatformIOS,
			TilesCache:     map[Tile]int64{},
		},
	}).Value()
}

func (c *Client) authData() AuthData {
	return AuthData{
		AuthType:  AuthTypeDevice,
		ProfileID: c.session.User().DeviceID,
	}
}
