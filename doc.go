// Package draco is a client for the Draconius GO game server.
//
// A Client sends service calls through a Transport and encodes arguments
// and decodes replies with an Encoder:
//
//	client := draco.NewClient(httptransport.New(), wireencoder.New(),
//		draco.WithDeviceID(deviceID))
//	result, err := client.Login(ctx)
//
// Lower-level calls go through a ServiceClient:
//
//	items, err := client.Service("ItemService").Call("getUserItems", nil).Value()
//
// The session token the server returns with every response is kept in the
// client's Session and sent back with the next call.
package draco
