package netcomponents

import (
	"github.com/automoto/driftline/shared/messages"
	"github.com/yohamta/donburi"
)

// NetworkIdentityData ties a local entity to the id used on the wire.
type NetworkIdentityData struct {
	NetworkID messages.NetworkID
	Name      string
}

var NetworkIdentity = donburi.NewComponentType[NetworkIdentityData]()
