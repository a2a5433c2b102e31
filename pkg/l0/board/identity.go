package board

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID scopes the board identity derived from the machine id.
const AppID = "miniboard"

// MachineID returns the board identity: the machine id hashed with
// AppID, or empty if the machine id is unavailable.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return ""
	}
	return id
}
