// Package actor describes who performs a service operation.
package actor

// SystemUID identifies the server itself, e.g. scheduled draws.
const SystemUID = "system"

// Actor is the caller of a service operation.
type Actor struct {
	UID   string
	Admin bool
}

// System is the actor for background jobs. It has admin rights.
func System() Actor {
	return Actor{UID: SystemUID, Admin: true}
}

// User is a regular, non-admin caller.
func User(uid string) Actor {
	return Actor{UID: uid}
}

// CanManage reports whether the actor may act on a resource owned by ownerID.
func (a Actor) CanManage(ownerID string) bool {
	return a.Admin || (a.UID != "" && a.UID == ownerID)
}
