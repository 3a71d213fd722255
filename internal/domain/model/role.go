package model

// Role is one in-game character/account instance reachable under a player
// identity, tied to a specific server. Enumerated from an authenticated
// session; read-only from the engine's perspective.
type Role struct {
	ID       string // in-game uid, used as roleId on submission
	Name     string
	ServerID string
	Level    int
	IsMain   bool
}
