package domain

// Role represents a player's allegiance for the current game
type Role string

const (
	RoleAssassin Role = "assassin"
	RoleGood     Role = "good"
	// RoleLeader is the hidden leader, dealt to one good player when
	// leader-mode is enabled. Counts as good for every tally.
	RoleLeader Role = "leader"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsAssassin returns true if this role is on the assassin side
func (r Role) IsAssassin() bool {
	return r == RoleAssassin
}

// IsGood returns true if this role is on the good side
func (r Role) IsGood() bool {
	return r == RoleGood || r == RoleLeader
}

// Winner identifies the side that took a round or the game
type Winner string

const (
	WinnerGood      Winner = "good"
	WinnerAssassins Winner = "assassins"
)
