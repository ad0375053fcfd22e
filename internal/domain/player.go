package domain

import "time"

// Player represents a participant in a room. Identity is the connection
// identifier, so ID changes when a player reconnects (see Room.Rebind).
type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Avatar   string    `json:"avatar,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

// NewPlayer creates a new player with the given connection ID and display name
func NewPlayer(id, name, avatar string) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Avatar:   avatar,
		JoinedAt: time.Now(),
	}
}

// PlayerInfo is a safe view of player data for the shared state broadcast
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// ToInfo converts a Player to PlayerInfo
func (p *Player) ToInfo() PlayerInfo {
	return PlayerInfo{
		ID:     p.ID,
		Name:   p.Name,
		Avatar: p.Avatar,
	}
}
