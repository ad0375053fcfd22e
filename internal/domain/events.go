package domain

import "time"

// EventType represents the type of game event
type EventType string

const (
	EventRoomCreated       EventType = "roomCreated"
	EventState             EventType = "state"
	EventYourRole          EventType = "yourRole"
	EventAssassinsRevealed EventType = "assassinsRevealed"
	EventTeamVoteStart     EventType = "teamVoteStart"
	EventRoundResolved     EventType = "roundResolved"
	EventMissionResult     EventType = "missionResult"
)

// GameEvent represents an event produced by a room operation. PlayerID is
// empty for room-wide broadcasts and set for private deliveries.
type GameEvent struct {
	Type      EventType   `json:"type"`
	RoomCode  string      `json:"roomCode"`
	PlayerID  string      `json:"playerId,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new room-wide game event
func NewEvent(eventType EventType, roomCode string, payload interface{}) GameEvent {
	return GameEvent{
		Type:      eventType,
		RoomCode:  roomCode,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewPlayerEvent creates a new player-specific game event
func NewPlayerEvent(eventType EventType, roomCode, playerID string, payload interface{}) GameEvent {
	return GameEvent{
		Type:      eventType,
		RoomCode:  roomCode,
		PlayerID:  playerID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Payload types for different events

// RoomCreatedPayload is sent privately to the creator
type RoomCreatedPayload struct {
	Code          string `json:"code"`
	MaxPlayers    int    `json:"maxPlayers"`
	AssassinCount int    `json:"assassinCount"`
}

// StatePayload is the authoritative shared state broadcast to the room.
// It is a detached snapshot; mutating the room after construction never
// changes an already-built payload.
type StatePayload struct {
	Phase        Phase           `json:"phase"`
	LeaderID     string          `json:"leaderId"`
	Round        int             `json:"round"`
	Results      []MissionResult `json:"results"`
	GoodWins     int             `json:"goodWins"`
	AssassinWins int             `json:"assassinWins"`
	Team         []string        `json:"team"`
	TeamVotes    []TeamVote      `json:"teamVotes"`
	MissionVotes []MissionVote   `json:"missionVotes"`
	Players      []PlayerInfo    `json:"players"`
	MaxPlayers   int             `json:"maxPlayers"`
	// Roles is present only once the game is over
	Roles map[string]Role `json:"roles,omitempty"`
}

// RolePayload is delivered privately to each player at game start and on
// reconnection mid-game
type RolePayload struct {
	Role Role `json:"role"`
}

// AssassinsRevealedPayload is delivered privately to the hidden leader
type AssassinsRevealedPayload struct {
	AssassinIDs []string `json:"assassinIds"`
}

// TeamVoteStartPayload announces an accepted team proposal
type TeamVoteStartPayload struct {
	Team     []string `json:"team"`
	LeaderID string   `json:"leaderId"`
	Round    int      `json:"round"`
}

// RoundResolvedPayload is sent when a team vote resolves a round without a
// mission (the single-reject house rule)
type RoundResolvedPayload struct {
	Round  int    `json:"round"`
	Winner Winner `json:"winner"`
	Reason string `json:"reason"`
}

// MissionResultPayload is sent when a mission vote completes
type MissionResultPayload struct {
	Round        int    `json:"round"`
	Winner       Winner `json:"winner"`
	SuccessVotes int    `json:"successVotes"`
	FailVotes    int    `json:"failVotes"`
}
