package ws

import (
	"encoding/json"
	"time"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgCreateRoom        MessageType = "createRoom"
	MsgJoinRoom          MessageType = "joinRoom"
	MsgStartGame         MessageType = "startGame"
	MsgDraftTeam         MessageType = "draftTeam"
	MsgSelectTeam        MessageType = "selectTeam"
	MsgVoteTeam          MessageType = "voteTeam"
	MsgVoteMission       MessageType = "voteMission"
	MsgAssassinateLeader MessageType = "assassinateLeader"
	MsgPing              MessageType = "ping"
)

// Server → Client message types (game events reuse their domain names)
const (
	MsgRoomCreated MessageType = "roomCreated"
	MsgError       MessageType = "error"
	MsgPong        MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a non-game message from server to client.
// Game events are sent as domain.GameEvent, which shares this shape.
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// CreateRoomPayload is the payload for createRoom
type CreateRoomPayload struct {
	Name              string `json:"name"`
	Avatar            string `json:"avatar,omitempty"`
	Code              string `json:"code,omitempty"` // optional player-chosen code
	MaxPlayers        int    `json:"maxPlayers"`
	AssassinCount     int    `json:"assassinCount"`
	LeaderModeEnabled bool   `json:"leaderModeEnabled"`
}

// JoinRoomPayload is the payload for joinRoom
type JoinRoomPayload struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	Avatar string `json:"avatar,omitempty"`
	PrevID string `json:"prevId,omitempty"`
}

// StartGamePayload is the payload for startGame
type StartGamePayload struct {
	AssassinCount int `json:"assassinCount,omitempty"`
	MaxPlayers    int `json:"maxPlayers,omitempty"`
}

// TeamPayload is the payload for draftTeam and selectTeam
type TeamPayload struct {
	Team []string `json:"team"`
}

// VoteTeamPayload is the payload for voteTeam
type VoteTeamPayload struct {
	Vote string `json:"vote"` // "approve" | "reject"
}

// VoteMissionPayload is the payload for voteMission
type VoteMissionPayload struct {
	Vote string `json:"vote"` // "success" | "fail"
}

// AssassinatePayload is the payload for assassinateLeader
type AssassinatePayload struct {
	TargetID string `json:"targetId"`
}

// Server message payloads

// ErrorPayload is the payload for error messages
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeInvalidRoom    = "invalid-room"
	ErrCodeRoomFull       = "full"
	ErrCodeInvalidAction  = "INVALID_ACTION"
	ErrCodeNotCreator     = "NOT_CREATOR"
	ErrCodeNotLeader      = "NOT_LEADER"
	ErrCodeNotAssassin    = "NOT_ASSASSIN"
	ErrCodeAlreadyVoted   = "ALREADY_VOTED"
	ErrCodeWrongTeamSize  = "WRONG_TEAM_SIZE"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)
