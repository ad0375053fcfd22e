package app

import (
	"log/slog"
	"sync"
	"time"

	"avalon/internal/domain"
)

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(message interface{}) error
	GetPlayerID() string
	Close() error
}

// Presence is notified when a room's population transitions. The hub uses
// these callbacks to arm and cancel the grace-period eviction timer.
type Presence interface {
	RoomOccupied(code string)
	RoomEmptied(code string)
}

// RoomSession wraps a room with its serialization lock and client
// management. Every mutating operation on the room goes through exactly
// one mutex, which reproduces the run-to-completion guarantee the game
// rules assume.
type RoomSession struct {
	room      *domain.Room
	mu        sync.Mutex
	clients   map[string]ClientConnection // playerID -> client
	clientsMu sync.RWMutex
	logger    *slog.Logger
	presence  Presence
	closed    bool

	// Event channel for broadcasting
	events chan domain.GameEvent
	done   chan struct{}
}

// NewRoomSession creates a new session around the given room
func NewRoomSession(room *domain.Room, logger *slog.Logger, presence Presence) *RoomSession {
	session := &RoomSession{
		room:     room,
		clients:  make(map[string]ClientConnection),
		logger:   logger,
		presence: presence,
		events:   make(chan domain.GameEvent, 100),
		done:     make(chan struct{}),
	}

	go session.eventLoop()

	return session
}

// RoomCode returns the room code
func (s *RoomSession) RoomCode() string {
	return s.room.Code
}

// CreatedAt returns when the room was created
func (s *RoomSession) CreatedAt() time.Time {
	return s.room.CreatedAt
}

// PlayerCount returns the number of players in the room
func (s *RoomSession) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.PlayerCount()
}

// Phase returns the current game phase
func (s *RoomSession) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Phase()
}

// Settings returns the room settings
func (s *RoomSession) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Settings
}

// CanJoin checks if a fresh player can join the room
func (s *RoomSession) CanJoin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.room.Phase() == domain.PhaseLobby &&
		s.room.PlayerCount() < s.room.Settings.MaxPlayers
}

// RegisterClient registers a client connection for a player
func (s *RoomSession) RegisterClient(playerID string, client ClientConnection) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[playerID] = client
}

// UnregisterClient removes a client connection
func (s *RoomSession) UnregisterClient(playerID string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, playerID)
}

// Join admits a player. With a previous identifier that still names a
// player in the room, the join is a reconnection and every reference is
// rebound to the new connection ID; otherwise it is a fresh lobby join.
func (s *RoomSession) Join(playerID, name, avatar, prevID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrRoomNotFound
	}

	var events []domain.GameEvent
	var err error
	if prevID != "" && s.room.HasPlayer(prevID) {
		events, err = s.room.Rebind(prevID, playerID)
	} else {
		events, err = s.room.AddPlayer(playerID, name, avatar)
	}
	if err == nil {
		s.queueEvents(events)
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}

	s.presence.RoomOccupied(s.room.Code)
	return nil
}

// Disconnect removes a player and purges its pending references. When the
// last player leaves, the hub is told so it can arm the cleanup timer.
func (s *RoomSession) Disconnect(playerID string) {
	s.mu.Lock()
	if s.closed || !s.room.HasPlayer(playerID) {
		s.mu.Unlock()
		return
	}
	events := s.room.RemovePlayer(playerID)
	empty := s.room.PlayerCount() == 0
	s.queueEvents(events)
	s.mu.Unlock()

	if empty {
		s.presence.RoomEmptied(s.room.Code)
	}
}

// StartGame starts the game on behalf of the creator
func (s *RoomSession) StartGame(callerID string, assassinCount, maxPlayers int) error {
	return s.apply(func() ([]domain.GameEvent, error) {
		return s.room.StartGame(callerID, assassinCount, maxPlayers)
	})
}

// DraftTeam updates the leader's team preview
func (s *RoomSession) DraftTeam(callerID string, team []string) error {
	return s.apply(func() ([]domain.GameEvent, error) {
		return s.room.DraftTeam(callerID, team)
	})
}

// SelectTeam submits the leader's team proposal
func (s *RoomSession) SelectTeam(callerID string, team []string) error {
	return s.apply(func() ([]domain.GameEvent, error) {
		return s.room.SelectTeam(callerID, team)
	})
}

// CastTeamVote records a team vote
func (s *RoomSession) CastTeamVote(playerID string, approve bool) error {
	return s.apply(func() ([]domain.GameEvent, error) {
		return s.room.CastTeamVote(playerID, approve)
	})
}

// CastMissionVote records a mission vote
func (s *RoomSession) CastMissionVote(playerID string, success bool) error {
	return s.apply(func() ([]domain.GameEvent, error) {
		return s.room.CastMissionVote(playerID, success)
	})
}

// AssassinateLeader resolves the assassination phase
func (s *RoomSession) AssassinateLeader(callerID, targetID string) error {
	return s.apply(func() ([]domain.GameEvent, error) {
		return s.room.AssassinateLeader(callerID, targetID)
	})
}

// apply runs one room operation under the serialization lock and queues
// whatever it broadcast. Queueing happens inside the locked region so the
// broadcast channel sees events in the exact order the room applied them;
// the channel send never blocks, so holding the lock here is safe.
func (s *RoomSession) apply(op func() ([]domain.GameEvent, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrRoomNotFound
	}
	events, err := op()
	if err != nil {
		return err
	}
	s.queueEvents(events)
	return nil
}

// SendStateTo delivers a private snapshot of the current state to one
// player, bypassing the room-wide broadcast
func (s *RoomSession) SendStateTo(playerID string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	event := domain.NewPlayerEvent(domain.EventState, s.room.Code, playerID, s.room.Snapshot())
	s.queueEvents([]domain.GameEvent{event})
	s.mu.Unlock()
}

// queueEvents adds events to the broadcast queue
func (s *RoomSession) queueEvents(events []domain.GameEvent) {
	for _, event := range events {
		select {
		case s.events <- event:
		default:
			s.logger.Warn("event queue full, dropping event", "type", event.Type, "roomCode", s.room.Code)
		}
	}
}

// eventLoop processes events and broadcasts to clients
func (s *RoomSession) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.events:
			s.broadcastEvent(event)
		}
	}
}

// broadcastEvent sends an event to the appropriate clients
func (s *RoomSession) broadcastEvent(event domain.GameEvent) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	// If player-specific, send only to that player
	if event.PlayerID != "" {
		if client, ok := s.clients[event.PlayerID]; ok {
			if err := client.Send(event); err != nil {
				s.logger.Debug("failed to send to client", "playerID", event.PlayerID, "error", err)
			}
		}
		return
	}

	for playerID, client := range s.clients {
		if err := client.Send(event); err != nil {
			s.logger.Debug("failed to send to client", "playerID", playerID, "error", err)
		}
	}
}

// Close shuts down the session and every client connection
func (s *RoomSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.shutdown()
}

// CloseIfEmpty closes the session only when no players remain. The
// emptiness check and the closed flag flip share one critical section, so
// a concurrent Join either lands first (the non-zero count keeps the room
// alive) or observes the closed flag and is refused. Returns whether the
// session was closed by this call.
func (s *RoomSession) CloseIfEmpty() bool {
	s.mu.Lock()
	if s.closed || s.room.PlayerCount() > 0 {
		s.mu.Unlock()
		return false
	}
	s.closed = true
	s.mu.Unlock()

	s.shutdown()
	return true
}

func (s *RoomSession) shutdown() {
	close(s.done)

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clients = make(map[string]ClientConnection)
	s.clientsMu.Unlock()
}
