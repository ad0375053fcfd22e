package app

import (
	"crypto/rand"
	"log/slog"
	"strings"
	"sync"
	"time"

	"avalon/internal/domain"
	"avalon/internal/monitor"
)

const (
	// DefaultRoomCodeLength is the default length for generated room codes
	DefaultRoomCodeLength = 6

	// DefaultGracePeriod is how long an emptied room survives before it is
	// discarded, giving a disconnected party a window to come back
	DefaultGracePeriod = 15 * time.Second
)

// RoomCodeChars are characters used for room codes (no ambiguous chars)
const RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomHub manages all active room sessions. Room codes are
// case-insensitive and stored uppercased.
type RoomHub struct {
	sessions map[string]*RoomSession
	timers   map[string]*time.Timer // armed eviction timers per room code
	mu       sync.Mutex

	roomCodeLength int
	gracePeriod    time.Duration
	roundLimit     int
	logger         *slog.Logger
	metrics        *monitor.Metrics
}

// HubOptions configures a RoomHub
type HubOptions struct {
	RoomCodeLength int
	GracePeriod    time.Duration
	RoundLimit     int
}

// NewRoomHub creates a new room hub
func NewRoomHub(logger *slog.Logger, metrics *monitor.Metrics, opts HubOptions) *RoomHub {
	if opts.RoomCodeLength <= 0 {
		opts.RoomCodeLength = DefaultRoomCodeLength
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	if opts.RoundLimit <= 0 {
		opts.RoundLimit = domain.DefaultRoundLimit
	}

	return &RoomHub{
		sessions:       make(map[string]*RoomSession),
		timers:         make(map[string]*time.Timer),
		roomCodeLength: opts.RoomCodeLength,
		gracePeriod:    opts.GracePeriod,
		roundLimit:     opts.RoundLimit,
		logger:         logger,
		metrics:        metrics,
	}
}

// NormalizeCode maps a player-supplied room code to its canonical form
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// EnsureRoom returns the session for the given code, creating it with the
// given settings if it does not exist yet. An empty code gets a generated
// one. Creation is idempotent: an existing room is returned as is and the
// supplied settings are ignored.
func (h *RoomHub) EnsureRoom(code string, settings domain.Settings) (*RoomSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	code = NormalizeCode(code)
	if code == "" {
		var err error
		code, err = h.generateUniqueCode()
		if err != nil {
			return nil, err
		}
	}

	if session, ok := h.sessions[code]; ok {
		return session, nil
	}

	settings.RoundLimit = h.roundLimit
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	session := NewRoomSession(domain.NewRoom(code, settings), h.logger, h)
	h.sessions[code] = session
	if h.metrics != nil {
		h.metrics.RoomOpened()
	}

	h.logger.Info("room created", "roomCode", code,
		"maxPlayers", settings.MaxPlayers, "assassinCount", settings.AssassinCount)

	return session, nil
}

// Lookup returns the session for the given code
func (h *RoomHub) Lookup(code string) (*RoomSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, ok := h.sessions[NormalizeCode(code)]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return session, nil
}

// SessionCount returns the number of active rooms
func (h *RoomHub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// TotalPlayerCount returns the total number of players across all rooms
func (h *RoomHub) TotalPlayerCount() int {
	h.mu.Lock()
	sessions := make([]*RoomSession, 0, len(h.sessions))
	for _, session := range h.sessions {
		sessions = append(sessions, session)
	}
	h.mu.Unlock()

	total := 0
	for _, session := range sessions {
		total += session.PlayerCount()
	}
	return total
}

// RoomOccupied implements Presence: a join or rejoin cancels any pending
// eviction for the room
func (h *RoomHub) RoomOccupied(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelTimerLocked(code)
}

// RoomEmptied implements Presence: the last player left, so the eviction
// timer is armed. Re-arming cancels any timer already running.
func (h *RoomHub) RoomEmptied(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[code]; !ok {
		return
	}

	h.cancelTimerLocked(code)
	h.timers[code] = time.AfterFunc(h.gracePeriod, func() {
		h.evict(code)
	})

	h.logger.Info("room empty, eviction armed", "roomCode", code, "gracePeriod", h.gracePeriod)
}

// evict discards an emptied room after the grace period. The session
// decides atomically whether it is still empty, so a rejoin racing the
// timer either keeps the room alive or fails cleanly against the closed
// session; it can never be admitted into a room that is being discarded.
func (h *RoomHub) evict(code string) {
	h.mu.Lock()
	delete(h.timers, code)
	session, ok := h.sessions[code]
	h.mu.Unlock()

	if !ok || !session.CloseIfEmpty() {
		return
	}

	h.mu.Lock()
	delete(h.sessions, code)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RoomClosed()
	}
	h.logger.Info("room evicted", "roomCode", code)
}

// cancelTimerLocked stops and forgets any eviction timer for the code.
// Caller must hold h.mu.
func (h *RoomHub) cancelTimerLocked(code string) {
	if timer, ok := h.timers[code]; ok {
		timer.Stop()
		delete(h.timers, code)
	}
}

// Close shuts down the hub and all sessions
func (h *RoomHub) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*RoomSession)
	for code, timer := range h.timers {
		timer.Stop()
		delete(h.timers, code)
	}
	h.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

// generateUniqueCode generates a random room code not currently in use.
// Caller must hold h.mu.
func (h *RoomHub) generateUniqueCode() (string, error) {
	for attempts := 0; attempts < 10; attempts++ {
		code, err := h.generateRoomCode()
		if err != nil {
			return "", err
		}
		if _, exists := h.sessions[code]; !exists {
			return code, nil
		}
	}
	return "", domain.ErrInvalidConfig
}

// generateRoomCode generates a random room code
func (h *RoomHub) generateRoomCode() (string, error) {
	b := make([]byte, h.roomCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	code := make([]byte, h.roomCodeLength)
	for i := range code {
		code[i] = RoomCodeChars[int(b[i])%len(RoomCodeChars)]
	}

	return string(code), nil
}
