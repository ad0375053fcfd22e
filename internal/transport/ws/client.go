package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"avalon/internal/app"
	"avalon/internal/domain"
	"avalon/internal/monitor"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client represents a WebSocket client connection. It is unbound at first
// and attaches to a room session on createRoom or joinRoom.
type Client struct {
	conn     *websocket.Conn
	hub      *app.RoomHub
	session  *app.RoomSession
	playerID string
	send     chan []byte
	done     chan struct{}
	logger   *slog.Logger
	metrics  *monitor.Metrics
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, hub *app.RoomHub, playerID string, logger *slog.Logger, metrics *monitor.Metrics) *Client {
	return &Client{
		conn:     conn,
		hub:      hub,
		playerID: playerID,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger,
		metrics:  metrics,
	}
}

// GetPlayerID returns the player ID for this client
func (c *Client) GetPlayerID() string {
	return c.playerID
}

// Send implements app.ClientConnection
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped", "playerID", c.playerID)
		return nil
	}
}

// Close implements app.ClientConnection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	if c.metrics != nil {
		c.metrics.PlayerConnected()
	}
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		if c.session != nil {
			c.session.UnregisterClient(c.playerID)
			c.session.Disconnect(c.playerID)
		}
		if c.metrics != nil {
			c.metrics.PlayerDisconnected()
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveEvent(time.Since(start))
		}
	}()

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	switch msg.Type {
	case MsgCreateRoom:
		c.handleCreateRoom(msg.Payload)
	case MsgJoinRoom:
		c.handleJoinRoom(msg.Payload)
	case MsgStartGame:
		c.handleStartGame(msg.Payload)
	case MsgDraftTeam:
		c.handleDraftTeam(msg.Payload)
	case MsgSelectTeam:
		c.handleSelectTeam(msg.Payload)
	case MsgVoteTeam:
		c.handleVoteTeam(msg.Payload)
	case MsgVoteMission:
		c.handleVoteMission(msg.Payload)
	case MsgAssassinateLeader:
		c.handleAssassinate(msg.Payload)
	case MsgPing:
		c.sendPong()
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
}

// handleCreateRoom handles a createRoom message
func (c *Client) handleCreateRoom(raw json.RawMessage) {
	var payload CreateRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Name == "" {
		c.sendError(ErrCodeInvalidMessage, "Name is required")
		return
	}

	settings := domain.DefaultSettings()
	if payload.MaxPlayers > 0 {
		settings.MaxPlayers = payload.MaxPlayers
	}
	if payload.AssassinCount > 0 {
		settings.AssassinCount = payload.AssassinCount
	}
	settings.LeaderMode = payload.LeaderModeEnabled

	session, err := c.hub.EnsureRoom(payload.Code, settings)
	if err != nil {
		c.sendDomainError(err)
		return
	}

	if err := c.bind(session, payload.Name, payload.Avatar, ""); err != nil {
		c.sendDomainError(err)
		return
	}

	applied := session.Settings()
	c.Send(NewServerMessage(MsgRoomCreated, domain.RoomCreatedPayload{
		Code:          session.RoomCode(),
		MaxPlayers:    applied.MaxPlayers,
		AssassinCount: applied.AssassinCount,
	}))
}

// handleJoinRoom handles a joinRoom message
func (c *Client) handleJoinRoom(raw json.RawMessage) {
	var payload JoinRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Name == "" || payload.Code == "" {
		c.sendError(ErrCodeInvalidMessage, "Name and room code are required")
		return
	}

	session, err := c.hub.Lookup(payload.Code)
	if err != nil {
		c.sendDomainError(err)
		return
	}

	if err := c.bind(session, payload.Name, payload.Avatar, payload.PrevID); err != nil {
		c.sendDomainError(err)
		return
	}
}

// bind joins the session and attaches this client to it. The private
// role delivery for mid-game rejoins comes out of the session itself.
func (c *Client) bind(session *app.RoomSession, name, avatar, prevID string) error {
	session.RegisterClient(c.playerID, c)
	if err := session.Join(c.playerID, name, avatar, prevID); err != nil {
		session.UnregisterClient(c.playerID)
		return err
	}
	c.session = session
	return nil
}

// handleStartGame handles a startGame message
func (c *Client) handleStartGame(raw json.RawMessage) {
	if c.session == nil {
		c.sendError(ErrCodeInvalidRoom, "Not in a room")
		return
	}

	var payload StartGamePayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			c.sendError(ErrCodeInvalidMessage, "Invalid payload")
			return
		}
	}

	if err := c.session.StartGame(c.playerID, payload.AssassinCount, payload.MaxPlayers); err != nil {
		c.sendDomainError(err)
	}
}

// handleDraftTeam handles a draftTeam message
func (c *Client) handleDraftTeam(raw json.RawMessage) {
	if c.session == nil {
		c.sendError(ErrCodeInvalidRoom, "Not in a room")
		return
	}

	var payload TeamPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	if err := c.session.DraftTeam(c.playerID, payload.Team); err != nil {
		c.sendDomainError(err)
	}
}

// handleSelectTeam handles a selectTeam message
func (c *Client) handleSelectTeam(raw json.RawMessage) {
	if c.session == nil {
		c.sendError(ErrCodeInvalidRoom, "Not in a room")
		return
	}

	var payload TeamPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	if err := c.session.SelectTeam(c.playerID, payload.Team); err != nil {
		c.sendDomainError(err)
	}
}

// handleVoteTeam handles a voteTeam message
func (c *Client) handleVoteTeam(raw json.RawMessage) {
	if c.session == nil {
		c.sendError(ErrCodeInvalidRoom, "Not in a room")
		return
	}

	var payload VoteTeamPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	var approve bool
	switch payload.Vote {
	case "approve":
		approve = true
	case "reject":
		approve = false
	default:
		c.sendError(ErrCodeInvalidMessage, "Vote must be approve or reject")
		return
	}

	if err := c.session.CastTeamVote(c.playerID, approve); err != nil {
		c.sendDomainError(err)
	}
}

// handleVoteMission handles a voteMission message
func (c *Client) handleVoteMission(raw json.RawMessage) {
	if c.session == nil {
		c.sendError(ErrCodeInvalidRoom, "Not in a room")
		return
	}

	var payload VoteMissionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	var success bool
	switch payload.Vote {
	case "success":
		success = true
	case "fail":
		success = false
	default:
		c.sendError(ErrCodeInvalidMessage, "Vote must be success or fail")
		return
	}

	if err := c.session.CastMissionVote(c.playerID, success); err != nil {
		c.sendDomainError(err)
	}
}

// handleAssassinate handles an assassinateLeader message
func (c *Client) handleAssassinate(raw json.RawMessage) {
	if c.session == nil {
		c.sendError(ErrCodeInvalidRoom, "Not in a room")
		return
	}

	var payload AssassinatePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.TargetID == "" {
		c.sendError(ErrCodeInvalidMessage, "Target player ID is required")
		return
	}

	if err := c.session.AssassinateLeader(c.playerID, payload.TargetID); err != nil {
		c.sendDomainError(err)
	}
}

// sendDomainError maps a domain error to a wire error code
func (c *Client) sendDomainError(err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		c.sendError(ErrCodeInvalidRoom, "Room not found")
	case errors.Is(err, domain.ErrRoomFull):
		c.sendError(ErrCodeRoomFull, "Room is full")
	case errors.Is(err, domain.ErrNotCreator):
		c.sendError(ErrCodeNotCreator, "Only the room creator can do that")
	case errors.Is(err, domain.ErrNotLeader):
		c.sendError(ErrCodeNotLeader, "Only the current leader can do that")
	case errors.Is(err, domain.ErrNotAssassin):
		c.sendError(ErrCodeNotAssassin, "Only an assassin can do that")
	case errors.Is(err, domain.ErrAlreadyVoted):
		c.sendError(ErrCodeAlreadyVoted, "You have already voted")
	case errors.Is(err, domain.ErrWrongTeamSize):
		c.sendError(ErrCodeWrongTeamSize, err.Error())
	case errors.Is(err, domain.ErrWrongPlayerCount):
		c.sendError(ErrCodeInvalidAction, err.Error())
	case errors.Is(err, domain.ErrInvalidConfig):
		c.sendError(ErrCodeInvalidAction, err.Error())
	case errors.Is(err, domain.ErrInvalidPhase),
		errors.Is(err, domain.ErrGameInProgress),
		errors.Is(err, domain.ErrNotOnTeam),
		errors.Is(err, domain.ErrPlayerNotFound):
		c.sendError(ErrCodeInvalidAction, "That action is not available right now")
	default:
		c.sendError(ErrCodeInternalError, err.Error())
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	c.Send(NewServerMessage(MsgError, &ErrorPayload{
		Code:    code,
		Message: message,
	}))
}

// sendPong sends a pong message in response to ping
func (c *Client) sendPong() {
	c.Send(NewServerMessage(MsgPong, nil))
}
