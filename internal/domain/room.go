package domain

import (
	"fmt"
	"time"
)

// Capacity bounds for a room
const (
	MinCapacity = 4
	MaxCapacity = 10
)

// DefaultRoundLimit is the number of resolved rounds that ends a game
const DefaultRoundLimit = 5

// Settings holds the configuration fixed at room creation
type Settings struct {
	MaxPlayers    int  `json:"maxPlayers"`
	AssassinCount int  `json:"assassinCount"`
	LeaderMode    bool `json:"leaderModeEnabled"`
	RoundLimit    int  `json:"roundLimit"`
}

// DefaultSettings returns the default room settings
func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:    5,
		AssassinCount: 2,
		LeaderMode:    false,
		RoundLimit:    DefaultRoundLimit,
	}
}

// Validate checks the settings against the allowed bounds
func (s Settings) Validate() error {
	if s.MaxPlayers < MinCapacity || s.MaxPlayers > MaxCapacity {
		return fmt.Errorf("%w: capacity must be between %d and %d", ErrInvalidConfig, MinCapacity, MaxCapacity)
	}
	if s.AssassinCount < 1 || s.AssassinCount > s.MaxPlayers-1 {
		return fmt.Errorf("%w: assassin count must be between 1 and %d", ErrInvalidConfig, s.MaxPlayers-1)
	}
	return nil
}

// Result reasons recorded in the round log
const (
	ReasonMission       = "mission"
	ReasonSingleReject  = "singleReject"
	ReasonAssassination = "assassination"
)

// MissionResult is one entry in the append-only round log
type MissionResult struct {
	Round  int    `json:"round"`
	Winner Winner `json:"winner"`
	Reason string `json:"reason"`
}

// Room is the aggregate holding one game's full data. It carries no locks;
// the caller must serialize all mutating operations (see app.RoomSession).
type Room struct {
	Code      string
	Settings  Settings
	CreatorID string
	CreatedAt time.Time

	players map[string]*Player
	order   []string // insertion order, defines leadership rotation

	phase        Phase
	round        int
	leaderIndex  int
	team         []string
	teamVotes    []TeamVote
	missionVotes []MissionVote

	roles          map[string]Role
	hiddenLeaderID string

	goodWins     int
	assassinWins int
	results      []MissionResult
}

// NewRoom creates a new room with the given code and settings
func NewRoom(code string, settings Settings) *Room {
	if settings.RoundLimit <= 0 {
		settings.RoundLimit = DefaultRoundLimit
	}
	return &Room{
		Code:      code,
		Settings:  settings,
		CreatedAt: time.Now(),
		players:   make(map[string]*Player),
		phase:     PhaseLobby,
	}
}

// Phase returns the current phase
func (r *Room) Phase() Phase {
	return r.phase
}

// Round returns the current 1-based round number
func (r *Room) Round() int {
	return r.round
}

// PlayerCount returns the number of players currently in the room
func (r *Room) PlayerCount() int {
	return len(r.players)
}

// HasPlayer reports whether the given connection ID is in the room
func (r *Room) HasPlayer(id string) bool {
	_, ok := r.players[id]
	return ok
}

// LeaderID returns the connection ID of the current leader, or "" for an
// empty room
func (r *Room) LeaderID() string {
	if len(r.order) == 0 {
		return ""
	}
	return r.order[r.leaderIndex%len(r.order)]
}

// Role returns the role dealt to the given player, if any
func (r *Room) Role(playerID string) (Role, bool) {
	role, ok := r.roles[playerID]
	return role, ok
}

// AssassinIDs returns the identifiers currently holding an assassin role
func (r *Room) AssassinIDs() []string {
	return Assignment{Roles: r.roles}.AssassinIDs()
}

// AddPlayer adds a fresh player to the room. New identities are only
// admitted in the lobby; mid-game arrivals must rebind a previous one.
func (r *Room) AddPlayer(id, name, avatar string) ([]GameEvent, error) {
	if r.phase.InGame() {
		return nil, ErrGameInProgress
	}
	if len(r.players) >= r.Settings.MaxPlayers {
		return nil, ErrRoomFull
	}

	r.players[id] = NewPlayer(id, name, avatar)
	r.order = append(r.order, id)

	// First player in becomes the creator
	if r.CreatorID == "" {
		r.CreatorID = id
	}

	return r.stateEvents(), nil
}

// RemovePlayer removes a player and purges every pending reference to it.
// Removing an unknown ID is a no-op. If the removal completes an open vote
// collection, the vote resolves immediately.
func (r *Room) RemovePlayer(id string) []GameEvent {
	if _, ok := r.players[id]; !ok {
		return nil
	}

	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.team = removeID(r.team, id)
	r.teamVotes = removeTeamVote(r.teamVotes, id)
	r.missionVotes = removeMissionVote(r.missionVotes, id)

	// Keep the rotation index valid modulo the new player count
	if len(r.order) > 0 {
		r.leaderIndex %= len(r.order)
	} else {
		r.leaderIndex = 0
	}

	if r.CreatorID == id && len(r.order) > 0 {
		r.CreatorID = r.order[0]
	}

	if len(r.players) > 0 {
		switch r.phase {
		case PhaseTeamVote:
			if len(r.teamVotes) >= len(r.players) {
				return r.resolveTeamVote()
			}
		case PhaseMissionVote:
			if len(r.team) == 0 {
				// The whole proposed team left. Nobody can cast a mission
				// card anymore, so the round restarts with a new proposal.
				r.restartSelection()
			} else if len(r.missionVotes) >= len(r.team) {
				return r.resolveMissionVote()
			}
		}
	}

	return r.stateEvents()
}

// StartGame deals roles and begins the first round. Only the creator may
// start, and only with a full room. Optional non-zero overrides adjust the
// assassin count or capacity before validation.
func (r *Room) StartGame(callerID string, assassinCount, maxPlayers int) ([]GameEvent, error) {
	if callerID != r.CreatorID {
		return nil, ErrNotCreator
	}
	if r.phase != PhaseLobby && r.phase != PhaseGameOver {
		return nil, ErrInvalidPhase
	}

	settings := r.Settings
	if assassinCount > 0 {
		settings.AssassinCount = assassinCount
	}
	if maxPlayers > 0 {
		settings.MaxPlayers = maxPlayers
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(r.players) != settings.MaxPlayers {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrWrongPlayerCount, len(r.players), settings.MaxPlayers)
	}
	r.Settings = settings

	assignment := AssignRoles(r.order, settings.AssassinCount, settings.LeaderMode)
	r.roles = assignment.Roles
	r.hiddenLeaderID = assignment.LeaderID

	r.round = 1
	r.leaderIndex = 0
	r.goodWins = 0
	r.assassinWins = 0
	r.results = nil
	r.team = nil
	r.teamVotes = nil
	r.missionVotes = nil
	r.phase = PhaseTeamSelection

	events := make([]GameEvent, 0, len(r.players)+2)
	for id := range r.players {
		events = append(events, NewPlayerEvent(EventYourRole, r.Code, id, RolePayload{Role: r.roles[id]}))
	}
	if r.hiddenLeaderID != "" {
		events = append(events, NewPlayerEvent(EventAssassinsRevealed, r.Code, r.hiddenLeaderID,
			AssassinsRevealedPayload{AssassinIDs: assignment.AssassinIDs()}))
	}
	return append(events, r.stateEvents()...), nil
}

// DraftTeam updates the leader's team preview without changing phase
func (r *Room) DraftTeam(callerID string, team []string) ([]GameEvent, error) {
	if r.phase != PhaseTeamSelection {
		return nil, ErrInvalidPhase
	}
	if callerID != r.LeaderID() {
		return nil, ErrNotLeader
	}

	r.team = r.filterKnown(team)
	return r.stateEvents(), nil
}

// SelectTeam submits the leader's team proposal for the current round
func (r *Room) SelectTeam(callerID string, team []string) ([]GameEvent, error) {
	if r.phase != PhaseTeamSelection {
		return nil, ErrInvalidPhase
	}
	if callerID != r.LeaderID() {
		return nil, ErrNotLeader
	}

	filtered := r.filterKnown(team)
	need := RequiredTeamSize(r.Settings.MaxPlayers, r.round)
	if len(filtered) != need {
		return nil, fmt.Errorf("%w: round %d needs a team of %d", ErrWrongTeamSize, r.round, need)
	}

	r.team = filtered
	r.teamVotes = nil
	r.phase = PhaseTeamVote

	events := []GameEvent{NewEvent(EventTeamVoteStart, r.Code, TeamVoteStartPayload{
		Team:     append([]string(nil), r.team...),
		LeaderID: r.LeaderID(),
		Round:    r.round,
	})}
	return append(events, r.stateEvents()...), nil
}

// CastTeamVote records one player's verdict on the proposed team. The vote
// resolves once every current player has voted.
func (r *Room) CastTeamVote(playerID string, approve bool) ([]GameEvent, error) {
	if r.phase != PhaseTeamVote {
		return nil, ErrInvalidPhase
	}
	if !r.HasPlayer(playerID) {
		return nil, ErrPlayerNotFound
	}
	if hasTeamVote(r.teamVotes, playerID) {
		return nil, ErrAlreadyVoted
	}

	r.teamVotes = append(r.teamVotes, TeamVote{PlayerID: playerID, Approve: approve})

	if len(r.teamVotes) < len(r.players) {
		return r.stateEvents(), nil
	}
	return r.resolveTeamVote(), nil
}

// CastMissionVote records one team member's mission card. The mission
// resolves once every team member has voted.
func (r *Room) CastMissionVote(playerID string, success bool) ([]GameEvent, error) {
	if r.phase != PhaseMissionVote {
		return nil, ErrInvalidPhase
	}
	if !containsID(r.team, playerID) {
		return nil, ErrNotOnTeam
	}
	if hasMissionVote(r.missionVotes, playerID) {
		return nil, ErrAlreadyVoted
	}

	r.missionVotes = append(r.missionVotes, MissionVote{PlayerID: playerID, Success: success})

	if len(r.missionVotes) < len(r.team) {
		return r.stateEvents(), nil
	}
	return r.resolveMissionVote(), nil
}

// AssassinateLeader lets an assassin name the hidden leader. Hitting the
// mark wins the game for the assassins; missing hands it to good.
func (r *Room) AssassinateLeader(callerID, targetID string) ([]GameEvent, error) {
	if r.phase != PhaseAssassination {
		return nil, ErrInvalidPhase
	}
	if role, ok := r.roles[callerID]; !ok || !role.IsAssassin() {
		return nil, ErrNotAssassin
	}

	winner := WinnerGood
	if targetID == r.hiddenLeaderID {
		winner = WinnerAssassins
	}
	r.results = append(r.results, MissionResult{Round: r.round, Winner: winner, Reason: ReasonAssassination})
	r.phase = PhaseGameOver

	return r.stateEvents(), nil
}

// resolveTeamVote tallies a completed team vote
func (r *Room) resolveTeamVote() []GameEvent {
	_, _, outcome := TallyTeamVotes(r.teamVotes)

	switch outcome {
	case TeamSingleReject:
		// A single dissenting vote is suspicious: the round goes to the
		// assassins without a mission.
		round := r.round
		r.concludeRound(WinnerAssassins, ReasonSingleReject)
		events := []GameEvent{NewEvent(EventRoundResolved, r.Code, RoundResolvedPayload{
			Round:  round,
			Winner: WinnerAssassins,
			Reason: ReasonSingleReject,
		})}
		return append(events, r.stateEvents()...)

	case TeamApproved:
		if len(r.team) == 0 {
			// The proposed team emptied out while the vote ran; there is
			// no mission to send anyone on.
			r.restartSelection()
			return r.stateEvents()
		}
		r.missionVotes = nil
		r.phase = PhaseMissionVote
		return r.stateEvents()

	default:
		// Rejected: rotate the leader, same round
		r.restartSelection()
		return r.stateEvents()
	}
}

// restartSelection abandons the current proposal and hands the same round
// to the next leader
func (r *Room) restartSelection() {
	r.team = nil
	r.teamVotes = nil
	r.missionVotes = nil
	r.advanceLeader()
	r.phase = PhaseTeamSelection
}

// resolveMissionVote tallies a completed mission vote
func (r *Room) resolveMissionVote() []GameEvent {
	successes, fails, winner := TallyMissionVotes(r.missionVotes)

	round := r.round
	r.concludeRound(winner, ReasonMission)

	events := []GameEvent{NewEvent(EventMissionResult, r.Code, MissionResultPayload{
		Round:        round,
		Winner:       winner,
		SuccessVotes: successes,
		FailVotes:    fails,
	})}
	return append(events, r.stateEvents()...)
}

// concludeRound appends the round result, updates the score and either
// ends the game, enters the assassination phase, or starts the next round.
func (r *Room) concludeRound(winner Winner, reason string) {
	r.results = append(r.results, MissionResult{Round: r.round, Winner: winner, Reason: reason})
	if winner == WinnerGood {
		r.goodWins++
	} else {
		r.assassinWins++
	}

	r.team = nil
	r.teamVotes = nil
	r.missionVotes = nil

	switch {
	case r.goodWins >= 3 && r.Settings.LeaderMode && r.hiddenLeaderID != "":
		// Good hit three wins, but the assassins still get a shot at the
		// hidden leader.
		r.phase = PhaseAssassination
	case r.goodWins >= 3 || r.assassinWins >= 3:
		r.phase = PhaseGameOver
	case len(r.results) >= r.Settings.RoundLimit:
		r.phase = PhaseGameOver
	default:
		r.round++
		r.advanceLeader()
		r.phase = PhaseTeamSelection
	}
}

// advanceLeader moves leadership by exactly one position modulo the
// current player count
func (r *Room) advanceLeader() {
	if len(r.order) == 0 {
		r.leaderIndex = 0
		return
	}
	r.leaderIndex = (r.leaderIndex + 1) % len(r.order)
}

// filterKnown returns the given IDs restricted to current players, in
// order and without duplicates
func (r *Room) filterKnown(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	filtered := make([]string, 0, len(ids))
	for _, id := range ids {
		if r.HasPlayer(id) && !seen[id] {
			seen[id] = true
			filtered = append(filtered, id)
		}
	}
	return filtered
}

// stateEvents wraps the current snapshot in a broadcast event
func (r *Room) stateEvents() []GameEvent {
	return []GameEvent{NewEvent(EventState, r.Code, r.Snapshot())}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func removeTeamVote(votes []TeamVote, id string) []TeamVote {
	out := votes[:0]
	for _, v := range votes {
		if v.PlayerID != id {
			out = append(out, v)
		}
	}
	return out
}

func removeMissionVote(votes []MissionVote, id string) []MissionVote {
	out := votes[:0]
	for _, v := range votes {
		if v.PlayerID != id {
			out = append(out, v)
		}
	}
	return out
}
