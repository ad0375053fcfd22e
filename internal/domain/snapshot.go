package domain

// Snapshot builds an immutable state payload from the room at this moment.
// Every slice and map is copied so that later mutations never leak into a
// payload that is already queued for broadcast.
func (r *Room) Snapshot() StatePayload {
	players := make([]PlayerInfo, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.players[id]; ok {
			players = append(players, p.ToInfo())
		}
	}

	snapshot := StatePayload{
		Phase:        r.phase,
		LeaderID:     r.LeaderID(),
		Round:        r.round,
		Results:      append([]MissionResult(nil), r.results...),
		GoodWins:     r.goodWins,
		AssassinWins: r.assassinWins,
		Team:         append([]string(nil), r.team...),
		TeamVotes:    append([]TeamVote(nil), r.teamVotes...),
		MissionVotes: append([]MissionVote(nil), r.missionVotes...),
		Players:      players,
		MaxPlayers:   r.Settings.MaxPlayers,
	}

	// Roles stay hidden until the game is over
	if r.phase == PhaseGameOver {
		roles := make(map[string]Role, len(r.roles))
		for id, role := range r.roles {
			roles[id] = role
		}
		snapshot.Roles = roles
	}

	return snapshot
}

// RoleView returns the private role payload for a player, if one has been
// dealt. Used at game start and for mid-game reconnections.
func (r *Room) RoleView(playerID string) (RolePayload, bool) {
	role, ok := r.roles[playerID]
	if !ok {
		return RolePayload{}, false
	}
	return RolePayload{Role: role}, true
}
