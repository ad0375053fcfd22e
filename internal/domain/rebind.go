package domain

// Rebind rewrites every reference to prevID with newID: the player record
// itself, rotation order, roles, the proposed team, both vote collections,
// the creator and the hidden leader. Used when a reconnecting participant
// is issued a new connection identifier. The caller must hold the room's
// serialization lock so no event interleaves mid-rewrite.
func (r *Room) Rebind(prevID, newID string) ([]GameEvent, error) {
	player, ok := r.players[prevID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	if prevID == newID {
		return r.stateEvents(), nil
	}

	delete(r.players, prevID)
	player.ID = newID
	r.players[newID] = player

	for i, id := range r.order {
		if id == prevID {
			r.order[i] = newID
		}
	}
	for i, id := range r.team {
		if id == prevID {
			r.team[i] = newID
		}
	}
	for i := range r.teamVotes {
		if r.teamVotes[i].PlayerID == prevID {
			r.teamVotes[i].PlayerID = newID
		}
	}
	for i := range r.missionVotes {
		if r.missionVotes[i].PlayerID == prevID {
			r.missionVotes[i].PlayerID = newID
		}
	}

	if role, ok := r.roles[prevID]; ok {
		delete(r.roles, prevID)
		r.roles[newID] = role
	}
	if r.CreatorID == prevID {
		r.CreatorID = newID
	}
	if r.hiddenLeaderID == prevID {
		r.hiddenLeaderID = newID
	}

	events := make([]GameEvent, 0, 2)
	if view, ok := r.RoleView(newID); ok {
		events = append(events, NewPlayerEvent(EventYourRole, r.Code, newID, view))
	}
	return append(events, r.stateEvents()...), nil
}
