package domain

// Phase represents the current phase of a game
type Phase string

const (
	PhaseLobby         Phase = "lobby"         // Waiting for players to join
	PhaseTeamSelection Phase = "teamSelection" // Leader is picking a mission team
	PhaseTeamVote      Phase = "teamVote"      // Everyone votes on the proposed team
	PhaseMissionVote   Phase = "missionVote"   // Team members vote on the mission
	PhaseAssassination Phase = "assassination" // Assassins get one shot at the hidden leader
	PhaseGameOver      Phase = "gameOver"      // Terminal
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from current phase to target phase is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseLobby:         {PhaseTeamSelection},
		PhaseTeamSelection: {PhaseTeamVote, PhaseGameOver},
		PhaseTeamVote:      {PhaseMissionVote, PhaseTeamSelection, PhaseGameOver},
		PhaseMissionVote:   {PhaseTeamSelection, PhaseAssassination, PhaseGameOver},
		PhaseAssassination: {PhaseGameOver},
		PhaseGameOver:      {PhaseTeamSelection}, // A fresh startGame deals new roles in place
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}

// InGame returns true once the room has left the lobby
func (p Phase) InGame() bool {
	return p != PhaseLobby
}
