package domain

// TeamVote records one player's verdict on the proposed mission team
type TeamVote struct {
	PlayerID string `json:"playerId"`
	Approve  bool   `json:"approve"`
}

// MissionVote records one team member's mission card
type MissionVote struct {
	PlayerID string `json:"playerId"`
	Success  bool   `json:"success"`
}

// TeamVoteOutcome is the resolution of a completed team vote
type TeamVoteOutcome int

const (
	// TeamApproved means a strict majority approved the team
	TeamApproved TeamVoteOutcome = iota
	// TeamRejected means the team did not reach a strict majority
	TeamRejected
	// TeamSingleReject means exactly one player rejected. House rule: the
	// lone dissenter is suspicious enough that the round goes to the
	// assassins outright.
	TeamSingleReject
)

// TallyTeamVotes resolves a completed team vote
func TallyTeamVotes(votes []TeamVote) (approvals, rejections int, outcome TeamVoteOutcome) {
	for _, v := range votes {
		if v.Approve {
			approvals++
		} else {
			rejections++
		}
	}

	switch {
	case rejections == 1:
		outcome = TeamSingleReject
	case approvals > len(votes)/2:
		outcome = TeamApproved
	default:
		outcome = TeamRejected
	}
	return approvals, rejections, outcome
}

// TallyMissionVotes resolves a completed mission vote. A single fail card
// sinks the mission.
func TallyMissionVotes(votes []MissionVote) (successes, fails int, winner Winner) {
	for _, v := range votes {
		if v.Success {
			successes++
		} else {
			fails++
		}
	}

	winner = WinnerGood
	if fails > 0 {
		winner = WinnerAssassins
	}
	return successes, fails, winner
}

// hasTeamVote reports whether playerID already appears in a team vote collection
func hasTeamVote(votes []TeamVote, playerID string) bool {
	for _, v := range votes {
		if v.PlayerID == playerID {
			return true
		}
	}
	return false
}

func hasMissionVote(votes []MissionVote, playerID string) bool {
	for _, v := range votes {
		if v.PlayerID == playerID {
			return true
		}
	}
	return false
}
