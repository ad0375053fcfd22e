package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLobby(t *testing.T, capacity int, settings Settings) (*Room, []string) {
	t.Helper()

	room := NewRoom("TEST", settings)
	ids := make([]string, capacity)
	for i := range ids {
		ids[i] = fmt.Sprintf("conn-%d", i+1)
		_, err := room.AddPlayer(ids[i], fmt.Sprintf("Player %d", i+1), "")
		require.NoError(t, err)
	}
	return room, ids
}

func newStartedRoom(t *testing.T, capacity, assassins int, leaderMode bool) (*Room, []string) {
	t.Helper()

	room, ids := newLobby(t, capacity, Settings{
		MaxPlayers:    capacity,
		AssassinCount: assassins,
		LeaderMode:    leaderMode,
		RoundLimit:    DefaultRoundLimit,
	})
	_, err := room.StartGame(ids[0], 0, 0)
	require.NoError(t, err)
	return room, ids
}

// castTeamVotes submits one vote per player: the first `approvals` players
// approve, the rest reject. Returns the events from the final, resolving vote.
func castTeamVotes(t *testing.T, room *Room, ids []string, approvals int) []GameEvent {
	t.Helper()

	var last []GameEvent
	for i, id := range ids {
		events, err := room.CastTeamVote(id, i < approvals)
		require.NoError(t, err)
		last = events
	}
	return last
}

func TestAddPlayer_FullRoom(t *testing.T) {
	room, _ := newLobby(t, 4, Settings{MaxPlayers: 4, AssassinCount: 1})

	_, err := room.AddPlayer("conn-5", "Latecomer", "")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, 4, room.PlayerCount())
}

func TestAddPlayer_MidGameRejected(t *testing.T) {
	room, _ := newStartedRoom(t, 5, 2, false)

	_, err := room.AddPlayer("conn-9", "Latecomer", "")
	assert.ErrorIs(t, err, ErrGameInProgress)
}

func TestStartGame_Authorization(t *testing.T) {
	room, ids := newLobby(t, 5, Settings{MaxPlayers: 5, AssassinCount: 2})

	_, err := room.StartGame(ids[1], 0, 0)
	assert.ErrorIs(t, err, ErrNotCreator)
	assert.Equal(t, PhaseLobby, room.Phase())
}

func TestStartGame_WrongPlayerCount(t *testing.T) {
	room, ids := newLobby(t, 4, Settings{MaxPlayers: 5, AssassinCount: 2})

	_, err := room.StartGame(ids[0], 0, 0)
	assert.ErrorIs(t, err, ErrWrongPlayerCount)
	assert.Equal(t, PhaseLobby, room.Phase())
}

func TestStartGame_DealsRolesAndResets(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)

	assert.Equal(t, PhaseTeamSelection, room.Phase())
	assert.Equal(t, 1, room.Round())
	assert.Equal(t, ids[0], room.LeaderID())
	assert.Len(t, room.AssassinIDs(), 2)

	for _, id := range ids {
		role, ok := room.Role(id)
		require.True(t, ok, "no role for %s", id)
		assert.Contains(t, []Role{RoleAssassin, RoleGood}, role)
	}
}

func TestStartGame_PrivateRoleDelivery(t *testing.T) {
	room, ids := newLobby(t, 5, Settings{MaxPlayers: 5, AssassinCount: 2, LeaderMode: true})

	events, err := room.StartGame(ids[0], 0, 0)
	require.NoError(t, err)

	roleEvents := 0
	revealEvents := 0
	for _, event := range events {
		switch event.Type {
		case EventYourRole:
			assert.NotEmpty(t, event.PlayerID, "role delivery must be private")
			roleEvents++
		case EventAssassinsRevealed:
			assert.Equal(t, room.hiddenLeaderID, event.PlayerID)
			payload := event.Payload.(AssassinsRevealedPayload)
			assert.Len(t, payload.AssassinIDs, 2)
			revealEvents++
		}
	}
	assert.Equal(t, 5, roleEvents)
	assert.Equal(t, 1, revealEvents)
}

func TestSelectTeam_Validation(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)

	// Only the current leader may propose
	_, err := room.SelectTeam(ids[1], []string{ids[0], ids[1]})
	assert.ErrorIs(t, err, ErrNotLeader)

	// Round 1 with 5 players needs a team of 2
	_, err = room.SelectTeam(ids[0], []string{ids[0], ids[1], ids[2]})
	assert.ErrorIs(t, err, ErrWrongTeamSize)
	assert.Equal(t, PhaseTeamSelection, room.Phase())

	// Unknown ids are filtered before the size check
	_, err = room.SelectTeam(ids[0], []string{ids[0], "ghost", ids[1]})
	require.NoError(t, err)
	assert.Equal(t, PhaseTeamVote, room.Phase())
	assert.Equal(t, []string{ids[0], ids[1]}, room.team)
}

func TestDraftTeam_NoTransition(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)

	_, err := room.DraftTeam(ids[0], []string{ids[0]})
	require.NoError(t, err)
	assert.Equal(t, PhaseTeamSelection, room.Phase())
	assert.Equal(t, []string{ids[0]}, room.team)

	_, err = room.DraftTeam(ids[2], []string{ids[2]})
	assert.ErrorIs(t, err, ErrNotLeader)
}

func TestTeamVote_MajorityApprove(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)
	_, err := room.SelectTeam(ids[0], []string{ids[0], ids[1]})
	require.NoError(t, err)

	// 3 approve, 2 reject: strict majority moves to the mission
	castTeamVotes(t, room, ids, 3)

	assert.Equal(t, PhaseMissionVote, room.Phase())
	assert.Equal(t, 1, room.Round())
	assert.Empty(t, room.missionVotes)
	assert.Len(t, room.team, RequiredTeamSize(5, 1))
}

func TestTeamVote_SingleRejectResolvesRound(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)
	_, err := room.SelectTeam(ids[0], []string{ids[0], ids[1]})
	require.NoError(t, err)

	// 4 approve, 1 reject: the round goes straight to the assassins
	events := castTeamVotes(t, room, ids, 4)

	assert.Equal(t, PhaseTeamSelection, room.Phase())
	assert.Equal(t, 2, room.Round())
	assert.Equal(t, 1, room.assassinWins)
	assert.Equal(t, 0, room.goodWins)
	assert.Equal(t, ids[1], room.LeaderID())
	require.Len(t, room.results, 1)
	assert.Equal(t, MissionResult{Round: 1, Winner: WinnerAssassins, Reason: ReasonSingleReject}, room.results[0])

	var resolved *RoundResolvedPayload
	for _, event := range events {
		if event.Type == EventRoundResolved {
			payload := event.Payload.(RoundResolvedPayload)
			resolved = &payload
		}
	}
	require.NotNil(t, resolved)
	assert.Equal(t, WinnerAssassins, resolved.Winner)
	assert.Equal(t, 1, resolved.Round)
}

func TestTeamVote_MajorityRejectRotatesLeader(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)
	_, err := room.SelectTeam(ids[0], []string{ids[0], ids[1]})
	require.NoError(t, err)

	// 2 approve, 3 reject: same round, next leader
	castTeamVotes(t, room, ids, 2)

	assert.Equal(t, PhaseTeamSelection, room.Phase())
	assert.Equal(t, 1, room.Round())
	assert.Equal(t, ids[1], room.LeaderID())
	assert.Empty(t, room.team)
	assert.Empty(t, room.teamVotes)
	assert.Empty(t, room.results)
}

func TestTeamVote_DuplicateRejected(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)
	_, err := room.SelectTeam(ids[0], []string{ids[0], ids[1]})
	require.NoError(t, err)

	_, err = room.CastTeamVote(ids[0], true)
	require.NoError(t, err)

	_, err = room.CastTeamVote(ids[0], false)
	assert.ErrorIs(t, err, ErrAlreadyVoted)
	require.Len(t, room.teamVotes, 1)
	assert.True(t, room.teamVotes[0].Approve, "duplicate vote must not overwrite")
}

func TestMissionVote_FailSinksMission(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)
	_, err := room.SelectTeam(ids[0], []string{ids[0], ids[1]})
	require.NoError(t, err)
	castTeamVotes(t, room, ids, 5)
	require.Equal(t, PhaseMissionVote, room.Phase())

	_, err = room.CastMissionVote(ids[0], true)
	require.NoError(t, err)
	events, err := room.CastMissionVote(ids[1], false)
	require.NoError(t, err)

	assert.Equal(t, 1, room.assassinWins)
	assert.Equal(t, 2, room.Round())
	assert.Equal(t, PhaseTeamSelection, room.Phase())
	assert.Equal(t, ids[1], room.LeaderID())

	var result *MissionResultPayload
	for _, event := range events {
		if event.Type == EventMissionResult {
			payload := event.Payload.(MissionResultPayload)
			result = &payload
		}
	}
	require.NotNil(t, result)
	assert.Equal(t, WinnerAssassins, result.Winner)
	assert.Equal(t, 1, result.SuccessVotes)
	assert.Equal(t, 1, result.FailVotes)
}

func TestMissionVote_OnlyTeamMembers(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)
	_, err := room.SelectTeam(ids[0], []string{ids[0], ids[1]})
	require.NoError(t, err)
	castTeamVotes(t, room, ids, 5)

	_, err = room.CastMissionVote(ids[3], true)
	assert.ErrorIs(t, err, ErrNotOnTeam)

	_, err = room.CastMissionVote(ids[0], true)
	require.NoError(t, err)
	_, err = room.CastMissionVote(ids[0], false)
	assert.ErrorIs(t, err, ErrAlreadyVoted)
}

// playMission drives one full round to the given winner
func playMission(t *testing.T, room *Room, ids []string, success bool) {
	t.Helper()

	leader := room.LeaderID()
	size := RequiredTeamSize(room.Settings.MaxPlayers, room.Round())
	team := make([]string, 0, size)
	for _, id := range ids {
		if len(team) < size {
			team = append(team, id)
		}
	}

	_, err := room.SelectTeam(leader, team)
	require.NoError(t, err)
	castTeamVotes(t, room, ids, len(ids))
	require.Equal(t, PhaseMissionVote, room.Phase())

	for _, id := range team {
		_, err := room.CastMissionVote(id, success)
		require.NoError(t, err)
	}
}

func TestGameOver_AssassinsAtThreeRevealsRoles(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)

	for i := 0; i < 3; i++ {
		playMission(t, room, ids, false)
	}

	assert.Equal(t, PhaseGameOver, room.Phase())
	assert.Equal(t, 3, room.assassinWins)

	snapshot := room.Snapshot()
	require.NotNil(t, snapshot.Roles)
	assert.Len(t, snapshot.Roles, 5)
}

func TestGameOver_GoodAtThreeWithoutLeaderMode(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)

	for i := 0; i < 3; i++ {
		playMission(t, room, ids, true)
	}

	assert.Equal(t, PhaseGameOver, room.Phase())
	assert.Equal(t, 3, room.goodWins)
}

func TestRoundLimit_EndsGame(t *testing.T) {
	room, ids := newLobby(t, 5, Settings{
		MaxPlayers:    5,
		AssassinCount: 2,
		RoundLimit:    3,
	})
	_, err := room.StartGame(ids[0], 0, 0)
	require.NoError(t, err)

	playMission(t, room, ids, true)
	playMission(t, room, ids, false)
	playMission(t, room, ids, true)

	assert.Equal(t, PhaseGameOver, room.Phase())
	assert.Equal(t, 2, room.goodWins)
	assert.Equal(t, 1, room.assassinWins)
	assert.Len(t, room.results, 3)
}

func TestLeaderMode_AssassinationFlow(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, true)

	for i := 0; i < 3; i++ {
		playMission(t, room, ids, true)
	}

	require.Equal(t, PhaseAssassination, room.Phase())
	require.NotEmpty(t, room.hiddenLeaderID)

	assassins := room.AssassinIDs()
	require.NotEmpty(t, assassins)

	// Good-aligned callers cannot assassinate
	var goodID string
	for _, id := range ids {
		if role, _ := room.Role(id); role.IsGood() {
			goodID = id
			break
		}
	}
	_, err := room.AssassinateLeader(goodID, room.hiddenLeaderID)
	assert.ErrorIs(t, err, ErrNotAssassin)
	assert.Equal(t, PhaseAssassination, room.Phase())

	// Hitting the hidden leader wins the game for the assassins
	_, err = room.AssassinateLeader(assassins[0], room.hiddenLeaderID)
	require.NoError(t, err)
	assert.Equal(t, PhaseGameOver, room.Phase())
	last := room.results[len(room.results)-1]
	assert.Equal(t, WinnerAssassins, last.Winner)
	assert.Equal(t, ReasonAssassination, last.Reason)
}

func TestLeaderMode_AssassinationMiss(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 1, true)

	for i := 0; i < 3; i++ {
		playMission(t, room, ids, true)
	}
	require.Equal(t, PhaseAssassination, room.Phase())

	// Name someone who is not the hidden leader
	var target string
	for _, id := range ids {
		if id != room.hiddenLeaderID {
			if role, _ := room.Role(id); role.IsGood() {
				target = id
				break
			}
		}
	}

	assassin := room.AssassinIDs()[0]
	_, err := room.AssassinateLeader(assassin, target)
	require.NoError(t, err)

	assert.Equal(t, PhaseGameOver, room.Phase())
	last := room.results[len(room.results)-1]
	assert.Equal(t, WinnerGood, last.Winner)
}

func TestLeaderRotation_ModuloCurrentCount(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)

	// Burn four rejections; the fifth proposal belongs to ids[4]
	for i := 0; i < 4; i++ {
		leader := room.LeaderID()
		assert.Equal(t, ids[i], leader)
		_, err := room.SelectTeam(leader, []string{ids[0], ids[1]})
		require.NoError(t, err)
		castTeamVotes(t, room, ids, 0)
	}
	assert.Equal(t, ids[4], room.LeaderID())
	assert.Equal(t, 1, room.Round())

	// One more rejection wraps back to ids[0]
	_, err := room.SelectTeam(ids[4], []string{ids[0], ids[1]})
	require.NoError(t, err)
	castTeamVotes(t, room, ids, 0)
	assert.Equal(t, ids[0], room.LeaderID())
}

func TestRemovePlayer_NormalizesLeaderIndex(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)

	// Rotate leadership to the last player
	for i := 0; i < 4; i++ {
		_, err := room.SelectTeam(room.LeaderID(), []string{ids[0], ids[1]})
		require.NoError(t, err)
		castTeamVotes(t, room, ids, 0)
	}
	require.Equal(t, ids[4], room.LeaderID())

	room.RemovePlayer(ids[4])

	assert.Equal(t, 4, room.PlayerCount())
	assert.Equal(t, ids[0], room.LeaderID())
}

func TestRemovePlayer_CompletesOpenTeamVote(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)
	_, err := room.SelectTeam(ids[0], []string{ids[0], ids[1]})
	require.NoError(t, err)

	// Everyone but the last player approves
	for _, id := range ids[:4] {
		_, err := room.CastTeamVote(id, true)
		require.NoError(t, err)
	}
	require.Equal(t, PhaseTeamVote, room.Phase())

	// The holdout disconnects; the vote resolves with the remaining four
	room.RemovePlayer(ids[4])

	assert.Equal(t, PhaseMissionVote, room.Phase())
}

func TestRemovePlayer_TeamWipedDuringMission(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)
	_, err := room.SelectTeam(ids[0], []string{ids[0], ids[1]})
	require.NoError(t, err)
	castTeamVotes(t, room, ids, 5)
	require.Equal(t, PhaseMissionVote, room.Phase())

	// Both proposed members disconnect before casting mission cards
	room.RemovePlayer(ids[0])
	require.Equal(t, PhaseMissionVote, room.Phase())
	room.RemovePlayer(ids[1])

	// The round restarts with a new proposal instead of stranding the
	// survivors in a phase nobody can act in
	assert.Equal(t, PhaseTeamSelection, room.Phase())
	assert.Equal(t, 1, room.Round())
	assert.Empty(t, room.team)
	assert.Empty(t, room.missionVotes)
	assert.Equal(t, ids[3], room.LeaderID())

	_, err = room.SelectTeam(ids[3], []string{ids[2], ids[3]})
	require.NoError(t, err)
	assert.Equal(t, PhaseTeamVote, room.Phase())
}

func TestTeamVote_ApprovedAfterTeamWipe(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)
	_, err := room.SelectTeam(ids[0], []string{ids[0], ids[1]})
	require.NoError(t, err)

	// The whole proposed team leaves while the vote is still open
	room.RemovePlayer(ids[0])
	room.RemovePlayer(ids[1])
	require.Equal(t, PhaseTeamVote, room.Phase())

	// The survivors approve a team that no longer exists; selection
	// restarts rather than entering a mission with nobody on it
	for _, id := range ids[2:] {
		_, err := room.CastTeamVote(id, true)
		require.NoError(t, err)
	}

	assert.Equal(t, PhaseTeamSelection, room.Phase())
	assert.Equal(t, 1, room.Round())
	assert.Equal(t, ids[3], room.LeaderID())
}

func TestRemovePlayer_ReassignsCreator(t *testing.T) {
	room, ids := newLobby(t, 4, Settings{MaxPlayers: 4, AssassinCount: 1})

	require.Equal(t, ids[0], room.CreatorID)
	room.RemovePlayer(ids[0])
	assert.Equal(t, ids[1], room.CreatorID)
}

func TestRebind_PreservesIdentityState(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)
	_, err := room.SelectTeam(ids[0], []string{ids[0], ids[1]})
	require.NoError(t, err)
	_, err = room.CastTeamVote(ids[1], true)
	require.NoError(t, err)

	prevRole, _ := room.Role(ids[1])

	_, err = room.Rebind(ids[1], "conn-new")
	require.NoError(t, err)

	// No duplicate player record remains
	assert.Equal(t, 5, room.PlayerCount())
	assert.False(t, room.HasPlayer(ids[1]))
	require.True(t, room.HasPlayer("conn-new"))

	// Role, team membership and vote history survive under the new ID
	newRole, ok := room.Role("conn-new")
	require.True(t, ok)
	assert.Equal(t, prevRole, newRole)
	assert.Contains(t, room.team, "conn-new")
	require.Len(t, room.teamVotes, 1)
	assert.Equal(t, "conn-new", room.teamVotes[0].PlayerID)

	// Rotation slot is preserved: one rejection later the new ID leads
	for _, id := range room.order {
		if id != "conn-new" {
			if !hasTeamVote(room.teamVotes, id) {
				_, err := room.CastTeamVote(id, false)
				require.NoError(t, err)
			}
		}
	}
	assert.Equal(t, "conn-new", room.LeaderID())
}

func TestRebind_UnknownPrevID(t *testing.T) {
	room, _ := newStartedRoom(t, 5, 2, false)

	_, err := room.Rebind("ghost", "conn-new")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestRebind_CreatorAndLeaderRole(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, true)

	leader := room.hiddenLeaderID
	_, err := room.Rebind(leader, "conn-new")
	require.NoError(t, err)
	assert.Equal(t, "conn-new", room.hiddenLeaderID)

	if leader != ids[0] {
		_, err = room.Rebind(ids[0], "conn-creator")
		require.NoError(t, err)
		assert.Equal(t, "conn-creator", room.CreatorID)
	}
}

func TestSnapshot_IsDetached(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)
	_, err := room.SelectTeam(ids[0], []string{ids[0], ids[1]})
	require.NoError(t, err)

	snapshot := room.Snapshot()
	require.Equal(t, []string{ids[0], ids[1]}, snapshot.Team)
	assert.Nil(t, snapshot.Roles, "roles stay hidden before game over")

	// Later mutations must not leak into the captured snapshot
	castTeamVotes(t, room, ids, 0)
	assert.Equal(t, []string{ids[0], ids[1]}, snapshot.Team)
	assert.Equal(t, PhaseTeamVote, snapshot.Phase)
}

func TestVote_WrongPhase(t *testing.T) {
	room, ids := newStartedRoom(t, 5, 2, false)

	_, err := room.CastTeamVote(ids[0], true)
	assert.ErrorIs(t, err, ErrInvalidPhase)

	_, err = room.CastMissionVote(ids[0], true)
	assert.ErrorIs(t, err, ErrInvalidPhase)

	_, err = room.AssassinateLeader(ids[0], ids[1])
	assert.ErrorIs(t, err, ErrInvalidPhase)
}

func TestPhaseTransitionTable(t *testing.T) {
	assert := assert.New(t)

	assert.True(PhaseLobby.CanTransitionTo(PhaseTeamSelection))
	assert.True(PhaseTeamVote.CanTransitionTo(PhaseMissionVote))
	assert.True(PhaseMissionVote.CanTransitionTo(PhaseAssassination))
	assert.True(PhaseAssassination.CanTransitionTo(PhaseGameOver))
	assert.False(PhaseLobby.CanTransitionTo(PhaseMissionVote))
	assert.False(PhaseGameOver.CanTransitionTo(PhaseTeamVote))
	assert.False(PhaseAssassination.CanTransitionTo(PhaseTeamSelection))
}
