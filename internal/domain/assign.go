package domain

import "math/rand"

// Assignment is the result of dealing roles for one game
type Assignment struct {
	Roles    map[string]Role
	LeaderID string // hidden leader, empty unless leader-mode
}

// AssassinIDs returns the identifiers holding an assassin role
func (a Assignment) AssassinIDs() []string {
	ids := make([]string, 0, len(a.Roles))
	for id, role := range a.Roles {
		if role.IsAssassin() {
			ids = append(ids, id)
		}
	}
	return ids
}

// AssignRoles deals roles to the given player IDs: a uniformly random
// permutation, the first `assassins` become assassins, the rest good.
// The count is clamped to [1, len(ids)-1]. With leaderMode one good
// player is additionally dealt the hidden leader role.
func AssignRoles(ids []string, assassins int, leaderMode bool) Assignment {
	shuffled := make([]string, len(ids))
	copy(shuffled, ids)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if assassins < 1 {
		assassins = 1
	}
	if assassins > len(ids)-1 {
		assassins = len(ids) - 1
	}

	roles := make(map[string]Role, len(shuffled))
	for i, id := range shuffled {
		if i < assassins {
			roles[id] = RoleAssassin
		} else {
			roles[id] = RoleGood
		}
	}

	assignment := Assignment{Roles: roles}

	if leaderMode {
		good := shuffled[assassins:]
		leaderID := good[rand.Intn(len(good))]
		roles[leaderID] = RoleLeader
		assignment.LeaderID = leaderID
	}

	return assignment
}
