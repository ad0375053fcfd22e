package domain

// teamSizes is the official mission table: capacity -> required team size
// for rounds 1 through 5.
var teamSizes = map[int][5]int{
	4:  {2, 2, 2, 3, 3},
	5:  {2, 3, 2, 3, 3},
	6:  {2, 3, 4, 3, 4},
	7:  {2, 3, 3, 4, 4},
	8:  {3, 4, 4, 5, 5},
	9:  {3, 4, 4, 5, 5},
	10: {3, 4, 4, 5, 5},
}

// defaultTeamSize is used for capacities or rounds outside the table
const defaultTeamSize = 2

// RequiredTeamSize returns the mission team size for the given room
// capacity and 1-based round number.
func RequiredTeamSize(capacity, round int) int {
	sizes, ok := teamSizes[capacity]
	if !ok {
		return defaultTeamSize
	}
	if round < 1 || round > len(sizes) {
		return defaultTeamSize
	}
	return sizes[round-1]
}
