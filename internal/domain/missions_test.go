package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredTeamSize_Table(t *testing.T) {
	assert := assert.New(t)

	expected := map[int][5]int{
		4:  {2, 2, 2, 3, 3},
		5:  {2, 3, 2, 3, 3},
		6:  {2, 3, 4, 3, 4},
		7:  {2, 3, 3, 4, 4},
		8:  {3, 4, 4, 5, 5},
		9:  {3, 4, 4, 5, 5},
		10: {3, 4, 4, 5, 5},
	}

	for capacity, sizes := range expected {
		for round := 1; round <= 5; round++ {
			assert.Equal(sizes[round-1], RequiredTeamSize(capacity, round),
				"capacity %d round %d", capacity, round)
		}
	}
}

func TestRequiredTeamSize_Fallback(t *testing.T) {
	assert := assert.New(t)

	// Capacity outside the table
	assert.Equal(2, RequiredTeamSize(3, 1))
	assert.Equal(2, RequiredTeamSize(11, 2))

	// Round outside the table
	assert.Equal(2, RequiredTeamSize(5, 0))
	assert.Equal(2, RequiredTeamSize(5, 6))
}
