package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomHitGroupsSeededIsReproducible(t *testing.T) {
	first := RandomHitGroups(42)
	second := RandomHitGroups(42)

	for i := 0; i < 32; i++ {
		a := first(i, 0, 8)
		b := second(i, 0, 8)
		assert.Equal(t, a, b)
		assert.GreaterOrEqual(t, a, 0)
		assert.Less(t, a, 8)
	}
}

func TestRandomHitGroupsSingleVariant(t *testing.T) {
	policy := RandomHitGroups(0)
	for i := 0; i < 8; i++ {
		assert.Zero(t, policy(i, 0, 1))
		assert.Zero(t, policy(i, 0, 0))
	}
}

func TestFirstHitGroup(t *testing.T) {
	policy := FirstHitGroup()
	assert.Zero(t, policy(3, 7, 16))
}
