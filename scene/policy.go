package scene

import "math/rand"

// HitGroupPolicy picks the shader-table record for an instance, given the
// node and mesh being placed and how many hit-group variants the pipeline
// carries. It exists to exercise multi-material dispatch; swap it for a
// material-driven policy in a real renderer.
type HitGroupPolicy func(node, mesh, variants int) int

// RandomHitGroups picks uniformly among the variants. A zero seed draws
// from a time-seeded source; any other seed is reproducible.
func RandomHitGroups(seed int64) HitGroupPolicy {
	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	}
	return func(node, mesh, variants int) int {
		if variants <= 1 {
			return 0
		}
		if rng != nil {
			return rng.Intn(variants)
		}
		return rand.Intn(variants)
	}
}

// FirstHitGroup always selects record zero.
func FirstHitGroup() HitGroupPolicy {
	return func(node, mesh, variants int) int { return 0 }
}
