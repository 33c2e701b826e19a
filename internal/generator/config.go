package generator

// Config drives the synthetic family generator.
type Config struct {
	FamilyID string
	// Founders is the number of founding couples on the first generation.
	Founders    int
	Generations int
	// MaxChildren bounds the children of each couple; every couple has at least one.
	MaxChildren    int
	MarriageChance float64
	// InterBranchChance is the probability that a marriage joins two
	// descendants of the family instead of bringing in an outside spouse.
	InterBranchChance float64
	// Isolated adds individuals without any relationship.
	Isolated int
	Seed     int64
}

// DefaultConfig returns settings that produce a few hundred individuals.
func DefaultConfig() Config {
	return Config{
		FamilyID:          "FAM-SYNTHETIC",
		Founders:          2,
		Generations:       5,
		MaxChildren:       3,
		MarriageChance:    0.8,
		InterBranchChance: 0.15,
		Isolated:          0,
		Seed:              42,
	}
}
