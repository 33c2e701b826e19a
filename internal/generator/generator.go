package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/vanshika/kintrace/internal/domain"
)

// Generator produces synthetic multi-generation families. Every generated
// family is acyclic and lays out on consistent rows: each person sits on the
// row of their generation.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	nameFragments nameFragments
	next          int
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.Founders <= 0 {
		cfg.Founders = def.Founders
	}
	if cfg.Generations <= 0 {
		cfg.Generations = def.Generations
	}
	if cfg.MaxChildren <= 0 {
		cfg.MaxChildren = def.MaxChildren
	}
	if cfg.MarriageChance < 0 || cfg.MarriageChance > 1 {
		cfg.MarriageChance = def.MarriageChance
	}
	if cfg.InterBranchChance < 0 || cfg.InterBranchChance > 1 {
		cfg.InterBranchChance = def.InterBranchChance
	}
	if cfg.Isolated < 0 {
		cfg.Isolated = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
	}
}

type couple struct {
	a, b    string
	surname string
}

// Generate synthesises one family snapshot. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (domain.FamilySnapshot, error) {
	snap := domain.FamilySnapshot{FamilyID: g.cfg.FamilyID}

	var couples []couple
	for i := 0; i < g.cfg.Founders; i++ {
		surname := g.randomSurname()
		a := g.person(&snap, 0, surname)
		b := g.person(&snap, 0, g.randomSurname())
		snap.Edges = append(snap.Edges, spouse(a.ID, b.ID))
		couples = append(couples, couple{a: a.ID, b: b.ID, surname: surname})
	}

	for gen := 1; gen < g.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return domain.FamilySnapshot{}, err
		}

		type child struct {
			id      string
			surname string
			family  int
		}
		var children []child
		for ci, c := range couples {
			count := 1 + g.rand.Intn(g.cfg.MaxChildren)
			for k := 0; k < count; k++ {
				kid := g.person(&snap, gen, c.surname)
				snap.Edges = append(snap.Edges, parent(c.a, kid.ID), parent(c.b, kid.ID))
				children = append(children, child{id: kid.ID, surname: c.surname, family: ci})
			}
		}

		if gen == g.cfg.Generations-1 {
			break
		}

		married := make(map[string]bool, len(children))
		var next []couple
		for i, kid := range children {
			if married[kid.id] || g.rand.Float64() >= g.cfg.MarriageChance {
				continue
			}
			partner := ""
			if g.rand.Float64() < g.cfg.InterBranchChance {
				for j := i + 1; j < len(children); j++ {
					other := children[j]
					if other.family != kid.family && !married[other.id] {
						partner = other.id
						break
					}
				}
			}
			if partner == "" {
				partner = g.person(&snap, gen, g.randomSurname()).ID
			}
			married[kid.id] = true
			married[partner] = true
			snap.Edges = append(snap.Edges, spouse(kid.id, partner))
			next = append(next, couple{a: kid.id, b: partner, surname: kid.surname})
		}
		if len(next) == 0 {
			break
		}
		couples = next
	}

	for i := 0; i < g.cfg.Isolated; i++ {
		g.person(&snap, 0, g.randomSurname())
	}

	return snap, nil
}

func (g *Generator) person(snap *domain.FamilySnapshot, generation int, surname string) domain.Individual {
	g.next++
	birth := time.Date(1900+generation*28+g.rand.Intn(10), time.Month(1+g.rand.Intn(12)), 1+g.rand.Intn(28), 0, 0, 0, 0, time.UTC)
	ind := domain.Individual{
		ID:        fmt.Sprintf("P-%05d", g.next),
		FullName:  fmt.Sprintf("%s %s", g.nameFragments.first[g.rand.Intn(len(g.nameFragments.first))], surname),
		Gender:    g.randomGender(),
		BirthDate: &birth,
	}
	if generation < 2 && g.rand.Float64() < 0.7 {
		death := birth.AddDate(55+g.rand.Intn(35), g.rand.Intn(12), 0)
		ind.DeathDate = &death
	}
	snap.Individuals = append(snap.Individuals, ind)
	return ind
}

func parent(parentID, childID string) domain.RelationshipEdge {
	return domain.RelationshipEdge{SourceID: parentID, TargetID: childID, Kind: domain.RelationParent}
}

func spouse(a, b string) domain.RelationshipEdge {
	return domain.RelationshipEdge{SourceID: a, TargetID: b, Kind: domain.RelationSpouse}
}

func (g *Generator) randomSurname() string {
	return g.nameFragments.last[g.rand.Intn(len(g.nameFragments.last))]
}

func (g *Generator) randomGender() domain.Gender {
	options := []domain.Gender{domain.GenderFemale, domain.GenderMale, domain.GenderFemale, domain.GenderMale, domain.GenderOther}
	return options[g.rand.Intn(len(options))]
}

type nameFragments struct {
	first []string
	last  []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first: []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara"},
		last:  []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee"},
	}
}
