package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vanshika/kintrace/internal/domain"
	"github.com/vanshika/kintrace/internal/graph"
)

// ErrFamilyNotFound is returned when no person belongs to the requested family.
var ErrFamilyNotFound = domain.ErrFamilyNotFound

// Repository reads family snapshots from the graph store.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// LoadFamily reads every person of a family and the relationships they
// originate. Relationship types other than parent, spouse and sibling are
// skipped here; dangling endpoints are left for the graph builder to drop.
func (r *Repository) LoadFamily(ctx context.Context, familyID string) (domain.FamilySnapshot, error) {
	familyID = strings.TrimSpace(familyID)
	if familyID == "" {
		return domain.FamilySnapshot{}, errors.New("family id is required")
	}
	params := map[string]any{"familyId": familyID}

	people, err := r.client.ExecuteRead(ctx, familyPersonsCypher, params)
	if err != nil {
		return domain.FamilySnapshot{}, fmt.Errorf("load persons of family %s: %w", familyID, err)
	}
	if len(people.Records) == 0 {
		return domain.FamilySnapshot{}, fmt.Errorf("%w: %s", ErrFamilyNotFound, familyID)
	}

	snap := domain.FamilySnapshot{
		FamilyID:    familyID,
		Individuals: make([]domain.Individual, 0, len(people.Records)),
	}
	for _, rec := range people.Records {
		snap.Individuals = append(snap.Individuals, domain.Individual{
			ID:        toString(rec["personId"]),
			FullName:  toString(rec["fullName"]),
			Gender:    domain.Gender(strings.ToUpper(toString(rec["gender"]))),
			BirthDate: toTimePtr(rec["birthDate"]),
			DeathDate: toTimePtr(rec["deathDate"]),
		})
	}

	rels, err := r.client.ExecuteRead(ctx, familyRelationshipsCypher, params)
	if err != nil {
		return domain.FamilySnapshot{}, fmt.Errorf("load relationships of family %s: %w", familyID, err)
	}
	for _, rec := range rels.Records {
		kind, ok := relationKinds[toString(rec["relType"])]
		if !ok {
			continue
		}
		snap.Edges = append(snap.Edges, domain.RelationshipEdge{
			SourceID: toString(rec["sourceId"]),
			TargetID: toString(rec["targetId"]),
			Kind:     kind,
		})
	}
	return snap, nil
}

// Ping checks that the graph store is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.VerifyConnectivity(ctx)
}

var relationKinds = map[string]domain.RelationKind{
	"PARENT_OF":  domain.RelationParent,
	"SPOUSE_OF":  domain.RelationSpouse,
	"SIBLING_OF": domain.RelationSibling,
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}

// toTimePtr accepts RFC 3339 strings, time.Time and the driver's temporal
// types (Date, LocalDateTime), which all expose Time().
func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		return &v
	case interface{ Time() time.Time }:
		t := v.Time()
		return &t
	case string:
		if v == "" {
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateOnly} {
			if parsed, err := time.Parse(layout, v); err == nil {
				return &parsed
			}
		}
	}
	return nil
}

const familyPersonsCypher = `
MATCH (p:Person {familyId: $familyId})
RETURN p.personId AS personId,
       p.fullName AS fullName,
       p.gender AS gender,
       p.birthDate AS birthDate,
       p.deathDate AS deathDate
ORDER BY p.personId
`

const familyRelationshipsCypher = `
MATCH (a:Person {familyId: $familyId})-[r:PARENT_OF|SPOUSE_OF|SIBLING_OF]->(b:Person)
RETURN a.personId AS sourceId,
       b.personId AS targetId,
       type(r) AS relType
ORDER BY sourceId, targetId, relType
`
