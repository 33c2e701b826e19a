package domain

import "time"

// Gender is carried for display only; no algorithm reads it.
type Gender string

const (
	GenderUnknown Gender = ""
	GenderFemale  Gender = "F"
	GenderMale    Gender = "M"
	GenderOther   Gender = "X"
)

// Individual is a person node in a family graph.
type Individual struct {
	ID        string     `json:"id" yaml:"id"`
	FullName  string     `json:"fullName,omitempty" yaml:"fullName,omitempty"`
	Gender    Gender     `json:"gender,omitempty" yaml:"gender,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty" yaml:"birthDate,omitempty"`
	DeathDate *time.Time `json:"deathDate,omitempty" yaml:"deathDate,omitempty"`
}

// RelationKind names the stored relationship types.
type RelationKind string

const (
	RelationParent  RelationKind = "parent"
	RelationSpouse  RelationKind = "spouse"
	RelationSibling RelationKind = "sibling"
)

// RelationshipEdge is a stored relationship. For RelationParent the source is
// the parent of the target; RelationSpouse is symmetric.
type RelationshipEdge struct {
	SourceID string       `json:"sourceId" yaml:"sourceId"`
	TargetID string       `json:"targetId" yaml:"targetId"`
	Kind     RelationKind `json:"kind" yaml:"kind"`
}

// FamilySnapshot is the full record set of one family at a point in time.
type FamilySnapshot struct {
	FamilyID    string             `json:"familyId,omitempty" yaml:"familyId,omitempty"`
	Individuals []Individual       `json:"individuals" yaml:"individuals"`
	Edges       []RelationshipEdge `json:"edges" yaml:"edges"`
}
