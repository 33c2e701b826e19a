package server

import "github.com/vanshika/kintrace/internal/kin"

type pairRequest struct {
	A string `json:"a" validate:"required"`
	B string `json:"b" validate:"required"`
}

type kinshipBatchRequest struct {
	Pairs []pairRequest `json:"pairs" validate:"required,min=1,dive"`
}

type layoutNode struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Level int    `json:"level"`
}

type unionResponse struct {
	ID       string    `json:"id"`
	Parents  [2]string `json:"parents"`
	Children []string  `json:"children"`
	Level    int       `json:"level"`
}

type layoutResponse struct {
	FamilyID    string          `json:"familyId"`
	Generations int             `json:"generations"`
	Rows        [][]layoutNode  `json:"rows"`
	Unions      []unionResponse `json:"unions"`
}

type kinshipResponse struct {
	A           string `json:"a"`
	B           string `json:"b"`
	Relation    string `json:"relation"`
	Label       string `json:"label"`
	Ancestor    string `json:"ancestor,omitempty"`
	DistanceA   int    `json:"distanceA"`
	DistanceB   int    `json:"distanceB"`
	Generations int    `json:"generations,omitempty"`
	Degree      int    `json:"degree,omitempty"`
	Removal     int    `json:"removal,omitempty"`
}

type kinshipBatchItem struct {
	Index   int              `json:"index"`
	A       string           `json:"a"`
	B       string           `json:"b"`
	Kinship *kinshipResponse `json:"kinship,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type kinshipBatchResponse struct {
	FamilyID string             `json:"familyId"`
	Results  []kinshipBatchItem `json:"results"`
	Failed   int                `json:"failed"`
}

type stepResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

type pathResponse struct {
	From     string         `json:"from"`
	To       string         `json:"to"`
	Found    bool           `json:"found"`
	Distance int            `json:"distance"`
	IDs      []string       `json:"ids"`
	Steps    []stepResponse `json:"steps"`
}

type componentResponse struct {
	Index   int      `json:"index"`
	Size    int      `json:"size"`
	Members []string `json:"members"`
}

type componentsResponse struct {
	FamilyID   string              `json:"familyId"`
	Count      int                 `json:"count"`
	Components []componentResponse `json:"components"`
}

func newLayoutResponse(familyID string, l kin.Layout) layoutResponse {
	resp := layoutResponse{
		FamilyID:    familyID,
		Generations: l.Generations(),
		Rows:        [][]layoutNode{},
		Unions:      []unionResponse{},
	}
	for _, row := range l.Rows() {
		nodes := make([]layoutNode, 0, len(row))
		for _, n := range row {
			lvl, _ := l.Level(n)
			id := n.NodeID()
			nodes = append(nodes, layoutNode{Kind: id.Kind.String(), ID: id.Key, Level: lvl})
		}
		resp.Rows = append(resp.Rows, nodes)
	}
	for _, u := range l.Unions {
		lvl, _ := l.UnionLevel(u.ID)
		resp.Unions = append(resp.Unions, unionResponse{
			ID:       u.ID,
			Parents:  u.Parents,
			Children: u.Children,
			Level:    lvl,
		})
	}
	return resp
}

func newKinshipResponse(k kin.Kinship) kinshipResponse {
	return kinshipResponse{
		A:           k.A,
		B:           k.B,
		Relation:    k.Relation.String(),
		Label:       k.Label,
		Ancestor:    k.Ancestor,
		DistanceA:   k.DistanceA,
		DistanceB:   k.DistanceB,
		Generations: k.Generations,
		Degree:      k.Degree,
		Removal:     k.Removal,
	}
}

func newPathResponse(p kin.Path) pathResponse {
	resp := pathResponse{
		From:     p.From,
		To:       p.To,
		Found:    p.Found,
		Distance: p.Distance,
		IDs:      []string{},
		Steps:    []stepResponse{},
	}
	resp.IDs = append(resp.IDs, p.IDs...)
	for _, s := range p.Steps {
		resp.Steps = append(resp.Steps, stepResponse{From: s.From, To: s.To, Kind: s.Kind.String()})
	}
	return resp
}

func newComponentsResponse(familyID string, cs []kin.Component) componentsResponse {
	resp := componentsResponse{FamilyID: familyID, Count: len(cs), Components: []componentResponse{}}
	for _, c := range cs {
		resp.Components = append(resp.Components, componentResponse{
			Index:   c.Index,
			Size:    len(c.Members),
			Members: c.Members,
		})
	}
	return resp
}
