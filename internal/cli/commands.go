package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanshika/kintrace/internal/kin"
)

type nodeView struct {
	Kind     string   `json:"kind"`
	ID       string   `json:"id"`
	Parents  []string `json:"parents,omitempty"`
	Children []string `json:"children,omitempty"`
}

type layoutView struct {
	FamilyID    string       `json:"familyId"`
	Generations int          `json:"generations"`
	Rows        [][]nodeView `json:"rows"`
}

func (a *app) layoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print the family by generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, familyID, err := a.family()
			if err != nil {
				return err
			}
			layout, err := svc.Layout(cmd.Context(), familyID)
			if err != nil {
				return fmt.Errorf("layout failed: %w", err)
			}

			view := layoutView{FamilyID: familyID, Generations: layout.Generations(), Rows: [][]nodeView{}}
			for _, row := range layout.Rows() {
				nodes := make([]nodeView, 0, len(row))
				for _, n := range row {
					switch n := n.(type) {
					case kin.Person:
						nodes = append(nodes, nodeView{Kind: "individual", ID: n.ID})
					case kin.Union:
						nodes = append(nodes, nodeView{Kind: "union", ID: n.ID, Parents: n.Parents[:], Children: n.Children})
					}
				}
				view.Rows = append(view.Rows, nodes)
			}

			return a.emit(cmd, view, func(w io.Writer) {
				for level, row := range view.Rows {
					labels := make([]string, 0, len(row))
					for _, n := range row {
						if n.Kind == "union" {
							labels = append(labels, "("+strings.Join(n.Parents, " + ")+")")
							continue
						}
						labels = append(labels, n.ID)
					}
					fmt.Fprintf(w, "generation %d: %s\n", level, strings.Join(labels, ", "))
				}
			})
		},
	}
}

func (a *app) kinshipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinship [a] [b]",
		Short: "Classify how b is related to a",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, familyID, err := a.family()
			if err != nil {
				return err
			}
			k, err := svc.Kinship(cmd.Context(), familyID, args[0], args[1])
			if err != nil {
				return fmt.Errorf("kinship failed: %w", err)
			}
			return a.emit(cmd, k, func(w io.Writer) {
				fmt.Fprintf(w, "%s to %s: %s\n", k.A, k.B, k.Label)
				switch k.Relation {
				case kin.RelationSiblings, kin.RelationAuntUncle, kin.RelationNieceNephew, kin.RelationCousins:
					fmt.Fprintf(w, "common ancestor: %s\n", k.Ancestor)
				}
			})
		},
	}
}

func (a *app) pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path [from] [to]",
		Short: "Find the shortest relational path between two people",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, familyID, err := a.family()
			if err != nil {
				return err
			}
			p, err := svc.Path(cmd.Context(), familyID, args[0], args[1])
			if err != nil {
				return fmt.Errorf("path failed: %w", err)
			}
			return a.emit(cmd, p, func(w io.Writer) {
				if !p.Found {
					fmt.Fprintf(w, "no path between %s and %s\n", p.From, p.To)
					return
				}
				var b strings.Builder
				b.WriteString(p.From)
				for _, s := range p.Steps {
					fmt.Fprintf(&b, " -[%s]-> %s", s.Kind, s.To)
				}
				fmt.Fprintln(w, b.String())
				fmt.Fprintf(w, "distance: %d\n", p.Distance)
			})
		},
	}
}

func (a *app) componentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "components",
		Short: "List the connected groups of the family",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, familyID, err := a.family()
			if err != nil {
				return err
			}
			cs, err := svc.Components(cmd.Context(), familyID)
			if err != nil {
				return fmt.Errorf("components failed: %w", err)
			}
			return a.emit(cmd, cs, func(w io.Writer) {
				for _, c := range cs {
					fmt.Fprintf(w, "component %d (%d members): %s\n", c.Index, len(c.Members), strings.Join(c.Members, ", "))
				}
			})
		},
	}
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print counts describing the family graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, familyID, err := a.family()
			if err != nil {
				return err
			}
			sum, err := svc.Summary(cmd.Context(), familyID)
			if err != nil {
				return fmt.Errorf("summary failed: %w", err)
			}
			return a.emit(cmd, sum, func(w io.Writer) {
				fmt.Fprintf(w, "family:        %s\n", sum.FamilyID)
				fmt.Fprintf(w, "individuals:   %d\n", sum.Individuals)
				fmt.Fprintf(w, "edges:         %d\n", sum.Edges)
				fmt.Fprintf(w, "dropped edges: %d\n", sum.DroppedEdges)
				fmt.Fprintf(w, "components:    %d\n", sum.Components)
				if sum.LayoutError != "" {
					fmt.Fprintf(w, "layout error:  %s\n", sum.LayoutError)
					return
				}
				fmt.Fprintf(w, "unions:        %d\n", sum.Unions)
				fmt.Fprintf(w, "generations:   %d\n", sum.Generations)
			})
		},
	}
}
