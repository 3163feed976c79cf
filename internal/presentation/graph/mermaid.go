package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/qret/pkg/domain"
)

// Overlay contains the live session state to visualize on the screen tree.
type Overlay struct {
	State       domain.TransientState
	CurrentNode string // last clicked node
}

// GenerateMermaid produces a Mermaid flowchart of a screen's interaction tree.
// It applies role styling:
// - Stage: [Rectangle]
// - Actor: ([Stadium])
// - Vignette: {{Hexagon}}, labelled with the keys it waits for
// Edges run from each node to the nodes it encloses. With an overlay,
// visible vignettes and actors whose own key is active are highlighted.
func GenerateMermaid(tree *domain.Tree, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if tree == nil {
		return sb.String()
	}

	nodes := tree.Nodes()
	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		label := node.ID
		switch node.Role {
		case domain.RoleActor:
			opener, closer = "([", "])"
		case domain.RoleVignette:
			opener, closer = "{{", "}}"
			if keys := node.Setting.Keys(); len(keys) > 0 {
				label = fmt.Sprintf("%s <br/> %s", node.ID, strings.Join(keys, " & "))
			}
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escape(label), closer))

		if parent := tree.Parent(node.ID); parent != "" {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeMermaidID(parent), safeID))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text stays readable on both light and dark themes.
		sb.WriteString("    classDef active fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef visible fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for _, node := range nodes {
			safeID := sanitizeMermaidID(node.ID)
			switch {
			case node.Role == domain.RoleVignette && domain.Visible(node, overlay.State):
				sb.WriteString(fmt.Sprintf("    class %s visible;\n", safeID))
			case node.Role == domain.RoleActor && overlay.State.IsActive(node.ID):
				sb.WriteString(fmt.Sprintf("    class %s active;\n", safeID))
			}
		}

		if overlay.CurrentNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode)))
		}
	}

	return sb.String()
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
