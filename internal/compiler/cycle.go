package compiler

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/symbolic/internal/ir"
)

// CycleWarning describes one cycle in the type hierarchy. The validator turns
// each into an E110 error; Path is kept for tooling that wants to show it.
type CycleWarning struct {
	Path    []string `json:"path"` // ["a", "b", "a"], starting at the smallest name
	Message string   `json:"message"`
}

// AnalyzeTypeCycles reports every cycle among the declared parent links.
//
// Each type has at most one parent, so every component of the parent graph
// holds at most one cycle and a walk up the parent chain finds it. Types are
// walked in sorted order so the result is deterministic. Undeclared parents
// and the root type end a walk.
func AnalyzeTypeCycles(types []ir.TypeDecl) []CycleWarning {
	parent := make(map[string]string, len(types))
	for _, t := range types {
		if _, seen := parent[t.Name]; seen {
			continue // duplicates are reported elsewhere
		}
		if t.Parent == ir.RootType {
			parent[t.Name] = ""
			continue
		}
		parent[t.Name] = t.Parent
	}

	warnings := []CycleWarning{}
	walkOf := make(map[string]int) // type -> walk that first reached it
	for walk, start := range slices.Sorted(maps.Keys(parent)) {
		walk++
		for name := start; name != ""; name = parent[name] {
			if w, ok := walkOf[name]; ok {
				if w == walk {
					warnings = append(warnings, cycleAt(name, parent))
				}
				break
			}
			if _, declared := parent[name]; !declared {
				break
			}
			walkOf[name] = walk
		}
	}

	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// cycleAt builds the warning for the cycle through name.
func cycleAt(name string, parent map[string]string) CycleWarning {
	members := []string{name}
	for next := parent[name]; next != name; next = parent[next] {
		members = append(members, next)
	}

	if len(members) == 1 {
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("type %s is its own parent", name),
		}
	}

	// Rotate so the path starts at the smallest member.
	first := slices.Index(members, slices.Min(members))
	path := append(slices.Clone(members[first:]), members[:first]...)
	path = append(path, path[0])
	return CycleWarning{
		Path:    path,
		Message: "type cycle: " + strings.Join(path, " → "),
	}
}
