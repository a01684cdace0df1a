package resolve

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/jphelan/reaper/pkg/models"
)

// reportCycles finds strongly connected components in the import graph and
// surfaces each as a warning. Cycles do not affect resolution, which is
// protected separately by the depth circuit breaker.
func (b *Builder) reportCycles(edges map[string]map[string]bool) {
	if len(edges) == 0 {
		return
	}

	files := make([]string, 0, len(edges))
	seen := make(map[string]bool)
	for from, tos := range edges {
		if !seen[from] {
			seen[from] = true
			files = append(files, from)
		}
		for to := range tos {
			if !seen[to] {
				seen[to] = true
				files = append(files, to)
			}
		}
	}
	sort.Strings(files)

	g := simple.NewDirectedGraph()
	ids := make(map[string]int64, len(files))
	names := make(map[int64]string, len(files))
	for i, file := range files {
		id := int64(i + 1)
		ids[file] = id
		names[id] = file
		g.AddNode(simple.Node(id))
	}
	for from, tos := range edges {
		for to := range tos {
			g.SetEdge(simple.Edge{F: simple.Node(ids[from]), T: simple.Node(ids[to])})
		}
	}

	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		members := make([]string, 0, len(scc))
		for _, n := range scc {
			members = append(members, names[n.ID()])
		}
		sort.Strings(members)
		b.warnings.Add(models.WarnImportCycle, members[0], 0, "import cycle: "+strings.Join(members, " -> "))
	}
}
