package checks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/forceweaver/orghealth/internal/core"
)

const CheckBundleAnalysis = "bundle_analysis"

const (
	maxBundleDepth       = 5
	maxBundleComponents  = 200
	bundleComponentsWarn = 180
)

// BundleAnalysisCheck walks the bundle hierarchy looking for depth and
// component-count violations and circular dependencies.
type BundleAnalysisCheck struct {
	client OrgClient
}

func NewBundleAnalysisCheck(client OrgClient) *BundleAnalysisCheck {
	return &BundleAnalysisCheck{client: client}
}

func (c *BundleAnalysisCheck) Name() string { return CheckBundleAnalysis }

func (c *BundleAnalysisCheck) Description() string {
	return "Analyzes bundle hierarchy depth, component counts and circular dependencies"
}

func (c *BundleAnalysisCheck) Weight() float64 { return 1 }

// component is one parent->child edge in the bundle graph.
type component struct {
	childID   string
	childType string
}

func (c *BundleAnalysisCheck) Run(ctx context.Context, session core.Session, apiVersion string) *core.CheckResult {
	exists, err := c.client.SObjectExists(ctx, session, apiVersion, "ProductRelatedComponent")
	if err != nil {
		return errorResult(c.Name(), "could not probe for bundle support", c.Weight())
	}
	if !exists {
		return skippedResult(c.Name(),
			"ProductRelatedComponent is not available in this org; bundle analysis requires Revenue Cloud",
			c.Weight())
	}

	bundles, err := c.client.QueryAll(ctx, session, apiVersion,
		"SELECT Id, Name, Type FROM Product2 WHERE Type = 'Bundle' AND IsActive = true")
	if err != nil {
		return errorResult(c.Name(), "could not query bundle products", c.Weight())
	}
	if len(bundles.Records) == 0 {
		return okResult(c.Name(), "no active bundle products found in the org", nil, c.Weight())
	}

	components, err := c.client.QueryAll(ctx, session, apiVersion,
		"SELECT Id, ParentProductId, ChildProductId, ChildProduct.Type FROM ProductRelatedComponent "+
			"WHERE ParentProductId != NULL AND ChildProductId != NULL")
	if err != nil {
		return errorResult(c.Name(), "could not query bundle components", c.Weight())
	}

	graph := make(map[string][]component)
	for _, record := range components.Records {
		parent := record.Str("ParentProductId")
		graph[parent] = append(graph[parent], component{
			childID:   record.Str("ChildProductId"),
			childType: record.Sub("ChildProduct").Str("Type"),
		})
	}

	type bundleStats struct {
		name       string
		depth      int
		components int
	}

	var stats []bundleStats
	var depthViolations, componentViolations, nearLimit []bundleStats
	names := make(map[string]string, len(bundles.Records))

	for _, bundle := range bundles.Records {
		names[bundle.Str("Id")] = bundle.Str("Name")
	}

	for _, bundle := range bundles.Records {
		depth, count := analyzeHierarchy(bundle.Str("Id"), graph, 1, map[string]bool{})
		s := bundleStats{name: bundle.Str("Name"), depth: depth, components: count}
		stats = append(stats, s)

		if depth > maxBundleDepth {
			depthViolations = append(depthViolations, s)
		}
		switch {
		case count > maxBundleComponents:
			componentViolations = append(componentViolations, s)
		case count > bundleComponentsWarn:
			nearLimit = append(nearLimit, s)
		}
	}

	bundleIDs := make([]string, 0, len(bundles.Records))
	for _, bundle := range bundles.Records {
		bundleIDs = append(bundleIDs, bundle.Str("Id"))
	}
	cycles := detectCycles(bundleIDs, graph, names)

	details := []string{fmt.Sprintf("Analyzed %d bundle products", len(bundles.Records))}

	maxDepth, maxComponents := 0, 0
	largest := stats[0]
	for _, s := range stats {
		if s.depth > maxDepth {
			maxDepth = s.depth
		}
		if s.components > maxComponents {
			maxComponents = s.components
		}
		if s.components > largest.components {
			largest = s
		}
	}

	details = append(details,
		fmt.Sprintf("Maximum components found: %d", maxComponents),
		fmt.Sprintf("Bundle with most components: %s (%d components)", largest.name, largest.components),
		fmt.Sprintf("Maximum depth found: %d levels", maxDepth),
	)

	if len(cycles) > 0 {
		details = append(details, fmt.Sprintf("%d circular dependencies detected:", len(cycles)))
		for i, cycle := range cycles {
			details = append(details, fmt.Sprintf("   %d. %s", i+1, cycle))
		}
	} else {
		details = append(details, "No circular dependencies found")
	}

	sorted := append([]bundleStats(nil), stats...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].components > sorted[j].components })
	for _, s := range sorted {
		details = append(details, fmt.Sprintf("   %s: %d components", s.name, s.components))
	}

	for _, s := range depthViolations {
		details = append(details, fmt.Sprintf("Depth limit violation (> %d levels): %s has %d levels",
			maxBundleDepth, s.name, s.depth))
	}
	for _, s := range componentViolations {
		details = append(details, fmt.Sprintf("Component count violation (> %d): %s has %d components",
			maxBundleComponents, s.name, s.components))
	}
	for _, s := range nearLimit {
		details = append(details, fmt.Sprintf("Approaching component limit: %s has %d/%d components",
			s.name, s.components, maxBundleComponents))
	}

	if len(depthViolations) > 0 || len(componentViolations) > 0 || len(cycles) > 0 {
		var parts []string
		if len(depthViolations) > 0 {
			parts = append(parts, fmt.Sprintf("%d depth violations", len(depthViolations)))
		}
		if len(componentViolations) > 0 {
			parts = append(parts, fmt.Sprintf("%d component violations", len(componentViolations)))
		}
		if len(cycles) > 0 {
			parts = append(parts, fmt.Sprintf("%d circular dependencies", len(cycles)))
		}
		r := errorResult(c.Name(), "found "+strings.Join(parts, ", "), c.Weight())
		r.Details = details
		return r
	}

	if len(nearLimit) > 0 {
		message := fmt.Sprintf("found %d bundles approaching component limits", len(nearLimit))
		return warningResult(c.Name(), message, details, c.Weight())
	}

	return okResult(c.Name(),
		"all bundles are within recommended depth and component limits with no circular dependencies",
		details, c.Weight())
}

// analyzeHierarchy walks a bundle's component tree, returning its maximum
// depth and total component count. Visited guards against cycles.
func analyzeHierarchy(bundleID string, graph map[string][]component, depth int, visited map[string]bool) (int, int) {
	if visited[bundleID] {
		return depth, 0
	}
	visited[bundleID] = true

	children := graph[bundleID]
	maxDepth := depth
	total := len(children)

	for _, child := range children {
		if child.childType != "Bundle" {
			continue
		}
		branch := make(map[string]bool, len(visited))
		for k, v := range visited {
			branch[k] = v
		}
		d, n := analyzeHierarchy(child.childID, graph, depth+1, branch)
		if d > maxDepth {
			maxDepth = d
		}
		total += n
	}

	return maxDepth, total
}

// detectCycles runs three-color DFS over the bundle-only subgraph and
// returns human-readable cycle paths, deduplicated across rotations.
func detectCycles(bundleIDs []string, graph map[string][]component, names map[string]string) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	bundleGraph := make(map[string][]string, len(bundleIDs))
	for _, id := range bundleIDs {
		for _, child := range graph[id] {
			if child.childType == "Bundle" {
				bundleGraph[id] = append(bundleGraph[id], child.childID)
			}
		}
		if _, ok := bundleGraph[id]; !ok {
			bundleGraph[id] = nil
		}
	}

	colors := make(map[string]int, len(bundleGraph))
	var rawCycles [][]string

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		switch colors[node] {
		case gray:
			start := 0
			for i, p := range path {
				if p == node {
					start = i
					break
				}
			}
			cycle := append([]string(nil), path[start:]...)
			rawCycles = append(rawCycles, cycle)
			return
		case black:
			return
		}

		colors[node] = gray
		for _, child := range bundleGraph[node] {
			dfs(child, append(path, node))
		}
		colors[node] = black
	}

	for id := range bundleGraph {
		if colors[id] == white {
			dfs(id, nil)
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, cycle := range rawCycles {
		key := normalizeCycle(cycle)
		if seen[key] {
			continue
		}
		seen[key] = true

		labels := make([]string, 0, len(cycle)+1)
		for _, id := range cycle {
			label := names[id]
			if label == "" {
				label = id
			}
			labels = append(labels, label)
		}
		labels = append(labels, labels[0])
		out = append(out, strings.Join(labels, " -> "))
	}
	return out
}

// normalizeCycle picks the minimal rotation so rotations of the same cycle
// compare equal.
func normalizeCycle(nodes []string) string {
	best := ""
	for i := range nodes {
		rotated := strings.Join(append(append([]string(nil), nodes[i:]...), nodes[:i]...), "|")
		if best == "" || rotated < best {
			best = rotated
		}
	}
	return best
}
