package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/forceweaver/orghealth/internal/core"
)

const CheckAttributeOverride = "attribute_override"

const maxBundleAttributes = 600

// AttributeOverrideCheck counts attribute definitions across each bundle's
// full product tree against the platform limit.
type AttributeOverrideCheck struct {
	client OrgClient
}

func NewAttributeOverrideCheck(client OrgClient) *AttributeOverrideCheck {
	return &AttributeOverrideCheck{client: client}
}

func (c *AttributeOverrideCheck) Name() string { return CheckAttributeOverride }

func (c *AttributeOverrideCheck) Description() string {
	return "Checks per-bundle attribute override counts against the platform limit"
}

func (c *AttributeOverrideCheck) Weight() float64 { return 1 }

func (c *AttributeOverrideCheck) Run(ctx context.Context, session core.Session, apiVersion string) *core.CheckResult {
	exists, err := c.client.SObjectExists(ctx, session, apiVersion, "ProductAttributeDefinition")
	if err != nil {
		return errorResult(c.Name(), "could not probe for attribute support", c.Weight())
	}
	if !exists {
		return skippedResult(c.Name(),
			"ProductAttributeDefinition is not available in this org; attribute checks require Revenue Cloud",
			c.Weight())
	}

	bundles, err := c.client.QueryAll(ctx, session, apiVersion,
		"SELECT Id, Name, Type FROM Product2 WHERE Type = 'Bundle' AND IsActive = true")
	if err != nil {
		return errorResult(c.Name(), "could not query bundle products", c.Weight())
	}
	if len(bundles.Records) == 0 {
		return okResult(c.Name(), "no bundle products found in the org", nil, c.Weight())
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

	var violations, scanned []string

	for _, bundle := range bundles.Records {
		bundleName := bundle.Str("Name")
		productIDs := collectBundleProducts(bundle.Str("Id"), graph, map[string]bool{})

		quoted := make([]string, 0, len(productIDs))
		for id := range productIDs {
			quoted = append(quoted, "'"+id+"'")
		}

		soql := fmt.Sprintf(
			"SELECT COUNT() FROM ProductAttributeDefinition WHERE Product2Id IN (%s)",
			strings.Join(quoted, ","))

		count, err := c.client.Query(ctx, session, apiVersion, soql)
		if err != nil {
			violations = append(violations,
				fmt.Sprintf("error counting attributes for bundle '%s'", bundleName))
			continue
		}

		scanned = append(scanned,
			fmt.Sprintf("Bundle '%s' has %d attribute overrides", bundleName, count.TotalSize))
		if count.TotalSize > maxBundleAttributes {
			violations = append(violations,
				fmt.Sprintf("Bundle '%s' has %d attributes, which exceeds the limit of %d",
					bundleName, count.TotalSize, maxBundleAttributes))
		}
	}

	if len(violations) > 0 {
		details := []string{"Violations found:"}
		details = append(details, violations...)
		details = append(details,
			"Recommendations:",
			"Review the bundle structure and attribute usage",
			"Consider reducing the number of attributes or splitting large bundles",
		)
		details = append(details, scanned...)

		r := errorResult(c.Name(),
			fmt.Sprintf("%d bundle(s) exceeded the attribute limit or failed to scan", len(violations)),
			c.Weight())
		r.Details = details
		return r
	}

	return okResult(c.Name(),
		"all bundles are within the recommended attribute override limits",
		scanned, c.Weight())
}

// collectBundleProducts gathers the bundle's full product subtree, itself
// included. Visited breaks cycles.
func collectBundleProducts(productID string, graph map[string][]component, visited map[string]bool) map[string]bool {
	if visited[productID] {
		return map[string]bool{}
	}
	visited[productID] = true

	ids := map[string]bool{productID: true}
	for _, child := range graph[productID] {
		if child.childID == "" {
			continue
		}
		for id := range collectBundleProducts(child.childID, graph, visited) {
			ids[id] = true
		}
	}
	return ids
}
