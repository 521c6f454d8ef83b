package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/forceweaver/orghealth/internal/core"
)

const CheckAttributePicklist = "attribute_picklist_integrity"

// AttributePicklistCheck finds orphaned, empty and single-value attribute
// picklists.
type AttributePicklistCheck struct {
	client OrgClient
}

func NewAttributePicklistCheck(client OrgClient) *AttributePicklistCheck {
	return &AttributePicklistCheck{client: client}
}

func (c *AttributePicklistCheck) Name() string { return CheckAttributePicklist }

func (c *AttributePicklistCheck) Description() string {
	return "Checks attribute picklists for orphaned, empty and single-value records"
}

func (c *AttributePicklistCheck) Weight() float64 { return 1 }

func (c *AttributePicklistCheck) Run(ctx context.Context, session core.Session, apiVersion string) *core.CheckResult {
	exists, err := c.client.SObjectExists(ctx, session, apiVersion, "AttributePicklist")
	if err != nil {
		return errorResult(c.Name(), "could not probe for attribute picklist support", c.Weight())
	}
	if !exists {
		return skippedResult(c.Name(),
			"AttributePicklist is not available in this org; picklist checks require Revenue Cloud",
			c.Weight())
	}

	picklists, err := c.client.QueryAll(ctx, session, apiVersion,
		"SELECT Id, Name, Status, DataType FROM AttributePicklist WHERE Status = 'Active'")
	if err != nil {
		return errorResult(c.Name(), "could not query attribute picklists", c.Weight())
	}
	if len(picklists.Records) == 0 {
		return okResult(c.Name(), "no active attribute picklist records found in the org", nil, c.Weight())
	}

	definitions, err := c.client.QueryAll(ctx, session, apiVersion,
		"SELECT Id, Name, PicklistId FROM AttributeDefinition WHERE PicklistId != NULL AND IsActive = true")
	if err != nil {
		return errorResult(c.Name(), "could not query attribute definitions", c.Weight())
	}

	values, err := c.client.QueryAll(ctx, session, apiVersion,
		"SELECT Id, PicklistId, DisplayValue, Value FROM AttributePicklistValue WHERE PicklistId != NULL")
	if err != nil {
		return errorResult(c.Name(), "could not query attribute picklist values", c.Weight())
	}

	definitionsByPicklist := make(map[string][]string)
	for _, d := range definitions.Records {
		id := d.Str("PicklistId")
		definitionsByPicklist[id] = append(definitionsByPicklist[id], d.Str("Name"))
	}

	valuesByPicklist := make(map[string][]string)
	for _, v := range values.Records {
		id := v.Str("PicklistId")
		display := v.Str("DisplayValue")
		if display == "" {
			display = v.Str("Value")
		}
		valuesByPicklist[id] = append(valuesByPicklist[id], display)
	}

	var orphaned, empty, singleValue []string

	for _, pl := range picklists.Records {
		id := pl.Str("Id")
		name := pl.Str("Name")

		defs, referenced := definitionsByPicklist[id]
		if !referenced {
			orphaned = append(orphaned,
				fmt.Sprintf("%s - not referenced by any AttributeDefinition", name))
			continue
		}

		vals := valuesByPicklist[id]
		switch len(vals) {
		case 0:
			empty = append(empty, fmt.Sprintf("%s - no values, used by: %s",
				name, strings.Join(defs, ", ")))
		case 1:
			singleValue = append(singleValue, fmt.Sprintf("%s - only one value: '%s', used by: %s",
				name, vals[0], strings.Join(defs, ", ")))
		}
	}

	details := []string{fmt.Sprintf("Analyzed %d active attribute picklist records", len(picklists.Records))}
	appendSection := func(header string, items []string) {
		details = append(details, header)
		if len(items) == 0 {
			details = append(details, "   none found")
			return
		}
		for _, item := range items {
			details = append(details, "   "+item)
		}
	}
	appendSection("Orphaned picklists:", orphaned)
	appendSection("Empty picklists:", empty)
	appendSection("Single-value picklists:", singleValue)

	if len(orphaned) > 0 || len(empty) > 0 || len(singleValue) > 0 {
		details = append(details, "Recommendations:")
		if len(orphaned) > 0 {
			details = append(details, "   Remove orphaned picklists or reference them from an AttributeDefinition")
		}
		if len(empty) > 0 {
			details = append(details, "   Add values to empty picklists or switch the attribute to Text")
		}
		if len(singleValue) > 0 {
			details = append(details, "   Consider Text instead of a single-value picklist, or add more values")
		}
	}

	if len(orphaned) > 0 || len(empty) > 0 {
		var issues []string
		if len(orphaned) > 0 {
			issues = append(issues, fmt.Sprintf("%d orphaned picklists", len(orphaned)))
		}
		if len(empty) > 0 {
			issues = append(issues, fmt.Sprintf("%d empty picklists", len(empty)))
		}
		if len(singleValue) > 0 {
			issues = append(issues, fmt.Sprintf("%d single-value picklists", len(singleValue)))
		}
		r := errorResult(c.Name(), "found "+strings.Join(issues, ", "), c.Weight())
		r.Details = details
		return r
	}

	if len(singleValue) > 0 {
		message := fmt.Sprintf("found %d single-value picklists that could be optimized", len(singleValue))
		return warningResult(c.Name(), message, details, c.Weight())
	}

	return okResult(c.Name(),
		"all attribute picklist records are properly configured and referenced",
		details, c.Weight())
}
