package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/forceweaver/orghealth/internal/core"
)

const CheckOWDSharing = "owd_sharing"

// Product catalog objects whose org-wide defaults must allow read access for
// the pricing engine to resolve them.
var pcmObjects = []string{
	"Product2", "Catalog", "Category", "AttributeDefinition", "AttributeCategory",
	"ProductClassification", "ProductSellingModel", "Pricebook2", "PricebookEntry",
	"ProductQualificationRule", "ProductDisqualificationRule", "DecisionMatrix", "ExpressionSet",
}

var sharingModelDisplay = map[string]string{
	"ReadWrite": "Public Read/Write",
	"Read":      "Public Read Only",
	"Private":   "Private",
}

// OWDSharingCheck verifies organization-wide default sharing on the product
// catalog objects.
type OWDSharingCheck struct {
	client OrgClient
}

func NewOWDSharingCheck(client OrgClient) *OWDSharingCheck {
	return &OWDSharingCheck{client: client}
}

func (c *OWDSharingCheck) Name() string { return CheckOWDSharing }

func (c *OWDSharingCheck) Description() string {
	return "Checks organization-wide default sharing settings for product catalog objects"
}

func (c *OWDSharingCheck) Weight() float64 { return 1 }

func (c *OWDSharingCheck) Run(ctx context.Context, session core.Session, apiVersion string) *core.CheckResult {
	quoted := make([]string, len(pcmObjects))
	for i, obj := range pcmObjects {
		quoted[i] = "'" + obj + "'"
	}
	soql := fmt.Sprintf(
		"SELECT QualifiedApiName, InternalSharingModel, Label FROM EntityDefinition WHERE QualifiedApiName IN (%s)",
		strings.Join(quoted, ","))

	result, err := c.client.QueryAll(ctx, session, apiVersion, soql)
	if err != nil {
		return errorResult(c.Name(), "could not query sharing settings", c.Weight())
	}
	if len(result.Records) == 0 {
		return errorResult(c.Name(), "no sharing settings found for product catalog objects", c.Weight())
	}

	found := make(map[string]string, len(result.Records))
	for _, record := range result.Records {
		found[record.Str("QualifiedApiName")] = record.Str("InternalSharingModel")
	}

	var passed, failed, missing []string
	var details []string

	for _, obj := range pcmObjects {
		model, ok := found[obj]
		if !ok {
			missing = append(missing, obj)
			details = append(details, fmt.Sprintf("%s: object not found", obj))
			continue
		}

		display := sharingModelDisplay[model]
		if display == "" {
			display = model
		}

		if model == "ReadWrite" || model == "Read" {
			passed = append(passed, obj)
			details = append(details, fmt.Sprintf("%s: %s (PASS)", obj, display))
		} else {
			failed = append(failed, obj)
			details = append(details, fmt.Sprintf("%s: %s (FAIL)", obj, display))
		}
	}

	if len(failed) > 0 {
		details = append(details, "Recommendations:")
		details = append(details, "Failed objects should be set to 'Public Read Only' or 'Public Read/Write'")
		details = append(details, "Navigate to: Setup > Security > Sharing Settings > Organization-Wide Defaults")
		for _, obj := range failed {
			details = append(details, fmt.Sprintf("    Change %s from 'Private' to 'Public Read Only'", obj))
		}

		message := fmt.Sprintf("%d objects have restrictive sharing settings that may prevent access", len(failed))
		r := errorResult(c.Name(), message, c.Weight())
		r.Details = details
		return r
	}

	if len(missing) > 0 {
		message := fmt.Sprintf("%d objects passed, %d objects not found", len(passed), len(missing))
		return warningResult(c.Name(), message, details, c.Weight())
	}

	message := fmt.Sprintf("all %d product catalog objects have proper OWD sharing settings", len(passed))
	return okResult(c.Name(), message, details, c.Weight())
}
