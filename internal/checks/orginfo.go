package checks

import (
	"context"
	"fmt"

	"github.com/forceweaver/orghealth/internal/core"
)

const CheckBasicOrgInfo = "basic_org_info"

// BasicOrgInfoCheck confirms the org answers queries at all and reports its
// identity. It doubles as the cheapest smoke test of the whole pipeline.
type BasicOrgInfoCheck struct {
	client OrgClient
}

func NewBasicOrgInfoCheck(client OrgClient) *BasicOrgInfoCheck {
	return &BasicOrgInfoCheck{client: client}
}

func (c *BasicOrgInfoCheck) Name() string { return CheckBasicOrgInfo }

func (c *BasicOrgInfoCheck) Description() string {
	return "Retrieves basic organization information (name, type, instance, sandbox status)"
}

func (c *BasicOrgInfoCheck) Weight() float64 { return 1 }

func (c *BasicOrgInfoCheck) Run(ctx context.Context, session core.Session, apiVersion string) *core.CheckResult {
	soql := "SELECT Id, Name, OrganizationType, InstanceName, IsSandbox, TrialExpirationDate FROM Organization LIMIT 1"

	result, err := c.client.Query(ctx, session, apiVersion, soql)
	if err != nil {
		return errorResult(c.Name(), "could not retrieve organization information", c.Weight())
	}
	if len(result.Records) == 0 {
		return errorResult(c.Name(), "organization record not found", c.Weight())
	}

	org := result.Records[0]
	sandbox := "No"
	if org.Bool("IsSandbox") {
		sandbox = "Yes"
	}

	details := []string{
		fmt.Sprintf("Organization: %s", org.Str("Name")),
		fmt.Sprintf("Type: %s", org.Str("OrganizationType")),
		fmt.Sprintf("Instance: %s", org.Str("InstanceName")),
		fmt.Sprintf("Sandbox: %s", sandbox),
	}
	if exp := org.Str("TrialExpirationDate"); exp != "" {
		details = append(details, fmt.Sprintf("Trial Expiration: %s", exp))
	}

	return okResult(c.Name(), "successfully retrieved organization information", details, c.Weight())
}
