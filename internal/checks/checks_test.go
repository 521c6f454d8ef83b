package checks

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forceweaver/orghealth/internal/core"
	"github.com/forceweaver/orghealth/pkg/salesforce"
)

// fakeOrgClient routes SOQL by a distinguishing substring, so one fake can
// back every check unit.
type fakeOrgClient struct {
	results  map[string]*salesforce.QueryResult
	objects  map[string]bool
	queryErr error
}

func (f *fakeOrgClient) lookup(soql string) (*salesforce.QueryResult, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	for fragment, result := range f.results {
		if strings.Contains(soql, fragment) {
			return result, nil
		}
	}
	return &salesforce.QueryResult{Done: true}, nil
}

func (f *fakeOrgClient) Query(ctx context.Context, session core.Session, version, soql string) (*salesforce.QueryResult, error) {
	return f.lookup(soql)
}

func (f *fakeOrgClient) QueryAll(ctx context.Context, session core.Session, version, soql string) (*salesforce.QueryResult, error) {
	return f.lookup(soql)
}

func (f *fakeOrgClient) SObjectExists(ctx context.Context, session core.Session, version, name string) (bool, error) {
	return f.objects[name], nil
}

func records(recs ...salesforce.Record) *salesforce.QueryResult {
	return &salesforce.QueryResult{
		TotalSize: len(recs),
		Done:      true,
		Records:   recs,
	}
}

func TestBasicOrgInfo(t *testing.T) {
	client := &fakeOrgClient{results: map[string]*salesforce.QueryResult{
		"FROM Organization": records(salesforce.Record{
			"Name":             "Acme Corp",
			"OrganizationType": "Enterprise Edition",
			"InstanceName":     "NA123",
			"IsSandbox":        false,
		}),
	}}

	result := NewBasicOrgInfoCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	require.NotNil(t, result)
	assert.Equal(t, core.StatusOK, result.Status)
	assert.Contains(t, result.Details[0], "Acme Corp")
	assert.Contains(t, result.Details[3], "No")
}

func TestBasicOrgInfoQueryFailure(t *testing.T) {
	client := &fakeOrgClient{queryErr: core.ErrRemoteUnavailable}

	result := NewBasicOrgInfoCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	assert.Equal(t, core.StatusError, result.Status)
}

func TestOWDSharingAllPass(t *testing.T) {
	recs := make([]salesforce.Record, 0, len(pcmObjects))
	for _, obj := range pcmObjects {
		recs = append(recs, salesforce.Record{
			"QualifiedApiName":     obj,
			"InternalSharingModel": "ReadWrite",
		})
	}
	client := &fakeOrgClient{results: map[string]*salesforce.QueryResult{
		"FROM EntityDefinition": records(recs...),
	}}

	result := NewOWDSharingCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	assert.Equal(t, core.StatusOK, result.Status)
}

func TestOWDSharingPrivateFails(t *testing.T) {
	client := &fakeOrgClient{results: map[string]*salesforce.QueryResult{
		"FROM EntityDefinition": records(
			salesforce.Record{"QualifiedApiName": "Product2", "InternalSharingModel": "Private"},
			salesforce.Record{"QualifiedApiName": "Pricebook2", "InternalSharingModel": "Read"},
		),
	}}

	result := NewOWDSharingCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	assert.Equal(t, core.StatusError, result.Status)
	assert.Contains(t, result.Message, "restrictive sharing")

	var hasFail, hasRecommendation bool
	for _, d := range result.Details {
		if strings.Contains(d, "Product2: Private (FAIL)") {
			hasFail = true
		}
		if strings.Contains(d, "Sharing Settings") {
			hasRecommendation = true
		}
	}
	assert.True(t, hasFail)
	assert.True(t, hasRecommendation)
}

func TestOWDSharingMissingObjectsWarn(t *testing.T) {
	client := &fakeOrgClient{results: map[string]*salesforce.QueryResult{
		"FROM EntityDefinition": records(
			salesforce.Record{"QualifiedApiName": "Product2", "InternalSharingModel": "Read"},
		),
	}}

	result := NewOWDSharingCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	assert.Equal(t, core.StatusWarning, result.Status)
}

func TestBundleAnalysisSkippedWithoutFeature(t *testing.T) {
	client := &fakeOrgClient{objects: map[string]bool{}}

	result := NewBundleAnalysisCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	assert.Equal(t, core.StatusSkipped, result.Status)
	assert.Contains(t, result.Message, "Revenue Cloud")
}

func TestBundleAnalysisCleanHierarchy(t *testing.T) {
	client := &fakeOrgClient{
		objects: map[string]bool{"ProductRelatedComponent": true},
		results: map[string]*salesforce.QueryResult{
			"FROM Product2": records(
				salesforce.Record{"Id": "B1", "Name": "Starter Bundle", "Type": "Bundle"},
			),
			"FROM ProductRelatedComponent": records(
				salesforce.Record{
					"Id": "C1", "ParentProductId": "B1", "ChildProductId": "P1",
					"ChildProduct": map[string]interface{}{"Type": "Base"},
				},
			),
		},
	}

	result := NewBundleAnalysisCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	assert.Equal(t, core.StatusOK, result.Status)
}

func TestBundleAnalysisDetectsCycle(t *testing.T) {
	client := &fakeOrgClient{
		objects: map[string]bool{"ProductRelatedComponent": true},
		results: map[string]*salesforce.QueryResult{
			"FROM Product2": records(
				salesforce.Record{"Id": "B1", "Name": "Bundle One", "Type": "Bundle"},
				salesforce.Record{"Id": "B2", "Name": "Bundle Two", "Type": "Bundle"},
			),
			"FROM ProductRelatedComponent": records(
				salesforce.Record{
					"Id": "C1", "ParentProductId": "B1", "ChildProductId": "B2",
					"ChildProduct": map[string]interface{}{"Type": "Bundle"},
				},
				salesforce.Record{
					"Id": "C2", "ParentProductId": "B2", "ChildProductId": "B1",
					"ChildProduct": map[string]interface{}{"Type": "Bundle"},
				},
			),
		},
	}

	result := NewBundleAnalysisCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	assert.Equal(t, core.StatusError, result.Status)
	assert.Contains(t, result.Message, "circular")
}

func TestAttributeOverrideSkippedWithoutFeature(t *testing.T) {
	client := &fakeOrgClient{objects: map[string]bool{}}

	result := NewAttributeOverrideCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	assert.Equal(t, core.StatusSkipped, result.Status)
}

func TestAttributeOverrideWithinLimit(t *testing.T) {
	client := &fakeOrgClient{
		objects: map[string]bool{"ProductAttributeDefinition": true},
		results: map[string]*salesforce.QueryResult{
			"FROM Product2": records(
				salesforce.Record{"Id": "B1", "Name": "Small Bundle", "Type": "Bundle"},
			),
			"FROM ProductAttributeDefinition": {TotalSize: 12, Done: true},
		},
	}

	result := NewAttributeOverrideCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	assert.Equal(t, core.StatusOK, result.Status)
	assert.Contains(t, result.Details[0], "12 attribute overrides")
}

func TestAttributeOverrideExceedsLimit(t *testing.T) {
	client := &fakeOrgClient{
		objects: map[string]bool{"ProductAttributeDefinition": true},
		results: map[string]*salesforce.QueryResult{
			"FROM Product2": records(
				salesforce.Record{"Id": "B1", "Name": "Huge Bundle", "Type": "Bundle"},
			),
			"FROM ProductAttributeDefinition": {TotalSize: 601, Done: true},
		},
	}

	result := NewAttributeOverrideCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	assert.Equal(t, core.StatusError, result.Status)
}

func TestPicklistSkippedWithoutFeature(t *testing.T) {
	client := &fakeOrgClient{objects: map[string]bool{}}

	result := NewAttributePicklistCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	assert.Equal(t, core.StatusSkipped, result.Status)
}

func TestPicklistOrphanedAndEmptyFail(t *testing.T) {
	client := &fakeOrgClient{
		objects: map[string]bool{"AttributePicklist": true},
		results: map[string]*salesforce.QueryResult{
			"FROM AttributePicklist WHERE": records(
				salesforce.Record{"Id": "PL1", "Name": "Colors"},
				salesforce.Record{"Id": "PL2", "Name": "Sizes"},
			),
			"FROM AttributeDefinition": records(
				salesforce.Record{"Id": "AD1", "Name": "Size Attr", "PicklistId": "PL2"},
			),
			"FROM AttributePicklistValue": records(),
		},
	}

	result := NewAttributePicklistCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	assert.Equal(t, core.StatusError, result.Status)
	assert.Contains(t, result.Message, "1 orphaned picklists")
	assert.Contains(t, result.Message, "1 empty picklists")
}

func TestPicklistSingleValueWarns(t *testing.T) {
	client := &fakeOrgClient{
		objects: map[string]bool{"AttributePicklist": true},
		results: map[string]*salesforce.QueryResult{
			"FROM AttributePicklist WHERE": records(
				salesforce.Record{"Id": "PL1", "Name": "Colors"},
			),
			"FROM AttributeDefinition": records(
				salesforce.Record{"Id": "AD1", "Name": "Color Attr", "PicklistId": "PL1"},
			),
			"FROM AttributePicklistValue": records(
				salesforce.Record{"Id": "V1", "PicklistId": "PL1", "DisplayValue": "Red"},
			),
		},
	}

	result := NewAttributePicklistCheck(client).Run(context.Background(), core.Session{}, "v64.0")
	assert.Equal(t, core.StatusWarning, result.Status)
}

func TestDefaultRegistryOrder(t *testing.T) {
	registry := DefaultRegistry(&fakeOrgClient{})

	assert.Equal(t, []string{
		CheckBasicOrgInfo,
		CheckOWDSharing,
		CheckBundleAnalysis,
		CheckAttributeOverride,
		CheckAttributePicklist,
	}, registry.Names())

	_, ok := registry.Get("nope")
	assert.False(t, ok)
}
