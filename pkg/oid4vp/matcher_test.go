package oid4vp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eudiwallet/core/pkg/credential"
	"github.com/eudiwallet/core/pkg/mdoc"
)

func testMdocCredential(t *testing.T, elements map[string]any) *credential.Mdoc {
	t.Helper()

	items := make([]mdoc.IssuerSignedItem, 0, len(elements))
	for id, value := range elements {
		items = append(items, mdoc.IssuerSignedItem{
			DigestID:          0,
			Random:            []byte("0123456789abcdef"),
			ElementIdentifier: id,
			ElementValue:      value,
		})
	}

	return &credential.Mdoc{
		DocType:    "org.iso.18013.5.1.mDL",
		NameSpaces: map[string][]mdoc.IssuerSignedItem{mdoc.Namespace: items},
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Family name", displayName("family_name"))
	assert.Equal(t, "Birth date", displayName("birth_date"))
	assert.Equal(t, "Portrait", displayName("portrait"))
}

func TestMatchDCQLMdoc_RequestedAndMissing(t *testing.T) {
	cred := testMdocCredential(t, map[string]any{
		"family_name": "Svensson",
		"given_name":  "Erika",
	})

	query := CredentialQuery{
		ID:     "cred1",
		Format: FormatMsoMdoc,
		Meta:   MetaQuery{DoctypeValue: "org.iso.18013.5.1.mDL"},
		Claims: []ClaimQuery{
			{Path: []string{mdoc.Namespace, "family_name"}},
			{Path: []string{mdoc.Namespace, "document_number"}},
		},
	}

	match, err := MatchDCQLMdoc(query, cred)
	require.NoError(t, err)
	require.Len(t, match.RequestedFields, 1)
	assert.Equal(t, "family_name", match.RequestedFields[0].ElementID)
	assert.Equal(t, "Family name", match.RequestedFields[0].DisplayName)

	require.Len(t, match.MissingFields, 1)
	assert.Equal(t, "document_number", match.MissingFields[0].ElementID)

	ns, item, ok := match.FieldMap.Lookup(match.RequestedFields[0].FieldID)
	require.True(t, ok)
	assert.Equal(t, mdoc.Namespace, ns)
	assert.Equal(t, "Svensson", item.ElementValue)
}

func TestMatchDCQLMdoc_WrongDoctype(t *testing.T) {
	cred := testMdocCredential(t, map[string]any{"family_name": "Svensson"})
	query := CredentialQuery{
		ID: "cred1", Format: FormatMsoMdoc,
		Meta: MetaQuery{DoctypeValue: "org.iso.18013.5.1.other"},
	}

	_, err := MatchDCQLMdoc(query, cred)
	assert.Error(t, err)
}

func TestMatchDCQLMdoc_AgeOver_PicksLowestAtLeastThreshold(t *testing.T) {
	cred := testMdocCredential(t, map[string]any{
		"age_over_13": true,
		"age_over_18": true,
		"age_over_21": true,
		"age_over_65": true,
	})

	query := CredentialQuery{
		ID: "cred1", Format: FormatMsoMdoc,
		Meta: MetaQuery{DoctypeValue: "org.iso.18013.5.1.mDL"},
		Claims: []ClaimQuery{
			{Path: []string{mdoc.Namespace, "age_over_16"}},
		},
	}

	match, err := MatchDCQLMdoc(query, cred)
	require.NoError(t, err)
	require.Len(t, match.RequestedFields, 1)
	assert.Equal(t, "age_over_18", match.RequestedFields[0].ElementID)
}

func TestMatchDCQLMdoc_AgeOver_CapsAtTwoElements(t *testing.T) {
	cred := testMdocCredential(t, map[string]any{
		"age_over_13": true,
		"age_over_18": true,
		"age_over_21": true,
		"age_over_65": true,
	})

	query := CredentialQuery{
		ID: "cred1", Format: FormatMsoMdoc,
		Meta: MetaQuery{DoctypeValue: "org.iso.18013.5.1.mDL"},
		Claims: []ClaimQuery{
			{Path: []string{mdoc.Namespace, "age_over_12"}},
			{Path: []string{mdoc.Namespace, "age_over_16"}},
			{Path: []string{mdoc.Namespace, "age_over_20"}},
		},
	}

	match, err := MatchDCQLMdoc(query, cred)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(match.RequestedFields), 2)
}

func TestMatchDCQLMdoc_AgeOver_NoSatisfyingThreshold(t *testing.T) {
	cred := testMdocCredential(t, map[string]any{"age_over_18": true})

	query := CredentialQuery{
		ID: "cred1", Format: FormatMsoMdoc,
		Meta: MetaQuery{DoctypeValue: "org.iso.18013.5.1.mDL"},
		Claims: []ClaimQuery{
			{Path: []string{mdoc.Namespace, "age_over_21"}},
		},
	}

	match, err := MatchDCQLMdoc(query, cred)
	require.NoError(t, err)
	assert.Empty(t, match.RequestedFields)
	require.Len(t, match.MissingFields, 1)
	assert.Equal(t, "age_over_21", match.MissingFields[0].ElementID)
}

func TestMatchPresentationDefinition(t *testing.T) {
	descriptor := InputDescriptor{
		ID: "desc1",
		Constraints: Constraints{
			Fields: []Field{
				{Name: "VC type", Path: []string{"$.vct"}, Filter: Filter{Type: "string", Enum: []string{"EHICCredential"}}},
				{Name: "SSN", Path: []string{"$.social_security_pin"}},
			},
		},
	}

	projection := map[string]interface{}{
		"vct":                 "EHICCredential",
		"social_security_pin": "123456-7890",
	}

	matched, fields, err := MatchPresentationDefinition(descriptor, projection)
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Len(t, fields, 2)
}

func TestMatchPresentationDefinition_MissingField(t *testing.T) {
	descriptor := InputDescriptor{
		ID: "desc1",
		Constraints: Constraints{
			Fields: []Field{
				{Name: "SSN", Path: []string{"$.social_security_pin"}},
			},
		},
	}

	matched, _, err := MatchPresentationDefinition(descriptor, map[string]interface{}{})
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestMatchPresentationDefinition_FilterRejectsValue(t *testing.T) {
	descriptor := InputDescriptor{
		ID: "desc1",
		Constraints: Constraints{
			Fields: []Field{
				{Name: "VC type", Path: []string{"$.vct"}, Filter: Filter{Type: "string", Enum: []string{"OtherCredential"}}},
			},
		},
	}

	matched, _, err := MatchPresentationDefinition(descriptor, map[string]interface{}{"vct": "EHICCredential"})
	require.NoError(t, err)
	assert.False(t, matched)
}
