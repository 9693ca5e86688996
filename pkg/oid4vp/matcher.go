package oid4vp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"

	"github.com/eudiwallet/core/pkg/credential"
	"github.com/eudiwallet/core/pkg/mdoc"
)

// FieldMap is a per-presentation mapping from a fresh field_id to the
// namespace/element pair it stands for, so UI code can refer to an
// element by an opaque handle instead of carrying CBOR-decoded values
// across the consent-screen boundary.
type FieldMap struct {
	entries map[string]fieldMapEntry
}

type fieldMapEntry struct {
	Namespace string
	Item      mdoc.IssuerSignedItem
}

func newFieldMap() *FieldMap {
	return &FieldMap{entries: make(map[string]fieldMapEntry)}
}

// Add registers a namespace/element pair and returns its field_id.
func (m *FieldMap) Add(namespace string, item mdoc.IssuerSignedItem) string {
	id := uuid.NewString()
	m.entries[id] = fieldMapEntry{Namespace: namespace, Item: item}
	return id
}

// Lookup resolves a field_id back to its namespace/element pair.
func (m *FieldMap) Lookup(fieldID string) (namespace string, item mdoc.IssuerSignedItem, ok bool) {
	e, ok := m.entries[fieldID]
	return e.Namespace, e.Item, ok
}

// RequestedField is a single element a DCQL or Presentation Definition
// query asked for, carrying the handle the UI renders alongside a
// display-friendly name.
type RequestedField struct {
	FieldID     string `json:"field_id,omitempty"`
	Namespace   string `json:"namespace,omitempty"`
	ElementID   string `json:"element_id"`
	DisplayName string `json:"display_name"`
}

// RequestMatch is the result of matching one DCQL CredentialQuery against
// one candidate mdoc credential.
type RequestMatch struct {
	CredentialID    string
	FieldMap        *FieldMap
	RequestedFields []RequestedField
	MissingFields   []RequestedField
}

// displayName converts a snake_case element identifier into a
// Sentence case label suitable for a consent screen, e.g.
// "family_name" -> "Family name".
func displayName(elementID string) string {
	words := strings.Split(elementID, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		if i == 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ageOverThreshold parses the NN out of an "age_over_NN" element
// identifier. Returns ok=false for anything else.
func ageOverThreshold(elementID string) (int, bool) {
	const prefix = "age_over_"
	if !strings.HasPrefix(elementID, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(elementID[len(prefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}

// MatchDCQLMdoc matches a single DCQL CredentialQuery (format "mso_mdoc")
// against a candidate mdoc credential, per spec.md §4.G. Claim paths are
// [namespace, element_id] pairs; any requested age_over_NN is satisfied
// by the lowest credential-carried age_over_* threshold that is still
// >= NN, and the response carries at most two age_over_* elements in
// total regardless of how many were requested or available.
func MatchDCQLMdoc(query CredentialQuery, cred *credential.Mdoc) (*RequestMatch, error) {
	if query.Format != FormatMsoMdoc {
		return nil, fmt.Errorf("oid4vp: MatchDCQLMdoc called with format %q", query.Format)
	}
	if query.Meta.DoctypeValue != "" && query.Meta.DoctypeValue != cred.DocType {
		return nil, fmt.Errorf("oid4vp: credential doctype %q does not satisfy requested %q", cred.DocType, query.Meta.DoctypeValue)
	}

	fm := newFieldMap()
	match := &RequestMatch{CredentialID: query.ID, FieldMap: fm}

	ageRequests := make([]int, 0)
	for _, claim := range query.Claims {
		if len(claim.Path) != 2 {
			continue
		}
		namespace, elementID := claim.Path[0], claim.Path[1]

		if threshold, ok := ageOverThreshold(elementID); ok {
			ageRequests = append(ageRequests, threshold)
			continue
		}

		items := cred.NameSpaces[namespace]
		item, found := findElement(items, elementID)
		if !found {
			match.MissingFields = append(match.MissingFields, RequestedField{
				Namespace: namespace, ElementID: elementID, DisplayName: displayName(elementID),
			})
			continue
		}

		fieldID := fm.Add(namespace, item)
		match.RequestedFields = append(match.RequestedFields, RequestedField{
			FieldID: fieldID, Namespace: namespace, ElementID: elementID, DisplayName: displayName(elementID),
		})
	}

	if len(ageRequests) > 0 {
		resolved := resolveAgeOverFields(cred, ageRequests, fm)
		for _, rf := range resolved {
			if rf.FieldID == "" {
				match.MissingFields = append(match.MissingFields, rf)
				continue
			}
			match.RequestedFields = append(match.RequestedFields, rf)
		}
	}

	return match, nil
}

// resolveAgeOverFields implements the ISO 18013-5 §7.2.5 age-over
// attestation rule: for each requested threshold NN, respond with the
// credential's lowest age_over_* element whose own threshold is >= NN.
// At most two age_over_* elements are returned in total, regardless of
// how many distinct thresholds were requested.
func resolveAgeOverFields(cred *credential.Mdoc, requested []int, fm *FieldMap) []RequestedField {
	namespace := mdoc.Namespace
	available := availableAgeOverThresholds(cred.NameSpaces[namespace])

	chosen := make(map[int]bool)
	out := make([]RequestedField, 0, len(requested))
	for _, nn := range requested {
		best, found := lowestThresholdAtLeast(available, nn)
		if !found {
			elementID := fmt.Sprintf("age_over_%d", nn)
			out = append(out, RequestedField{Namespace: namespace, ElementID: elementID, DisplayName: displayName(elementID)})
			continue
		}
		chosen[best] = true
	}

	thresholds := make([]int, 0, len(chosen))
	for threshold := range chosen {
		thresholds = append(thresholds, threshold)
	}
	sort.Ints(thresholds)

	resolved := make([]RequestedField, 0, len(thresholds))
	for _, threshold := range thresholds {
		if len(resolved) >= 2 {
			break
		}
		elementID := fmt.Sprintf("age_over_%d", threshold)
		item, found := findElement(cred.NameSpaces[namespace], elementID)
		if !found {
			continue
		}
		fieldID := fm.Add(namespace, item)
		resolved = append(resolved, RequestedField{FieldID: fieldID, Namespace: namespace, ElementID: elementID, DisplayName: displayName(elementID)})
	}

	return append(resolved, out...)
}

func availableAgeOverThresholds(items []mdoc.IssuerSignedItem) []int {
	out := make([]int, 0, len(items))
	for _, item := range items {
		if n, ok := ageOverThreshold(item.ElementIdentifier); ok {
			out = append(out, n)
		}
	}
	return out
}

func lowestThresholdAtLeast(available []int, nn int) (int, bool) {
	best := 0
	found := false
	for _, n := range available {
		if n < nn {
			continue
		}
		if !found || n < best {
			best = n
			found = true
		}
	}
	return best, found
}

func findElement(items []mdoc.IssuerSignedItem, elementID string) (mdoc.IssuerSignedItem, bool) {
	for _, item := range items {
		if item.ElementIdentifier == elementID {
			return item, true
		}
	}
	return mdoc.IssuerSignedItem{}, false
}

// MatchPresentationDefinition evaluates a single InputDescriptor's
// constraint fields against a candidate credential's JSON projection
// (the claims map a dc+sd-jwt or ldp_vc credential exposes), per
// spec.md §4.G: a descriptor matches if every constraint field resolves
// to a value (optional-via-filter fields aside, which this wallet core
// treats as non-optional since OpenID4VP's descriptor_map carries no
// per-field optionality marker of its own). Returns the resolved
// RequestedFields for UI consent rendering alongside the match verdict.
func MatchPresentationDefinition(descriptor InputDescriptor, jsonProjection map[string]interface{}) (bool, []RequestedField, error) {
	fields := make([]RequestedField, 0, len(descriptor.Constraints.Fields))
	matched := true

	for _, field := range descriptor.Constraints.Fields {
		value, ok := resolveFieldPaths(field.Path, jsonProjection)
		if !ok {
			matched = false
			continue
		}
		if !matchesFilter(value, field.Filter) {
			matched = false
			continue
		}
		name := field.Name
		if name == "" && len(field.Path) > 0 {
			name = field.Path[0]
		}
		fields = append(fields, RequestedField{ElementID: name, DisplayName: displayName(lastPathSegment(field.Path))})
	}

	return matched, fields, nil
}

// resolveFieldPaths tries each JSONPath in order and returns the first
// one that resolves, matching the Presentation Exchange v2 "path"
// array semantics (a field may list several candidate paths for schema
// variance across credential versions).
func resolveFieldPaths(paths []string, jsonProjection map[string]interface{}) (interface{}, bool) {
	for _, path := range paths {
		value, err := jsonpath.Get(path, jsonProjection)
		if err != nil {
			continue
		}
		return value, true
	}
	return nil, false
}

func matchesFilter(value interface{}, filter Filter) bool {
	if len(filter.Enum) == 0 {
		return true
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	for _, allowed := range filter.Enum {
		if s == allowed {
			return true
		}
	}
	return false
}

func lastPathSegment(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	segments := strings.Split(paths[0], ".")
	return segments[len(segments)-1]
}

// RequestedFieldsForProjection returns the display fields a Presentation
// Definition's input descriptor would render for a credential, without
// requiring a match verdict — used by requested_fields(cred) to drive
// the consent UI before the user has chosen which credential to present.
func RequestedFieldsForProjection(descriptor InputDescriptor, jsonProjection map[string]interface{}) []RequestedField {
	_, fields, _ := MatchPresentationDefinition(descriptor, jsonProjection)
	return fields
}
