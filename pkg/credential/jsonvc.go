package credential

import (
	"encoding/json"

	vc20 "github.com/eudiwallet/core/pkg/vc20/credential"
)

// JsonVcVersion distinguishes the VCDM data model version a JsonVc was
// parsed as.
type JsonVcVersion string

const (
	JsonVcV1 JsonVcVersion = "v1"
	JsonVcV2 JsonVcVersion = "v2"
)

// JsonVc is a parsed W3C VCDM credential (v1 or v2), grounded on
// pkg/vc20/credential.VerifiableCredential for the typed view. V1 documents
// are accepted and kept as raw JSON plus a best-effort typed projection,
// since the teacher's VerifiableCredential models VCDM 2.0's validFrom
// field names.
type JsonVc struct {
	Version  JsonVcVersion
	raw      string
	typed    *vc20.VerifiableCredential
	KeyAlias string
}

// NewJsonVc parses a UTF-8 JSON VCDM document. Version is inferred from the
// @context: documents whose first context is the VCDM 2.0 context parse as
// V2; all others are treated as V1. Every document, V1 included, is also
// parsed into the typed view, and a document that fails that parse is
// rejected.
func NewJsonVc(rawJSON string, keyAlias string) (*JsonVc, error) {
	var probe struct {
		Context json.RawMessage `json:"@context"`
		Type    []string        `json:"type"`
	}
	if err := json.Unmarshal([]byte(rawJSON), &probe); err != nil {
		return nil, &JsonVcInitError{Kind: JsonVcInitInvalidJSON, Err: err}
	}
	if len(probe.Type) == 0 {
		return nil, &JsonVcInitError{Kind: JsonVcInitMissingType}
	}

	version := detectVersion(probe.Context)

	typed, err := vc20.FromJSON([]byte(rawJSON))
	if err != nil {
		return nil, &JsonVcInitError{Kind: JsonVcInitInvalidJSON, Err: err}
	}

	return &JsonVc{
		Version:  version,
		raw:      rawJSON,
		typed:    typed,
		KeyAlias: keyAlias,
	}, nil
}

func detectVersion(contextRaw json.RawMessage) JsonVcVersion {
	var single string
	if err := json.Unmarshal(contextRaw, &single); err == nil {
		if single == "https://www.w3.org/ns/credentials/v2" {
			return JsonVcV2
		}
		return JsonVcV1
	}
	var list []string
	if err := json.Unmarshal(contextRaw, &list); err == nil && len(list) > 0 {
		if list[0] == "https://www.w3.org/ns/credentials/v2" {
			return JsonVcV2
		}
	}
	return JsonVcV1
}

// RawJSON returns the original document bytes, unchanged.
func (j *JsonVc) RawJSON() string { return j.raw }

// Types returns every @type value on the credential other than the base
// "VerifiableCredential" type.
func (j *JsonVc) Types() []string {
	out := make([]string, 0, len(j.typed.Type))
	for _, t := range j.typed.Type {
		if t != "VerifiableCredential" {
			out = append(out, t)
		}
	}
	return out
}

// Issuer returns the issuer identifier, mirroring
// pkg/vc20/credential.VerifiableCredential.GetIssuerID.
func (j *JsonVc) Issuer() (string, error) {
	return j.typed.GetIssuerID()
}

// CredentialSubjectID returns the credential subject's id field, if the
// subject carries one.
func (j *JsonVc) CredentialSubjectID() (string, bool) {
	subj, ok := j.typed.CredentialSubject.(map[string]any)
	if !ok {
		return "", false
	}
	id, ok := subj["id"].(string)
	return id, ok
}

// StatusListEntry returns the credential's credentialStatus entry, if any.
func (j *JsonVc) StatusListEntry() (*vc20.CredentialStatus, bool) {
	if j.typed.CredentialStatus == nil {
		return nil, false
	}
	return j.typed.CredentialStatus, true
}

// IsValidNow reports whether the credential's validFrom/validUntil window
// covers the current time.
func (j *JsonVc) IsValidNow() bool {
	return j.typed.IsValidNow()
}
