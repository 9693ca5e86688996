package cbor

import "strconv"

// ClaimKey maps standard CWT/CBOR integer claim labels (RFC 8392 §4 — the
// same labels pkg/tokenstatuslist/cwt.go assigns to cwtClaimIss/Exp/Iat) and
// the domain-specific negative-integer block (identity claims at
// -70001..-70003, birth-certificate claims at -70011..-70020) to/from
// human-readable names. Unknown keys round-trip through their decimal
// string, matching the key-mapper bijection property required of the table
// below.
type ClaimKey int64

const (
	ClaimIssuer     ClaimKey = 1
	ClaimSubject    ClaimKey = 2
	ClaimAudience   ClaimKey = 3
	ClaimExpiration ClaimKey = 4
	ClaimNotBefore  ClaimKey = 5
	ClaimIssuedAt   ClaimKey = 6
	ClaimCWTId      ClaimKey = 7

	ClaimFullName ClaimKey = -70001
	ClaimEmail    ClaimKey = -70002
	ClaimCompany  ClaimKey = -70003

	ClaimBirthCertNumber  ClaimKey = -70011
	ClaimGivenNames       ClaimKey = -70012
	ClaimFamilyName       ClaimKey = -70013
	ClaimBirthDate        ClaimKey = -70014
	ClaimSex              ClaimKey = -70015
	ClaimBirthLocality    ClaimKey = -70016
	ClaimCountyFIPSCode   ClaimKey = -70017
	ClaimMother           ClaimKey = -70018
	ClaimFather           ClaimKey = -70019
	ClaimRegistrationDate ClaimKey = -70020
)

var claimLabels = map[ClaimKey]string{
	ClaimIssuer:     "issuer",
	ClaimSubject:    "subject",
	ClaimAudience:   "audience",
	ClaimExpiration: "exp",
	ClaimNotBefore:  "nbf",
	ClaimIssuedAt:   "iat",
	ClaimCWTId:      "cwt_id",

	ClaimFullName: "full_name",
	ClaimEmail:    "email",
	ClaimCompany:  "company",

	ClaimBirthCertNumber:  "birth_cert_number",
	ClaimGivenNames:       "given_names",
	ClaimFamilyName:       "family_name",
	ClaimBirthDate:        "birth_date",
	ClaimSex:              "sex",
	ClaimBirthLocality:    "birth_locality",
	ClaimCountyFIPSCode:   "county_fips_code",
	ClaimMother:           "mother",
	ClaimFather:           "father",
	ClaimRegistrationDate: "registration_date",
}

var labelClaims = func() map[string]ClaimKey {
	out := make(map[string]ClaimKey, len(claimLabels))
	for k, v := range claimLabels {
		out[v] = k
	}
	return out
}()

// KeyToString maps a claim label to its human name, or its decimal string
// when the label is unknown.
func KeyToString(k ClaimKey) string {
	if label, ok := claimLabels[k]; ok {
		return label
	}
	return strconv.FormatInt(int64(k), 10)
}

// StringToKey is the inverse of KeyToString: known names map back to their
// claim label; unrecognised names are parsed as the decimal claim label
// itself, so round-tripping a label not in the table still succeeds.
func StringToKey(s string) (ClaimKey, bool) {
	if k, ok := labelClaims[s]; ok {
		return k, true
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ClaimKey(n), true
	}
	return 0, false
}
