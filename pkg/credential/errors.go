package credential

import "fmt"

// MdocInitErrorKind enumerates the ways constructing an Mdoc from raw input
// can fail.
type MdocInitErrorKind string

const (
	MdocInitInvalidEncoding   MdocInitErrorKind = "invalid_encoding"
	MdocInitEmptyNamespaces   MdocInitErrorKind = "empty_namespaces"
	MdocInitMissingMSO        MdocInitErrorKind = "missing_mso"
	MdocInitMalformedMSO      MdocInitErrorKind = "malformed_mso"
)

// MdocInitError reports why an Mdoc could not be constructed.
type MdocInitError struct {
	Kind MdocInitErrorKind
	Err  error
}

func (e *MdocInitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mdoc: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("mdoc: %s", e.Kind)
}

func (e *MdocInitError) Unwrap() error { return e.Err }

// JsonVcInitErrorKind enumerates the ways constructing a JsonVc can fail.
type JsonVcInitErrorKind string

const (
	JsonVcInitInvalidJSON    JsonVcInitErrorKind = "invalid_json"
	JsonVcInitUnknownVersion JsonVcInitErrorKind = "unknown_version"
	JsonVcInitMissingType    JsonVcInitErrorKind = "missing_type"
)

// JsonVcInitError reports why a JsonVc could not be constructed.
type JsonVcInitError struct {
	Kind JsonVcInitErrorKind
	Err  error
}

func (e *JsonVcInitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jsonvc: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("jsonvc: %s", e.Kind)
}

func (e *JsonVcInitError) Unwrap() error { return e.Err }

// CwtErrorKind enumerates the ways parsing or validating a Cwt can fail.
type CwtErrorKind string

const (
	CwtErrorBadPrefix     CwtErrorKind = "bad_prefix"
	CwtErrorBadDigits     CwtErrorKind = "bad_digits"
	CwtErrorInflateFailed CwtErrorKind = "inflate_failed"
	CwtErrorBadCBOR       CwtErrorKind = "bad_cbor"
	CwtErrorExpired       CwtErrorKind = "expired"
)

// CwtError reports why a Cwt could not be parsed or is invalid.
type CwtError struct {
	Kind CwtErrorKind
	Err  error
}

func (e *CwtError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cwt: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("cwt: %s", e.Kind)
}

func (e *CwtError) Unwrap() error { return e.Err }
