// internal/model/blood_type.go
package model

import (
	"strings"

	appErrors "github.com/unclebandit/blood-dispatch/internal/errors"
)

// BloodType is a concrete ABO/Rh donor or recipient type.
type BloodType string

const (
	APositive  BloodType = "A+"
	ANegative  BloodType = "A-"
	BPositive  BloodType = "B+"
	BNegative  BloodType = "B-"
	ABPositive BloodType = "AB+"
	ABNegative BloodType = "AB-"
	OPositive  BloodType = "O+"
	ONegative  BloodType = "O-"
)

// AnyTypeSentinel is the wire value that asks for donors of every type.
const AnyTypeSentinel = "ALL"

// AllBloodTypes lists every concrete type.
var AllBloodTypes = []BloodType{ONegative, OPositive, ANegative, APositive, BNegative, BPositive, ABNegative, ABPositive}

// recipient type -> donor types allowed to give to it
var compatibleDonors = map[BloodType][]BloodType{
	ONegative:  {ONegative},
	OPositive:  {ONegative, OPositive},
	ANegative:  {ONegative, ANegative},
	APositive:  {ONegative, OPositive, ANegative, APositive},
	BNegative:  {ONegative, BNegative},
	BPositive:  {ONegative, OPositive, BNegative, BPositive},
	ABNegative: {ONegative, ANegative, BNegative, ABNegative},
	ABPositive: AllBloodTypes,
}

// Valid reports whether t is one of the eight concrete types.
func (t BloodType) Valid() bool {
	_, ok := compatibleDonors[t]
	return ok
}

// CanDonateTo reports whether a donor of type t can give to a recipient of type r.
func (t BloodType) CanDonateTo(r BloodType) bool {
	for _, d := range compatibleDonors[r] {
		if d == t {
			return true
		}
	}
	return false
}

// TypeRequest is either a specific recipient type or "any type". The zero
// value is AnyType.
type TypeRequest struct {
	specific BloodType
}

// SpecificType requests donors compatible with t.
func SpecificType(t BloodType) TypeRequest { return TypeRequest{specific: t} }

// AnyType requests donors of every type.
func AnyType() TypeRequest { return TypeRequest{} }

// IsAny reports whether the request is a broadcast to all types.
func (r TypeRequest) IsAny() bool { return r.specific == "" }

// Specific returns the requested type and true, or "" and false for AnyType.
func (r TypeRequest) Specific() (BloodType, bool) {
	return r.specific, r.specific != ""
}

// String returns the concrete type, or the ALL sentinel.
func (r TypeRequest) String() string {
	if r.IsAny() {
		return AnyTypeSentinel
	}
	return string(r.specific)
}

// CompatibleDonorTypes returns the donor types eligible to fulfil the request.
func (r TypeRequest) CompatibleDonorTypes() []BloodType {
	if r.IsAny() {
		return append([]BloodType(nil), AllBloodTypes...)
	}
	return append([]BloodType(nil), compatibleDonors[r.specific]...)
}

// RecordType resolves the type stored on a donor's record. AnyType never
// leaks into persisted state: the donor's own type is used instead.
func (r TypeRequest) RecordType(donorType BloodType) BloodType {
	if r.IsAny() {
		return donorType
	}
	return r.specific
}

// ParseTypeRequest turns the wire value into a TypeRequest. broadcastAll
// forces AnyType whatever raw holds.
func ParseTypeRequest(raw string, broadcastAll bool) (TypeRequest, error) {
	if broadcastAll {
		return AnyType(), nil
	}
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == AnyTypeSentinel {
		return AnyType(), nil
	}
	t := BloodType(v)
	if !t.Valid() {
		return TypeRequest{}, appErrors.NewInvalidArgument("blood_type", "unknown blood type "+raw)
	}
	return SpecificType(t), nil
}
