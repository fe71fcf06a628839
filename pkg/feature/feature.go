package feature

import "slices"

// Key identifies a product capability that can be toggled per company.
// The set of keys is closed: plan defaults, custom overrides and addon grants
// are all expressed over this enum, never over free-form strings.
type Key string

const (
	KeyTimeTracking  Key = "time_tracking"
	KeyVacations     Key = "vacations"
	KeyMessages      Key = "messages"
	KeyDocuments     Key = "documents"
	KeyReports       Key = "reports"
	KeyShifts        Key = "shifts"
	KeyGeolocation   Key = "geolocation"
	KeyPayrollExport Key = "payroll_export"
	KeySignatures    Key = "signatures"
	KeyAPIAccess     Key = "api_access"
)

// Keys returns every known feature key in a stable order.
func Keys() []Key {
	return []Key{
		KeyTimeTracking,
		KeyVacations,
		KeyMessages,
		KeyDocuments,
		KeyReports,
		KeyShifts,
		KeyGeolocation,
		KeyPayrollExport,
		KeySignatures,
		KeyAPIAccess,
	}
}

// Valid reports whether k is a known feature key.
func (k Key) Valid() bool {
	return slices.Contains(Keys(), k)
}

// Set maps feature keys to their enabled state. Missing keys are disabled.
type Set map[Key]bool

// Enabled reports whether k is enabled in the set.
func (s Set) Enabled(k Key) bool {
	return s[k]
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// NewSet builds a Set with the given keys enabled.
func NewSet(keys ...Key) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = true
	}
	return s
}
