// Package privacy guards against PHI leaking into logs and audit detail maps.
package privacy

import "strings"

// Redacted replaces values whose keys identify protected health information.
const Redacted = "[REDACTED]"

// sensitiveKeys are matched case-insensitively against map keys.
var sensitiveKeys = map[string]struct{}{
	"password":               {},
	"ssn":                    {},
	"social_security_number": {},
	"dob":                    {},
	"date_of_birth":          {},
	"medical_record_number":  {},
	"mrn":                    {},
	"patient_id":             {},
	"credit_card":            {},
	"phone":                  {},
	"address":                {},
	"email":                  {},
	"first_name":             {},
	"last_name":              {},
	"full_name":              {},
}

// SanitizeMap returns a copy of data with sensitive values redacted.
// Nested maps are sanitized recursively; the input is never mutated.
func SanitizeMap(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	sanitized := make(map[string]any, len(data))
	for key, value := range data {
		if _, sensitive := sensitiveKeys[strings.ToLower(key)]; sensitive {
			sanitized[key] = Redacted
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			sanitized[key] = SanitizeMap(nested)
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}
