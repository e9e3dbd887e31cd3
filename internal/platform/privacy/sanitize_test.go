package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMap_RedactsSensitiveKeys(t *testing.T) {
	in := map[string]any{
		"password":   "hunter2",
		"SSN":        "123-45-6789",
		"patient_id": "p-100",
		"action":     "record_viewed",
	}

	out := SanitizeMap(in)

	assert.Equal(t, Redacted, out["password"])
	assert.Equal(t, Redacted, out["SSN"])
	assert.Equal(t, Redacted, out["patient_id"])
	assert.Equal(t, "record_viewed", out["action"])
}

func TestSanitizeMap_RecursesIntoNestedMaps(t *testing.T) {
	in := map[string]any{
		"request": map[string]any{
			"email": "patient@example.com",
			"path":  "/api/v1/users/me",
		},
	}

	out := SanitizeMap(in)

	nested := out["request"].(map[string]any)
	assert.Equal(t, Redacted, nested["email"])
	assert.Equal(t, "/api/v1/users/me", nested["path"])
}

func TestSanitizeMap_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{"phone": "555-0100"}

	_ = SanitizeMap(in)

	assert.Equal(t, "555-0100", in["phone"])
}

func TestSanitizeMap_NilInput(t *testing.T) {
	assert.Nil(t, SanitizeMap(nil))
}
