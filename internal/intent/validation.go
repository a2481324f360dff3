package intent

import (
	"intentcfg/internal/errors"
)

// ValidateIntent validates an intent
func ValidateIntent(i *Intent) error {
	if i.Code == "" {
		return errors.Validation("intent code is required")
	}
	if i.Name == "" {
		return errors.Validation("intent name is required")
	}
	return nil
}

// ValidateVersion validates an intent version
func ValidateVersion(v *Version) error {
	if v.IntentID == "" {
		return errors.Validation("intent id is required")
	}
	if v.Label == "" {
		return errors.Validation("version label is required")
	}
	return nil
}
