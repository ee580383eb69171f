package blob

import (
	"fmt"
	"path"
	"strings"
)

// validateKey rejects keys that are empty, absolute, or not in canonical
// slash-separated form. Keys become file paths and object names, so
// "images/<id>" is fine and "../etc" is not.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty blob key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return fmt.Errorf("invalid blob key %q", key)
	}
	if clean := path.Clean(key); clean != key || clean == "." || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return nil
}
