package roles

import (
	"fmt"
	"strconv"

	"github.com/holocron/holocron/internal/shared"
)

// ParsePermissions validates inbound permission identifiers and drops
// repeats, keeping the first occurrence.
func ParsePermissions(raw []string) ([]shared.Permission, error) {
	out := make([]shared.Permission, 0, len(raw))
	seen := make(map[shared.Permission]struct{}, len(raw))
	fields := map[string]string{}
	for i, value := range raw {
		p, err := shared.ParsePermission(value)
		if err != nil {
			fields["permissions["+strconv.Itoa(i)+"]"] = fmt.Sprintf("unknown permission %q", value)
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	if len(fields) > 0 {
		return nil, shared.InvalidFields(fields)
	}
	return out, nil
}

// DecodeStoredPermissions converts values read back from the database. An
// unknown value means the stored data is corrupt, which is not the caller's
// fault, so it is reported as a plain error.
func DecodeStoredPermissions(roleID int64, raw []string) ([]shared.Permission, error) {
	out := make([]shared.Permission, 0, len(raw))
	for _, value := range raw {
		p, err := shared.ParsePermission(value)
		if err != nil {
			return nil, fmt.Errorf("role %d: stored %w", roleID, err)
		}
		out = append(out, p)
	}
	return out, nil
}
