package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/innkeep/innkeep/internal/rbac"
)

// StorageKey is the well-known key the current user is persisted under.
const StorageKey = "hotelUser"

// ErrCorruptRecord indicates persisted session data that cannot be used.
var ErrCorruptRecord = errors.New("session: corrupt record")

// EncodeRecord serialises the user for persistence.
func EncodeRecord(user *rbac.UserWithRole) ([]byte, error) {
	if user == nil {
		return nil, errors.New("session: encode nil user")
	}
	return json.Marshal(user)
}

// DecodeRecord parses persisted data. Anything that does not describe a
// usable identity is reported as ErrCorruptRecord.
func DecodeRecord(data []byte) (*rbac.UserWithRole, error) {
	var user rbac.UserWithRole
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.RoleID) == "" {
		return nil, fmt.Errorf("%w: missing id or roleId", ErrCorruptRecord)
	}
	if user.Role != nil && user.Role.ID != user.RoleID {
		return nil, fmt.Errorf("%w: role %q does not match roleId %q", ErrCorruptRecord, user.Role.ID, user.RoleID)
	}
	return &user, nil
}
