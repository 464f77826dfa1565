package domain

// CIDRGroup is a named network range. The name doubles as the storage key
// ("{name}.json"); CIDR may be empty until the group is configured.
type CIDRGroup struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CIDR        string `json:"cidr"`
}

// ObjectKey returns the storage key for the group.
func (g *CIDRGroup) ObjectKey() string {
	return GroupObjectKey(g.Name)
}

// GroupObjectKey returns the storage key for a group name.
func GroupObjectKey(name string) string {
	return name + GroupObjectSuffix
}

// GroupObjectSuffix is appended to group names to form storage keys.
const GroupObjectSuffix = ".json"

// CreateGroupRequest is the request body for creating a CIDR group.
type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CIDR        string `json:"cidr"`
}

// UpdateGroupRequest is the request body for updating a CIDR group.
// Nil fields keep their current value.
type UpdateGroupRequest struct {
	Description *string `json:"description,omitempty"`
	CIDR        *string `json:"cidr,omitempty"`
}
