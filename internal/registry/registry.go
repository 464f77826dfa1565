// Package registry implements CRUD over CIDR groups stored one object per
// group in a storage.ObjectStore.
//
// The registry keeps no state besides the store handle and is safe for
// concurrent use. It never logs or retries; every failure is returned to the
// caller wrapped in one of the domain sentinel errors:
//
//   - domain.ErrInvalidInput (validation.ValidationErrors) for rejected fields
//   - domain.ErrNotFound for a missing group
//   - domain.ErrAlreadyExists when creating a name that is in use
//   - domain.ErrStoreUnavailable for any other store failure
//   - domain.ErrCorruptRecord for a stored object that does not decode
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bcnelson/cidr-group-central/internal/domain"
	"github.com/bcnelson/cidr-group-central/internal/storage"
	"github.com/bcnelson/cidr-group-central/internal/validation"
)

// Registry owns the mapping from group name to group record.
type Registry struct {
	store storage.ObjectStore
}

// New creates a Registry backed by store.
func New(store storage.ObjectStore) *Registry {
	return &Registry{store: store}
}

// Create validates and stores a new group. When the store supports
// conditional puts, uniqueness is enforced atomically; otherwise a concurrent
// create of the same name may overwrite (last writer wins).
func (r *Registry) Create(ctx context.Context, name, description, cidr string) (*domain.CIDRGroup, error) {
	group, err := newGroup(name, description, cidr)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(group)
	if err != nil {
		return nil, fmt.Errorf("encoding group %q: %w", group.Name, err)
	}

	if cp, ok := r.store.(storage.ConditionalPutter); ok {
		if err := cp.PutIfAbsent(ctx, group.ObjectKey(), data); err != nil {
			return nil, storeError(err)
		}
		return group, nil
	}

	if _, err := r.store.Get(ctx, group.ObjectKey()); err == nil {
		return nil, domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, storeError(err)
	}
	if err := r.store.Put(ctx, group.ObjectKey(), data); err != nil {
		return nil, storeError(err)
	}
	return group, nil
}

// Get returns the group called name.
func (r *Registry) Get(ctx context.Context, name string) (*domain.CIDRGroup, error) {
	name = strings.TrimSpace(name)
	if !reachable(name) {
		// No stored group can have this name.
		return nil, domain.ErrNotFound
	}
	return r.load(ctx, domain.GroupObjectKey(name))
}

// List returns every stored group ordered by name.
func (r *Registry) List(ctx context.Context) ([]*domain.CIDRGroup, error) {
	keys, err := r.store.ListKeys(ctx, "")
	if err != nil {
		return nil, storeError(err)
	}

	groups := make([]*domain.CIDRGroup, 0, len(keys))
	for _, key := range keys {
		name, ok := strings.CutSuffix(key, domain.GroupObjectSuffix)
		if !ok || !reachable(name) {
			continue
		}
		group, err := r.load(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			// Deleted between listing and fetching.
			continue
		}
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

// Update changes the supplied fields of an existing group. Nil fields keep
// their current value; supplied fields are validated like on Create.
func (r *Registry) Update(ctx context.Context, name string, description, cidr *string) (*domain.CIDRGroup, error) {
	current, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	newDescription, newCIDR := current.Description, current.CIDR
	if description != nil {
		newDescription = *description
	}
	if cidr != nil {
		newCIDR = *cidr
	}

	// The stored name is kept as is, even if Create would reject it.
	var errs validation.ValidationErrors
	group := &domain.CIDRGroup{Name: current.Name}
	group.Description, group.CIDR = validateFields(&errs, newDescription, newCIDR)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(group)
	if err != nil {
		return nil, fmt.Errorf("encoding group %q: %w", group.Name, err)
	}
	if err := r.store.Put(ctx, group.ObjectKey(), data); err != nil {
		return nil, storeError(err)
	}
	return group, nil
}

// Delete removes the group called name. Deleting a missing group returns
// domain.ErrNotFound; the operation is not idempotent.
func (r *Registry) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if !reachable(name) {
		return domain.ErrNotFound
	}
	if err := r.store.Delete(ctx, domain.GroupObjectKey(name)); err != nil {
		return storeError(err)
	}
	return nil
}

func (r *Registry) load(ctx context.Context, key string) (*domain.CIDRGroup, error) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, storeError(err)
	}
	var group domain.CIDRGroup
	if err := json.Unmarshal(data, &group); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCorruptRecord, key, err)
	}
	if domain.GroupObjectKey(group.Name) != key {
		return nil, fmt.Errorf("%w: %s holds group %q", domain.ErrCorruptRecord, key, group.Name)
	}
	cidr, err := validation.NormalizeCIDR(group.CIDR)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has cidr %q: %w", domain.ErrCorruptRecord, key, group.CIDR, err)
	}
	group.CIDR = cidr
	return &group, nil
}

// newGroup trims and validates every field, reporting all rejected fields at once.
func newGroup(name, description, cidr string) (*domain.CIDRGroup, error) {
	name = strings.TrimSpace(name)

	var errs validation.ValidationErrors
	if err := validation.ValidateGroupName(name); err != nil {
		errs.Add("name", name, err.Error())
	}
	description, cidr = validateFields(&errs, description, cidr)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return &domain.CIDRGroup{
		Name:        name,
		Description: description,
		CIDR:        cidr,
	}, nil
}

// validateFields trims the description and normalizes the CIDR, recording
// rejected fields in errs.
func validateFields(errs *validation.ValidationErrors, description, cidr string) (string, string) {
	description = strings.TrimSpace(description)
	if err := validation.ValidateDescription(description); err != nil {
		errs.Add("description", description, err.Error())
	}
	normalized, err := validation.NormalizeCIDR(cidr)
	if err != nil {
		errs.Add("cidr", cidr, err.Error())
	}
	return description, normalized
}

// reachable reports whether name can address a stored group. This is wider
// than what Create accepts: older clients wrote flat names such as
// "my group".
func reachable(name string) bool {
	return validation.ValidateStoredName(name) == nil
}

// storeError passes through the store's not-found and already-exists
// sentinels and classifies everything else as the store being unavailable.
func storeError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrAlreadyExists):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
}
