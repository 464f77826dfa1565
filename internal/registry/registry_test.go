package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bcnelson/cidr-group-central/internal/domain"
	"github.com/bcnelson/cidr-group-central/internal/storage"
	"github.com/bcnelson/cidr-group-central/internal/storage/memory"
	"github.com/bcnelson/cidr-group-central/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainStore hides PutIfAbsent so the registry takes the check-then-put path.
type plainStore struct {
	storage.ObjectStore
}

// failingStore fails every call with err.
type failingStore struct {
	err error
}

func (f failingStore) Close() error { return nil }
func (f failingStore) Put(context.Context, string, []byte) error { return f.err }
func (f failingStore) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingStore) Delete(context.Context, string) error { return f.err }
func (f failingStore) ListKeys(context.Context, string) ([]string, error) { return nil, f.err }

// ghostStore lists a key that no longer exists.
type ghostStore struct {
	*memory.Store
}

func (g ghostStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := g.Store.ListKeys(ctx, prefix)
	return append(keys, "ghost.json"), err
}

func stores() map[string]func() storage.ObjectStore {
	return map[string]func() storage.ObjectStore{
		"conditional": func() storage.ObjectStore { return memory.New() },
		"plain":       func() storage.ObjectStore { return plainStore{memory.New()} },
	}
}

func ptr(s string) *string { return &s }

func TestRegistry_CreateThenGet(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := New(newStore())

			created, err := r.Create(ctx, "prod-egress", "Production egress ranges", "203.0.113.0/24")
			require.NoError(t, err)
			assert.Equal(t, &domain.CIDRGroup{
				Name:        "prod-egress",
				Description: "Production egress ranges",
				CIDR:        "203.0.113.0/24",
			}, created)

			got, err := r.Get(ctx, "prod-egress")
			require.NoError(t, err)
			assert.Equal(t, created, got)

			_, err = r.Create(ctx, "prod-egress", "dup", "")
			assert.ErrorIs(t, err, domain.ErrAlreadyExists)

			unchanged, err := r.Get(ctx, "prod-egress")
			require.NoError(t, err)
			assert.Equal(t, created, unchanged)
		})
	}
}

func TestRegistry_CreateStoresJSONObject(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	r := New(store)

	_, err := r.Create(ctx, "office", "Office network", "")
	require.NoError(t, err)

	data, err := store.Get(ctx, "office.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"office","description":"Office network","cidr":""}`, string(data))
}

func TestRegistry_CreateTrimsAndNormalizes(t *testing.T) {
	ctx := context.Background()
	r := New(memory.New())

	group, err := r.Create(ctx, "  vpn  ", "  VPN clients ", "10.8.0.1/24")
	require.NoError(t, err)
	assert.Equal(t, "vpn", group.Name)
	assert.Equal(t, "VPN clients", group.Description)
	assert.Equal(t, "10.8.0.0/24", group.CIDR)

	got, err := r.Get(ctx, " vpn ")
	require.NoError(t, err)
	assert.Equal(t, group, got)
}

func TestRegistry_CreateValidation(t *testing.T) {
	tests := []struct {
		name        string
		group       string
		description string
		cidr        string
		fields      []string
	}{
		{"empty name", "", "desc", "", []string{"name"}},
		{"blank name", "   ", "desc", "", []string{"name"}},
		{"empty description", "g", "", "", []string{"description"}},
		{"blank description", "g", " \t", "", []string{"description"}},
		{"invalid prefix length", "g", "desc", "10.0.0.0/33", []string{"cidr"}},
		{"not a cidr", "g", "desc", "10.0.0.1", []string{"cidr"}},
		{"slash in name", "a/b", "desc", "", []string{"name"}},
		{"everything wrong", "", "", "nope", []string{"name", "description", "cidr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.New()
			r := New(store)

			_, err := r.Create(ctx, tt.group, tt.description, tt.cidr)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			var verrs validation.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			var fields []string
			for _, v := range verrs {
				fields = append(fields, v.Field)
			}
			assert.Equal(t, tt.fields, fields)

			keys, err := store.ListKeys(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestRegistry_ListSortedByName(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := New(newStore())

			groups, err := r.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, groups)

			_, err = r.Create(ctx, "n2", "second", "")
			require.NoError(t, err)
			_, err = r.Create(ctx, "n1", "first", "192.0.2.0/24")
			require.NoError(t, err)

			groups, err = r.List(ctx)
			require.NoError(t, err)
			require.Len(t, groups, 2)
			assert.Equal(t, "n1", groups[0].Name)
			assert.Equal(t, "n2", groups[1].Name)
		})
	}
}

func TestRegistry_ListSkipsForeignAndVanishedObjects(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, mem.Put(ctx, "README.txt", []byte("not a group")))
	r := New(ghostStore{mem})

	_, err := r.Create(ctx, "office", "Office", "")
	require.NoError(t, err)

	groups, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "office", groups[0].Name)
}

func TestRegistry_ListCorruptObject(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, mem.Put(ctx, "broken.json", []byte("{not json")))
	r := New(mem)

	_, err := r.List(ctx)
	assert.ErrorIs(t, err, domain.ErrCorruptRecord)

	require.NoError(t, mem.Put(ctx, "broken.json", []byte(`{"name":"other","description":"x"}`)))
	_, err = r.Get(ctx, "broken")
	assert.ErrorIs(t, err, domain.ErrCorruptRecord)
}

func TestRegistry_ReadsLegacyObjectsWithoutCIDR(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, mem.Put(ctx, "legacy.json", []byte(`{"name": "legacy", "description": "old"}`)))
	r := New(mem)

	group, err := r.Get(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, &domain.CIDRGroup{Name: "legacy", Description: "old"}, group)
}

func TestRegistry_LegacyNamesAreReachable(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, mem.Put(ctx, "my group.json", []byte(`{"name":"my group","description":"Written by the old API"}`)))
	require.NoError(t, mem.Put(ctx, "nested/inner.json", []byte(`{"name":"nested/inner","description":"x"}`)))
	r := New(mem)

	groups, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "my group", groups[0].Name)

	got, err := r.Get(ctx, "my group")
	require.NoError(t, err)
	assert.Equal(t, groups[0], got)

	updated, err := r.Update(ctx, "my group", nil, ptr("192.0.2.0/24"))
	require.NoError(t, err)
	assert.Equal(t, &domain.CIDRGroup{Name: "my group", Description: "Written by the old API", CIDR: "192.0.2.0/24"}, updated)

	// New groups still follow the strict name rules.
	_, err = r.Create(ctx, "another group", "x", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, r.Delete(ctx, "my group"))
	_, err = r.Get(ctx, "my group")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_StoredCIDRIsChecked(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, mem.Put(ctx, "unmasked.json", []byte(`{"name":"unmasked","description":"x","cidr":"10.0.0.1/24"}`)))
	r := New(mem)

	got, err := r.Get(ctx, "unmasked")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.0/24", got.CIDR)

	require.NoError(t, mem.Put(ctx, "bad-cidr.json", []byte(`{"name":"bad-cidr","description":"x","cidr":"10.0.0.1/33"}`)))

	_, err = r.Get(ctx, "bad-cidr")
	assert.ErrorIs(t, err, domain.ErrCorruptRecord)

	_, err = r.List(ctx)
	assert.ErrorIs(t, err, domain.ErrCorruptRecord)
}

func TestRegistry_Update(t *testing.T) {
	ctx := context.Background()
	r := New(memory.New())

	_, err := r.Update(ctx, "missing", ptr("x"), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.Create(ctx, "office", "Office", "")
	require.NoError(t, err)

	updated, err := r.Update(ctx, "office", nil, ptr("198.51.100.9/24"))
	require.NoError(t, err)
	assert.Equal(t, &domain.CIDRGroup{Name: "office", Description: "Office", CIDR: "198.51.100.0/24"}, updated)

	updated, err = r.Update(ctx, "office", ptr("HQ office"), nil)
	require.NoError(t, err)
	assert.Equal(t, "HQ office", updated.Description)
	assert.Equal(t, "198.51.100.0/24", updated.CIDR)

	// Clearing the CIDR returns the group to the unconfigured state.
	updated, err = r.Update(ctx, "office", nil, ptr(""))
	require.NoError(t, err)
	assert.Equal(t, "", updated.CIDR)

	_, err = r.Update(ctx, "office", ptr(" "), ptr("10.0.0.0/33"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := r.Get(ctx, "office")
	require.NoError(t, err)
	assert.Equal(t, &domain.CIDRGroup{Name: "office", Description: "HQ office"}, got)
}

func TestRegistry_Delete(t *testing.T) {
	ctx := context.Background()
	r := New(memory.New())

	_, err := r.Create(ctx, "office", "Office", "")
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, "office"))
	_, err = r.Get(ctx, "office")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, r.Delete(ctx, "office"), domain.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, "../etc"), domain.ErrNotFound)
}

func TestRegistry_GetInvalidNameIsNotFound(t *testing.T) {
	r := New(failingStore{err: errors.New("must not be called")})

	_, err := r.Get(context.Background(), "a/b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	cause := context.DeadlineExceeded
	r := New(failingStore{err: cause})

	_, err := r.Create(ctx, "g", "d", "")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)

	_, err = r.Get(ctx, "g")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = r.List(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = r.Update(ctx, "g", ptr("d"), nil)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	err = r.Delete(ctx, "g")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestRegistry_ConcurrentCreateHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	r := New(memory.New())

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Create(ctx, "race", "contended", "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var created int
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	}
	assert.Equal(t, 1, created)
}
