package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Downtown Showroom", "downtown-showroom"},
		{"  downtown SHOWROOM ", "downtown-showroom"},
		{"North & South", "north-and-south"},
		{"O'Malley's Outlet", "omalleys-outlet"},
		{"Store #3 (East)", "store-3-east"},
		{"a  -  b", "a-b"},
		{"--edge--", "edge"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Slugify(c.in), "input %q", c.in)
	}
}

func TestSlugifyDeterministic(t *testing.T) {
	// The slug is the store's primary key; differently-cased spellings of the
	// same location must always collapse to one store.
	assert.Equal(t, Slugify("Downtown Showroom"), Slugify("  downtown SHOWROOM "))
	assert.Equal(t, Slugify("North & South"), Slugify("north AND south"))
}

func TestStorageKey(t *testing.T) {
	key, rewritten := StorageKey("10001")
	assert.Equal(t, "10001", key)
	assert.False(t, rewritten)

	key, rewritten = StorageKey("2024/0042")
	assert.Equal(t, "2024_0042", key)
	assert.True(t, rewritten)

	key, rewritten = StorageKey("a/b/c")
	assert.Equal(t, "a_b_c", key)
	assert.True(t, rewritten)
}
