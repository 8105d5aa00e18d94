package row

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowWithDoesNotMutate(t *testing.T) {
	orig := Row{"id": 1, "name": "Alice"}
	edited := orig.With("name", "Bob")

	assert.Equal(t, "Alice", orig["name"])
	assert.Equal(t, "Bob", edited["name"])
	assert.False(t, Same(orig, edited))
}

func TestRowMerge(t *testing.T) {
	orig := Row{"id": 1, "name": "Alice", "age": 30}
	merged := orig.Merge(Row{"age": 31, "city": "Berlin"})

	assert.Equal(t, Row{"id": 1, "name": "Alice", "age": 31, "city": "Berlin"}, merged)
	assert.Equal(t, 30, orig["age"])
}

func TestRowID(t *testing.T) {
	_, ok := Row{"name": "x"}.ID()
	assert.False(t, ok)

	_, ok = Row{"id": nil}.ID()
	assert.False(t, ok)

	id, ok := Row{"id": "abc"}.ID()
	require.True(t, ok)
	assert.Equal(t, "abc", id)
}

func TestKey(t *testing.T) {
	t.Run("IDRows", func(t *testing.T) {
		assert.Equal(t, "id:n:7", Key(Row{"id": 7}))
		assert.Equal(t, Key(Row{"id": 7}), Key(Row{"id": int64(7), "other": true}))
		assert.Equal(t, Key(Row{"id": 7}), Key(Row{"id": 7.0}))
		assert.NotEqual(t, Key(Row{"id": 7}), Key(Row{"id": "7"}))
	})

	t.Run("ContentDigest", func(t *testing.T) {
		a := Key(Row{"name": "Alice", "age": 30})
		b := Key(Row{"age": 30, "name": "Alice"})
		c := Key(Row{"name": "Alice", "age": 31})

		assert.True(t, strings.HasPrefix(a, "h:"))
		assert.Equal(t, a, b)
		assert.NotEqual(t, a, c)
	})

	t.Run("Unencodable", func(t *testing.T) {
		r := Row{"fn": func() {}}
		k := Key(r)
		assert.True(t, strings.HasPrefix(k, "p:"))
		assert.Equal(t, k, Key(r))
	})
}

func TestSameID(t *testing.T) {
	assert.True(t, SameID(Row{"id": 1}, Row{"id": int32(1)}))
	assert.False(t, SameID(Row{"id": 1}, Row{"id": 2}))
	assert.False(t, SameID(Row{"id": 1}, Row{"name": "x"}))
	assert.False(t, SameID(Row{}, Row{}))
}

func TestSame(t *testing.T) {
	r := Row{"a": 1}
	alias := r

	assert.True(t, Same(r, alias))
	assert.False(t, Same(r, Row{"a": 1}))
	assert.False(t, Same(nil, nil))
}

func TestClone(t *testing.T) {
	rows := []Row{{"id": 1}, {"id": 2}}
	c := Clone(rows)
	c[0] = Row{"id": 9}

	assert.Equal(t, 1, rows[0]["id"])
	assert.True(t, Same(rows[1], c[1]))
	assert.Nil(t, Clone(nil))
}
