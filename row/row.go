package row

import (
	"io"
	"maps"
	"reflect"
	"strconv"

	"github.com/hupe1980/gridgo/codec"
	"github.com/hupe1980/gridgo/internal/hash"
)

// IDField is the field that carries a row's stable identity.
const IDField = "id"

// Row is a single record. Treat it as read-only; use With or Merge to edit.
type Row map[string]any

// ID returns the row's id value if it is present and non-nil.
func (r Row) ID() (any, bool) {
	v, ok := r[IDField]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// With returns a copy of r with field set to v.
func (r Row) With(field string, v any) Row {
	out := make(Row, len(r)+1)
	maps.Copy(out, r)
	out[field] = v
	return out
}

// Merge returns a copy of r with every field of patch applied on top.
func (r Row) Merge(patch Row) Row {
	out := make(Row, len(r)+len(patch))
	maps.Copy(out, r)
	maps.Copy(out, patch)
	return out
}

// Key returns the stable identity key of r.
//
// Rows with an id field yield "id:" keys; other rows yield a content digest.
// Rows that cannot be encoded yield "p:" plus their map address, which is
// stable for the lifetime of that map only.
func Key(r Row) string {
	if id, ok := r.ID(); ok {
		return "id:" + classKey(id)
	}
	d, err := hash.SumWriter(func(w io.Writer) error {
		return codec.Encode(codec.Default, w, r)
	})
	if err != nil {
		return "p:" + strconv.FormatUint(uint64(reflect.ValueOf(r).Pointer()), 16)
	}
	return "h:" + hash.Hex(d)
}

// SameID reports whether both rows carry equal id values.
func SameID(a, b Row) bool {
	ida, ok := a.ID()
	if !ok {
		return false
	}
	idb, ok := b.ID()
	if !ok {
		return false
	}
	return classKey(ida) == classKey(idb)
}

// Same reports whether a and b are the same map.
func Same(a, b Row) bool {
	if a == nil || b == nil {
		return false
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// Clone returns a new slice holding the same rows.
func Clone(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}

// classKey renders v so that values comparing equal under Compare share a key
// within their class.
func classKey(v any) string {
	if f, ok := toFloat(v); ok {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	if s, ok := v.(string); ok {
		return "s:" + s
	}
	return "v:" + String(v)
}
