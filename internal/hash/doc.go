// Package hash provides content digests for rows that carry no id field.
//
// Digests use xxhash (64-bit) over the canonical codec encoding of a row.
// They identify rows, they do not protect data integrity.
//
// # Usage
//
//	d, err := hash.SumWriter(func(w io.Writer) error {
//	    return codec.Encode(codec.Default, w, r)
//	})
//	key := hash.Hex(d)
package hash
