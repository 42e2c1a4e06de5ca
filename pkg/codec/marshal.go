package codec

import (
	"reflect"

	"github.com/gridstore/client-go/pkg/clienterr"
)

// List is an ordered sequence of native values. It is the shape UDF
// invocation arguments take on the wire.
type List []Value

// Native returns the plain Go representation of the list.
func (l List) Native() []any {
	out := make([]any, len(l))
	for i, v := range l {
		out[i] = v.Native()
	}
	return out
}

// MarshalList converts an ordered sequence of caller values into a native
// list. The input must be a slice or array of values; anything else
// (a scalar, a map, a bare string or byte blob) is a PARAMETER error.
// Element conversion failures are CONVERSION errors, and no partially
// built list is returned on failure.
func MarshalList(args any) (List, error) {
	if args == nil {
		return nil, clienterr.Parameter("arguments should be a list")
	}

	switch x := args.(type) {
	case List:
		return x, nil
	case []any:
		out := make(List, len(x))
		for i, e := range x {
			v, err := NewValue(e)
			if err != nil {
				return nil, elementError(i, err)
			}
			out[i] = v
		}
		return out, nil
	case string, []byte:
		// A lone string or byte blob is a scalar, not an argument sequence.
		return nil, clienterr.Parameter("arguments should be a list")
	}

	rv := reflect.ValueOf(args)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, clienterr.Parameter("arguments should be a list")
	}

	out := make(List, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		v, err := NewValue(rv.Index(i).Interface())
		if err != nil {
			return nil, elementError(i, err)
		}
		out[i] = v
	}
	return out, nil
}

// elementError keeps the original error kind while recording which
// element failed.
func elementError(index int, err error) error {
	cerr := clienterr.FromError(err)
	return clienterr.Wrap(cerr.Err, cerr.Kind, cerr.Message).
		WithDetails(map[string]any{"index": index})
}
