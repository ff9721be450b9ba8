// Package flat converts nested DynamoDB documents into flat colon-delimited
// key/value mappings.
//
// A document is flattened depth-first: map fields append their name to the
// current path, list elements append their zero-based index. Scalar leaves
// (string, number, boolean) become string values; null leaves and empty
// containers become nil values. Binary and set attributes are rejected with
// [ErrUnsupportedLeafKind], and a path that is produced twice is rejected
// with [ErrDuplicateKey] rather than silently overwritten.
package flat

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/strata/internal/keypath"
)

// Flatten converts a document body into a flat Map, with every emitted key
// placed under prefix. An empty document yields an empty Map when prefix is
// empty, and a single nil-valued entry for prefix itself otherwise.
//
// Flatten is pure: identical input always yields an identical mapping.
func Flatten(doc map[string]types.AttributeValue, prefix string) (*Map, error) {
	out := NewMap()
	if err := flattenMap(out, prefix, doc); err != nil {
		return nil, err
	}
	return out, nil
}

// FlattenRoot is Flatten for a raw attribute value whose kind is not known
// statically. A root that is not a map fails with ErrInvalidRoot.
func FlattenRoot(root types.AttributeValue, prefix string) (*Map, error) {
	m, ok := root.(*types.AttributeValueMemberM)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidRoot, kindName(root))
	}
	return Flatten(m.Value, prefix)
}

func flattenMap(out *Map, path string, fields map[string]types.AttributeValue) error {
	if len(fields) == 0 {
		if path == "" {
			return nil
		}
		return out.Set(path, nil)
	}
	for _, name := range sortedFieldNames(fields) {
		child := keypath.Combine(path, name)
		if err := flattenValue(out, child, fields[name]); err != nil {
			return err
		}
	}
	return nil
}

func flattenValue(out *Map, path string, av types.AttributeValue) error {
	switch v := av.(type) {
	case *types.AttributeValueMemberM:
		return flattenMap(out, path, v.Value)
	case *types.AttributeValueMemberL:
		if len(v.Value) == 0 {
			return out.Set(path, nil)
		}
		for i, el := range v.Value {
			child := keypath.Combine(path, strconv.Itoa(i))
			if err := flattenValue(out, child, el); err != nil {
				return err
			}
		}
		return nil
	case *types.AttributeValueMemberS:
		return out.Set(path, &v.Value)
	case *types.AttributeValueMemberN:
		// DynamoDB stores numbers as their decimal text, which round-trips.
		return out.Set(path, &v.Value)
	case *types.AttributeValueMemberBOOL:
		s := strconv.FormatBool(v.Value)
		return out.Set(path, &s)
	case *types.AttributeValueMemberNULL:
		return out.Set(path, nil)
	default:
		return fmt.Errorf("%w: %s at %q", ErrUnsupportedLeafKind, kindName(av), path)
	}
}

// sortedFieldNames fixes the traversal order of map fields, which Go maps
// would otherwise randomize between calls.
func sortedFieldNames(fields map[string]types.AttributeValue) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func kindName(av types.AttributeValue) string {
	switch av.(type) {
	case *types.AttributeValueMemberM:
		return "map"
	case *types.AttributeValueMemberL:
		return "list"
	case *types.AttributeValueMemberS:
		return "string"
	case *types.AttributeValueMemberN:
		return "number"
	case *types.AttributeValueMemberBOOL:
		return "boolean"
	case *types.AttributeValueMemberNULL:
		return "null"
	case *types.AttributeValueMemberB:
		return "binary"
	case *types.AttributeValueMemberSS:
		return "string set"
	case *types.AttributeValueMemberNS:
		return "number set"
	case *types.AttributeValueMemberBS:
		return "binary set"
	default:
		return fmt.Sprintf("%T", av)
	}
}
