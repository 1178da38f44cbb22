package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidKey is returned by Key.Validate.
	ErrInvalidKey = errors.New("edm: invalid key")
	// ErrInvalidKeyValue is returned when a key value cannot be formatted.
	ErrInvalidKeyValue = errors.New("edm: invalid key value")
)

// KeyElement is one property of an entity key and its position in the
// canonical key order.
type KeyElement struct {
	PropertyName string
	Position     int
}

// Key is the ordered set of properties that identify an entity.
type Key struct {
	Elements []KeyElement
}

// NewKey builds a key with positions assigned in argument order.
func NewKey(propertyNames ...string) Key {
	elements := make([]KeyElement, len(propertyNames))
	for i, name := range propertyNames {
		elements[i] = KeyElement{PropertyName: name, Position: i}
	}
	return Key{Elements: elements}
}

// Len returns the number of key elements.
func (k Key) Len() int {
	return len(k.Elements)
}

// IsCompound reports whether the key has more than one element.
func (k Key) IsCompound() bool {
	return len(k.Elements) > 1
}

// Validate checks that the key is non-empty, names are unique and positions
// run contiguously from 0.
func (k Key) Validate() error {
	if len(k.Elements) == 0 {
		return fmt.Errorf("%w: key has no elements", ErrInvalidKey)
	}

	names := make(map[string]struct{}, len(k.Elements))
	positions := make(map[int]string, len(k.Elements))
	for _, element := range k.Elements {
		if element.PropertyName == "" {
			return fmt.Errorf("%w: key element has no property name", ErrInvalidKey)
		}
		if _, dup := names[element.PropertyName]; dup {
			return fmt.Errorf("%w: property '%s' appears more than once", ErrInvalidKey, element.PropertyName)
		}
		names[element.PropertyName] = struct{}{}

		if element.Position < 0 || element.Position >= len(k.Elements) {
			return fmt.Errorf("%w: position %d of '%s' is outside 0..%d", ErrInvalidKey, element.Position, element.PropertyName, len(k.Elements)-1)
		}
		if other, dup := positions[element.Position]; dup {
			return fmt.Errorf("%w: position %d is used by both '%s' and '%s'", ErrInvalidKey, element.Position, other, element.PropertyName)
		}
		positions[element.Position] = element.PropertyName
	}
	return nil
}

// Ordered returns the elements sorted by position. Declaration order is
// irrelevant.
func (k Key) Ordered() []KeyElement {
	ordered := make([]KeyElement, len(k.Elements))
	copy(ordered, k.Elements)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})
	return ordered
}

// Names returns the property names in position order.
func (k Key) Names() []string {
	ordered := k.Ordered()
	names := make([]string, len(ordered))
	for i, element := range ordered {
		names[i] = element.PropertyName
	}
	return names
}

// Contains reports whether name is a key property.
func (k Key) Contains(name string) bool {
	for _, element := range k.Elements {
		if element.PropertyName == name {
			return true
		}
	}
	return false
}

// Equal compares keys by their position-ordered property names.
func (k Key) Equal(other Key) bool {
	a, b := k.Names(), other.Names()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CompareKeyValues orders two key value sets lexicographically in key
// position order. It returns -1, 0 or 1.
func CompareKeyValues(key Key, a, b map[string]any) int {
	for _, element := range key.Ordered() {
		if c := compareValues(a[element.PropertyName], b[element.PropertyName]); c != 0 {
			return c
		}
	}
	return 0
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if x, ok := toInt64(a); ok {
		if y, ok := toInt64(b); ok {
			return compareOrdered(x, y)
		}
	}
	if x, ok := toFloat64(a); ok {
		if y, ok := toFloat64(b); ok {
			return compareOrdered(x, y)
		}
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case time.Duration:
		if y, ok := b.(time.Duration); ok {
			return compareOrdered(x, y)
		}
	case decimal.Decimal:
		if y, ok := b.(decimal.Decimal); ok {
			return x.Cmp(y)
		}
	case uuid.UUID:
		if y, ok := b.(uuid.UUID); ok {
			return bytes.Compare(x[:], y[:])
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func compareOrdered[T int64 | float64 | time.Duration](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
