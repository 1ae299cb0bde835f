package pregel

// ValueType enumerates the scalar kinds a schema element may hold.
// Long and Double are the only supported kinds.
type ValueType uint8

const (
	Long ValueType = iota
	Double
)

func (t ValueType) String() string {
	switch t {
	case Long:
		return "long"
	case Double:
		return "double"
	}
	return "invalid"
}

// Visibility declares whether an element is part of the exported result
// (Public) or scratch space for the algorithm (Private). This is a
// documentation and export-filter distinction only; the engine enforces
// nothing else with it.
type Visibility uint8

const (
	Public Visibility = iota
	Private
)

// Element is one declared per-vertex property: a key, a value type, a
// visibility, and the default every vertex starts with before init runs.
type Element struct {
	Key           string
	Type          ValueType
	Visibility    Visibility
	DefaultLong   int64
	DefaultDouble float64
}

func LongElement(key string, vis Visibility, def int64) Element {
	return Element{Key: key, Type: Long, Visibility: vis, DefaultLong: def}
}

func DoubleElement(key string, vis Visibility, def float64) Element {
	return Element{Key: key, Type: Double, Visibility: vis, DefaultDouble: def}
}

// Schema is an ordered set of elements with unique keys. Immutable once an
// executor has been constructed from it.
type Schema struct {
	elements []Element
	index    map[string]int
}

func NewSchema(elements ...Element) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(elements))}
	for _, el := range elements {
		if err := s.Declare(el); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Declare adds an element. Duplicate keys and unsupported value types are
// SchemaErrors.
func (s *Schema) Declare(el Element) error {
	if el.Key == "" {
		return &SchemaError{Key: el.Key, Reason: "empty element key"}
	}
	if el.Type != Long && el.Type != Double {
		return &SchemaError{Key: el.Key, Reason: "unsupported value type"}
	}
	if _, ok := s.index[el.Key]; ok {
		return &SchemaError{Key: el.Key, Reason: "duplicate element key"}
	}
	s.index[el.Key] = len(s.elements)
	s.elements = append(s.elements, el)
	return nil
}

// Elements returns the declared elements in declaration order.
func (s *Schema) Elements() []Element {
	out := make([]Element, len(s.elements))
	copy(out, s.elements)
	return out
}

func (s *Schema) Len() int {
	return len(s.elements)
}

func (s *Schema) lookup(key string) (int, bool) {
	pos, ok := s.index[key]
	return pos, ok
}
