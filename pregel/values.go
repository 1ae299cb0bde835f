package pregel

// NodeValues is the schema-typed, array-backed per-vertex state storage:
// one fixed-length column per schema element, indexed by internal id.
// Rows are single-writer: only the partition owning an internal id writes it.
type NodeValues struct {
	schema *Schema
	count  uint32
	longs  [][]int64
	dbls   [][]float64
}

func newNodeValues(schema *Schema, count uint32) *NodeValues {
	nv := &NodeValues{
		schema: schema,
		count:  count,
		longs:  make([][]int64, schema.Len()),
		dbls:   make([][]float64, schema.Len()),
	}
	for pos, el := range schema.elements {
		switch el.Type {
		case Long:
			col := make([]int64, count)
			if el.DefaultLong != 0 {
				for i := range col {
					col[i] = el.DefaultLong
				}
			}
			nv.longs[pos] = col
		case Double:
			col := make([]float64, count)
			if el.DefaultDouble != 0 {
				for i := range col {
					col[i] = el.DefaultDouble
				}
			}
			nv.dbls[pos] = col
		}
	}
	return nv
}

func (nv *NodeValues) Count() uint32 {
	return nv.count
}

// resolve maps a key to a column position, checking the declared type.
func (nv *NodeValues) resolve(key string, want ValueType) (int, error) {
	pos, ok := nv.schema.lookup(key)
	if !ok {
		return 0, &SchemaError{Key: key, Reason: "unknown element key"}
	}
	if nv.schema.elements[pos].Type != want {
		return 0, &SchemaError{Key: key, Reason: "element is " + nv.schema.elements[pos].Type.String() + ", accessed as " + want.String()}
	}
	return pos, nil
}

// mustResolve is the context-facing variant: unknown keys and type mismatches
// are programmer errors that abort the run.
func (nv *NodeValues) mustResolve(key string, want ValueType) int {
	pos, err := nv.resolve(key, want)
	if err != nil {
		computePanic("%w", err)
	}
	return pos
}

func (nv *NodeValues) mustCheckId(id uint32) {
	if id >= nv.count {
		computePanic("%w", &GraphAccessError{Internal: true, Id: uint64(id), Count: uint64(nv.count)})
	}
}

func (nv *NodeValues) GetLong(key string, id uint32) int64 {
	nv.mustCheckId(id)
	return nv.longs[nv.mustResolve(key, Long)][id]
}

func (nv *NodeValues) SetLong(key string, id uint32, val int64) {
	nv.mustCheckId(id)
	nv.longs[nv.mustResolve(key, Long)][id] = val
}

func (nv *NodeValues) GetDouble(key string, id uint32) float64 {
	nv.mustCheckId(id)
	return nv.dbls[nv.mustResolve(key, Double)][id]
}

func (nv *NodeValues) SetDouble(key string, id uint32, val float64) {
	nv.mustCheckId(id)
	nv.dbls[nv.mustResolve(key, Double)][id] = val
}

// longColumn returns the live backing column; callers outside the engine get
// copies via Result.
func (nv *NodeValues) longColumn(key string) ([]int64, error) {
	pos, err := nv.resolve(key, Long)
	if err != nil {
		return nil, err
	}
	return nv.longs[pos], nil
}

func (nv *NodeValues) doubleColumn(key string) ([]float64, error) {
	pos, err := nv.resolve(key, Double)
	if err != nil {
		return nil, err
	}
	return nv.dbls[pos], nil
}
