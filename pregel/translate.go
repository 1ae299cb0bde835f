package pregel

// Translator holds the bijective external<->internal id mapping, built once
// per run and immutable afterwards. Both directions are pure and total over
// the valid range.
type Translator struct {
	toInternal map[RawID]uint32
	toExternal []RawID
}

func buildTranslator(g Graph) (*Translator, error) {
	n := g.VertexCount()
	tr := &Translator{
		toInternal: make(map[RawID]uint32, n),
		toExternal: make([]RawID, 0, n),
	}
	var dup *RawID
	g.ForEachVertex(func(raw RawID) {
		if _, ok := tr.toInternal[raw]; ok {
			if dup == nil {
				r := raw
				dup = &r
			}
			return
		}
		tr.toInternal[raw] = uint32(len(tr.toExternal))
		tr.toExternal = append(tr.toExternal, raw)
	})
	if dup != nil {
		return nil, &GraphAccessError{Id: dup.Integer(), Count: uint64(n)}
	}
	if len(tr.toExternal) != n {
		return nil, &GraphAccessError{Id: uint64(len(tr.toExternal)), Count: uint64(n)}
	}
	return tr, nil
}

func (tr *Translator) Count() uint32 {
	return uint32(len(tr.toExternal))
}

func (tr *Translator) ToInternal(raw RawID) (uint32, error) {
	internal, ok := tr.toInternal[raw]
	if !ok {
		return 0, &GraphAccessError{Id: raw.Integer(), Count: uint64(len(tr.toExternal))}
	}
	return internal, nil
}

func (tr *Translator) ToExternal(internal uint32) (RawID, error) {
	if internal >= uint32(len(tr.toExternal)) {
		return 0, &GraphAccessError{Internal: true, Id: uint64(internal), Count: uint64(len(tr.toExternal))}
	}
	return tr.toExternal[internal], nil
}
