// Package colstore is a small columnar store for per-vertex properties. It
// seeds engine runs (it implements pregel.PropertySource), captures run
// results, and persists columns to disk as zstd-compressed snapshots.
package colstore

import (
	"encoding/binary"
	"math"

	"github.com/graphbolt/pregolin/pregel"
)

type kind uint8

const (
	longKind kind = iota
	doubleKind
)

type column struct {
	name  string
	kind  kind
	longs []int64
	dbls  []float64
}

// Columns is an ordered set of equal-length named columns, one row per
// vertex, rows indexed the same way the source graph enumerates vertices.
type Columns struct {
	count uint32
	cols  []column
	index map[string]int
}

func New(count uint32) *Columns {
	return &Columns{count: count, index: make(map[string]int)}
}

func (cs *Columns) Count() uint32 {
	return cs.count
}

func (cs *Columns) Names() []string {
	out := make([]string, len(cs.cols))
	for i, c := range cs.cols {
		out[i] = c.name
	}
	return out
}

func (cs *Columns) add(c column) error {
	if _, ok := cs.index[c.name]; ok {
		return &pregel.SchemaError{Key: c.name, Reason: "duplicate column"}
	}
	cs.index[c.name] = len(cs.cols)
	cs.cols = append(cs.cols, c)
	return nil
}

// AddLong takes ownership of col. Its length must match the row count.
func (cs *Columns) AddLong(name string, col []int64) error {
	if uint32(len(col)) != cs.count {
		return &pregel.SchemaError{Key: name, Reason: "column length does not match row count"}
	}
	return cs.add(column{name: name, kind: longKind, longs: col})
}

// AddDouble takes ownership of col. Its length must match the row count.
func (cs *Columns) AddDouble(name string, col []float64) error {
	if uint32(len(col)) != cs.count {
		return &pregel.SchemaError{Key: name, Reason: "column length does not match row count"}
	}
	return cs.add(column{name: name, kind: doubleKind, dbls: col})
}

// LongColumn implements pregel.PropertySource.
func (cs *Columns) LongColumn(name string) ([]int64, bool) {
	at, ok := cs.index[name]
	if !ok || cs.cols[at].kind != longKind {
		return nil, false
	}
	return cs.cols[at].longs, true
}

// DoubleColumn implements pregel.PropertySource.
func (cs *Columns) DoubleColumn(name string) ([]float64, bool) {
	at, ok := cs.index[name]
	if !ok || cs.cols[at].kind != doubleKind {
		return nil, false
	}
	return cs.cols[at].dbls, true
}

// FromResult exports every public element of a completed run.
func FromResult(res *pregel.Result) (*Columns, error) {
	cs := New(res.VertexCount())
	for _, el := range res.PublicElements() {
		switch el.Type {
		case pregel.Long:
			col, err := res.LongColumn(el.Key)
			if err != nil {
				return nil, err
			}
			if err := cs.AddLong(el.Key, col); err != nil {
				return nil, err
			}
		case pregel.Double:
			col, err := res.DoubleColumn(el.Key)
			if err != nil {
				return nil, err
			}
			if err := cs.AddDouble(el.Key, col); err != nil {
				return nil, err
			}
		}
	}
	return cs, nil
}

func (c *column) encode() []byte {
	rows := len(c.longs) + len(c.dbls)
	buf := make([]byte, 8*rows)
	switch c.kind {
	case longKind:
		for i, v := range c.longs {
			binary.LittleEndian.PutUint64(buf[8*i:], uint64(v))
		}
	case doubleKind:
		for i, v := range c.dbls {
			binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
		}
	}
	return buf
}

func (c *column) decode(buf []byte, rows uint32) {
	switch c.kind {
	case longKind:
		c.longs = make([]int64, rows)
		for i := range c.longs {
			c.longs[i] = int64(binary.LittleEndian.Uint64(buf[8*i:]))
		}
	case doubleKind:
		c.dbls = make([]float64, rows)
		for i := range c.dbls {
			c.dbls[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
		}
	}
}
