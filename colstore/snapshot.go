package colstore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/graphbolt/pregolin/utils"
)

// Snapshot file layout, little endian throughout:
//
//	magic "PGCS", version byte
//	uint32 row count, uint32 column count
//	per column: uint16 name length, name bytes, kind byte,
//	            uint32 compressed length, zstd frame of 8-byte rows
const (
	snapshotMagic   = "PGCS"
	snapshotVersion = 1
)

// Save writes the columns to path. Columns compress in parallel; the file is
// written serially in column order.
func (cs *Columns) Save(path string) error {
	watch := utils.Watch{}
	watch.Start()

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	defer enc.Close()

	frames := make([][]byte, len(cs.cols))
	eg := new(errgroup.Group)
	for i := range cs.cols {
		i := i
		eg.Go(func() error {
			frames[i] = enc.EncodeAll(cs.cols[i].encode(), nil)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if _, err := w.WriteString(snapshotMagic); err != nil {
		return err
	}
	if err := w.WriteByte(snapshotVersion); err != nil {
		return err
	}
	head := make([]byte, 8)
	binary.LittleEndian.PutUint32(head[0:], cs.count)
	binary.LittleEndian.PutUint32(head[4:], uint32(len(cs.cols)))
	if _, err := w.Write(head); err != nil {
		return err
	}
	for i, c := range cs.cols {
		var meta [2]byte
		binary.LittleEndian.PutUint16(meta[:], uint16(len(c.name)))
		if _, err := w.Write(meta[:]); err != nil {
			return err
		}
		if _, err := w.WriteString(c.name); err != nil {
			return err
		}
		if err := w.WriteByte(byte(c.kind)); err != nil {
			return err
		}
		var clen [4]byte
		binary.LittleEndian.PutUint32(clen[:], uint32(len(frames[i])))
		if _, err := w.Write(clen[:]); err != nil {
			return err
		}
		if _, err := w.Write(frames[i]); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	log.Debug().Msg("Saved " + utils.V(len(cs.cols)) + " columns x " + utils.V(cs.count) +
		" rows to " + path + " in " + watch.Elapsed().String())
	return nil
}

// Load reads a snapshot written by Save.
func Load(path string) (*Columns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < len(snapshotMagic)+1+8 || string(data[:4]) != snapshotMagic {
		return nil, fmt.Errorf("colstore: %s is not a column snapshot", path)
	}
	if data[4] != snapshotVersion {
		return nil, fmt.Errorf("colstore: %s has unsupported version %d", path, data[4])
	}
	at := 5
	count := binary.LittleEndian.Uint32(data[at:])
	ncols := binary.LittleEndian.Uint32(data[at+4:])
	at += 8

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	cs := New(count)
	for i := uint32(0); i < ncols; i++ {
		if at+2 > len(data) {
			return nil, fmt.Errorf("colstore: %s is truncated", path)
		}
		nameLen := int(binary.LittleEndian.Uint16(data[at:]))
		at += 2
		if at+nameLen+5 > len(data) {
			return nil, fmt.Errorf("colstore: %s is truncated", path)
		}
		name := string(data[at : at+nameLen])
		at += nameLen
		k := kind(data[at])
		at++
		clen := int(binary.LittleEndian.Uint32(data[at:]))
		at += 4
		if at+clen > len(data) {
			return nil, fmt.Errorf("colstore: %s is truncated", path)
		}
		raw, err := dec.DecodeAll(data[at:at+clen], nil)
		if err != nil {
			return nil, err
		}
		at += clen
		if uint32(len(raw)) != 8*count {
			return nil, fmt.Errorf("colstore: column %s has %d rows, header says %d", name, len(raw)/8, count)
		}
		c := column{name: name, kind: k}
		c.decode(raw, count)
		if err := cs.add(c); err != nil {
			return nil, err
		}
	}
	return cs, nil
}
