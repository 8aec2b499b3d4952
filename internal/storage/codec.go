package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/DataDog/zstd"

	"github.com/san-kum/vlasim/internal/dynamo"
)

var magic = [4]byte{'V', 'L', 'S', '1'}

var ErrCorrupt = errors.New("corrupt state archive")

// EncodeStates packs snapshots as little-endian float64 records and
// compresses the result. Every snapshot must have the same length.
func EncodeStates(states []dynamo.State, times []float64) ([]byte, error) {
	if len(states) != len(times) {
		return nil, fmt.Errorf("%w: %d states, %d times", dynamo.ErrDimensionMismatch, len(states), len(times))
	}
	dim := 0
	if len(states) > 0 {
		dim = len(states[0])
	}

	raw := make([]byte, 12+len(states)*(8+16*dim))
	copy(raw, magic[:])
	binary.LittleEndian.PutUint32(raw[4:], uint32(len(states)))
	binary.LittleEndian.PutUint32(raw[8:], uint32(dim))

	off := 12
	for i, st := range states {
		if len(st) != dim {
			return nil, fmt.Errorf("%w: snapshot %d has %d entries, want %d", dynamo.ErrDimensionMismatch, i, len(st), dim)
		}
		binary.LittleEndian.PutUint64(raw[off:], math.Float64bits(times[i]))
		off += 8
		for _, v := range st {
			binary.LittleEndian.PutUint64(raw[off:], math.Float64bits(real(v)))
			binary.LittleEndian.PutUint64(raw[off+8:], math.Float64bits(imag(v)))
			off += 16
		}
	}

	return zstd.CompressLevel(nil, raw, zstd.DefaultCompression)
}

func DecodeStates(blob []byte) ([]dynamo.State, []float64, error) {
	raw, err := zstd.Decompress(nil, blob)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if len(raw) < 12 || !bytes.Equal(raw[:4], magic[:]) {
		return nil, nil, fmt.Errorf("%w: bad header", ErrCorrupt)
	}

	count := int(binary.LittleEndian.Uint32(raw[4:]))
	dim := int(binary.LittleEndian.Uint32(raw[8:]))
	if len(raw) != 12+count*(8+16*dim) {
		return nil, nil, fmt.Errorf("%w: %d bytes for %d snapshots of %d", ErrCorrupt, len(raw), count, dim)
	}

	states := make([]dynamo.State, count)
	times := make([]float64, count)
	off := 12
	for i := range states {
		times[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[off:]))
		off += 8
		st := make(dynamo.State, dim)
		for j := range st {
			re := math.Float64frombits(binary.LittleEndian.Uint64(raw[off:]))
			im := math.Float64frombits(binary.LittleEndian.Uint64(raw[off+8:]))
			st[j] = complex(re, im)
			off += 16
		}
		states[i] = st
	}

	return states, times, nil
}
