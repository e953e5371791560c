package cache

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/viant/imgsim/vector"
	"github.com/vmihailenco/msgpack/v5"
)

// Encoders and decoders are safe for concurrent EncodeAll/DecodeAll.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// ErrOutOfSync is returned when the names artifact was not written together
// with the vectors artifact, e.g. after a crash between the two writes.
var ErrOutOfSync = errors.New("cache: vectors and names artifacts out of sync")

// namesArtifact is the msgpack body of the names artifact. Sum is the xxhash of the
// uncompressed vectors artifact it was written with.
type namesArtifact struct {
	Sum   uint64   `msgpack:"sum"`
	Names []string `msgpack:"names"`
}

// artifacts is the encoded form of a dataset.
type artifacts struct {
	vectors []byte
	names   []byte
}

// encode stores: zstd(dim(uint32), n(uint32), vec(float32[dim])^n) and
// msgpack{sum, names} with the owner names in the same order.
func encode(vectors []vector.Vector) (artifacts, error) {
	dim, err := vector.Dimension(vectors)
	if err != nil {
		return artifacts{}, err
	}
	raw := make([]byte, 8+4*dim*len(vectors))
	binary.LittleEndian.PutUint32(raw[0:4], uint32(dim))
	binary.LittleEndian.PutUint32(raw[4:8], uint32(len(vectors)))
	owners := make([]string, len(vectors))
	off := 8
	for i, v := range vectors {
		vector.PutEmbedding(raw[off:], v.Values)
		off += 4 * dim
		owners[i] = v.Owner
	}
	namesBlob, err := msgpack.Marshal(namesArtifact{Sum: xxhash.Sum64(raw), Names: owners})
	if err != nil {
		return artifacts{}, fmt.Errorf("cache: encode names: %w", err)
	}
	return artifacts{vectors: encoder.EncodeAll(raw, nil), names: namesBlob}, nil
}

func decode(a artifacts) ([]vector.Vector, error) {
	raw, err := decoder.DecodeAll(a.vectors, nil)
	if err != nil {
		return nil, fmt.Errorf("cache: decompress vectors: %w", err)
	}
	if len(raw) < 8 {
		return nil, errors.New("cache: invalid vectors artifact")
	}
	dim := int(binary.LittleEndian.Uint32(raw[0:4]))
	n := int(binary.LittleEndian.Uint32(raw[4:8]))
	if len(raw) != 8+4*dim*n {
		return nil, fmt.Errorf("cache: truncated vectors artifact: %d bytes for %d x %d", len(raw), n, dim)
	}
	var meta namesArtifact
	if err := msgpack.Unmarshal(a.names, &meta); err != nil {
		return nil, fmt.Errorf("cache: decode names: %w", err)
	}
	if meta.Sum != xxhash.Sum64(raw) {
		return nil, ErrOutOfSync
	}
	if len(meta.Names) != n {
		return nil, fmt.Errorf("cache: %d names for %d vectors", len(meta.Names), n)
	}
	out := make([]vector.Vector, n)
	off := 8
	for i := range out {
		values, err := vector.DecodeEmbedding(raw[off : off+4*dim])
		if err != nil {
			return nil, err
		}
		if values == nil {
			values = []float32{}
		}
		out[i] = vector.Vector{Owner: meta.Names[i], Values: values}
		off += 4 * dim
	}
	return out, nil
}
