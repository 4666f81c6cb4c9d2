package storage

import (
	"fmt"
	"ntpbg/internal/storage/interfaces"

	"github.com/klauspost/compress/zstd"
)

const (
	// Pref snapshots are a few KB, a small window keeps the encoder light.
	snapshotWindowSize = 1 << 20
	// A snapshot that inflates past this is treated as corrupt.
	maxSnapshotSize = 64 << 20
)

// ZstdCompression compresses pref snapshots. The encoder and decoder are
// used through EncodeAll/DecodeAll only, which are safe for concurrent use.
type ZstdCompression struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewZstdCompressor() (interfaces.CompressorInterface, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithEncoderConcurrency(1),
		zstd.WithWindowSize(snapshotWindowSize),
		zstd.WithEncoderCRC(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create snapshot encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxSnapshotSize),
	)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("create snapshot decoder: %w", err)
	}
	return &ZstdCompression{encoder: encoder, decoder: decoder}, nil
}

func (z *ZstdCompression) Compress(snapshot []byte) ([]byte, error) {
	return z.encoder.EncodeAll(snapshot, nil), nil
}

func (z *ZstdCompression) Decompress(data []byte) ([]byte, error) {
	out, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return out, nil
}

func (z *ZstdCompression) Close() {
	_ = z.encoder.Close()
	z.decoder.Close()
}
