// internal/cache/codec.go
package cache

import (
	"encoding/json"
	"fmt"

	"intentcfg/internal/runtime"

	"github.com/klauspost/compress/zstd"
)

// Payloads above this size are zstd-compressed before hitting the shared
// tier; large tenants carry thousands of intents per config.
const compressMin = 4 * 1024

const (
	codecPlain      = 'j'
	codecCompressed = 'z'
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
)

// encodeConfig serializes a config for the shared tier, compressing large
// payloads. The first byte tags the codec.
func encodeConfig(cfg *runtime.Config) ([]byte, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}

	if len(data) < compressMin {
		return append([]byte{codecPlain}, data...), nil
	}

	compressed := encoder.EncodeAll(data, []byte{codecCompressed})
	return compressed, nil
}

func decodeConfig(raw []byte) (*runtime.Config, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("cache payload too short")
	}

	data := raw[1:]
	switch raw[0] {
	case codecPlain:
	case codecCompressed:
		var err error
		data, err = decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown cache codec: %q", raw[0])
	}

	var cfg runtime.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
