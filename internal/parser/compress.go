package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// maxDecompressed caps inflated uploads.
const maxDecompressed = 256 << 20

func decompress(content []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("xz: %w", err)
	}
	out, err := io.ReadAll(io.LimitReader(r, maxDecompressed+1))
	if err != nil {
		return nil, fmt.Errorf("xz: %w", err)
	}
	if len(out) > maxDecompressed {
		return nil, fmt.Errorf("xz: decompressed size exceeds %d bytes", maxDecompressed)
	}
	return out, nil
}
