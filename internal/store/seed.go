package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ReadSeed loads a JSON seed file. A missing file yields an empty seed and
// ok=false.
func ReadSeed(path string) (seed Seed, ok bool, err error) {
	if path == "" {
		return Seed{}, false, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Seed{}, false, nil
	}
	if err != nil {
		return Seed{}, false, fmt.Errorf("read seed file: %w", err)
	}
	if err := json.Unmarshal(b, &seed); err != nil {
		return Seed{}, false, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return seed, true, nil
}
