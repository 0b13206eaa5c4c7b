package describe

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode holds CBOR encoding options with canonical mode so the same
// tree always serializes to the same bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("describe: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a Description to CBOR bytes.
func Marshal(d *Description) ([]byte, error) {
	return cborEncMode.Marshal(d)
}

// Unmarshal deserializes a Description from CBOR bytes. Artifacts written
// under a different format version are refused.
func Unmarshal(data []byte) (*Description, error) {
	var d Description
	if err := cbor.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("describe: unmarshal description: %w", err)
	}
	if d.Format != FormatVersion {
		return nil, fmt.Errorf("describe: description format v%d, this build reads v%d",
			d.Format, FormatVersion)
	}
	return &d, nil
}

// WriteFile serializes a Description and writes it to path.
func WriteFile(path string, d *Description) error {
	data, err := Marshal(d)
	if err != nil {
		return fmt.Errorf("describe: marshal description: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("describe: write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a Description from a file written by WriteFile.
func ReadFile(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("describe: read %s: %w", path, err)
	}
	return Unmarshal(data)
}
