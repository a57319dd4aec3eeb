package ilmodel

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// Codec persists a Module to and from disk. There is no real CIL/PE
// reader in this repo's dependency set, so the on-disk patch/baseline
// module format used by this server is this codec's gob encoding, not
// an attempt to reproduce real assembly metadata bytes.
type Codec struct{}

// Encode serializes m to this codec's on-disk format.
func (Codec) Encode(m *Module) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("ilmodel: encode %s: %w", m.Name, err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a Module previously produced by Encode.
func (Codec) Decode(data []byte) (*Module, error) {
	var m Module
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return nil, fmt.Errorf("ilmodel: decode module: %w", err)
	}
	return &m, nil
}

// Save writes m to path, overwriting any existing file.
func (c Codec) Save(path string, m *Module) error {
	data, err := c.Encode(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a Module previously written by Save.
func (c Codec) Load(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ilmodel: read %s: %w", path, err)
	}
	return c.Decode(data)
}

// FindType looks up a type by its fully-qualified name.
func (m *Module) FindType(fullName string) *TypeDef {
	for _, t := range m.Types {
		if t.FullName == fullName {
			return t
		}
	}
	return nil
}

// FindMethod looks up a method on t by canonical signature.
func (t *TypeDef) FindMethod(signature string) *MethodDef {
	for _, md := range t.Methods {
		if md.Signature == signature {
			return md
		}
	}
	return nil
}
