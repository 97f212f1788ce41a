package arch

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// targetFile mirrors the TOML target descriptor:
//
//	name = "amd64"
//	word-size = 8
//	label-prefix = "_"
type targetFile struct {
	Name        string `toml:"name"`
	WordSize    int    `toml:"word-size"`
	LabelPrefix string `toml:"label-prefix"`
}

// LoadTarget reads a TOML target descriptor, layering it over the
// AMD64 defaults.
func LoadTarget(path string) (*Arch, error) {
	var tf targetFile
	meta, err := toml.DecodeFile(path, &tf)
	if err != nil {
		return nil, fmt.Errorf("arch: decoding %s: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("arch: %s: unknown key %q", path, undec[0].String())
	}

	a := AMD64()
	if tf.Name != "" {
		a.Name = tf.Name
	}
	if meta.IsDefined("word-size") {
		if tf.WordSize <= 0 {
			return nil, fmt.Errorf("arch: %s: word-size must be positive, got %d", path, tf.WordSize)
		}
		a.WordSize = tf.WordSize
	}
	if meta.IsDefined("label-prefix") {
		a.labelPrefix = tf.LabelPrefix
	}
	return a, nil
}
