package libgl

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

//go:embed shaders/*.vert shaders/*.frag
var embedded embed.FS

// Sources resolves stage names to GLSL. Files in Override take precedence over the
// embedded copies, which lets the viewer hot reload edited shaders.
type Sources struct {
	Override string
}

func (s Sources) Vertex(name string) (string, error) {
	return s.read(name + ".vert")
}

func (s Sources) Fragment(name string) (string, error) {
	return s.read(name + ".frag")
}

func (s Sources) read(file string) (string, error) {
	if s.Override != "" {
		data, err := os.ReadFile(filepath.Join(s.Override, file))
		if err == nil {
			glog.V(2).Infof("shader %s from %s", file, s.Override)
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	data, err := embedded.ReadFile("shaders/" + file)
	if err != nil {
		return "", fmt.Errorf("shader %s: %w", file, err)
	}
	return string(data), nil
}

// EmbeddedNames lists the embedded shader files.
func EmbeddedNames() ([]string, error) {
	entries, err := embedded.ReadDir("shaders")
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}
