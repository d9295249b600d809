package assets

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrUnsupportedFormat is returned for files whose extension or header is
// not a model format the renderer can load.
var ErrUnsupportedFormat = errors.New("assets: unsupported format")

// Format identifies a model container.
type Format uint8

const (
	Procedural Format = iota // built-in mesh, no file
	GLB
	GLTF
	OBJ
)

func (f Format) String() string {
	switch f {
	case Procedural:
		return "procedural"
	case GLB:
		return "glb"
	case GLTF:
		return "gltf"
	case OBJ:
		return "obj"
	}
	return "unknown"
}

// Info is what header sniffing learns about a model file.
type Info struct {
	Format   Format
	Size     int64
	Version  string // glTF asset version
	Vertices int    // OBJ vertex records
	Faces    int    // OBJ face records
}

const glbMagic = "glTF"

// FormatOf maps a file name to its format by extension.
func FormatOf(name string) (Format, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".glb":
		return GLB, true
	case ".gltf":
		return GLTF, true
	case ".obj":
		return OBJ, true
	}
	return Procedural, false
}

// Sniff checks that data looks like the model format its name claims.
// Only headers are inspected; meshes are decoded by the renderer.
func Sniff(name string, data []byte) (Info, error) {
	format, ok := FormatOf(name)
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	info := Info{Format: format, Size: int64(len(data))}
	switch format {
	case GLB:
		return info, sniffGLB(&info, data)
	case GLTF:
		return info, sniffGLTF(&info, data)
	default:
		return info, sniffOBJ(&info, data)
	}
}

func sniffGLB(info *Info, data []byte) error {
	if len(data) < 12 || string(data[:4]) != glbMagic {
		return fmt.Errorf("%w: missing glTF magic", ErrUnsupportedFormat)
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != 2 {
		return fmt.Errorf("%w: glb container version %d", ErrUnsupportedFormat, version)
	}
	if length := binary.LittleEndian.Uint32(data[8:12]); int(length) > len(data) {
		return fmt.Errorf("%w: glb truncated, header says %d bytes, have %d", ErrUnsupportedFormat, length, len(data))
	}
	info.Version = "2.0"
	return nil
}

func sniffGLTF(info *Info, data []byte) error {
	var doc struct {
		Asset struct {
			Version string `json:"version"`
		} `json:"asset"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: gltf json: %v", ErrUnsupportedFormat, err)
	}
	if doc.Asset.Version == "" {
		return fmt.Errorf("%w: gltf without asset.version", ErrUnsupportedFormat)
	}
	info.Version = doc.Asset.Version
	return nil
}

func sniffOBJ(info *Info, data []byte) error {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "v "):
			info.Vertices++
		case strings.HasPrefix(line, "f "):
			info.Faces++
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: obj: %v", ErrUnsupportedFormat, err)
	}
	if info.Vertices == 0 {
		return fmt.Errorf("%w: obj without vertices", ErrUnsupportedFormat)
	}
	return nil
}
