// Package model loads 3D models and attaches them to the icon's top layer.
//
// Loading produces a plain [scene.Node] graph. Attaching strips embedded
// lights and cameras, recolors the geometry, flattens it into one node and
// fits it inside the layer footprint. The fit is computed once per attach;
// rotating an attached model never rescales or moves it.
package model

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
	"github.com/skillbreak/kiticon/pkg/geom"
	"github.com/skillbreak/kiticon/pkg/mesh"
	"github.com/skillbreak/kiticon/pkg/scene"
)

// Format is a model file format.
type Format string

const (
	FormatOBJ Format = "obj"
	FormatSTL Format = "stl"
)

// FormatFromPath returns the format matching the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return FormatOBJ, nil
	case ".stl":
		return FormatSTL, nil
	}
	return "", kerrors.New(kerrors.ErrCodeDecodeFailure, "unsupported model format %q", filepath.Ext(path))
}

// Load reads the model at path. The format is chosen by extension.
func Load(path string) (*scene.Node, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeDecodeFailure, err, "open model")
	}
	defer f.Close()

	root, err := Decode(f, format)
	if err != nil {
		return nil, err
	}
	root.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return root, nil
}

// Decode reads a model in the given format. The result is a root node with
// one child per object or group in the file.
func Decode(r io.Reader, format Format) (*scene.Node, error) {
	var (
		root *scene.Node
		err  error
	)
	switch format {
	case FormatOBJ:
		root, err = decodeOBJ(r)
	case FormatSTL:
		root, err = decodeSTL(r)
	default:
		return nil, kerrors.New(kerrors.ErrCodeDecodeFailure, "unsupported model format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if root.BoundingBox().IsEmpty() {
		return nil, kerrors.New(kerrors.ErrCodeDecodeFailure, "model has no geometry")
	}
	return root, nil
}

// triangles accumulates unindexed triangles for one mesh node.
type triangles struct {
	name  string
	verts []mesh.Vertex
}

func (t *triangles) add(a, b, c mesh.Vertex) {
	face := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position)).Normal()
	for _, v := range []*mesh.Vertex{&a, &b, &c} {
		if v.Normal == (geom.Vec3{}) {
			v.Normal = face
		}
	}
	t.verts = append(t.verts, a, b, c)
}

func (t *triangles) node() *scene.Node {
	n := scene.NewNode(t.name)
	idx := make([]uint32, len(t.verts))
	for i := range idx {
		idx[i] = uint32(i)
	}
	n.Mesh = &mesh.Mesh{Vertices: t.verts, Elements: []mesh.Element{{Indices: idx}}}
	n.Materials = []scene.Material{{Diffuse: white}}
	return n
}

func decodeOBJ(r io.Reader) (*scene.Node, error) {
	var (
		positions []geom.Vec3
		normals   []geom.Vec3
		uvs       []geom.Vec2
		groups    []*triangles
		current   *triangles
	)
	start := func(name string) {
		current = &triangles{name: name}
		groups = append(groups, current)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, objError(line, err)
			}
			positions = append(positions, v)
		case "vn":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, objError(line, err)
			}
			normals = append(normals, v.Normal())
		case "vt":
			if len(fields) < 3 {
				return nil, objError(line, errShortRecord)
			}
			u, err1 := strconv.ParseFloat(fields[1], 32)
			v, err2 := strconv.ParseFloat(fields[2], 32)
			if err1 != nil || err2 != nil {
				return nil, objError(line, errBadNumber)
			}
			uvs = append(uvs, geom.V2(float32(u), float32(v)))
		case "o", "g":
			start(strings.Join(fields[1:], " "))
		case "f":
			if len(fields) < 4 {
				return nil, objError(line, errShortRecord)
			}
			face := make([]mesh.Vertex, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				v, err := objVertex(tok, positions, uvs, normals)
				if err != nil {
					return nil, objError(line, err)
				}
				face = append(face, v)
			}
			if current == nil {
				start("")
			}
			for i := 1; i < len(face)-1; i++ {
				current.add(face[0], face[i], face[i+1])
			}
		}
		// Materials, smoothing groups and free-form geometry are ignored.
	}
	if err := sc.Err(); err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeDecodeFailure, err, "read obj")
	}

	root := scene.NewNode("")
	for _, g := range groups {
		if len(g.verts) > 0 {
			root.AddChild(g.node())
		}
	}
	return root, nil
}

// objVertex resolves a "v", "v/vt", "v//vn" or "v/vt/vn" reference.
// Negative indices count back from the latest element.
func objVertex(tok string, positions []geom.Vec3, uvs []geom.Vec2, normals []geom.Vec3) (mesh.Vertex, error) {
	parts := strings.Split(tok, "/")
	var v mesh.Vertex

	pi, err := objIndex(parts[0], len(positions))
	if err != nil {
		return v, err
	}
	v.Position = positions[pi]
	if len(parts) > 1 && parts[1] != "" {
		ti, err := objIndex(parts[1], len(uvs))
		if err != nil {
			return v, err
		}
		v.UV = uvs[ti]
	}
	if len(parts) > 2 && parts[2] != "" {
		ni, err := objIndex(parts[2], len(normals))
		if err != nil {
			return v, err
		}
		v.Normal = normals[ni]
	}
	return v, nil
}

func objIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errBadNumber
	}
	if i < 0 {
		i = n + i
	} else {
		i--
	}
	if i < 0 || i >= n {
		return 0, errBadIndex
	}
	return i, nil
}

func decodeSTL(r io.Reader) (*scene.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeDecodeFailure, err, "read stl")
	}
	var tris *triangles
	if isBinarySTL(data) {
		tris, err = decodeBinarySTL(data)
	} else {
		tris, err = decodeASCIISTL(data)
	}
	if err != nil {
		return nil, err
	}
	root := scene.NewNode("")
	if len(tris.verts) > 0 {
		root.AddChild(tris.node())
	}
	return root, nil
}

const (
	stlHeaderSize = 80
	stlRecordSize = 50
)

// isBinarySTL reports whether data has the exact size of a binary STL.
// Binary files may also start with "solid", so the prefix alone is not
// enough.
func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return false
	}
	n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	return uint64(len(data)) == stlHeaderSize+4+uint64(n)*stlRecordSize
}

func decodeBinarySTL(data []byte) (*triangles, error) {
	n := int(binary.LittleEndian.Uint32(data[stlHeaderSize:]))
	tris := &triangles{name: strings.TrimRight(string(data[:stlHeaderSize]), "\x00 ")}
	tris.verts = make([]mesh.Vertex, 0, 3*n)
	rec := data[stlHeaderSize+4:]
	f := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(rec[off:]))
	}
	for i := 0; i < n; i++ {
		o := i * stlRecordSize
		var v [3]mesh.Vertex
		for j := range v {
			b := o + 12 + j*12
			v[j].Position = geom.V3(f(b), f(b+4), f(b+8))
		}
		tris.add(v[0], v[1], v[2])
	}
	return tris, nil
}

func decodeASCIISTL(data []byte) (*triangles, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	tris := &triangles{}
	var facet []mesh.Vertex
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "solid":
			if line == 1 && len(fields) > 1 {
				tris.name = strings.Join(fields[1:], " ")
			}
		case "facet":
			facet = facet[:0]
		case "vertex":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, kerrors.Wrap(kerrors.ErrCodeDecodeFailure, err, "stl line %d", line)
			}
			facet = append(facet, mesh.Vertex{Position: v})
		case "endfacet":
			if len(facet) != 3 {
				return nil, kerrors.New(kerrors.ErrCodeDecodeFailure, "stl line %d: facet has %d vertices", line, len(facet))
			}
			tris.add(facet[0], facet[1], facet[2])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeDecodeFailure, err, "read stl")
	}
	if line == 0 {
		return nil, kerrors.New(kerrors.ErrCodeDecodeFailure, "empty stl")
	}
	return tris, nil
}

var (
	errShortRecord = kerrors.New(kerrors.ErrCodeInvalidFormat, "record too short")
	errBadNumber   = kerrors.New(kerrors.ErrCodeInvalidFormat, "malformed number")
	errBadIndex    = kerrors.New(kerrors.ErrCodeInvalidFormat, "index out of range")
)

func parseVec3(fields []string) (geom.Vec3, error) {
	if len(fields) < 3 {
		return geom.Vec3{}, errShortRecord
	}
	var out [3]float32
	for i := range out {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return geom.Vec3{}, errBadNumber
		}
		out[i] = float32(f)
	}
	return geom.V3(out[0], out[1], out[2]), nil
}

func objError(line int, err error) error {
	return kerrors.Wrap(kerrors.ErrCodeDecodeFailure, err, "obj line %d", line)
}
