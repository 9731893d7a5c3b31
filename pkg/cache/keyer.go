package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Keyer builds cache keys.
type Keyer interface {
	// RenderKey returns the key of an icon rendered from the input with the
	// given content hash.
	RenderKey(inputHash string, opts RenderKeyOpts) string
}

// RenderKeyOpts holds every setting that changes a rendered icon. Colors are
// hex strings so equal colors always hash equally. Symbol is set when the
// input was resized to the symbol size before rendering.
type RenderKeyOpts struct {
	Size            int        `json:"size"`
	Symbol          bool       `json:"symbol,omitempty"`
	Samples         int        `json:"samples"`
	Colors          [3]string  `json:"colors"`
	Fill            string     `json:"fill"`
	FillColor       string     `json:"fill_color,omitempty"`
	Gradient        [2]string  `json:"gradient,omitempty"`
	GradientPoints  [4]float64 `json:"gradient_points,omitempty"`
	Rotation        [3]float32 `json:"rotation,omitempty"`
	Padding         float32    `json:"padding"`
	Background      bool       `json:"background"`
	BackgroundColor string     `json:"background_color,omitempty"`
}

// DefaultKeyer builds "render:<sha256>" keys over the input hash and the
// JSON form of the options.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(inputHash string, opts RenderKeyOpts) string {
	data, _ := json.Marshal(struct {
		Input string        `json:"input"`
		Opts  RenderKeyOpts `json:"opts"`
	}{inputHash, opts})
	return "render:" + Hash(data)
}

// Scope prefixes every key of inner, so several front ends can share one
// cache directory without sharing entries. A nil inner uses DefaultKeyer.
//
//	serveKeyer := cache.Scope(nil, "serve:")
func Scope(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return scopedKeyer{inner: inner, prefix: prefix}
}

type scopedKeyer struct {
	inner  Keyer
	prefix string
}

func (k scopedKeyer) RenderKey(inputHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(inputHash, opts)
}

// Hash returns the hex SHA-256 of data. It identifies inputs in render
// keys and PNGs in HTTP ETags.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// keyType returns the kind segment of a key ("render"), skipping any scope
// prefix, for use as a metric label.
func keyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[len(parts)-2]
}
