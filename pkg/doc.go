// Package pkg provides the libraries behind kiticon, a renderer for
// "icon kit" mock-ups: a stack of three rounded, extruded layers whose top
// face carries an image or a small 3D model.
//
// # Overview
//
// The pkg directory is organized bottom up:
//
//  1. Geometry: [geom] math, [shape] outlines, [mesh] extrusion
//  2. Scene: [scene] graph and stack builder, [model] loader and fitting
//  3. Pixels: [colorize] image compositing, [raster] software rasterizer
//  4. State: [renderer] scene state, change counter and snapshots,
//     [preview] coalesced background renders
//  5. Orchestration: [pipeline] load → compose → render with [cache]
//  6. Serving: [server] HTTP routes over a pipeline runner, [httputil]
//     responses and middleware
//  7. Support: [io], [symbols], [config], [errors], [observability],
//     [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	image file / symbol / OBJ or STL model
//	         ↓
//	    [io] or [model] (decode)
//	         ↓
//	    [colorize] (underlay or recolor)   [model] (strip, flatten, fit)
//	         ↓                                  ↓
//	    [renderer] (top layer texture or attachment, layer colors)
//	         ↓
//	    [raster] (orthographic camera, light rig, MSAA)
//	         ↓
//	    PNG output
//
// # Quick Start
//
//	r, _ := renderer.New(scene.DefaultConfig())
//	img, _ := io.DecodeImage("icon.png")
//	_ = r.SetImage(img)
//	_ = r.SetLayerColor(scene.LayerMiddle, color.NRGBA{0xff, 0x95, 0x00, 0xff})
//	out, _ := r.Snapshot(ctx, 1024, renderer.QualityFull)
//	_ = io.ExportPNG(io.DefaultExportName, out)
package pkg
