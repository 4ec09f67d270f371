// trinspect is a CLI utility for inspecting Trinity model files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/Faultbox/trinity-viewer/internal/assets"
	"github.com/Faultbox/trinity-viewer/internal/engine/animation"
	"github.com/Faultbox/trinity-viewer/internal/engine/model"
	"github.com/Faultbox/trinity-viewer/internal/engine/skeleton"
	"github.com/Faultbox/trinity-viewer/internal/logger"
	"github.com/Faultbox/trinity-viewer/pkg/formats"
	"github.com/Faultbox/trinity-viewer/pkg/vertex"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "skeleton", "skel":
		cmdSkeleton(args)
	case "anim":
		cmdAnim(args)
	case "dump":
		cmdDump(args)
	case "formats":
		cmdFormats()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`trinspect - Trinity model file inspector

Usage:
  trinspect <command> [options]

Commands:
  info [-v] <file>                 Summarize a model, mesh, buffer or material file
  skeleton <file.trskl>            Print the bone hierarchy
  anim [-frame N] [-skel F] <clip> Show clip tracks, optionally sampled at a frame
  dump [-depth N] <file>           Dump the parsed structure of any file
  formats                          List known vertex formats

Examples:
  trinspect info pm0001/pm0001_00_00.trmdl
  trinspect skeleton pm0001/pm0001_00_00.trskl
  trinspect anim -frame 12 -skel pm0001/pm0001_00_00.trskl pm0001/anims/pm0001_00_00_00001_idle01_loop
  trinspect dump -depth 4 pm0001/pm0001_00_00.trmsh`)
}

func fail(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", a...)
	os.Exit(1)
}

// parse parses any supported file by extension.
func parse(path string) (interface{}, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case formats.ExtModel:
		return formats.ParseModelFile(path)
	case formats.ExtMeshShape:
		return formats.ParseMeshShapeFile(path)
	case formats.ExtMeshBuffer:
		return formats.ParseMeshBufferFile(path)
	case formats.ExtSkeleton:
		return formats.ParseSkeletonFile(path)
	case formats.ExtAnimation:
		return formats.ParseAnimationFile(path)
	case formats.ExtVisibility:
		return formats.ParseVisibilityFile(path)
	case formats.ExtMaterial:
		return formats.ParseMaterialFile(path)
	case formats.ExtMaterialMapping:
		return formats.ParseMaterialMappingFile(path)
	default:
		return nil, errors.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Log loader warnings")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: trinspect info <file>")
		os.Exit(1)
	}
	if *verbose {
		logger.Init("debug", "")
		defer logger.Sync()
	}
	path := fs.Arg(0)

	if strings.EqualFold(filepath.Ext(path), formats.ExtModel) {
		infoModel(path)
		return
	}

	parsed, err := parse(path)
	if err != nil {
		fail("%v", err)
	}

	fmt.Printf("File: %s\n", path)
	switch f := parsed.(type) {
	case *formats.MeshShapeFile:
		fmt.Printf("Buffer file: %s\n", f.BufferFile)
		for _, s := range f.Shapes {
			fmt.Printf("\nShape %q (mesh %q), %s indices\n", s.Name, s.MeshName, s.IndexWidth)
			for i, acc := range s.Accessors {
				fmt.Printf("  buffer %d, stride %d\n", i, vertex.VertexStride(acc))
				for _, a := range acc.Attributes {
					fmt.Printf("    %-12s layer %d  %-14s offset %d\n", a.Kind, a.Layer, a.Format, a.Offset)
				}
			}
			for _, m := range s.Materials {
				fmt.Printf("  material %-20s indices [%d, %d)\n", m.MaterialName, m.PolygonOffset, m.PolygonOffset+m.PolygonCount)
			}
		}
	case *formats.BufferFile:
		for i, b := range f.Buffers {
			fmt.Printf("Buffer %d:\n", i)
			for j, ib := range b.IndexBuffers {
				fmt.Printf("  index LOD %d: %d bytes\n", j, len(ib))
			}
			for j, vb := range b.VertexBuffers {
				fmt.Printf("  vertex %d: %d bytes\n", j, len(vb))
			}
		}
	case *formats.MaterialFile:
		for _, m := range f.Materials {
			fmt.Printf("\nMaterial %q, shader %s, color %v\n", m.Name, m.Shader, m.Color)
			for _, t := range m.Textures {
				fmt.Printf("  %-20s %s (slot %d)\n", t.Name, t.File, t.Slot)
			}
		}
	case *formats.MaterialMappingFile:
		for _, v := range f.Variants {
			fmt.Printf("Variant %q: %s\n", v.Name, strings.Join(v.Materials, ", "))
		}
	case *formats.SkeletonFile:
		fmt.Printf("Nodes: %d\nBones: %d\n", len(f.Nodes), f.BoneCount())
	case *formats.AnimationFile:
		printInfo(f.Info)
		fmt.Printf("Bone tracks: %d\n", len(f.Tracks))
	case *formats.VisibilityFile:
		printInfo(f.Info)
		fmt.Printf("Visibility tracks: %d\n", len(f.Tracks))
	}
}

func printInfo(info formats.PlaybackInfo) {
	fmt.Printf("Frames: %d @ %d fps, loop %v\n", info.FrameCount, info.FrameRate, info.Loop)
}

func infoModel(path string) {
	src, err := assets.NewDirSource(filepath.Dir(path))
	if err != nil {
		fail("%v", err)
	}
	m, err := model.NewLoader(src).Load(filepath.Base(path))
	if err != nil {
		fail("%v", err)
	}

	fmt.Printf("Model: %s\n", path)
	fmt.Printf("Meshes: %d, vertices: %d\n", len(m.Meshes), m.VertexCount())
	for _, g := range m.Meshes {
		note := ""
		if g.ComputedNormals {
			note = " (computed normals)"
		}
		fmt.Printf("\n  %s [%s]: %d vertices, %d indices%s\n", g.Name, g.MeshName, g.VertexCount, g.Indices.Len(), note)
		fmt.Printf("    bounds %v - %v\n", g.Bounds.Min, g.Bounds.Max)
		for _, grp := range g.Groups {
			fmt.Printf("    group [%d, %d) -> %s\n", grp.Start, grp.Start+grp.Count, m.Materials[grp.MaterialIndex].Name)
		}
		if err := g.Validate(); err != nil {
			fmt.Printf("    INVALID: %v\n", err)
		}
	}

	fmt.Printf("\nMaterials: %d\n", len(m.Materials))
	for _, mat := range m.Materials {
		fmt.Printf("  %-20s %s\n", mat.Name, mat.Shader)
	}
	if m.Skeleton != nil {
		fmt.Printf("Bones: %d\n", m.Skeleton.Len())
	} else {
		fmt.Println("Bones: none")
	}
	if m.Variants != nil {
		var names []string
		for _, v := range m.Variants.Variants {
			names = append(names, v.Name)
		}
		fmt.Printf("Variants: %s\n", strings.Join(names, ", "))
	}
}

func loadSkeleton(path string) *skeleton.Skeleton {
	f, err := formats.ParseSkeletonFile(path)
	if err != nil {
		fail("%v", err)
	}
	s, err := skeleton.Build(f.Nodes)
	if err != nil {
		fail("%v", err)
	}
	return s
}

func cmdSkeleton(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: trinspect skeleton <file.trskl>")
		os.Exit(1)
	}
	s := loadSkeleton(args[0])

	fmt.Printf("Bones: %d, roots: %d\n\n", s.Len(), len(s.Roots))
	var walk func(i, depth int)
	walk = func(i, depth int) {
		b := s.Bone(i)
		p := b.World.Position()
		fmt.Printf("%s%s (rig %d, %s) world (%.3f, %.3f, %.3f)\n",
			strings.Repeat("  ", depth), b.Name, b.Rig, b.Type, p.X, p.Y, p.Z)
		for _, c := range b.Children {
			walk(c, depth+1)
		}
	}
	for _, r := range s.Roots {
		walk(r, 0)
	}
}

func cmdAnim(args []string) {
	fs := flag.NewFlagSet("anim", flag.ExitOnError)
	frame := fs.Float64("frame", -1, "Sample the clip at this frame")
	skelPath := fs.String("skel", "", "Skeleton to pose when sampling")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: trinspect anim [-frame N] [-skel file.trskl] <clip>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	src, err := assets.NewDirSource(filepath.Dir(path))
	if err != nil {
		fail("%v", err)
	}
	clip, err := model.NewLoader(src).LoadClip(filepath.Base(path))
	if err != nil {
		fail("%v", err)
	}

	fmt.Printf("Clip: %s\n", clip.Name)
	fmt.Printf("Frames: %d @ %g fps (%.2fs), loop %v\n", clip.FrameCount, clip.FrameRate, clip.Duration(), clip.Loop)

	names := make([]string, 0, len(clip.Bones))
	for name := range clip.Bones {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("\nBone channels: %d\n", len(names))
	for _, name := range names {
		ch := clip.Bones[name]
		fmt.Printf("  %-24s T %-10s R %-10s S %s\n", name, trackName(ch.Translate), trackName(ch.Rotate), trackName(ch.Scale))
	}
	fmt.Printf("\nVisibility channels: %d\n", len(clip.Visibility))
	for _, v := range clip.Visibility {
		fmt.Printf("  %-24s %s\n", v.Mesh, trackName(v.Track))
	}

	if *frame < 0 {
		return
	}

	var skel *skeleton.Skeleton
	if *skelPath != "" {
		skel = loadSkeleton(*skelPath)
	}
	p := animation.NewPlayer(clip, skel)
	p.Seek(float32(*frame))

	fmt.Printf("\nPose at frame %g:\n", p.Frame())
	if skel != nil {
		for i := range skel.Bones {
			b := &skel.Bones[i]
			fmt.Printf("  %-24s T %v R %v S %v\n", b.Name, b.Translation.Array(),
				[4]float32{b.Rotation.X, b.Rotation.Y, b.Rotation.Z, b.Rotation.W}, b.Scale.Array())
		}
		if missing := clip.UnmatchedBones(skel); len(missing) > 0 {
			fmt.Printf("  channels without bones: %s\n", strings.Join(missing, ", "))
		}
	}
	meshes := make([]string, 0, len(p.Visibility()))
	for mesh := range p.Visibility() {
		meshes = append(meshes, mesh)
	}
	sort.Strings(meshes)
	for _, mesh := range meshes {
		fmt.Printf("  %-24s visible %v\n", mesh, p.Visibility()[mesh])
	}
}

func trackName(t interface{}) string {
	switch t.(type) {
	case nil:
		return "-"
	case animation.FixedVector, animation.FixedRotation, animation.FixedVisibility:
		return "fixed"
	case animation.DynamicVector, animation.DynamicRotation, animation.DynamicVisibility:
		return "dynamic"
	case animation.Framed16Vector, animation.Framed16Rotation, animation.Framed16Visibility:
		return "framed16"
	case animation.Framed8Vector, animation.Framed8Rotation, animation.Framed8Visibility:
		return "framed8"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func cmdDump(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	depth := fs.Int("depth", 0, "Maximum nesting depth (0 = unlimited)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: trinspect dump [-depth N] <file>")
		os.Exit(1)
	}

	parsed, err := parse(fs.Arg(0))
	if err != nil {
		fail("%v", err)
	}

	cfg := spew.NewDefaultConfig()
	cfg.DisableCapacities = true
	cfg.DisablePointerAddresses = true
	cfg.MaxDepth = *depth
	cfg.Fdump(os.Stdout, parsed)
}

func cmdFormats() {
	fs := vertex.Formats()
	sort.Slice(fs, func(i, j int) bool { return fs[i] < fs[j] })
	for _, f := range fs {
		enc, _ := vertex.Lookup(f)
		norm := ""
		if enc.Normalized {
			norm = " normalized"
		}
		fmt.Printf("%3d  %-14s %d x %s%s (%d bytes)\n", uint32(f), f, enc.Components, enc.Element, norm, enc.Size())
	}
}
