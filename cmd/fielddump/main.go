// Field dump tool - renders a field CSV dump to a PNG file for inspection.
//
// Usage: go run ./cmd/fielddump -in out/dump_step000500_resources.csv -out resources.png
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/microswarm/renderer"
	"github.com/pthm-cable/microswarm/systems"
	"github.com/pthm-cable/microswarm/telemetry"
)

func main() {
	inPath := flag.String("in", "", "Field CSV dump")
	outPath := flag.String("out", "field.png", "Output PNG path")
	fieldName := flag.String("field", "", "Field kind for the palette (empty = from file name)")
	scale := flag.Int("scale", 4, "Pixels per cell")
	maxValue := flag.Float64("max", 0, "Value mapped to the top of the palette (0 = field maximum)")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "missing -in")
		os.Exit(2)
	}

	kind, err := kindFor(*fieldName, *inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	grid, err := telemetry.LoadGridCSV(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *inPath, err)
		os.Exit(1)
	}

	pixels := make([]color.RGBA, len(grid.Values))
	renderer.Colorize(kind, grid.Values, float32(*maxValue), pixels)

	rgba := image.NewRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	for i, c := range pixels {
		rgba.SetRGBA(i%grid.Width, i/grid.Width, c)
	}

	img := rl.NewImageFromImage(rgba)
	s := int32(max(*scale, 1))
	rl.ImageResizeNN(img, int32(grid.Width)*s, int32(grid.Height)*s)

	success := rl.ExportImage(*img, *outPath)
	rl.UnloadImage(img)

	if !success {
		fmt.Fprintf(os.Stderr, "Failed to export image\n")
		os.Exit(1)
	}
	fmt.Printf("%s rendered to: %s (%dx%d cells)\n", kind, *outPath, grid.Width, grid.Height)
}

// kindFor resolves the field kind from the flag, or from the
// dump_stepNNNNNN_<field>.csv file name.
func kindFor(name, path string) (systems.Kind, error) {
	if name != "" {
		return systems.ParseKind(name)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.Index(base, "_"); strings.HasPrefix(base, "dump_step") && i >= 0 {
		if j := strings.Index(base[i+1:], "_"); j >= 0 {
			return systems.ParseKind(base[i+1+j+1:])
		}
	}
	return 0, fmt.Errorf("cannot infer field from %q, use -field", path)
}
