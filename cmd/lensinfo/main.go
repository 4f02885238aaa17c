package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"fisheye-renderer/internal/engine"
	"fisheye-renderer/internal/lens"
	"fisheye-renderer/internal/script"
)

func main() {
	dir := flag.String("dir", "lenses", "Lens script directory")
	numplates := flag.Int("numplates", 6, "numplates value exposed to the script")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: lensinfo [-dir lenses] <name>")
		fmt.Fprintln(os.Stderr, "available:")
		for _, n := range engine.ScanScripts(*dir) {
			fmt.Fprintf(os.Stderr, "  %s\n", n)
		}
		os.Exit(1)
	}

	host, err := script.New(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer host.Close()

	name := flag.Arg(0)
	var l lens.Lens
	if err := l.Load(host, filepath.Join(*dir, name+".lua"), *numplates); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	mapName := "none"
	switch l.MapType {
	case lens.MapInverse:
		mapName = "inverse"
	case lens.MapForward:
		mapName = "forward"
	}

	fmt.Printf("lens:       %s\n", name)
	fmt.Printf("map:        %s\n", mapName)
	fmt.Printf("inverse:    %v\n", l.Inverse != nil)
	fmt.Printf("forward:    %v\n", l.Forward != nil)
	fmt.Printf("max_hfov:   %.0f\n", l.MaxHFOV*180/math.Pi)
	fmt.Printf("max_vfov:   %.0f\n", l.MaxVFOV*180/math.Pi)
	fmt.Printf("lens_width: %g\n", l.Width)
	fmt.Printf("lens_height:%g\n", l.Height)
	if l.OnLoad != "" {
		fmt.Printf("onload:     %s\n", l.OnLoad)
	}
}
