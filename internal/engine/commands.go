package engine

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Execute runs one console command line against the engine. Unknown
// commands are logged, never fatal; this is also how a lens script's
// onload string takes effect.
func (e *Engine) Execute(line string) {
	args := splitArgs(line)
	if len(args) == 0 {
		return
	}

	switch args[0] {
	case "fisheye":
		e.cmdFisheye(args[1:])
	case "lens":
		e.cmdLens(args[1:])
	case "globe":
		e.cmdGlobe(args[1:])
	case "hfov":
		e.cmdHFov(args[1:])
	case "vfov":
		e.cmdVFov(args[1:])
	case "hfit":
		e.fov.SetHFit()
	case "vfit":
		e.fov.SetVFit()
	case "fit":
		e.fov.SetFit()
	case "rubix":
		e.rubix.Enabled = !e.rubix.Enabled
		if e.rubix.Enabled {
			e.Log("Rubix is ON")
		} else {
			e.Log("Rubix is OFF")
		}
	case "rubixgrid":
		e.cmdRubixGrid(args[1:])
	case "saveglobe":
		e.cmdSaveGlobe(args[1:])
	case "dumppal":
		e.cmdDumpPal()
	default:
		e.Log("unknown command \"%s\"", args[0])
	}
}

func (e *Engine) cmdFisheye(args []string) {
	if len(args) < 1 {
		e.Log("Currently: fisheye %d", boolInt(e.Enabled))
		return
	}
	n, _ := strconv.Atoi(args[0])
	e.Enabled = n != 0
}

func (e *Engine) cmdLens(args []string) {
	if len(args) < 1 {
		e.Log("lens <name>: use a new lens")
		e.Log("Currently: %s", e.lens.Name)
		return
	}

	e.lens.Changed = true
	e.lens.Name = args[0]

	if err := e.lens.Load(e.host, e.lensPath(e.lens.Name), e.globe.NumPlates); err != nil {
		e.Log("%v", err)
		e.lens.Valid = false
		e.lens.Name = ""
		e.Log("not a valid lens")
	} else {
		e.lens.Valid = true
	}

	// The lens may request a default view of itself (e.g. "hfov 180").
	if onload, ok := e.host.String("onload"); ok {
		e.Execute(onload)
	}
}

func (e *Engine) cmdGlobe(args []string) {
	if len(args) < 1 {
		e.Log("globe <name>: use a new globe")
		e.Log("Currently: %s", e.globe.Name)
		return
	}

	e.globe.Changed = true
	e.globe.Name = args[0]

	if err := e.globe.Load(e.host, e.globePath(e.globe.Name)); err != nil {
		e.Log("%v", err)
		e.globe.Valid = false
		e.globe.Name = ""
		e.Log("not a valid globe")
	} else {
		e.globe.Valid = true
	}
}

func (e *Engine) cmdHFov(args []string) {
	if len(args) < 1 {
		e.Log("hfov <degrees>: set horizontal FOV")
		e.printActiveFov()
		return
	}
	deg, _ := strconv.ParseFloat(args[0], 64)
	e.fov.SetHFOV(deg)
}

func (e *Engine) cmdVFov(args []string) {
	if len(args) < 1 {
		e.Log("vfov <degrees>: set vertical FOV")
		e.printActiveFov()
		return
	}
	deg, _ := strconv.ParseFloat(args[0], 64)
	e.fov.SetVFOV(deg)
}

func (e *Engine) printActiveFov() {
	if e.fov.HFOVDeg != 0 {
		e.Log("Currently: hfov %d", int(e.fov.HFOVDeg))
	} else if e.fov.VFOVDeg != 0 {
		e.Log("Currently: vfov %d", int(e.fov.VFOVDeg))
	}
}

func (e *Engine) cmdRubixGrid(args []string) {
	if len(args) == 3 {
		e.rubix.NumCells, _ = strconv.Atoi(args[0])
		e.rubix.CellSize, _ = strconv.ParseFloat(args[1], 64)
		e.rubix.PadSize, _ = strconv.ParseFloat(args[2], 64)
		e.lens.Changed = true // grid geometry lives in the lens-map tints
		return
	}
	e.Log("rubixgrid <numcells> <cellsize> <padsize>")
	e.Log("   numcells (default 10) = %d", e.rubix.NumCells)
	e.Log("   cellsize (default  4) = %f", e.rubix.CellSize)
	e.Log("   padsize  (default  1) = %f", e.rubix.PadSize)
}

func (e *Engine) cmdSaveGlobe(args []string) {
	if len(args) < 1 {
		e.Log("saveglobe <name> [full flag=0]: screenshot the globe plates")
		return
	}
	e.save.name = args[0]
	e.save.withMargins = false
	if len(args) >= 2 {
		n, _ := strconv.Atoi(args[1])
		e.save.withMargins = n != 0
	}
	e.save.pending = true
}

func (e *Engine) cmdDumpPal() {
	path := filepath.Join(e.SaveDir, "palette")
	f, err := os.Create(path)
	if err != nil {
		e.Log("could not open \"palette\" for writing")
		return
	}
	defer f.Close()
	if err := e.pal.Dump(f); err != nil {
		e.Log("%v", err)
	}
}

func (e *Engine) lensPath(name string) string {
	return filepath.Join(e.LensDir, name+".lua")
}

func (e *Engine) globePath(name string) string {
	return filepath.Join(e.GlobeDir, name+".lua")
}

// ScanScripts lists the script names in a directory, for command
// completion.
func ScanScripts(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".lua") {
			continue
		}
		names = append(names, strings.TrimSuffix(ent.Name(), ".lua"))
	}
	sort.Strings(names)
	return names
}

// splitArgs tokenizes a command line, honoring double quotes.
func splitArgs(line string) []string {
	var args []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			args = append(args, cur.String())
			cur.Reset()
		}
	}
	for _, c := range line {
		switch {
		case c == '"':
			inQuote = !inQuote
		case !inQuote && (c == ' ' || c == '\t'):
			flush()
		default:
			cur.WriteRune(c)
		}
	}
	flush()
	return args
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
