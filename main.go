package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/chazu/brickify/pkg/bricks"
	"github.com/chazu/brickify/pkg/store"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "convert":
			os.Exit(convertCmd(os.Args[2:]))
		case "inspect":
			os.Exit(inspectCmd(os.Args[2:]))
		case "settings":
			os.Exit(settingsCmd(os.Args[2:]))
		}
	}
	os.Exit(convertCmd(os.Args[1:]))
}

func convertCmd(args []string) int {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML settings file (optional)")
	scriptPath := fs.String("script", "", "Lisp settings script (optional, applied after -config)")
	stlPath := fs.String("stl", "", "source STL file")
	shape := fs.String("shape", "", "primitive source instead of -stl: sphere, box or cylinder")
	size := fs.Float64("size", 10, "primitive source extent")
	meshes := fs.Bool("meshes", false, "build one mesh per brick")
	outPath := fs.String("out", "", "write a .json.zst snapshot of the brick map")
	dbPath := fs.String("db", "", "export bricks to a SQLite database")
	_ = fs.Parse(args)

	script, err := readScript(*scriptPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read script:", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := NewApp()
	result := app.Convert(ctx, Request{
		ConfigPath: *configPath,
		Script:     script,
		STLPath:    *stlPath,
		Shape:      *shape,
		Size:       *size,
		Meshes:     *meshes,
		OutPath:    *outPath,
		DBPath:     *dbPath,
	})
	printIssues(result)
	if len(result.Errors) > 0 {
		return 2
	}

	s := result.Result.Stats
	fmt.Printf("lattice %dx%dx%d: %d shell, %d interior, %d support\n",
		s.Dims[0], s.Dims[1], s.Dims[2], s.Shell, s.Interior, s.Support)
	fmt.Printf("%d drawable cells merged into %d bricks (%d top exposed, %d bottom exposed, %d components)\n",
		s.Drawable, s.Roots, s.TopExposed, s.BottomExposed, s.Components)
	if *meshes {
		verts := 0
		for _, m := range result.Result.Meshes {
			verts += m.VertexCount()
		}
		fmt.Printf("%d meshes, %d triangles, %d vertices\n", len(result.Result.Meshes), s.Triangles, verts)
	}
	if *dbPath != "" {
		fmt.Printf("saved run %d to %s\n", result.RunID, *dbPath)
	}
	return 0
}

func inspectCmd(args []string) int {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	in := fs.String("in", "", "snapshot path (required)")
	_ = fs.Parse(args)

	if *in == "" {
		fmt.Fprintln(os.Stderr, "missing -in")
		return 2
	}
	snap, err := store.ReadSnapshot(*in)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		return 1
	}

	h := snap.Header
	fmt.Printf("version %d, seed %d, source %q, %d bricks\n", h.Version, h.Seed, h.Source, h.Roots)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tMATERIAL\tTOP\tBOTTOM")
	for _, b := range bricks.Summaries(snap.Dict) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%v\n", b.Key, b.Footprint, b.Material, b.TopExposed, b.BotExposed)
	}
	_ = tw.Flush()
	return 0
}

func settingsCmd(args []string) int {
	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML settings file (optional)")
	scriptPath := fs.String("script", "", "Lisp settings script (optional)")
	_ = fs.Parse(args)

	script, err := readScript(*scriptPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read script:", err)
		return 1
	}
	result := NewApp().Settings(*configPath, script)
	printIssues(result)
	if len(result.Errors) > 0 {
		return 2
	}
	out, err := result.Config.Marshal()
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal:", err)
		return 1
	}
	os.Stdout.Write(out)
	return 0
}

func printIssues(r ConvertResult) {
	for _, w := range r.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w.Message)
	}
	for _, e := range r.Errors {
		if e.Line > 0 {
			fmt.Fprintf(os.Stderr, "error: line %d: %s\n", e.Line, e.Message)
			continue
		}
		fmt.Fprintln(os.Stderr, "error:", e.Message)
	}
}
