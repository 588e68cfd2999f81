// Package sfcli is the stockflow command: rendering diagrams from JSON and
// serving the project editor.
package sfcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"oss.terrastruct.com/xdefer"

	"oss.terrastruct.com/stockflow/lib/log"
	"oss.terrastruct.com/stockflow/lib/version"
	"oss.terrastruct.com/stockflow/lib/xmain"
	"oss.terrastruct.com/stockflow/sfrenderers/sfpng"
	"oss.terrastruct.com/stockflow/sfrenderers/sfsvg"
	"oss.terrastruct.com/stockflow/sfview"
)

func Run(ctx context.Context, ms *xmain.State) (err error) {
	// These should be kept up-to-date with help.
	watchFlag, err := ms.Opts.Bool("SF_WATCH", "watch", "w", false, "watch for changes to input and re-render")
	if err != nil {
		return err
	}
	formatFlag := ms.Opts.String("SF_OUTPUT_FORMAT", "format", "f", "", "output format when it cannot be inferred from the output path: svg or png")
	padFlag, err := ms.Opts.Int64("SF_PAD", "pad", "", sfsvg.DEFAULT_PADDING, "pixels padded around the rendered diagram")
	if err != nil {
		return err
	}
	scaleFlag, err := ms.Opts.Float64("SF_SCALE", "scale", "", -1, "scale the output. Default fits SVGs to the screen and renders PNGs at 1")
	if err != nil {
		return err
	}
	hostFlag := ms.Opts.String("SF_HOST", "host", "h", "localhost", "host listening address for serve")
	portFlag := ms.Opts.String("SF_PORT", "port", "p", "0", "port listening address for serve; 0 picks a free port")
	dbFlag := ms.Opts.String("SF_DB", "db", "", defaultDBPath(), "path of the project database for serve")
	openFlag, err := ms.Opts.Bool("SF_OPEN", "open", "", false, "open the server in a browser once listening")
	if err != nil {
		return err
	}
	debugFlag, err := ms.Opts.Bool("DEBUG", "debug", "d", false, "print debug logs.")
	if err != nil {
		return err
	}
	versionFlag, err := ms.Opts.Bool("", "version", "v", false, "get the version")
	if err != nil {
		return err
	}

	err = ms.Opts.Flags.Parse(ms.Opts.Args)
	if !errors.Is(err, pflag.ErrHelp) && err != nil {
		return xmain.UsageErrorf("failed to parse flags: %v", err)
	}
	if errors.Is(err, pflag.ErrHelp) {
		help(ms)
		return nil
	}

	if *debugFlag {
		ms.Env.Setenv("DEBUG", "1")
	}

	args := ms.Opts.Flags.Args()
	if len(args) == 0 {
		if *versionFlag {
			fmt.Fprintln(ms.Stdout, version.Version)
			return nil
		}
		help(ms)
		return nil
	}

	switch args[0] {
	case "version":
		if len(args) > 1 {
			return xmain.UsageErrorf("version subcommand accepts no arguments")
		}
		fmt.Fprintln(ms.Stdout, version.Version)
		return nil
	case "serve":
		if len(args) > 1 {
			return xmain.UsageErrorf("serve subcommand accepts no arguments")
		}
		return serveCmd(ctx, ms, serveOpts{
			host: *hostFlag,
			port: *portFlag,
			db:   *dbFlag,
			open: *openFlag,
		})
	case "render":
		args = args[1:]
	}

	if len(args) == 0 {
		return xmain.UsageErrorf("render requires an input path")
	} else if len(args) > 2 {
		return xmain.UsageErrorf("too many arguments passed")
	}

	ro := renderOpts{
		inputPath: args[0],
		pad:       *padFlag,
	}
	if len(args) == 2 {
		ro.outputPath = args[1]
	} else if ro.inputPath == "-" {
		ro.outputPath = "-"
	} else if *formatFlag == "png" {
		ro.outputPath = renameExt(ro.inputPath, ".png")
	} else {
		ro.outputPath = renameExt(ro.inputPath, ".svg")
	}
	ro.format = xmain.OutputFormat(ro.outputPath, *formatFlag)
	switch ro.format {
	case "":
		ro.format = "svg"
	case "svg", "png":
	default:
		return xmain.UsageErrorf("-f[ormat] must be svg or png, got %q", ro.format)
	}
	if *scaleFlag > 0 {
		ro.scale = scaleFlag
	}
	if ro.outputPath == "-" {
		// stdout carries the render
		ctx = xmain.DiscardSlog(ctx)
	}

	if *watchFlag {
		if ro.inputPath == "-" {
			return xmain.UsageErrorf("-w[atch] cannot be combined with reading input from stdin")
		}
		if ro.outputPath == "-" {
			return xmain.UsageErrorf("-w[atch] cannot be combined with writing output to stdout")
		}
		ms.Log.SetTS(true)
		w, err := newWatcher(ctx, ms, ro)
		if err != nil {
			return err
		}
		return w.run()
	}

	ctx, cancel := log.WithTimeout(ctx, time.Minute*2)
	defer cancel()

	err = render(ctx, ms, ro)
	if err != nil {
		return err
	}
	if ro.outputPath != "-" {
		ms.Log.Success.Printf("successfully rendered %s to %s", humanPath(ro.inputPath), humanPath(ro.outputPath))
	}
	return nil
}

type renderOpts struct {
	inputPath  string
	outputPath string
	format     string
	pad        int64
	scale      *float64
}

func render(ctx context.Context, ms *xmain.State, ro renderOpts) (err error) {
	defer xdefer.Errorf(&err, "failed to render %s", humanPath(ro.inputPath))

	input, err := ms.ReadPath(ro.inputPath)
	if err != nil {
		return err
	}
	v, err := decodeView(input)
	if err != nil {
		return err
	}

	var out []byte
	switch ro.format {
	case "png":
		out, err = sfpng.Render(ctx, v, &sfpng.RenderOpts{
			Pad:   &ro.pad,
			Scale: ro.scale,
		})
	default:
		out, err = sfsvg.Render(ctx, v, &sfsvg.RenderOpts{
			Pad:   &ro.pad,
			Scale: ro.scale,
		})
		if err == nil && len(out) > 0 && out[len(out)-1] != '\n' {
			out = append(out, '\n')
		}
	}
	if err != nil {
		return err
	}
	return ms.WritePath(ro.outputPath, out)
}

// decodeView parses and validates a view document.
func decodeView(b []byte) (*sfview.View, error) {
	v := sfview.New()
	err := json.Unmarshal(b, v)
	if err != nil {
		return nil, err
	}
	err = sfview.Validate(v)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// newExt must include leading .
func renameExt(fp string, newExt string) string {
	ext := filepath.Ext(fp)
	if ext == "" {
		return fp + newExt
	}
	return strings.TrimSuffix(fp, ext) + newExt
}

func humanPath(fp string) string {
	if fp == "-" {
		return fp
	}
	wd, err := os.Getwd()
	if err == nil {
		if rel, err := filepath.Rel(wd, fp); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	if home, err := os.UserHomeDir(); err == nil && strings.HasPrefix(fp, home+string(filepath.Separator)) {
		return filepath.Join("~", strings.TrimPrefix(fp, home+string(filepath.Separator)))
	}
	return fp
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "stockflow.db"
	}
	return filepath.Join(dir, "stockflow", "stockflow.db")
}
