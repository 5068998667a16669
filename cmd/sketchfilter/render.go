package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"sketch-filters/libio"
	"sketch-filters/pipeline"
)

type renderArgs struct {
	commonArgs
	out        string
	ext        string
	suffix     string
	dumpPasses string
	quiet      bool
}

func createRenderCommand() *command {
	args := renderArgs{
		commonArgs: commonArgs{
			backend: backendGL,
		},
		out:    ".",
		ext:    ".png",
		suffix: "_sketch",
	}

	flags := flag.NewFlagSet("render", flag.ExitOnError)

	registerCommonFlags(flags, &args.commonArgs)

	flags.StringVar(&args.out, "out", args.out, "the output directory")
	flags.StringVar(&args.out, "o", args.out, "shorthand for out")
	flags.StringVar(&args.ext, "ext", args.ext, "the output format; .png or "+libio.FrameExt)
	flags.StringVar(&args.suffix, "suffix", args.suffix, "appended to the output file names")
	flags.StringVar(&args.dumpPasses, "dump-passes", args.dumpPasses, "a directory every intermediate pass is written to")
	flags.BoolVar(&args.quiet, "quiet", args.quiet, "disables progress output")
	flags.BoolVar(&args.quiet, "q", args.quiet, "shorthand for quiet")

	return &command{
		Name: "render",
		Help: "apply a filter setup to images and write the results",
		Run: func(self *command) {
			if self.Flags.NArg() < 1 {
				printCommandUsage(self, " file-glob...")
			}
			if args.ext != ".png" && args.ext != libio.FrameExt {
				printCommandUsage(self, " file-glob...")
			}
			setCommonArgs(&args.commonArgs)

			runRender(args, gatherInputFiles(self.Flags.Args()))
		},
		Flags: flags,
	}
}

func runRender(args renderArgs, inputFiles []string) {
	dev, release, err := newHeadlessDevice(&args.commonArgs)
	harderr(err)
	defer release()

	opts := pipeline.Options{MaxSize: args.maxSize, DumpPasses: args.dumpPasses}
	var sk *pipeline.Sketch
	success := 0
	start := time.Now()
	for i, p := range inputFiles {
		if !args.quiet {
			fmt.Printf("Processing file %d/%d %q ...\n", i+1, len(inputFiles), filepath.ToSlash(filepath.Clean(p)))
		}
		img, err := libio.LoadImage(p)
		if softerr(err) {
			continue
		}
		if sk == nil {
			sk, err = startSketch(dev, img, &args.commonArgs, opts)
			harderr(err)
		} else {
			sk.ChangeImage(img)
		}

		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		outFilename := filepath.Join(args.out, name+args.suffix+args.ext)
		if softerr(sk.Export(outFilename)) {
			continue
		}
		success++
	}
	if !args.quiet {
		took := float32(time.Since(start).Milliseconds()) / 1000
		fmt.Printf("Rendered %d/%d files in %.3f seconds\n", success, len(inputFiles), took)
	}
}
