package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"text/tabwriter"

	"sketch-filters/filters"
	"sketch-filters/pipeline"
	"sketch-filters/softgl"
)

type filtersArgs struct {
	toml bool
}

func createFiltersCommand() *command {
	args := filtersArgs{}

	flags := flag.NewFlagSet("filters", flag.ExitOnError)
	flags.BoolVar(&args.toml, "toml", args.toml, "print the default setup as a preset instead")

	return &command{
		Name: "filters",
		Help: "list the filters and their parameters",
		Run: func(self *command) {
			if self.Flags.NArg() > 0 {
				printCommandUsage(self, "")
			}
			harderr(runFilters(args))
		},
		Flags: flags,
	}
}

func runFilters(args filtersArgs) error {
	// the listing never draws, so the software device is enough
	sk := pipeline.New(softgl.NewDevice(1, 1), pipeline.Options{})
	sk.Start(image.NewRGBA(image.Rect(0, 0, 16, 16)))

	if args.toml {
		p, err := sk.CurrentPreset()
		if err != nil {
			return err
		}
		return p.Write(os.Stdout)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tPARAMETER\tRANGE\tDEFAULT")
	for _, cmd := range sk.Stack().Commands() {
		kind := "simple"
		if _, ok := cmd.(filters.Compound); ok {
			kind = "compound"
		}
		fmt.Fprintf(w, "%s\t%s\t\t\t\n", cmd.ID(), kind)
		if editor, ok := cmd.(filters.Editor); ok {
			printFields(w, editor.ParameterValues())
		}
	}
	fmt.Fprintf(w, "(mask)\t\t\t\t\n")
	printFields(w, sk.Mask().ParameterValues())
	return w.Flush()
}

func printFields(w *tabwriter.Writer, values any) {
	for _, f := range filters.Fields(filters.CopyParameters(values)) {
		fmt.Fprintf(w, "\t\t%s\t%g..%g\t%v\n", f.Key, f.Min, f.Max, f.Value.Interface())
	}
}
