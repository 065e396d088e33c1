// Package main provides a CLI tool to check trace availability.
//
// It walks a directory tree, parses every .trace file it finds, and
// reports which ones the simulator can run. The count of valid traces
// goes to stdout so scripts can gate on it; details go to stderr.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/o3sim/trace"
)

func main() {
	root := "traces"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "Trace directory not available: %s\n", root)
		fmt.Println("0")
		os.Exit(0)
	}

	type report struct {
		path string
		ops  int
		err  error
	}
	var reports []report

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".trace") {
			return nil
		}
		ops, err := trace.Load(path)
		reports = append(reports, report{path: path, ops: len(ops), err: err})
		return nil
	})
	if walkErr != nil {
		fmt.Fprintf(os.Stderr, "Error walking %s: %v\n", root, walkErr)
		fmt.Println("0")
		os.Exit(1)
	}

	valid := 0
	for _, r := range reports {
		if r.err == nil {
			valid++
		}
	}

	fmt.Printf("%d\n", valid)

	if valid > 0 {
		fmt.Fprintf(os.Stderr, "\nRunnable traces (%d):\n", valid)
		for _, r := range reports {
			if r.err == nil {
				fmt.Fprintf(os.Stderr, "  ✅ %s - %d micro-ops\n", r.path, r.ops)
			}
		}
	}

	broken := len(reports) - valid
	if broken > 0 {
		fmt.Fprintf(os.Stderr, "\nBroken traces (%d):\n", broken)
		for _, r := range reports {
			if r.err != nil {
				fmt.Fprintf(os.Stderr, "  ❌ %s - %v\n", r.path, r.err)
			}
		}
		os.Exit(1)
	}
}
