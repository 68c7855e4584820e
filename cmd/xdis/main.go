// Command xdis is a minimal objdump-style ELF64/x86-64 disassembler: it
// parses an object file's section and symbol tables and prints
// Intel-syntax disassembly for its executable sections (spec.md §4.7, §A.3).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xyproto/xdis/internal/disasm"
	"github.com/xyproto/xdis/internal/elf"
	"github.com/xyproto/xdis/internal/logsink"
)

const versionString = "xdis 0.1.0"

func main() {
	var disassemble = flag.Bool("d", false, "disassemble executable sections")
	var disassembleLong = flag.Bool("disassemble", false, "disassemble executable sections")
	var version = flag.Bool("v", false, "print version information and exit")
	var versionLong = flag.Bool("version", false, "print version information and exit")
	var help = flag.Bool("H", false, "print usage information and exit")
	var verbose = flag.Bool("verbose", false, "print advisory trace messages to stderr")
	flag.Parse()

	if *version || *versionLong {
		fmt.Println(versionString)
		os.Exit(0)
	}
	if *help {
		usage()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 1 {
		usage()
		os.Exit(1)
	}
	if !*disassemble && !*disassembleLong {
		fmt.Fprintln(os.Stderr, "xdis: nothing to do, pass -d to disassemble")
		os.Exit(1)
	}

	if err := run(args[0], *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "xdis: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "----=[ %s ]=----\n", versionString)
	fmt.Fprintln(os.Stderr, "usage: xdis -d [-verbose] FILE")
	flag.PrintDefaults()
}

func run(path string, verbose bool) error {
	mapped, err := elf.LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	defer mapped.Close()

	obj, err := elf.Parse(mapped.Bytes())
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	sink := logsink.Stderr(verbose)
	printed := false
	for i, section := range obj.Sections {
		if !section.IsExecutable() {
			continue
		}
		fmt.Printf("\nDisassembly of section %s:\n", section.Name)
		lines, err := disasm.Run(obj, i, sink)
		if err != nil {
			return fmt.Errorf("disassembling %s: %w", section.Name, err)
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		printed = true
	}
	if !printed {
		return fmt.Errorf("%s has no executable sections", path)
	}
	return nil
}
