// Command a64sim runs a flat A64 memory image against the simulator core,
// printing the final register state (or a fault) on exit. It is a thin
// cobra CLI over the library, not where any emulation logic lives.
package main

import (
	"fmt"
	"os"

	"a64sim"
	"a64sim/membank"
	"a64sim/trace"

	"github.com/spf13/cobra"
)

// stubDecoder reports every instruction word as unallocated. a64sim never
// ships a real A64 decoder; it is always an external collaborator, and a
// production build links one in and passes it to a64sim.NewSimulator in
// place of this stub.
type stubDecoder struct{}

func (stubDecoder) Decode(word uint32, pc uint64, v a64sim.Visitor) error {
	return a64sim.UnallocatedInstruction{PC: pc, Detail: fmt.Sprintf("word 0x%08X: no decoder linked", word)}
}

func main() {
	var (
		imagePath string
		vlBits    int
		entryPC   uint64
		traceFlag string
	)

	root := &cobra.Command{
		Use:   "a64sim",
		Short: "User-mode A64 instruction set simulator",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Load a flat memory image and execute until EndOfSim or a fault",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}
			mem := membank.NewFromBytes(data)

			sim := a64sim.NewSimulator(vlBits, mem, stubDecoder{})
			sim.Trace = trace.NewSink(os.Stdout, parseTraceMask(traceFlag))
			sim.Regs.SetPC(entryPC)

			if err := sim.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "simulation faulted: %v\n", err)
				return err
			}
			fmt.Println("simulation reached EndOfSim cleanly")
			return nil
		},
	}
	runCmd.Flags().StringVar(&imagePath, "image", "", "path to the flat memory image")
	runCmd.Flags().IntVar(&vlBits, "vl-bits", 128, "SVE vector length in bits (128..2048, multiple of 128)")
	runCmd.Flags().Uint64Var(&entryPC, "entry", 0x1000, "initial PC")
	runCmd.Flags().StringVar(&traceFlag, "trace", "none", "trace categories: none, all, or a comma list of disasm,regs,vregs,pregs,sysregs,write,branch")
	runCmd.MarkFlagRequired("image")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseTraceMask(s string) trace.Category {
	if s == "all" {
		return trace.All
	}
	var mask trace.Category
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			switch s[start:i] {
			case "disasm":
				mask |= trace.DISASM
			case "regs":
				mask |= trace.REGS
			case "vregs":
				mask |= trace.VREGS
			case "pregs":
				mask |= trace.PREGS
			case "sysregs":
				mask |= trace.SYSREGS
			case "write":
				mask |= trace.WRITE
			case "branch":
				mask |= trace.BRANCH
			}
			start = i + 1
		}
	}
	return mask
}
