package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/qarchsearch/pkg/circuit"
	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/io"
	"github.com/matzehuels/qarchsearch/pkg/schedule"
)

// verifyCommand creates the verify command.
func (c *CLI) verifyCommand() *cobra.Command {
	var devRef, depsFile, durations string
	cmd := &cobra.Command{
		Use:   "verify <result.json> <circuit>",
		Short: "Replay a result file and check it against the circuit and device",
		Long: `Verify checks that the mapping is injective, every gate runs on coupled
qubits after the SWAPs before it, dependencies are kept and the final
mapping matches the replay.`,
		Example: `  qarchsearch verify results/extra_edge_0.json adder.qasm --device grid2x3`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			r, err := io.ImportResult(args[0])
			if err != nil {
				return err
			}
			prog, err := circuit.Load(args[1])
			if err != nil {
				return err
			}
			ds, err := circuit.ParseDurations(durations)
			if err != nil {
				return err
			}
			if err := prog.Circuit.ApplyDurations(ds); err != nil {
				return err
			}
			d, err := device.Resolve(devRef)
			if err != nil {
				return err
			}

			deps := prog.Dependencies
			if depsFile != "" {
				if deps, err = circuit.LoadDependencies(depsFile); err != nil {
					return err
				}
			}
			if deps == nil {
				deps = circuit.DefaultDependencies(prog.Circuit.Gates)
			}
			logger.Debug("verifying", "result", args[0], "layers", r.D, "dependencies", len(deps))

			if err := schedule.Verify(r, prog.Circuit, d, deps); err != nil {
				printError("%s is invalid", args[0])
				return err
			}
			printSuccess("%s is valid: depth %d, %d swaps, %d extra edges", args[0], r.D, r.SwapCount, r.ExtraEdgeNum)
			return nil
		},
	}
	cmd.Flags().StringVarP(&devRef, "device", "d", "", "built-in device or TOML file the result was solved on")
	cmd.Flags().StringVar(&depsFile, "deps", "", "JSON file with explicit gate dependency pairs")
	cmd.Flags().StringVar(&durations, "durations", "", "gate durations used for the search, e.g. cx=2")
	_ = cmd.MarkFlagRequired("device")
	_ = cmd.RegisterFlagCompletionFunc("device", completeDevices)
	return cmd
}
