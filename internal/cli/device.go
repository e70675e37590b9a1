package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/errors"
	"github.com/matzehuels/qarchsearch/pkg/io"
)

// deviceCommand creates the device command group.
func (c *CLI) deviceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect coupling graphs",
	}
	cmd.AddCommand(c.deviceShowCommand())
	cmd.AddCommand(c.deviceRenderCommand())
	return cmd
}

// deviceShowCommand creates the "device show" subcommand.
func (c *CLI) deviceShowCommand() *cobra.Command {
	var asTOML bool
	cmd := &cobra.Command{
		Use:   "show <name|file.toml>",
		Short: "Print a device's qubits, edges and candidate edges",
		Example: `  qarchsearch device show grid2x3
  qarchsearch device show grid3x3 --toml > chip.toml`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDevices,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := device.Resolve(args[0])
			if err != nil {
				return err
			}
			if asTOML {
				return device.Encode(d, out)
			}
			printDevice(d)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asTOML, "toml", false, "print the device as a TOML file")
	return cmd
}

// deviceRenderCommand creates the "device render" subcommand.
func (c *CLI) deviceRenderCommand() *cobra.Command {
	var output, resultPath string
	cmd := &cobra.Command{
		Use:   "render <name|file.toml>",
		Short: "Draw the coupling graph as SVG or DOT",
		Long: `Render draws base edges solid and candidate edges dashed. With --result,
the candidate edges the result enabled are highlighted and qubits are
labelled with their initial logical assignment.`,
		Example: `  qarchsearch device render grid2x3 -o grid.svg
  qarchsearch device render grid2x3 --result results/extra_edge_1.json -o used.dot`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDevices,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			d, err := device.Resolve(args[0])
			if err != nil {
				return err
			}

			var opts device.DOTOptions
			if resultPath != "" {
				r, err := io.ImportResult(resultPath)
				if err != nil {
					return err
				}
				opts.Used = r.ExtraEdge
				opts.Mapping = r.InitialMapping
				logger.Debug("highlighting result", "path", resultPath, "extra_edges", len(r.ExtraEdge))
			}

			if output == "" {
				output = d.Name + ".svg"
			}
			dot := device.ToDOT(d, opts)
			var data []byte
			switch ext := strings.ToLower(filepath.Ext(output)); ext {
			case ".dot", ".gv":
				data = []byte(dot)
			case ".svg":
				prog := newProgress(logger)
				data, err = device.RenderSVG(cmd.Context(), dot)
				if err != nil {
					return err
				}
				prog.done("Rendered " + d.Name)
			default:
				return errors.New(errors.ErrCodeInvalidInput, "unsupported output format %q (want .svg or .dot)", ext)
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Rendered %s", d.Name)
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, .svg or .dot (default: <device>.svg)")
	cmd.Flags().StringVar(&resultPath, "result", "", "result file whose extra edges are highlighted")
	return cmd
}

// printDevice prints a device summary.
func printDevice(d *device.Device) {
	fmt.Fprintln(out, StyleTitle.Render(d.Name))
	printKeyValue("qubits", strconv.Itoa(d.Qubits))
	printKeyValue("edges", edgeList(d.Edges))
	if len(d.Candidates) > 0 {
		printKeyValue("candidates", edgeList(d.Candidates))
	}
	for i, set := range d.Conflicts {
		printKeyValue(fmt.Sprintf("conflict %d", i), edgeList(set))
	}
}

func edgeList(edges []device.Edge) string {
	if len(edges) == 0 {
		return "none"
	}
	parts := make([]string, len(edges))
	for i, e := range edges {
		parts[i] = e.String()
	}
	return fmt.Sprintf("%d: %s", len(edges), strings.Join(parts, " "))
}
