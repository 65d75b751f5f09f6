package cli

import (
	"fmt"
	"strings"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/dunamismax/pixelconvert/internal/pipeline"
	"github.com/spf13/cobra"
)

func newCapabilitiesCommand() *cobra.Command {
	var heicPref string

	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Show which input formats this build can decode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := pipeline.Startup(); err != nil {
				return fmt.Errorf("start image runtime: %w", err)
			}
			defer pipeline.Shutdown()

			capability := pipeline.ResolveHeicCapability(heicPref)

			heic := warnStyle.Render("not available")
			if capability != pipeline.HeicNone {
				heic = successStyle.Render(fmt.Sprintf("%s (%s)", capability, capability.Method()))
			}

			var inputs []string
			for _, f := range domain.InputFormats {
				if f.IsHEIC() && capability == pipeline.HeicNone {
					continue
				}
				inputs = append(inputs, strings.ToUpper(string(f)))
			}
			var outputs []string
			for _, f := range domain.OutputFormats {
				outputs = append(outputs, f.Label())
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSummary("pixelconvert capabilities", []summaryRow{
				{Label: "HEIC/HEIF", Value: heic},
				{Label: "Inputs", Value: strings.Join(inputs, ", ")},
				{Label: "Outputs", Value: strings.Join(outputs, ", ")},
			}))
			return nil
		},
	}
	cmd.Flags().StringVar(&heicPref, "heic", "auto", "HEIC decoder preference: auto, native, fallback or none")
	return cmd
}
