// Package cli implements the pixelconvert command line.
package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"
)

// ErrNothingConverted is returned by convert when every input failed.
var ErrNothingConverted = errors.New("no files could be converted")

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "pixelconvert",
		Short:         "pixelconvert - convert HEIC and raster images to PNG or JPEG",
		Long:          "pixelconvert converts HEIC/HEIF, JPEG, PNG, BMP, GIF, TIFF and WebP images to PNG or JPEG, zipping batches.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetHelpCommand(&cobra.Command{Hidden: true})

	root.AddCommand(newConvertCommand(), newCapabilitiesCommand())
	return root
}
