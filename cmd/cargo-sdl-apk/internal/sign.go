package internal

import (
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/goplus/cargo-sdl-apk/internal/build"
	"github.com/goplus/cargo-sdl-apk/internal/pipeline"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign the release APK of an earlier build",
	Args:  cobra.NoArgs,
	RunE:  runSign,
}

func init() {
	rootCmd.AddCommand(signCmd)
}

func runSign(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	opts := options()
	opts.Profile = build.Release
	p, err := pipeline.New(opts)
	if err != nil {
		return err
	}
	signed, err := p.Sign(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), color.Info.Sprintf("Signed %s", signed))
	return nil
}
