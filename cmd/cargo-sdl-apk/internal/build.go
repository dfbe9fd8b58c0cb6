package internal

import (
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/goplus/cargo-sdl-apk/internal/pipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build APK from bin target",
	Long: `Build compiles SDL and the bin target (or --example) for every Android
architecture and assembles the APK. Release builds are signed.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	p, err := pipeline.New(options())
	if err != nil {
		return err
	}
	bundle, err := p.Build(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), color.Info.Sprintf("Built %s", bundle))
	return nil
}
