package internal

import (
	"github.com/spf13/cobra"

	"github.com/goplus/cargo-sdl-apk/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build APK and run using adb",
	Long: `Run builds the APK, installs it on the attached device, starts it and
streams its log until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	p, err := pipeline.New(options())
	if err != nil {
		return err
	}
	return p.Run(cmd.Context())
}
