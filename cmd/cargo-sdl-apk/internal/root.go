package internal

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/goplus/cargo-sdl-apk/internal/build"
	"github.com/goplus/cargo-sdl-apk/internal/pipeline"
)

var (
	manifestPath string
	example      string
	release      bool
	ksFile       string
	ksPass       string
)

var rootCmd = &cobra.Command{
	Use:   "cargo-sdl-apk",
	Short: "Build APKs with Rust and SDL",
	Long: `cargo-sdl-apk builds a Rust bin target, or an example, as a shared library
for every Android architecture and packages it with SDL into an APK.

It is normally run through cargo as "cargo sdl-apk <command>". The
ANDROID_HOME, ANDROID_NDK_HOME and SDL environment variables must be set.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return errors.New("missing command")
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&manifestPath, "manifest-path", "Cargo.toml", "Path to Cargo.toml")
	flags.StringVar(&example, "example", "", "Build or run crate example")
	flags.BoolVar(&release, "release", false, "Build in release mode")
	flags.StringVar(&ksFile, "ks", "", "Keystore file for signing; a self-signed key with pass 'android' is generated when omitted")
	flags.StringVar(&ksFile, "ks-file", "", "Keystore file for signing")
	flags.MarkHidden("ks-file")
	flags.StringVar(&ksPass, "ks-pass", "", "Keystore pass as pass:PASS; required with --ks")

	flag.Set("logtostderr", "true")
	flags.AddGoFlagSet(flag.CommandLine)
}

func options() pipeline.Options {
	return pipeline.Options{
		ManifestPath: manifestPath,
		Example:      example,
		Profile:      build.ProfileOf(release),
		Keystore:     ksFile,
		KeystorePass: ksPass,
	}
}

// commandArgs drops the subcommand name cargo passes to external commands.
func commandArgs(args []string) []string {
	if len(args) > 0 && args[0] == "sdl-apk" {
		return args[1:]
	}
	return args
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(commandArgs(args))
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, color.Danger.Sprintf("Error: %v", err))
		return 1
	}
	return 0
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// glog reads its flags from the go flag set; cobra fills them in.
	flag.CommandLine.Parse(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
