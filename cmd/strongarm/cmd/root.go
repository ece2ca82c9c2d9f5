/*
Copyright © 2018-2026 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/blacktop/strongarm/internal/colors"
	mcmd "github.com/blacktop/strongarm/internal/commands/macho"
	"github.com/blacktop/strongarm/internal/config"
	"github.com/blacktop/strongarm/internal/magic"
	"github.com/blacktop/strongarm/internal/session"
	"github.com/blacktop/strongarm/internal/shell"
	"github.com/blacktop/strongarm/pkg/disass"
	"github.com/briandowns/spinner"
	"github.com/caarlos0/ctrlc"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const farewell = "May your arms be beefy and your binaries unencrypted"

var (
	cfgFile string
	// Verbose boolean flag for verbose logging
	Verbose bool
	// Color boolean flag for colorized output
	Color bool
	// AppVersion stores the plugin's version
	AppVersion string
	// AppBuildTime stores the plugin's build time
	AppBuildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strongarm <binary_path>",
	Short: "Interactive Mach-O analysis shell",
	Example: heredoc.Doc(`
		# Explore a binary interactively
		❯ strongarm /Applications/Calculator.app/Contents/MacOS/Calculator
		# Pick the arm64e slice of a universal binary and skip the startup reports
		❯ strongarm --arch arm64e --no-autorun /usr/lib/dyld
		# Run a few commands and exit
		❯ strongarm -x 'info classes' -x 'sels AppDelegate' ./MyApp`),
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.LoadConfig()
		if err != nil {
			return err
		}
		initOutput(conf)

		binPath := filepath.Clean(args[0])

		if ok, err := magic.IsMachO(binPath); !ok {
			return fmt.Errorf("failed to open %s: %v", binPath, err)
		}

		b, err := mcmd.Load(binPath)
		if err != nil {
			return err
		}
		defer b.Close()

		printHeader(os.Stdout, binPath)
		printSlices(os.Stdout, b.Slices())

		if err := b.Pick(conf.Arch); err != nil {
			return err
		}
		fmt.Printf("Reading %s slice\n\n", b.Arch())

		s := spinner.New(spinner.CharSets[38], 100*time.Millisecond)
		s.Prefix = color.BlueString("   • Analyzing... ")
		s.Start()
		a, err := mcmd.NewAnalyzer(b, &mcmd.AnalyzerConfig{Demangle: conf.Demangle})
		s.Stop()
		if err != nil {
			return fmt.Errorf("failed to analyze %s: %v", binPath, err)
		}

		engine, err := disass.NewEngine(&disass.Config{
			CacheSize:       conf.Disass.CacheSize,
			MaxInstructions: conf.Disass.MaxInstructions,
		})
		if err != nil {
			return err
		}

		sess := session.Session{
			Binary:       b,
			Analyzer:     a,
			Disassembler: engine,
		}

		scripted := len(conf.Commands) > 0

		var in shell.LineReader
		if scripted {
			in = shell.NewScanReader(strings.NewReader(""), nil)
		} else {
			in, err = shell.NewLineReader(os.Stdin, os.Stdout, conf.Shell.History)
			if err != nil {
				return fmt.Errorf("failed to create line reader: %v", err)
			}
		}

		sh := shell.New(sess, shell.Config{
			Output:       os.Stdout,
			Input:        in,
			ParallelInfo: conf.Shell.ParallelInfo,
		})

		if scripted {
			fmt.Print("Running provided script...\n\n")
			runLines(sh, conf.Commands)
			fmt.Println(farewell)
			return in.Close()
		}

		if !autorun(os.Stdout, sh, conf.AutorunLines()) {
			fmt.Println(farewell)
			return in.Close()
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := ctrlc.Default.Run(ctx, func() error {
			return sh.Run(ctx)
		}); err != nil {
			if !errors.As(err, &ctrlc.ErrorCtrlC{}) {
				return err
			}
			log.Warn("Exiting...")
		}

		fmt.Println(farewell)
		return nil
	},
}

// initOutput applies the log level and the color setting. Colors stay off
// unless --color (or CLICOLOR) turns them on, whatever the terminal supports.
func initOutput(conf *config.Config) {
	if conf.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	colors.Init(&conf.Color)
}

// runLines feeds each line to the shell, logging collaborator failures. It
// reports whether the shell is still active afterwards.
func runLines(sh *shell.Shell, lines []string) bool {
	for _, line := range lines {
		if !sh.Active() {
			break
		}
		if err := sh.RunCommand(line); err != nil {
			log.WithError(err).WithField("line", line).Error("command failed")
		}
	}
	return sh.Active()
}

// autorun announces and runs the startup lines.
func autorun(w io.Writer, sh *shell.Shell, lines []string) bool {
	for _, line := range lines {
		if !sh.Active() {
			break
		}
		fmt.Fprintf(w, "Auto-running '%s'\n\n", line)
		runLines(sh, []string{line})
	}
	return sh.Active()
}

func printHeader(w io.Writer, binPath string) {
	lines := []string{"strongarm - Mach-O analyzer", binPath}
	var width int
	for _, l := range lines {
		width = max(width, len(l))
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, colors.Bold().Sprint(l))
	}
	fmt.Fprintln(w, strings.Repeat("-", width))
	fmt.Fprintln(w)
}

func printSlices(w io.Writer, slices []string) {
	fmt.Fprintln(w, "Slices:")
	for _, slice := range slices {
		fmt.Fprintf(w, "\t%s Mach-O slice\n", slice)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if len(AppVersion) > 0 {
		rootCmd.Version = AppVersion
		if len(AppBuildTime) > 0 {
			rootCmd.Version += " (" + AppBuildTime + ")"
		}
	}
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	log.SetHandler(clihander.Default)

	cobra.OnInitialize(initConfig)

	// Flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/strongarm/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&Color, "color", false, "colorize output")
	rootCmd.Flags().StringP("arch", "a", "", "Which architecture to use for fat/universal MachO")
	rootCmd.Flags().Bool("demangle", false, "Demangle C++/Swift symbol names")
	rootCmd.Flags().Bool("no-autorun", false, "Skip the startup reports")
	rootCmd.Flags().StringArrayP("command", "x", []string{}, "Run shell command(s) and exit")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))
	viper.BindPFlag("arch", rootCmd.Flags().Lookup("arch"))
	viper.BindPFlag("demangle", rootCmd.Flags().Lookup("demangle"))
	viper.BindPFlag("no-autorun", rootCmd.Flags().Lookup("no-autorun"))
	viper.BindPFlag("command", rootCmd.Flags().Lookup("command"))
	viper.BindEnv("color", "CLICOLOR")
	// Settings
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config", "strongarm"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("strongarm")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
