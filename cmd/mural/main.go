// Command mural runs the demo apps on the terminal simulator driver.
package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          filepath.Base(os.Args[0]),
	Short:        "mural shares one display among concurrent apps",
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
		os.Exit(1)
	},
}

var (
	flushMillis int
	logFileFlag string
)

func init() {
	rootCmd.PersistentFlags().IntVar(&flushMillis, "flush-interval", 20, "flush interval in milliseconds")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "write logs to this file")
}

// newLogger keeps log output away from the terminal the simulator draws
// on: silent unless --log-file is given.
func newLogger() (*slog.Logger, func(), error) {
	if logFileFlag == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(logFileFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { _ = f.Close() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
