package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/muralkit/mural/display"
	"github.com/muralkit/mural/driver/sim"
)

var chunkHeight int

var compressedCmd = &cobra.Command{
	Use:   "compressed",
	Short: "run the same split on the chunked run-length flush path",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, closeLog, err := newLogger()
		if err != nil {
			return err
		}
		defer closeLog()

		d, err := sim.New()
		if err != nil {
			return err
		}
		defer d.Close()

		scr, err := display.NewCompressedScreen(display.CompressedConfig{
			Driver:      d,
			ChunkHeight: chunkHeight,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		size := scr.Size()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		top := display.Rect{X: 0, Y: 0, Width: size.Width, Height: size.Height / 2}
		bottom := display.Rect{X: 0, Y: size.Height / 2, Width: size.Width, Height: size.Height - size.Height/2}
		if _, err := scr.Launch(ctx, "gradient", top, func(ctx context.Context, p *display.CompressedPartition) error {
			return gradientApp(ctx, p)
		}); err != nil {
			return err
		}
		if _, err := scr.Launch(ctx, "bouncer", bottom, func(ctx context.Context, p *display.CompressedPartition) error {
			return bouncerApp(ctx, p)
		}); err != nil {
			return err
		}

		go func() {
			_ = scr.FlushLoop(ctx, time.Duration(flushMillis)*time.Millisecond)
		}()

		d.WaitQuit()
		cancel()
		if err := scr.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	compressedCmd.Flags().IntVar(&chunkHeight, "chunk-height", 0, "rows per flush chunk (0 for the default)")
	rootCmd.AddCommand(compressedCmd)
}
