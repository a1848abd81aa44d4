package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/muralkit/mural/display"
	"github.com/muralkit/mural/driver/sim"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "split the simulator between a gradient app and a bouncer app",
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

		scr, err := display.NewScreen(display.Config{Driver: d, Logger: logger})
		if err != nil {
			return err
		}
		size := scr.Size()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		left := display.Rect{X: 0, Y: 0, Width: size.Width / 2, Height: size.Height}
		right := display.Rect{X: size.Width / 2, Y: 0, Width: size.Width - size.Width/2, Height: size.Height}
		if _, err := scr.Launch(ctx, "gradient", left, func(ctx context.Context, p *display.Partition) error {
			return gradientApp(ctx, p)
		}); err != nil {
			return err
		}
		if _, err := scr.Launch(ctx, "bouncer", right, func(ctx context.Context, p *display.Partition) error {
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
	rootCmd.AddCommand(demoCmd)
}
