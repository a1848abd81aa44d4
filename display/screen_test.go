package display

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/muralkit/mural/driver/drivertest"
	"github.com/muralkit/mural/pixel"
)

func newTestScreen(t *testing.T, w, h int) (*Screen, *drivertest.Recorder) {
	t.Helper()
	rec := drivertest.New(w, h)
	scr, err := NewScreen(Config{Driver: rec})
	if err != nil {
		t.Fatalf("new screen: %v", err)
	}
	return scr, rec
}

// launchSync runs fn as an app and waits for it to finish.
func launchSync(t *testing.T, scr *Screen, owner string, area Rect, fn func(p *Partition) error) {
	t.Helper()
	done := make(chan struct{})
	_, err := scr.Launch(context.Background(), owner, area, func(ctx context.Context, p *Partition) error {
		defer close(done)
		return fn(p)
	})
	if err != nil {
		t.Fatalf("launch %s: %v", owner, err)
	}
	<-done
}

func TestSplitScreenScenario(t *testing.T) {
	scr, rec := newTestScreen(t, 128, 64)

	var a *Partition
	launchSync(t, scr, "a", Rect{0, 0, 64, 64}, func(p *Partition) error {
		a = p
		return nil
	})
	launchSync(t, scr, "b", Rect{64, 0, 64, 64}, func(p *Partition) error {
		return nil
	})
	if _, err := scr.Launch(context.Background(), "c", Rect{32, 0, 64, 64}, func(ctx context.Context, p *Partition) error {
		t.Error("app c must not be spawned")
		return nil
	}); !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap for app c, got %v", err)
	}

	if err := a.WritePixel(Point{10, 10}, pixel.Green); err != nil {
		t.Fatalf("draw inside partition: %v", err)
	}
	if err := a.WritePixel(Point{70, 10}, pixel.Red); !errors.Is(err, ErrOutOfPartition) {
		t.Fatalf("expected ErrOutOfPartition, got %v", err)
	}

	if err := scr.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := rec.Pixel(10, 10); got != pixel.Green {
		t.Fatalf("expected green at (10,10) after flush, got %04x", got)
	}
	if got := rec.Pixel(70, 10); got != pixel.Black {
		t.Fatalf("expected rejected draw to leave (70,10) black, got %04x", got)
	}
	if err := scr.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestLaunchFailureSpawnsNothing(t *testing.T) {
	scr, _ := newTestScreen(t, 64, 64)
	if _, err := scr.Launch(context.Background(), "big", Rect{0, 0, 65, 64}, func(ctx context.Context, p *Partition) error {
		t.Error("app must not run")
		return nil
	}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if err := scr.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestAppExitReleasesPartition(t *testing.T) {
	scr, _ := newTestScreen(t, 64, 64)
	area := Rect{0, 0, 32, 32}

	launchSync(t, scr, "one", area, func(p *Partition) error { return nil })
	if err := scr.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got := len(scr.Partitions()); got != 0 {
		t.Fatalf("expected no live partitions after app exit, got %d", got)
	}
	launchSync(t, scr, "two", area, func(p *Partition) error { return nil })
}

func TestAppPanicReleasesPartition(t *testing.T) {
	scr, _ := newTestScreen(t, 64, 64)
	area := Rect{0, 0, 32, 32}

	launchSync(t, scr, "crasher", area, func(p *Partition) error {
		panic("boom")
	})
	err := scr.Wait()
	if err == nil {
		t.Fatalf("expected panic surfaced as error from Wait")
	}
	if got := len(scr.Partitions()); got != 0 {
		t.Fatalf("expected partition released after panic, got %d live", got)
	}
	// Area reservable again, and the screen still works.
	launchSync(t, scr, "next", area, func(p *Partition) error { return nil })
}

func TestPartitionFillAndRead(t *testing.T) {
	scr, rec := newTestScreen(t, 64, 64)
	launchSync(t, scr, "fill", Rect{16, 16, 32, 32}, func(p *Partition) error {
		if err := p.Clear(pixel.Blue); err != nil {
			return err
		}
		if err := p.Fill(Rect{0, 0, 33, 32}, pixel.Red); !errors.Is(err, ErrOutOfPartition) {
			t.Errorf("expected oversized fill rejected, got %v", err)
		}
		c, err := p.ReadPixel(Point{5, 5})
		if err != nil {
			return err
		}
		if c != pixel.Blue {
			t.Errorf("expected read-back blue, got %04x", c)
		}
		if _, err := p.ReadPixel(Point{-1, 0}); !errors.Is(err, ErrOutOfPartition) {
			t.Errorf("expected negative read rejected, got %v", err)
		}
		return nil
	})

	if err := scr.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if got := rec.Pixel(16, 16); got != pixel.Blue {
		t.Fatalf("expected partition origin blue on display, got %04x", got)
	}
	if got := rec.Pixel(15, 16); got != pixel.Black {
		t.Fatalf("expected pixel left of partition untouched, got %04x", got)
	}
}

func TestFlushDirtyUsesRectWriter(t *testing.T) {
	scr, rec := newTestScreen(t, 64, 64)
	launchSync(t, scr, "dot", Rect{0, 0, 64, 64}, func(p *Partition) error {
		return p.WritePixel(Point{3, 4}, pixel.White)
	})

	if err := scr.FlushDirty(); err != nil {
		t.Fatalf("flush dirty: %v", err)
	}
	if rec.Flushes != 0 || rec.RectFlushes != 1 {
		t.Fatalf("expected exactly one rect flush, got full=%d rect=%d", rec.Flushes, rec.RectFlushes)
	}
	if got := rec.Pixel(3, 4); got != pixel.White {
		t.Fatalf("expected white at (3,4), got %04x", got)
	}

	// Nothing dirty: no transfer at all.
	if err := scr.FlushDirty(); err != nil {
		t.Fatalf("flush dirty (clean): %v", err)
	}
	if rec.RectFlushes != 1 || rec.Flushes != 0 {
		t.Fatalf("expected no extra transfers on clean buffer")
	}
}

func TestFlushSurfacesDriverError(t *testing.T) {
	scr, rec := newTestScreen(t, 32, 32)
	boom := errors.New("spi timeout")
	rec.FailNext(boom)

	err := scr.Flush()
	var de *DriverError
	if !errors.As(err, &de) || !errors.Is(err, boom) {
		t.Fatalf("expected DriverError wrapping cause, got %v", err)
	}

	// The gate must be free again: a draw and a flush both proceed.
	launchSync(t, scr, "after", Rect{0, 0, 8, 8}, func(p *Partition) error {
		return p.WritePixel(Point{0, 0}, pixel.Red)
	})
	if err := scr.Flush(); err != nil {
		t.Fatalf("flush after failure: %v", err)
	}
	if got := rec.Pixel(0, 0); got != pixel.Red {
		t.Fatalf("expected red after recovery, got %04x", got)
	}
}

func TestCanvasRecordsRejectedWrites(t *testing.T) {
	scr, _ := newTestScreen(t, 32, 32)
	launchSync(t, scr, "canvas", Rect{0, 0, 16, 16}, func(p *Partition) error {
		cv := p.Canvas()
		cv.Set(2, 2, pixel.Green)
		if err := cv.Err(); err != nil {
			t.Errorf("expected in-bounds set clean, got %v", err)
		}
		cv.Set(20, 2, pixel.Green)
		if err := cv.Err(); !errors.Is(err, ErrOutOfPartition) {
			t.Errorf("expected sticky ErrOutOfPartition, got %v", err)
		}
		if err := cv.Err(); err != nil {
			t.Errorf("expected error reset after read, got %v", err)
		}
		if got := pixel.From(cv.At(2, 2)); got != pixel.Green {
			t.Errorf("expected canvas read-back green, got %04x", got)
		}
		return nil
	})
	if err := scr.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

// Apps hammer their own partitions while a flush loop runs; under the race
// detector this pins down the gate discipline.
func TestConcurrentDrawAndFlush(t *testing.T) {
	scr, rec := newTestScreen(t, 64, 64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	areas := []Rect{{0, 0, 32, 64}, {32, 0, 32, 64}}
	colors := []pixel.Color{pixel.Red, pixel.Blue}
	var wg sync.WaitGroup
	for i := range areas {
		wg.Add(1)
		c := colors[i]
		if _, err := scr.Launch(ctx, "worker", areas[i], func(ctx context.Context, p *Partition) error {
			defer wg.Done()
			for n := 0; n < 2000; n++ {
				if err := p.WritePixel(Point{n % 32, (n / 32) % 64}, c); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			t.Fatalf("launch: %v", err)
		}
	}

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- scr.FlushLoop(ctx, time.Millisecond)
	}()

	wg.Wait()
	if err := scr.Wait(); err != nil {
		t.Fatalf("apps failed: %v", err)
	}
	if err := scr.Flush(); err != nil {
		t.Fatalf("final flush: %v", err)
	}
	cancel()
	if err := <-loopDone; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected loop to end with context.Canceled, got %v", err)
	}

	if got := rec.Pixel(0, 0); got != pixel.Red {
		t.Fatalf("expected left partition red, got %04x", got)
	}
	if got := rec.Pixel(32, 0); got != pixel.Blue {
		t.Fatalf("expected right partition blue, got %04x", got)
	}
}
