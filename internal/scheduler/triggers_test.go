package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/domain"
)

type countingRunner struct {
	mu    sync.Mutex
	n     int
	modes []string
	cfgs  []cycleConfig
}

func (c *countingRunner) RunCycle(ctx context.Context, mode domain.TriggerMode, opts ...CycleOption) (CycleReport, error) {
	var cfg cycleConfig
	for _, o := range opts {
		o(&cfg)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	c.modes = append(c.modes, mode.ModeName())
	c.cfgs = append(c.cfgs, cfg)
	return CycleReport{Mode: mode.ModeName()}, nil
}

func (c *countingRunner) snapshot() (int, []string, []cycleConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n, append([]string(nil), c.modes...), append([]cycleConfig(nil), c.cfgs...)
}

func TestKeepAlive_RunsImmediatelyWithBackgroundSettings(t *testing.T) {
	runner := &countingRunner{}
	ka := NewKeepAlive(zap.NewNop(), runner, 2*time.Millisecond, 0, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ka.Run(ctx)

	// Wait a tiny bit for the immediate pass to execute.
	time.Sleep(10 * time.Millisecond)

	n, modes, cfgs := runner.snapshot()
	if n == 0 {
		t.Fatalf("expected at least one cycle, got %d", n)
	}
	if modes[0] != "scheduled" {
		t.Fatalf("keep-alive should run scheduled cycles, got %q", modes[0])
	}
	if cfgs[0].timeout != 5*time.Second || cfgs[0].stagger != 50*time.Millisecond {
		t.Fatalf("unexpected cycle options: %+v", cfgs[0])
	}
}

func TestKeepAlive_ZeroIntervalDisables(t *testing.T) {
	runner := &countingRunner{}
	NewKeepAlive(zap.NewNop(), runner, 0, 0, 0).Run(context.Background())
	if n, _, _ := runner.snapshot(); n != 0 {
		t.Fatalf("disabled keep-alive ran %d cycles", n)
	}
}

func TestCronTrigger_Spec(t *testing.T) {
	if _, err := NewCronTrigger("not a spec", &countingRunner{}, zap.NewNop()); err == nil {
		t.Fatalf("expected parse error")
	}
	for _, spec := range []string{"*/5 * * * *", "0 */1 * * * *", "@every 1m"} {
		if _, err := NewCronTrigger(spec, &countingRunner{}, zap.NewNop()); err != nil {
			t.Fatalf("spec %q: %v", spec, err)
		}
	}
}

func TestCronTrigger_FireRunsScheduledCycle(t *testing.T) {
	runner := &countingRunner{}
	ct, err := NewCronTrigger("@every 1h", runner, zap.NewNop(), WithProbeTimeout(3*time.Second))
	if err != nil {
		t.Fatalf("NewCronTrigger: %v", err)
	}
	ct.fire()
	n, modes, cfgs := runner.snapshot()
	if n != 1 || modes[0] != "scheduled" || cfgs[0].timeout != 3*time.Second {
		t.Fatalf("unexpected run: n=%d modes=%v cfgs=%+v", n, modes, cfgs)
	}
}
