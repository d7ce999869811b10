package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/reflowlab/reflow/flow"
	"github.com/reflowlab/reflow/monitoring"
	"github.com/reflowlab/reflow/reconcile"
	"github.com/reflowlab/reflow/recording"
)

var (
	demoFrames   int
	demoInterval time.Duration
	demoMonitor  bool
	demoOpen     bool
	demoRecord   string
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a demo pipeline with a console mounter.",
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().IntVar(&demoFrames, "frames", 120,
		"number of frames to run")
	demoCmd.Flags().DurationVar(&demoInterval, "interval",
		16*time.Millisecond, "frame interval")
	demoCmd.Flags().BoolVar(&demoMonitor, "monitor", false,
		"start the monitoring server")
	demoCmd.Flags().BoolVar(&demoOpen, "open", false,
		"open the monitoring page in a browser")
	demoCmd.Flags().StringVar(&demoRecord, "record", "",
		"record traces into the given sqlite database")

	rootCmd.AddCommand(demoCmd)
}

// counterState is the demo's canonical counter record.
type counterState struct {
	Count int
}

// statusState carries a human-readable status line.
type statusState struct {
	Message string
}

type incrementAction struct {
	Amount int
}

type setStatusAction struct {
	Message string
}

// consoleMounter mounts elements by printing them. Mounting takes a little
// while to make the asynchronous path visible.
type consoleMounter struct{}

func (consoleMounter) Mount(
	ctx context.Context,
	props interface{},
) (reconcile.Instance, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Millisecond):
	}

	fmt.Printf("mounted %v\n", props)

	return props, nil
}

func (consoleMounter) Update(instance reconcile.Instance, props interface{}) {
	fmt.Printf("updated %v -> %v\n", instance, props)
}

func (consoleMounter) Unmount(instance reconcile.Instance) {
	fmt.Printf("unmounted %v\n", instance)
}

func runDemo(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	pipeline := flow.NewContext()
	flow.RegisterState[counterState](pipeline, flow.PriorityHigh)
	flow.RegisterState[statusState](pipeline, flow.PriorityNormal)

	flow.RegisterReducer(pipeline,
		func(tx *flow.Tx, a incrementAction) error {
			current, _ := flow.Get[counterState](tx)
			return flow.Put(tx, counterState{Count: current.Count + a.Amount})
		})
	flow.RegisterReducer(pipeline,
		func(tx *flow.Tx, a setStatusAction) error {
			return flow.Put(tx, statusState{Message: a.Message})
		})

	scope := reconcile.NewScope("demo.root")
	mounter := consoleMounter{}

	flow.SubscribeFunc[counterState](pipeline,
		func(n flow.ChangeNotification) {
			count := n.New.(counterState).Count

			elements := make([]reconcile.Element, 0, count%4+1)
			for i := 0; i <= count%4; i++ {
				elements = append(elements, reconcile.Element{
					Key:     fmt.Sprintf("bar-%d", i),
					Order:   i,
					Props:   fmt.Sprintf("bar-%d@%d", i, count),
					Mounter: mounter,
				})
			}

			if err := scope.Declare(elements); err != nil {
				fmt.Fprintf(os.Stderr, "declare failed: %v\n", err)
			}
		})

	if demoRecord != "" {
		rec := recording.New(demoRecord)
		pipeline.AcceptHook(recording.NewPipelineHook(rec))
		scope.AcceptHook(recording.NewMountHook(rec))
		defer rec.Flush()
	}

	if demoMonitor {
		monitor := monitoring.NewMonitor()
		if port := monitorPortFromEnv(); port > 0 {
			monitor.WithPortNumber(port)
		}
		if demoOpen {
			monitor.WithBrowser()
		}

		monitor.RegisterPipeline(pipeline)
		monitor.RegisterScope(scope)
		monitor.RegisterComponent("demo.root", scope)
		monitor.StartServer()
	}

	ticker := flow.NewTicker(pipeline, demoInterval)
	ticker.Start()

	for i := 0; i < demoFrames; i++ {
		pipeline.Dispatch(incrementAction{Amount: 1})

		if i%30 == 0 {
			pipeline.Dispatch(setStatusAction{
				Message: fmt.Sprintf("frame %d", i),
			})
		}

		time.Sleep(demoInterval)
	}

	ticker.Stop()
	scope.Dispose()
	pipeline.Close()

	return nil
}

func monitorPortFromEnv() int {
	port := os.Getenv("REFLOW_MONITOR_PORT")
	if port == "" {
		return 0
	}

	n, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}

	return n
}
