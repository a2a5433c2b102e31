package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"fmt"
	"log"
	"syscall"

	"github.com/golang/glog"

	fx "github.com/robotalks/miniboard/pkg/framework"
	"github.com/robotalks/miniboard/pkg/l0/board"
	"github.com/robotalks/miniboard/pkg/l0/trigger"
	"github.com/robotalks/miniboard/pkg/l1/telemetry/mqtt"
	"github.com/robotalks/miniboard/pkg/sim"
	"github.com/robotalks/miniboard/pkg/transport"
)

func init() {
	board.SetupFlags()
	mqtt.SetupFlags()
	sim.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := board.Default()
	p, err := sim.Default().NewPeripherals()
	if err != nil {
		log.Fatalln(err)
	}
	link, err := transport.Listen(conf.Transport)
	if err != nil {
		log.Fatalf("open %s: %v", conf.Transport, err)
	}
	b, err := conf.NewBoard(p, link)
	if err != nil {
		log.Fatalln(err)
	}

	if telemetry := mqtt.Default(); telemetry.Enabled() {
		build := (&trigger.BuildInfo{BoardID: b.BoardID}).Ident()
		bridge, err := telemetry.NewBridge(b.Table, b.BoardID, build)
		if err != nil {
			log.Fatalln(err)
		}
		b.Add(bridge)
	}

	runner := fx.NewRunner().
		OnSignal(syscall.SIGUSR1, func() { b.Raise(board.IRQSpurious) }).
		OnSignal(syscall.SIGUSR2, func() { b.Raise(board.IRQTimer) }).
		HandleSignals()
	runner.Go(fx.NamedRun("board", fx.RunFunc(func(ctx context.Context) error {
		err := fx.RunWithContextCloser(ctx, link, func() error { return b.Run(ctx) })
		if b.Trap.Halted() {
			return fmt.Errorf("%w: %s", board.ErrTrapped, b.Trap.Reason())
		}
		return err
	})))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
