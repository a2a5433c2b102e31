package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/miniboard/pkg/l0/comm"
	"github.com/robotalks/miniboard/pkg/l0/regs"
	"github.com/robotalks/miniboard/pkg/l0/store"
	"github.com/robotalks/miniboard/pkg/transport/websocket"
)

func TestUnknownScheme(t *testing.T) {
	_, err := Listen("tcp://localhost:1234")
	require.Error(t, err)
	_, err = Dial("http://localhost:1234")
	require.Error(t, err)
	_, err = Listen("serial://")
	require.Error(t, err)
}

func TestWebsocketLink(t *testing.T) {
	rw, err := Listen("ws://127.0.0.1:0/miniboard")
	require.NoError(t, err)
	defer rw.Close()
	link := rw.(*websocket.Link)

	s := store.New()
	require.NoError(t, s.BatteryVoltage.SetUint16(7400))
	tbl, err := regs.Bind(s)
	require.NoError(t, err)
	engine := comm.NewEngine(link, tbl.Seal())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	host, err := Dial("ws://" + link.Addr().String() + "/miniboard")
	require.NoError(t, err)
	defer host.Close()
	client := comm.NewClient(host)
	go client.Run(ctx)

	reqCtx, reqCancel := context.WithTimeout(ctx, time.Second)
	defer reqCancel()
	val, err := client.Read(reqCtx, regs.IDBatteryVoltage)
	require.NoError(t, err)
	require.Equal(t, []byte{0xe8, 0x1c}, val)
}
