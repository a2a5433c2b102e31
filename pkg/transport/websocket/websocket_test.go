package websocket

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func readN(t *testing.T, r io.Reader, n int) []byte {
	buf := make([]byte, n)
	_, err := io.ReadFull(r, buf)
	require.NoError(t, err)
	return buf
}

func TestLink(t *testing.T) {
	link, err := Listen("127.0.0.1:0", "/miniboard")
	require.NoError(t, err)
	defer link.Close()
	url := "ws://" + link.Addr().String() + "/miniboard"

	// nobody connected.
	n, err := link.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	host, err := Dial(url)
	require.NoError(t, err)
	_, err = host.Write([]byte{0xa5, 1, 2})
	require.NoError(t, err)
	require.Equal(t, []byte{0xa5, 1, 2}, readN(t, link, 3))
	_, err = link.Write([]byte{0xa5, 0})
	require.NoError(t, err)
	require.Equal(t, []byte{0xa5, 0}, readN(t, host, 2))

	// a new host replaces the current one.
	host2, err := Dial(url)
	require.NoError(t, err)
	defer host2.Close()
	_, err = host2.Write([]byte{7})
	require.NoError(t, err)
	require.Equal(t, []byte{7}, readN(t, link, 1))
	host.Close()

	_, err = link.Write([]byte{8})
	require.NoError(t, err)
	require.Equal(t, []byte{8}, readN(t, host2, 1))

	require.NoError(t, link.Close())
	_, err = link.Read(make([]byte, 1))
	require.Equal(t, io.EOF, err)
}
