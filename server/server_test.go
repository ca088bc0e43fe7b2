//go:build linux || darwin || freebsd || netbsd || openbsd

package server

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/Trinoooo/eggie_poll/config"
	"github.com/Trinoooo/eggie_poll/consts"
	"github.com/Trinoooo/eggie_poll/errs"
	"github.com/Trinoooo/eggie_poll/poller"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:     "127.0.0.1",
		Port:     0,
		Reactors: 2,
		Workers:  16,
	}
}

func startServer(t *testing.T, backend string, opts ...Option) *ReactorServer {
	p, err := poller.New(backend, poller.WithWaitSlice(2*time.Millisecond))
	require.Nil(t, err)
	srv, err := NewReactorServer(testServerConfig(), p, opts...)
	require.Nil(t, err)

	served := make(chan error, 1)
	go func() {
		served <- srv.Serve()
	}()
	t.Cleanup(func() {
		assert.Nil(t, srv.Close())
		select {
		case err := <-served:
			assert.Nil(t, err)
		case <-time.After(2 * time.Second):
			t.Error("serve did not return after close")
		}
	})
	return srv
}

func roundTrip(t *testing.T, addr net.Addr, payload []byte) {
	conn, err := net.DialTimeout("tcp", addr.String(), time.Second)
	require.Nil(t, err)
	defer conn.Close()
	require.Nil(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

	for i := 0; i < 3; i++ {
		_, err = conn.Write(payload)
		require.Nil(t, err)
		got := make([]byte, len(payload))
		_, err = io.ReadFull(conn, got)
		require.Nil(t, err)
		assert.True(t, bytes.Equal(payload, got))
	}
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string) float64 {
	families, err := registry.Gather()
	require.Nil(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestReactorServer_Echo(t *testing.T) {
	for _, backend := range []string{consts.BackendNative, consts.BackendEmulated} {
		t.Run(backend, func(t *testing.T) {
			srv := startServer(t, backend)
			roundTrip(t, srv.Addr(), []byte("hello eggie poll"))
		})
	}
}

func TestReactorServer_ManyClients(t *testing.T) {
	registry := prometheus.NewRegistry()
	srv := startServer(t, consts.BackendEmulated, WithMetrics(NewMetricsHelper(registry)))

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			roundTrip(t, srv.Addr(), bytes.Repeat([]byte{byte('a' + i)}, 1024))
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.Equal(t, float64(8), counterValue(t, registry, "eggie_poll_connection_accept_counter"))
	assert.Eventually(t, func() bool {
		return counterValue(t, registry, "eggie_poll_echoed_bytes_total") == float64(8*3*1024)
	}, time.Second, 10*time.Millisecond)
}

func TestReactorServer_HandlerError(t *testing.T) {
	srv := startServer(t, consts.BackendEmulated, WithHandler(func(req []byte) ([]byte, error) {
		return nil, errors.New("reject")
	}))

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	require.Nil(t, err)
	defer conn.Close()
	require.Nil(t, conn.SetDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Write([]byte("x"))
	require.Nil(t, err)

	_, err = conn.Read(make([]byte, 1))
	assert.NotNil(t, err)
}

func TestNewReactorServer_InvalidParams(t *testing.T) {
	p, err := poller.New(consts.BackendEmulated)
	require.Nil(t, err)

	cfg := testServerConfig()
	cfg.Host = "not-an-ip"
	_, err = NewReactorServer(cfg, p)
	assert.True(t, errors.Is(err, errs.NewInvalidParamErr()))

	cfg = testServerConfig()
	cfg.Reactors = 0
	_, err = NewReactorServer(cfg, p)
	assert.True(t, errors.Is(err, errs.NewInvalidParamErr()))
}

func TestReactorServer_CloseWithoutServe(t *testing.T) {
	p, err := poller.New(consts.BackendEmulated)
	require.Nil(t, err)
	srv, err := NewReactorServer(testServerConfig(), p)
	require.Nil(t, err)
	assert.Nil(t, srv.Close())
	assert.Nil(t, srv.Close())
	assert.NotNil(t, srv.Serve())
}
