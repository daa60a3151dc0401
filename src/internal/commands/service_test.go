package commands

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/nmstate/nmstate-go/src/internal/api"
)

func TestServeUntilDone_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- serveUntilDone(ctx, api.NewServer("127.0.0.1:0", http.NotFoundHandler()))
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected nil after cancel, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the server to stop")
	}
}

func TestServeUntilDone_ListenError(t *testing.T) {
	err := serveUntilDone(context.Background(), api.NewServer("127.0.0.1:-1", http.NotFoundHandler()))
	if err == nil {
		t.Error("Expected a listen error")
	}
}

func TestServiceCommand_InvalidConfig(t *testing.T) {
	ctx, _ := newTestContext(t, nil)
	ctx.ConfigPath = writeFile(t, "nmstatectl.toml", "[api]\nlisten_addr = \"not an address\"\n")

	if err := CreateServiceCommand().Init(nil, ctx); err == nil {
		t.Error("Expected a validation error")
	}
}
