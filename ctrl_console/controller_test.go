package ctrl_console

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sdn-slicing/slice_console/core/model"
	"golang.org/x/net/websocket"
)

func testConfig(address string) *model.BinRootConfig {
	return &model.BinRootConfig{
		Controller: model.ControllerConfig{
			Address: address,
			WsPath:  "/v1.0/topology/ws",
			Timeout: 2 * time.Second,
		},
		Push:          model.PushConfig{RetryInterval: 10 * time.Millisecond},
		HealthAddress: "127.0.0.1:0",
		HealthTimeout: time.Minute,
		ViewAddress:   "127.0.0.1:0",
		TopologySize:  model.DefaultMeshSize,
		LogLevel:      "warn",
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestConsoleAppliesSnapshotThenPushes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/slice_topology", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"1": {"1": [2]}}`))
	})
	pushed := make(chan struct{})
	mux.Handle("/v1.0/topology/ws", websocket.Handler(func(ws *websocket.Conn) {
		<-pushed
		update := `{"jsonrpc": "2.0", "id": 1, "method": "event_slice_update", "params": [{"3": {"5": [3]}}]}`
		if err := websocket.Message.Send(ws, update); err != nil {
			return
		}
		var reply string
		websocket.Message.Receive(ws, &reply)
		// hold the channel open until the console hangs up
		websocket.Message.Receive(ws, &reply)
	}))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cc, err := NewConsoleController(testConfig(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cc.Run(ctx) }()

	select {
	case <-cc.Status().ReadyChan:
	case <-time.After(5 * time.Second):
		t.Fatal("console never became ready")
	}
	sync := cc.Synchronizer()
	if !sync.IsActive("s1eth1") {
		t.Errorf("the snapshot should be applied once ready")
	}
	if !cc.Status().IsConnected() {
		t.Errorf("push channel should be connected")
	}

	close(pushed)
	waitFor(t, "the push", func() bool { return sync.IsActive("s3eth5") })
	if sync.IsActive("s1eth1") {
		t.Errorf("the push should replace the snapshot")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected a clean stop, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("console did not stop")
	}
	if cc.Status().IsConnected() {
		t.Errorf("push channel should be down after stop")
	}
	select {
	case <-cc.Status().DoneChan:
	default:
		t.Errorf("DoneChan should be signalled after Run returns")
	}
}

func TestNewConsoleControllerRejectsBadConfig(t *testing.T) {
	cfg := testConfig("ftp://nowhere")
	if _, err := NewConsoleController(cfg); err == nil {
		t.Errorf("expected an error for an ftp controller address")
	}
	cfg = testConfig("http://localhost:8080")
	cfg.TopologySize = 1
	if _, err := NewConsoleController(cfg); err == nil {
		t.Errorf("expected an error for a 1-switch mesh")
	}
}
