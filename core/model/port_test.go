package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPortNaming(t *testing.T) {
	if name := PortName(2, 5); name != "s2-eth5" {
		t.Errorf("expected s2-eth5, got %s", name)
	}
	sw, port, err := ParsePortName("s3-eth4")
	if err != nil {
		t.Fatal(err)
	}
	if sw != 3 || port != 4 {
		t.Errorf("expected (3, 4), got (%d, %d)", sw, port)
	}
	if _, _, err := ParsePortName("h3-eth0"); err == nil {
		t.Error("expected an error for a host interface name")
	}
	if dpid := SwitchDPID(2); dpid != "0000000000000002" {
		t.Errorf("unexpected dpid %s", dpid)
	}
	if idx, err := ParseDPID("0000000000000004"); err != nil || idx != 4 {
		t.Errorf("ParseDPID = %d, %v", idx, err)
	}
	if addr := HostAddress(1); addr != "10.0.0.1" {
		t.Errorf("unexpected host address %s", addr)
	}
}

func TestActivationTableDecoding(t *testing.T) {
	raw := `{"1": {"1": [2, 3], "5": 1, "2": [], "3": null}, "2": {"3": ["x"]},
		"3": {"1": "", "2": {}, "3": {"dst": 2}, "4": "s2", "5": false}}`
	table := ActivationTable{}
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		sw     uint16
		port   Port
		active bool
	}{
		{1, 1, true},
		{1, 5, true},
		{1, 2, false},
		{1, 3, false},
		{2, 3, true},
		{3, 1, false},
		{3, 2, false},
		{3, 3, false},
		{3, 4, true},
		{3, 5, false},
	}
	for _, c := range cases {
		if got := table[c.sw][c.port].Active(); got != c.active {
			t.Errorf("s%d port %d: expected active=%v", c.sw, c.port, c.active)
		}
	}
	if len(table[1][1]) != 2 {
		t.Errorf("expected two destinations, got %d", len(table[1][1]))
	}
}

func TestReadConfigFile(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "console.yaml")
	content := []byte(`
controller:
  address: http://10.0.2.15:8080
  timeout: 2s
rpc:
  healthAddress: 127.0.0.1:4700
log:
  level: debug
`)
	if err := os.WriteFile(fp, content, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ReadConfigFile(fp)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Controller.Address != "http://10.0.2.15:8080" {
		t.Errorf("unexpected controller address %s", cfg.Controller.Address)
	}
	if cfg.Controller.Timeout != 2*time.Second {
		t.Errorf("unexpected timeout %s", cfg.Controller.Timeout)
	}
	if cfg.Controller.WsPath != "/v1.0/topology/ws" {
		t.Errorf("default ws path not applied: %s", cfg.Controller.WsPath)
	}
	if cfg.HealthAddress != "127.0.0.1:4700" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.TopologySize != DefaultMeshSize {
		t.Errorf("unexpected topology size %d", cfg.TopologySize)
	}

	if _, err := ReadConfigFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for an explicit missing file")
	}
}

func TestReadConfigFileDefaults(t *testing.T) {
	cfg, err := ReadConfigFile("", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Controller.Address != "http://localhost:8080" || cfg.ViewAddress != "127.0.0.1:8090" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}
