package net

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/sdn-slicing/slice_console/core"
	"github.com/sdn-slicing/slice_console/core/model"
	"github.com/sirupsen/logrus"
)

// LinkView is one rendered edge of the mesh.
type LinkView struct {
	Identity model.LinkIdentity `json:"identity"`
	A        string             `json:"a"`
	B        string             `json:"b"`
	Classes  string             `json:"classes"`
	Active   bool               `json:"active"`
}

// ViewServer exposes the console state to renderers over HTTP.
type ViewServer struct {
	lAddr    string
	topology *model.Topology
	sync     *core.LinkSynchronizer
	health   *core.SwitchHealthManager
	server   *http.Server
}

func NewViewServer(lAddr string,
	topology *model.Topology,
	sync *core.LinkSynchronizer,
	health *core.SwitchHealthManager) *ViewServer {
	vs := &ViewServer{
		lAddr:    lAddr,
		topology: topology,
		sync:     sync,
		health:   health,
	}
	vs.server = &http.Server{Handler: vs.Handler()}
	return vs
}

func (vs *ViewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/links", vs.getLinks)
	mux.HandleFunc("/switches", vs.getSwitches)
	return mux
}

// Links returns every edge of the topology with its activation state.
func (vs *ViewServer) Links() ([]LinkView, error) {
	edges := vs.topology.Edges()
	links := make([]LinkView, 0, len(edges))
	for _, e := range edges {
		id, err := vs.topology.LinkIdentity(e)
		if err != nil {
			return nil, err
		}
		classes, err := vs.topology.RenderClasses(e)
		if err != nil {
			return nil, err
		}
		links = append(links, LinkView{
			Identity: id,
			A:        e.A.String(),
			B:        e.B.String(),
			Classes:  classes,
			Active:   vs.sync.IsActive(id),
		})
	}
	return links, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("[View] Cannot write response: %s", err.Error())
	}
}

func (vs *ViewServer) getLinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	links, err := vs.Links()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, links)
}

func (vs *ViewServer) getSwitches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, vs.health.Switches())
}

func (vs *ViewServer) Start() error {
	lis, err := net.Listen("tcp4", vs.lAddr)
	if err != nil {
		logrus.Errorf("[View] Cannot listen on %s: %s", vs.lAddr, err.Error())
		return err
	}
	logrus.Infof("[View] Listening on %s", lis.Addr())
	if err := vs.server.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (vs *ViewServer) Stop(ctx context.Context) error {
	return vs.server.Shutdown(ctx)
}
