package net

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sdn-slicing/slice_console/core/model"
	"github.com/sdn-slicing/slice_console/core/slice"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

var (
	ErrRemoteUnavailable = errors.New("remote unavailable")
	ErrSliceNotFound     = errors.New("slice not found")
)

const (
	slicesPath        = "/api/v1/slices"
	slicePath         = "/api/v1/slice"
	deactivatePath    = "/api/v1/slice/deactivate"
	sliceTopologyPath = "/api/v1/slice_topology"
	qosRulesPath      = "/qos/rules/"
	qosQueuePath      = "/qos/queue/"
)

// RestClient talks to the slicing controller's REST API.
type RestClient struct {
	address    string
	httpClient *http.Client
}

// ControllerBaseURL defaults a bare host:port controller address to http.
func ControllerBaseURL(address string) string {
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	return strings.TrimRight(address, "/")
}

func NewRestClient(address string, timeout time.Duration) *RestClient {
	return &RestClient{
		address:    ControllerBaseURL(address),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RestClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.address+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logrus.Debugf("[REST] %s %s", method, path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRemoteUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", ErrSliceNotFound, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrRemoteUnavailable, method, path,
			resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: invalid response: %v", ErrRemoteUnavailable, method, path, err)
	}
	return nil
}

// StatusResponse is the acknowledgement the controller returns.
type StatusResponse struct {
	Status string          `json:"status"`
	Slice  json.RawMessage `json:"slice,omitempty"`
}

// SubmitSlice registers a new slice template. The submission is validated
// before anything is sent.
func (c *RestClient) SubmitSlice(ctx context.Context, sub *slice.Submission) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	resp := &StatusResponse{}
	if err := c.do(ctx, http.MethodPost, slicePath, sub, resp); err != nil {
		return err
	}
	logrus.Infof("[REST] Slice %s submitted (%s)", sub.Name, resp.Status)
	return nil
}

func validSliceID(id int) error {
	if id < 1 {
		return fmt.Errorf("%w: slice ids start at 1, got %d", ErrSliceNotFound, id)
	}
	return nil
}

// ActivateSlice applies the id-th slice template (1-based) to the network.
func (c *RestClient) ActivateSlice(ctx context.Context, id int) error {
	if err := validSliceID(id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodGet, slicePath+"/"+strconv.Itoa(id), nil, &StatusResponse{})
}

// DeactivateSlice removes every slice restriction and QoS rule.
func (c *RestClient) DeactivateSlice(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, deactivatePath, nil, &StatusResponse{})
}

func (c *RestClient) DeleteSlice(ctx context.Context, id int) error {
	if err := validSliceID(id); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, slicePath+"/"+strconv.Itoa(id), nil, &StatusResponse{})
}

// SliceListing is the controller's catalogue of slice templates. Slices[i]
// and QoS[i] describe slice id i+1.
type SliceListing struct {
	Slices []model.ActivationTable `json:"slices"`
	QoS    [][]json.RawMessage     `json:"qos"`
}

// SliceSummary condenses one listed slice.
type SliceSummary struct {
	ID          int
	ActivePorts int
	QoSRules    int
}

func (l *SliceListing) Summaries() []SliceSummary {
	summaries := make([]SliceSummary, 0, len(l.Slices))
	for i, table := range l.Slices {
		s := SliceSummary{ID: i + 1}
		for _, ports := range table {
			for _, dsts := range ports {
				if dsts.Active() {
					s.ActivePorts++
				}
			}
		}
		if i < len(l.QoS) {
			s.QoSRules = len(l.QoS[i])
		}
		summaries = append(summaries, s)
	}
	return summaries
}

func (c *RestClient) ListSlices(ctx context.Context) (*SliceListing, error) {
	listing := &SliceListing{}
	if err := c.do(ctx, http.MethodGet, slicesPath, nil, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// SliceTopology returns the activation table currently applied.
func (c *RestClient) SliceTopology(ctx context.Context) (model.ActivationTable, error) {
	table := model.ActivationTable{}
	if err := c.do(ctx, http.MethodGet, sliceTopologyPath, nil, &table); err != nil {
		return nil, err
	}
	return table, nil
}

// QoSRow is one reservation rule installed on a switch.
type QoSRow struct {
	Source      string
	Destination string
	Queue       string
	MaxRate     string
}

// QoSReport describes the reservations installed on one switch. When the
// controller cannot be reached or reports nothing usable, NoData is set and
// Reason says why.
type QoSReport struct {
	SwitchID uint16
	Rows     []QoSRow
	NoData   bool
	Reason   string
}

type qosRulesReply []struct {
	CommandResult []struct {
		QoS []struct {
			NwSrc   string `json:"nw_src"`
			NwDst   string `json:"nw_dst"`
			Actions []struct {
				Queue string `json:"queue"`
			} `json:"actions"`
		} `json:"qos"`
	} `json:"command_result"`
}

type qosQueueReply []struct {
	CommandResult struct {
		Details map[string]map[string]struct {
			Config map[string]string `json:"config"`
		} `json:"details"`
	} `json:"command_result"`
}

func noData(sw uint16, reason string) *QoSReport {
	return &QoSReport{SwitchID: sw, NoData: true, Reason: reason}
}

// QoSDetails fetches the QoS rules and queues of a switch. It never fails:
// errors degrade into a report with NoData set.
func (c *RestClient) QoSDetails(ctx context.Context, sw uint16) *QoSReport {
	dpid := model.SwitchDPID(sw)
	rules := qosRulesReply{}
	if err := c.do(ctx, http.MethodGet, qosRulesPath+dpid, nil, &rules); err != nil {
		logrus.Warnf("[REST] QoS rules of s%d: %s", sw, err.Error())
		return noData(sw, err.Error())
	}
	queues := qosQueueReply{}
	if err := c.do(ctx, http.MethodGet, qosQueuePath+dpid, nil, &queues); err != nil {
		logrus.Warnf("[REST] QoS queues of s%d: %s", sw, err.Error())
		return noData(sw, err.Error())
	}
	if len(rules) == 0 || len(rules[0].CommandResult) == 0 || len(rules[0].CommandResult[0].QoS) == 0 {
		return noData(sw, "no QoS rules defined")
	}
	if len(queues) == 0 || len(queues[0].CommandResult.Details) == 0 {
		return noData(sw, "no queues defined")
	}

	// the controller reports queues per port; only the first one is used
	ports := make([]string, 0, len(queues[0].CommandResult.Details))
	for port := range queues[0].CommandResult.Details {
		ports = append(ports, port)
	}
	slices.Sort(ports)
	portQueues := queues[0].CommandResult.Details[ports[0]]

	report := &QoSReport{SwitchID: sw}
	for i, rule := range rules[0].CommandResult[0].QoS {
		queueID := strconv.Itoa(i)
		if len(rule.Actions) > 0 && rule.Actions[0].Queue != "" {
			queueID = rule.Actions[0].Queue
		}
		q, found := portQueues[queueID]
		if !found {
			return noData(sw, fmt.Sprintf("queue %s of rule %s->%s is not defined", queueID, rule.NwSrc, rule.NwDst))
		}
		report.Rows = append(report.Rows, QoSRow{
			Source:      rule.NwSrc,
			Destination: rule.NwDst,
			Queue:       queueID,
			MaxRate:     q.Config["max-rate"],
		})
	}
	return report
}
