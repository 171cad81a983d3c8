package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sdn-slicing/slice_console/core"
	"github.com/sdn-slicing/slice_console/core/model"
	"github.com/sdn-slicing/slice_console/core/net"
	"github.com/sdn-slicing/slice_console/core/slice"
	"github.com/sirupsen/logrus"
)

const usage = `usage: slicectl [-cfg file] [-controller addr] <command> [flags]

commands:
  links       print every link of the mesh with its identity
  compile     build a slice plan and print the submission body
  submit      build a slice plan and submit it
  list        list the controller's slices
  activate    activate a slice (-id)
  deactivate  deactivate the active slice
  delete      delete a slice (-id)
  topology    print the links of the slice currently applied
  qos         print the QoS rules of a switch (-switch)
  probe       classify a probe packet against a plan's reservations
  health      check a console daemon's health endpoint
`

type cli struct {
	cfg      *model.BinRootConfig
	topology *model.Topology
	rest     *net.RestClient
}

func main() {
	var cfgFp string
	var controllerAddr string

	flag.StringVar(&cfgFp, "cfg", "", "Console configuration file path")
	flag.StringVar(&controllerAddr, "controller", "", "Slicing controller address (overrides controller.address)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	logrus.SetLevel(logrus.WarnLevel)

	cfg, err := model.ReadConfigFile(cfgFp)
	if err != nil {
		logrus.Fatal(err)
	}
	if controllerAddr != "" {
		cfg.Controller.Address = controllerAddr
	}
	topology, err := model.NewMeshTopology(cfg.TopologySize)
	if err != nil {
		logrus.Fatal(err)
	}
	c := &cli{
		cfg:      cfg,
		topology: topology,
		rest:     net.NewRestClient(cfg.Controller.Address, cfg.Controller.Timeout),
	}

	commands := map[string]func(context.Context, []string) error{
		"links":      c.links,
		"compile":    c.compile,
		"submit":     c.submit,
		"list":       c.list,
		"activate":   c.activate,
		"deactivate": c.deactivate,
		"delete":     c.delete,
		"topology":   c.sliceTopology,
		"qos":        c.qos,
		"probe":      c.probe,
		"health":     c.health,
	}
	name := flag.Arg(0)
	cmd, found := commands[name]
	if !found {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		flag.Usage()
		os.Exit(2)
	}
	if err := cmd(context.Background(), flag.Args()[1:]); err != nil {
		logrus.Fatal(err)
	}
}

func (c *cli) links(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("links", flag.ExitOnError)
	fs.Parse(args)
	for _, e := range c.topology.Edges() {
		id, err := c.topology.LinkIdentity(e)
		if err != nil {
			return err
		}
		classes, err := c.topology.RenderClasses(e)
		if err != nil {
			return err
		}
		fmt.Printf("%-8s %-8s %s\n", e, id, classes)
	}
	return nil
}

func (c *cli) buildPlan(planFp string) (*slice.Session, *slice.Submission, error) {
	if planFp == "" {
		return nil, nil, fmt.Errorf("a plan file is required (-plan)")
	}
	plan, err := slice.ReadPlan(planFp)
	if err != nil {
		return nil, nil, err
	}
	return plan.Build(c.topology)
}

func (c *cli) compile(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	planFp := fs.String("plan", "", "Slice plan file path")
	fs.Parse(args)

	_, sub, err := c.buildPlan(*planFp)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func (c *cli) submit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	planFp := fs.String("plan", "", "Slice plan file path")
	fs.Parse(args)

	_, sub, err := c.buildPlan(*planFp)
	if err != nil {
		return err
	}
	if err := c.rest.SubmitSlice(ctx, sub); err != nil {
		return err
	}
	fmt.Printf("slice %s submitted\n", sub.Name)
	return nil
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Parse(args)

	listing, err := c.rest.ListSlices(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%-4s %-12s %s\n", "ID", "ACTIVE-PORTS", "QOS-RULES")
	for _, s := range listing.Summaries() {
		fmt.Printf("%-4d %-12d %d\n", s.ID, s.ActivePorts, s.QoSRules)
	}
	return nil
}

func sliceIDFlag(name string, args []string) (int, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	id := fs.Int("id", 0, "Slice id (1-based)")
	fs.Parse(args)
	if *id == 0 {
		return 0, fmt.Errorf("a slice id is required (-id)")
	}
	return *id, nil
}

func (c *cli) activate(ctx context.Context, args []string) error {
	id, err := sliceIDFlag("activate", args)
	if err != nil {
		return err
	}
	if err := c.rest.ActivateSlice(ctx, id); err != nil {
		return err
	}
	fmt.Printf("slice %d activated\n", id)
	return nil
}

func (c *cli) deactivate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("deactivate", flag.ExitOnError)
	fs.Parse(args)
	if err := c.rest.DeactivateSlice(ctx); err != nil {
		return err
	}
	fmt.Println("slices deactivated")
	return nil
}

func (c *cli) delete(ctx context.Context, args []string) error {
	id, err := sliceIDFlag("delete", args)
	if err != nil {
		return err
	}
	if err := c.rest.DeleteSlice(ctx, id); err != nil {
		return err
	}
	fmt.Printf("slice %d deleted\n", id)
	return nil
}

func (c *cli) sliceTopology(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("topology", flag.ExitOnError)
	fs.Parse(args)

	table, err := c.rest.SliceTopology(ctx)
	if err != nil {
		return err
	}
	sync := core.NewLinkSynchronizer(c.topology)
	for _, id := range sync.Apply(table) {
		edge, err := c.topology.EdgeFromIdentity(id)
		if err != nil {
			return err
		}
		fmt.Printf("%-8s %s\n", id, edge)
	}
	return nil
}

func (c *cli) qos(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("qos", flag.ExitOnError)
	sw := fs.Uint("switch", 0, "Switch index")
	fs.Parse(args)
	if *sw == 0 {
		return fmt.Errorf("a switch is required (-switch)")
	}

	report := c.rest.QoSDetails(ctx, uint16(*sw))
	if report.NoData {
		fmt.Printf("No QoS rules defined on switch %d (%s)\n", *sw, report.Reason)
		return nil
	}
	fmt.Printf("QoS rules defined on switch %d\n", *sw)
	fmt.Printf("%-12s %-12s %-6s %s\n", "SRC", "DST", "QUEUE", "MAX-RATE")
	for _, row := range report.Rows {
		fmt.Printf("%-12s %-12s %-6s %s bps\n", row.Source, row.Destination, row.Queue, row.MaxRate)
	}
	return nil
}

func (c *cli) probe(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	planFp := fs.String("plan", "", "Slice plan file path")
	src := fs.String("src", "", "Source host, e.g. h1")
	dst := fs.String("dst", "", "Destination host, e.g. h2")
	fs.Parse(args)

	session, _, err := c.buildPlan(*planFp)
	if err != nil {
		return err
	}
	srcNode, err := model.ParseNode(*src)
	if err != nil {
		return err
	}
	dstNode, err := model.ParseNode(*dst)
	if err != nil {
		return err
	}
	frame, err := slice.BuildProbe(srcNode, dstNode, []byte("slicectl"))
	if err != nil {
		return err
	}

	// reservations sit on the switch nearest the destination host
	for _, r := range session.Reservations() {
		if r.SwitchID != dstNode.Index {
			continue
		}
		if queue, ok := r.ClassifyBytes(frame); ok {
			fmt.Printf("%s -> %s: queue %s on %s\n", srcNode, dstNode, queue, r.PortName)
			return nil
		}
	}
	fmt.Printf("%s -> %s: no reservation, default queue\n", srcNode, dstNode)
	return nil
}

func (c *cli) health(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", c.cfg.HealthAddress, "Console health endpoint address")
	fs.Parse(args)

	pool, err := net.NewHealthConnPool(*addr, 5*time.Second)
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Controller.Timeout)
	defer cancel()
	status, err := net.CheckHealth(ctx, pool)
	if err != nil {
		return err
	}
	fmt.Println(strings.ToLower(status.String()))
	return nil
}
