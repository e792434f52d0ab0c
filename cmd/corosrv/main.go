// Command corosrv runs the example HTTP server: a thin cobra CLI around
// the task/timer/reactor/eventloop runtime and the httpcoro codec,
// grounded on the original program's main().
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/loopwire/corosrv/eventloop"
	"github.com/loopwire/corosrv/httpcoro"
	"github.com/loopwire/corosrv/netio"
	"github.com/loopwire/corosrv/task"
)

func main() {
	root := &cobra.Command{
		Use:   "corosrv",
		Short: "A single-threaded cooperative HTTP/1.1 server.",
		RunE:  run,
	}
	if err := root.Execute(); err != nil {
		log.Printf("corosrv: %v", err)
		os.Exit(1)
	}
}

func exampleRouter() *httpcoro.Router {
	rt := httpcoro.NewRouter()
	_ = rt.Route("GET", "/", func(*httpcoro.Request) (*httpcoro.Response, error) {
		res := httpcoro.NewResponse(302)
		res.Header.Set("Location", "/home/")
		return res, nil
	})
	_ = rt.Route("GET", "/home/", func(*httpcoro.Request) (*httpcoro.Response, error) {
		res := httpcoro.NewResponse(200)
		res.Header.Set("Content-Type", "text/html")
		res.Body = []byte("<h1>Hello, World!</h1>")
		return res, nil
	})
	return rt
}

// bindFirstFree tries each port in [start, end] in turn, the way the
// original program retries with a fresh socket on every failed bind.
func bindFirstFree(start, end, backlog int) (*netio.File, int, error) {
	for port := start; port <= end; port++ {
		f, err := netio.Listen([4]byte{0, 0, 0, 0}, port, backlog)
		if err == nil {
			return f, port, nil
		}
	}
	return nil, 0, fmt.Errorf("corosrv: no free port in [%d, %d]", start, end)
}

func run(cmd *cobra.Command, args []string) error {
	loop, err := eventloop.New()
	if err != nil {
		return fmt.Errorf("corosrv: build loop: %w", err)
	}
	defer loop.Close()

	listener, port, err := bindFirstFree(loop.Config.PortRangeStart, loop.Config.PortRangeEnd, loop.Config.Backlog)
	if err != nil {
		return err
	}
	defer listener.Close()
	log.Printf("corosrv: listening on port %d", port)

	router := exampleRouter()
	conns := &connStore{}

	entry := task.Spawn("accept-loop", func(c *task.Ctx) (any, error) {
		for {
			conn, err := netio.Accept(c, loop.Reactor, listener)
			if err != nil {
				return nil, fmt.Errorf("corosrv: accept: %w", err)
			}
			conns.spawn(loop, router, conn)
		}
	})

	_, err = loop.Run(entry)
	if err != nil {
		return fmt.Errorf("corosrv: %w", err)
	}
	return nil
}
