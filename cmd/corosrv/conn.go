package main

import (
	"log"

	"github.com/loopwire/corosrv/combix"
	"github.com/loopwire/corosrv/eventloop"
	"github.com/loopwire/corosrv/httpcoro"
	"github.com/loopwire/corosrv/netio"
	"github.com/loopwire/corosrv/task"
)

// connStore spawns one background task per accepted connection, the Go
// analog of the original program's handle_request/spawn_task pair.
type connStore struct {
	store combix.Store
}

func (c *connStore) spawn(loop *eventloop.Loop, router *httpcoro.Router, conn *netio.File) {
	f := task.Spawn("connection", func(cc *task.Ctx) (any, error) {
		return nil, handleConnection(cc, loop, router, conn)
	})
	c.store.Add(f)
}

// handleConnection mirrors handle_request: read one framed request,
// route it, write back exactly one framed response, and close the
// connection. Per §7's policy, malformed requests and handler errors are
// swallowed here — the per-connection failure boundary — rather than
// propagated to the accept loop.
func handleConnection(c *task.Ctx, loop *eventloop.Loop, router *httpcoro.Router, conn *netio.File) (err error) {
	defer conn.Close()
	defer func() {
		if err != nil {
			log.Printf("corosrv: connection error: %v", err)
			err = nil
		}
	}()

	bufSize := loop.Config.StreamBufferSize
	reader := netio.NewReader(c, loop.Reactor, conn, bufSize)
	writer := netio.NewWriter(c, loop.Reactor, conn, bufSize)

	req, perr := httpcoro.ParseRequest(reader)
	if perr != nil {
		return perr
	}

	var resp *httpcoro.Response
	if handler := router.Find(req.Method, req.Target); handler != nil {
		resp, err = handler(req)
		if err != nil {
			resp = errorResponse(500)
		}
	} else {
		resp = notFoundResponse()
	}

	return httpcoro.SerializeResponse(writer, resp)
}

func notFoundResponse() *httpcoro.Response {
	res := httpcoro.NewResponse(404)
	res.Header.Set("Content-Type", "application/json")
	res.Body = []byte(`{"message": "Cannot find a route."}`)
	return res
}

func errorResponse(status int) *httpcoro.Response {
	res := httpcoro.NewResponse(status)
	res.Header.Set("Content-Type", "application/json")
	res.Body = []byte(`{"message": "Internal error."}`)
	return res
}
