// Command chunky-echo is a small demo server built on chunky.Server:
// it echoes the request method, path, query, and headers, and streams
// the request body back chunked. It exists to exercise the dispatcher
// end to end, the way the teacher's httpx-echo exercised the client.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os/signal"
	"syscall"

	"github.com/shoestringhttp/chunkyhttp/chunky"
	"github.com/shoestringhttp/chunkyhttp/internal/obs"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	reuse := flag.Bool("reuseport", false, "bind with SO_REUSEPORT")
	flag.Parse()

	s := chunky.NewServer()
	s.SetLogger(obs.NewLogrusLogger(obs.Info))
	s.SetMeter(obs.NewGoMetricsMeter())

	s.HandleFunc("/", func(w chunky.ResponseWriter, r *chunky.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(200)
		fmt.Fprintf(w, "%s %s\n", r.Method, r.Path)
		for k, v := range r.Query {
			fmt.Fprintf(w, "query %s=%s\n", k, v)
		}
		for k, v := range r.Header {
			fmt.Fprintf(w, "header %s: %s\n", k, v)
		}
		if r.Method == "POST" || r.Method == "PUT" {
			fmt.Fprint(w, "body: ")
			io.Copy(w, r.Body)
			fmt.Fprintln(w)
		}
	})

	events := s.Events()
	go func() {
		for ev := range events.On(chunky.EventRequestFailed) {
			log.Printf("request failed: %v", ev.Args)
		}
	}()

	var ln net.Listener
	var err error
	if *reuse {
		ln, err = chunky.ListenReusePort("tcp", *addr)
	} else {
		ln, err = chunky.Listen("tcp", *addr)
	}
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("chunky-echo listening on %s (reuseport=%v)", *addr, *reuse)
	if err := s.Serve(ctx, ln); err != nil {
		log.Printf("serve exited: %v", err)
	}
}
