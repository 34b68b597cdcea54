// Package chunky implements the core of a compact HTTP/1.1 server: a
// per-connection transaction engine that parses a request, streams
// request and response bodies (including chunked transfer-encoding),
// and manages connection keep-alive.
//
// The engine is exposed two ways: as Transaction, a low-level
// stream-oriented abstraction usable over any Transport (plain TCP or
// TLS), and as Server, a minimal dispatcher that routes by exact URI
// path to user-supplied Handlers.
//
// Quick start:
//
//	s := chunky.NewServer()
//	s.HandleFunc("/", func(w chunky.ResponseWriter, r *chunky.Request) {
//	    w.Header().Set("Content-Type", "text/plain; charset=utf-8")
//	    w.WriteHeader(200)
//	    w.Write([]byte("hello"))
//	})
//	ln, err := chunky.Listen("tcp", ":8080")
//	if err != nil { log.Fatal(err) }
//	if err := s.Serve(context.Background(), ln); err != nil { log.Fatal(err) }
package chunky
