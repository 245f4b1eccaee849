// docchat-stub is the standalone build of the development stub backend,
// for running it without the docchat binary around.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"docchat/internal/stub"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	latency := flag.Duration("latency", 0, "injected response delay")
	flag.Parse()

	srv := stub.NewServer(stub.Config{Latency: *latency})

	fmt.Printf("Stub backend listening on %s\n", *addr)
	if err := http.ListenAndServe(*addr, srv.Router()); err != nil {
		log.Fatal(err)
	}
}
