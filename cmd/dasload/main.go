// Command dasload fires many slave sends at a running das master and then asks
// it for the average.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ryandielhenn/das/internal/logging"
	"github.com/ryandielhenn/das/pkg/protocol"
	"github.com/ryandielhenn/das/pkg/slave"
	"github.com/ryandielhenn/das/pkg/transport"
)

func main() {
	host := flag.String("host", "127.0.0.1", "master address")
	port := flag.Int("port", 5000, "coordination port")
	n := flag.Int("n", 200, "values to send")
	conc := flag.Int("c", 16, "concurrency")
	maxVal := flag.Int64("max", 1000, "values are drawn from [1, max]")
	pacing := flag.Duration("pacing", 10*time.Millisecond, "pause after every send")
	verbose := flag.Bool("v", false, "log every send")
	flag.Parse()

	dst := net.ParseIP(*host)
	if dst == nil {
		fmt.Fprintf(os.Stderr, "invalid host %q\n", *host)
		os.Exit(1)
	}
	log := logging.New(*verbose)
	defer log.Sync()

	opts := transport.Options{Port: *port, Pacing: *pacing}
	if *verbose {
		opts.Logger = log
	}

	var (
		wg     sync.WaitGroup
		sum    atomic.Int64
		failed atomic.Int64
	)
	start := time.Now()
	ch := make(chan int, *conc)

	for i := 0; i < *n; i++ {
		wg.Add(1)
		ch <- 1
		go func() {
			defer wg.Done()
			defer func() { <-ch }()

			v := rand.Int63n(*maxVal) + 1
			conn, err := transport.Listen(0, opts)
			if err != nil {
				failed.Add(1)
				return
			}
			if err := slave.New(conn, dst, opts.Logger).Send(v); err != nil {
				failed.Add(1)
				return
			}
			sum.Add(v)
		}()
	}
	wg.Wait()
	dur := time.Since(start)

	conn, err := transport.Listen(0, opts)
	if err == nil {
		err = slave.New(conn, dst, log).Send(protocol.AverageRequest)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "average request:", err)
		os.Exit(1)
	}

	sent := int64(*n) - failed.Load()
	fmt.Printf("Sent %d values in %s (%.2f sends/s), %d failed\n", sent, dur, float64(sent)/dur.Seconds(), failed.Load())
	if sent > 0 {
		fmt.Printf("Mean of sent values: %d (master average also includes its seed)\n", sum.Load()/sent)
	}
}
