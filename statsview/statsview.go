// Package statsview serves runtime statistics over HTTP while the emulator
// runs. Charts are at Address+URL and pprof data under /debug/pprof/.
package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Address is the default listen address.
const Address = "localhost:12600"

// URL is the path of the charts page.
const URL = "/debug/statsview"

// Launch starts the stats server on addr in a new goroutine and reports where
// it can be reached. An empty addr uses Address.
func Launch(output io.Writer, addr string) string {
	if addr == "" {
		addr = Address
	}
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()

	location := PageURL(addr)
	fmt.Fprintf(output, "stats server available at %s\n", location)
	return location
}

// PageURL returns the charts page for a server listening on addr.
func PageURL(addr string) string {
	return "http://" + addr + URL
}
