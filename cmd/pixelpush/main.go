package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"

	"pixelmirror/pkg/ingest"
)

var addr = flag.StringP("addr", "a", "http://127.0.0.1:9123", "ingest api addr")
var timeout = flag.Duration("timeout", 30*time.Second, "request timeout")
var status = flag.Bool("status", false, "print the mirror status")
var clearMirror = flag.Bool("clear", false, "forget the current mirror")

// pixelpush sends a raw RGB canvas dump (a file, or stdin) to a running
// pixelmirror.
func main() {
	flag.Parse()

	c := ingest.NewClient(*addr, *timeout)
	ctx := context.Background()

	switch {
	case *status:
		st, err := c.Status(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("mirror %s ready=%t canvas %s\n", st.Identity, st.Ready, st.Canvas)
	case *clearMirror:
		if err := c.Clear(ctx); err != nil {
			log.Fatal(err)
		}
	default:
		buf, err := read(flag.Arg(0))
		if err != nil {
			log.Fatal(err)
		}

		ret, err := c.Push(ctx, buf)
		if err != nil {
			log.Fatal(err)
		}

		if ret.Updated {
			fmt.Printf("updated, %s sent\n", ret.Size)
		} else {
			fmt.Println("no mirror yet, run startmirror first")
		}
	}
}

func read(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return afero.ReadFile(afero.NewOsFs(), path)
}
