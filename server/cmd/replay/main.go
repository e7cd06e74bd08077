package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/automoto/driftline/server/core"
)

func main() {
	object := flag.Int("object", -1, "Print every tick of this network id instead of a summary")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: replay [-object id] session-<id>.jsonl.zst")
		os.Exit(2)
	}

	frames, err := core.ReadRecording(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	if len(frames) == 0 {
		log.Fatalf("%s: no frames", flag.Arg(0))
	}

	if *object >= 0 {
		for _, f := range frames {
			for _, o := range f.Objects {
				if int(o.NetworkID) == *object {
					fmt.Printf("%d\t%.4f %.4f %.4f\t%.4f %.4f %.4f\n", f.Tick,
						o.Location[0], o.Location[1], o.Location[2],
						o.Velocity[0], o.Velocity[1], o.Velocity[2])
				}
			}
		}
		return
	}

	first, last := frames[0], frames[len(frames)-1]
	maxClients := 0
	for _, f := range frames {
		maxClients = max(maxClients, f.Clients)
	}
	fmt.Printf("ticks %d..%d (%d frames), up to %d clients\n", first.Tick, last.Tick, len(frames), maxClients)
	for _, o := range last.Objects {
		fmt.Printf("object %d: loc %.3f %.3f %.3f  vel %.3f %.3f %.3f\n", o.NetworkID,
			o.Location[0], o.Location[1], o.Location[2],
			o.Velocity[0], o.Velocity[1], o.Velocity[2])
	}
}
