// Command demo runs the pool through the three scenarios the reference
// implementation shipped as standalone example programs: a bounded pool
// draining a burst of sleeping tasks (baseusage0), an unbounded pool doing
// the same (baseusage1), and a pool whose bounds are tightened mid-flight
// to watch it shrink back down (dynamicity).
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/ChuLiYu/dynapool/internal/logging"
	"github.com/ChuLiYu/dynapool/pkg/pool"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: demo <baseusage0|baseusage1|dynamicity>")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "baseusage0":
		baseUsage0()
	case "baseusage1":
		baseUsage1()
	case "dynamicity":
		dynamicity()
	default:
		fmt.Fprintf(os.Stderr, "unknown scenario %q\n", os.Args[1])
		os.Exit(1)
	}
}

// baseUsage0: pool starts at 0 workers, upper bound 5. Submit 20 tasks each
// sleeping 500-1500ms, then stop the pool after 8 seconds and wait for it
// to drain.
func baseUsage0() {
	fmt.Println("=========\nBaseUsage0\n")

	p := pool.New(0, pool.WithLogger(logging.New("info")))
	if err := p.SetUpperLimit(5); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for i := 0; i < 20; i++ {
		i := i
		delay := time.Duration(500+rand.Intn(1000)) * time.Millisecond
		_ = p.Submit(func() {
			time.Sleep(delay)
			fmt.Printf("Task  %d  done!\n", i)
		})
	}

	go func() {
		time.Sleep(8 * time.Second)
		p.Stop()
	}()

	p.Join()
	fmt.Println("\n\n==========\nTest done!")
}

// baseUsage1: pool is unbounded, so every task gets its own worker. Submit
// the same 20 tasks, then stop after 3 seconds regardless of completion,
// matching the reference program, which does not join before exiting.
func baseUsage1() {
	fmt.Println("=========\nBaseUsage1\n")

	p := pool.New(0, pool.WithLogger(logging.New("info")))

	for i := 0; i < 20; i++ {
		i := i
		delay := time.Duration(500+rand.Intn(1000)) * time.Millisecond
		_ = p.Submit(func() {
			time.Sleep(delay)
			fmt.Printf("Task  %d  done!\n", i)
		})
	}

	go func() {
		time.Sleep(3 * time.Second)
		p.Stop()
	}()

	fmt.Println("\n\n==========\nTest done!")
	time.Sleep(3500 * time.Millisecond)
}

// dynamicity: pool starts at 0 workers, submits 60 one-second tasks, and
// two seconds in clamps both bounds to 4 to watch the pool converge down to
// a steady four active workers before draining on stop.
func dynamicity() {
	fmt.Println("Hello user!\n")

	p := pool.New(0, pool.WithLogger(logging.New("info")))

	for i := 0; i < 60; i++ {
		i := i
		_ = p.Submit(func() {
			fmt.Printf("Pool size: %d\n", p.WorkersCount())
			time.Sleep(time.Second)
			fmt.Printf("End of task! %d\n", i)
		})
	}

	go func() {
		time.Sleep(2 * time.Second)
		fmt.Println("\n\n\nDecreasing")
		_ = p.SetUpperLimit(4)
		_ = p.SetLowerLimit(4)
	}()

	go func() {
		time.Sleep(8 * time.Second)
		fmt.Println("\n\n\nStopping")
		p.Stop()
	}()

	p.Join()
	fmt.Println("\n\nBye bye!")
}
