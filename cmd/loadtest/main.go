package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codewandler/coerce-go/adapters/nats"
	"github.com/codewandler/coerce-go/core/actor"
	"github.com/codewandler/coerce-go/core/app"
	"github.com/codewandler/coerce-go/core/remote"
	"github.com/codewandler/coerce-go/core/transport"
)

// === Config ===

// NOTE: run nats: docker run --net=host nats:latest

var (
	logLevel    = slog.LevelInfo
	N           = getEnvInt("N", 100_000)
	C           = getEnvInt("C", 8)
	batchSize   = getEnvInt("B", 10_000)
	backendType = getEnv("BACKEND", "local")
	codecName   = getEnv("CODEC", "json")
	mailboxSize = getEnvInt("MAILBOX", 256)
)

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

// === Domain ===

type (
	Counter struct{ Value int }

	Incr struct {
		By int `json:"by" msgpack:"by"`
	}
)

func (m Incr) Handle(_ actor.HandlerCtx, c *Counter) (int, error) {
	c.Value += m.By
	return c.Value, nil
}

// sendFunc delivers one Incr and returns the counter value.
type sendFunc func(ctx context.Context) (int, error)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	fmt.Printf("Backend: %s\n", backendType)
	fmt.Printf("  Codec: %s\n", codecName)
	fmt.Printf("      N: %d\n", N)
	fmt.Printf("      C: %d\n", C)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	a, send := createApp(ctx, log)
	defer func() {
		checkErr(a.Shutdown(context.Background()))
	}()

	// === START ===

	log.Info("==================================")
	log.Info("Starting ...")

	var (
		startAt  = time.Now()
		lastTime atomic.Int64
		done     atomic.Int64
	)
	lastTime.Store(startAt.UnixNano())

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < C; w++ {
		n := N / C
		if w < N%C {
			n++
		}
		g.Go(func() error {
			for i := 0; i < n; i++ {
				v, err := send(gctx)
				if err != nil {
					return err
				}
				if v <= 0 {
					return fmt.Errorf("unexpected counter value %d", v)
				}
				progress(done.Add(1), &lastTime)
			}
			return nil
		})
	}
	checkErr(g.Wait())

	last, err := send(ctx)
	checkErr(err)

	// === stats ===
	println("")
	println("==========================================")

	took := time.Since(startAt)
	runtime.GC()
	mu := getMemUsage()

	fmt.Printf("total runtime: %.3f seconds\n", took.Seconds())
	fmt.Printf("  final value: %d\n", last)
	fmt.Printf("  avg. msgs/s: %d\n", int(float64(N)/took.Seconds()))
	fmt.Printf("   mem (heap): %d MiB\n", mu.Alloc/1024/1024)
	fmt.Printf("    gc cycles: %d\n", mu.NumGC)
}

func progress(i int64, lastTime *atomic.Int64) {
	if i%int64(batchSize/10+1) == 0 {
		print(".")
	}
	if i%int64(batchSize) != 0 {
		return
	}
	mu := getMemUsage()
	n := time.Now()
	took := n.Sub(time.Unix(0, lastTime.Swap(n.UnixNano())))
	fmt.Printf(" | %6d msgs | %6d ms | %8d msgs/s | (%d / %d) MiB mem (sys) |\n", batchSize, took.Milliseconds(), int(float64(batchSize)/took.Seconds()), mu.Alloc/1024/1024, mu.Sys/1024/1024)
}

// === App ===

func createApp(ctx context.Context, log *slog.Logger) (*app.App, sendFunc) {
	cfg := app.Config{
		Context: ctx,
		Log:     log,
		NodeID:  "loadtest",
		Actor:   app.ActorConfig{MailboxSize: mailboxSize},
		Remote:  app.RemoteConfig{Codec: codecName},
	}

	switch backendType {
	case "nats":
		tr, err := nats.NewTransport(nats.TransportConfig{
			Connect:       nats.ConnectDefault(),
			Log:           log,
			SubjectPrefix: "coerce.loadtest",
		})
		checkErr(err)
		cfg.Transport = tr
	case "mem", "local":
		cfg.Transport = transport.NewInMemoryTransport(transport.MemoryTransportOpts{Log: log})
	default:
		checkErr(fmt.Errorf("unknown backend %q", backendType))
	}

	a, err := app.Run(cfg, remote.Handle[*Counter, int, Incr]("loadtest.incr"))
	checkErr(err)

	ref, err := actor.NewActor(ctx, a.ActorContext(), &Counter{})
	checkErr(err)

	if backendType == "local" {
		return a, func(ctx context.Context) (int, error) {
			return actor.Send[int](ctx, ref, Incr{By: 1})
		}
	}

	rref := remote.Remote[*Counter](a.Client(), a.NodeID(), ref.ID())
	return a, func(ctx context.Context) (int, error) {
		return remote.Send[int](ctx, rref, Incr{By: 1})
	}
}

// === stats helpers ===

type MemUsage struct {
	Alloc      uint64 // bytes allocated and not yet freed (heap)
	TotalAlloc uint64 // cumulative bytes allocated
	Sys        uint64 // total bytes obtained from OS
	NumGC      uint32 // gc cycles
}

func getMemUsage() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// === Helpers ===

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}
