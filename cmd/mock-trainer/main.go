package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/shpitdev/synthgen/internal/mocktrainer"
)

func main() {
	_ = godotenv.Load()

	addr := defaultString("MOCK_TRAINER_ADDR", ":8081")
	token := defaultString("MOCK_TRAINER_TOKEN", "")
	seedRaw := defaultString("MOCK_TRAINER_SEED", "1")

	fs := flag.NewFlagSet("mock-trainer", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	fs.StringVar(&token, "token", token, "Bearer token required on every request; empty disables auth")
	fs.StringVar(&seedRaw, "seed", seedRaw, "Sampling seed")
	_ = fs.Parse(os.Args[1:])

	seed, err := strconv.ParseUint(seedRaw, 10, 64)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid seed %q: %v\n", seedRaw, err)
		os.Exit(2)
	}

	srv := mocktrainer.New(seed)
	if token != "" {
		srv.RequireBearerToken(token)
	}

	_, _ = fmt.Fprintf(os.Stdout, "mock-trainer listening on %s (auth=%t seed=%d)\n", addr, token != "", seed)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
