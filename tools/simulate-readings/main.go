// Command simulate-readings posts synthetic sensor readings to the
// ingest endpoint at a fixed interval, for local development.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

type reading struct {
	EquipmentID string    `json:"equipment_id"`
	Value       float64   `json:"value"`
	Timestamp   time.Time `json:"timestamp"`
}

type batch struct {
	Readings []reading `json:"readings"`
}

func main() {
	var (
		url       = flag.String("url", "http://localhost:8080/ingest/readings", "ingest endpoint")
		equipment = flag.String("equipment", "", "comma-separated equipment ids")
		interval  = flag.Duration("interval", 10*time.Second, "posting interval")
		base      = flag.Float64("base", 60, "base value")
		spread    = flag.Float64("spread", 20, "random spread around the base value")
		once      = flag.Bool("once", false, "post one batch and exit")
	)
	flag.Parse()

	ids := splitCSV(*equipment)
	if len(ids) == 0 {
		log.Fatal("simulate-readings: -equipment is required")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	post := func() {
		b := batch{Readings: make([]reading, 0, len(ids))}
		now := time.Now().UTC()
		for _, id := range ids {
			b.Readings = append(b.Readings, reading{
				EquipmentID: id,
				Value:       *base + (rng.Float64()-0.5)*(*spread),
				Timestamp:   now,
			})
		}
		body, err := json.Marshal(b)
		if err != nil {
			log.Printf("marshal error: %v", err)
			return
		}
		resp, err := client.Post(*url, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("post error: %v", err)
			return
		}
		defer resp.Body.Close()
		fmt.Printf("%s posted %d readings: %s\n", now.Format(time.RFC3339), len(b.Readings), resp.Status)
	}

	post()
	if *once {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			post()
		}
	}
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
