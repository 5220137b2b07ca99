// +build ignore

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Manual smoke tool: posts a single tile request to a running instance.
//
// Usage:
//   go run scripts/smoke_tile.go -url http://localhost:8080 -x 4480 -y 2725

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Service base URL")
	x := flag.Int("x", 4480, "Tile X at zoom 13")
	y := flag.Int("y", 2725, "Tile Y at zoom 13")
	flag.Parse()

	body := map[string]interface{}{
		"tile": map[string]int{"z": 13, "x": *x, "y": *y},
		"factors": []map[string]interface{}{
			{"id": "grocery", "weight": 100, "maxDistance": 500, "enabled": true},
			{"id": "park", "weight": 60, "maxDistance": 800, "enabled": true},
		},
		"scoringParams": map[string]interface{}{
			"distanceCurve": "linear",
			"sensitivity":   1.0,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		log.Fatalf("Failed to marshal request: %v", err)
	}

	client := &http.Client{Timeout: 60 * time.Second}

	start := time.Now()
	resp, err := client.Post(*baseURL+"/api/heatmap-tile", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	fmt.Printf("Status: %d (took %s)\n", resp.StatusCode, time.Since(start))
	fmt.Printf("Body (first 1 KiB): %s\n", data)
}
