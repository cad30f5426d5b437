package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	targetURL   string
	concurrency int
	duration    time.Duration
	decisionIDs string
	workload    string
)

var (
	totalRequests uint64
	success200    uint64
	historyRows   uint64 // responses that carried a history_id
	fail404       uint64
	failOther     uint64
)

var cadences = []string{"one_time", "monthly", "quarterly", "annual"}

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&decisionIDs, "decisions", "", "Comma separated decision ids to update")
	flag.StringVar(&workload, "workload", "hotspot", "Workload type: uniform | hotspot")
}

func main() {
	flag.Parse()

	targets, err := parseIDs(decisionIDs)
	if err != nil || len(targets) == 0 {
		log.WithError(err).Fatal("at least one valid -decisions id is required")
	}
	log.WithFields(log.Fields{
		"workload": workload,
		"workers":  concurrency,
		"duration": duration,
		"targets":  len(targets),
	}).Info("starting benchmark")

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, targets)
	}
	wg.Wait()

	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time, targets []uuid.UUID) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}
	actor := uuid.New()

	for time.Since(start) < duration {
		id := pickTarget(targets)
		payload := map[string]any{
			"amount":  fmt.Sprintf("%d.%02d", 1+rand.Intn(500), rand.Intn(100)),
			"cadence": cadences[rand.Intn(len(cadences))],
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest(http.MethodPatch, targetURL+"/api/v1/decisions/"+id.String(), bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", actor.String())

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case http.StatusOK:
			atomic.AddUint64(&success200, 1)
			var out struct {
				HistoryID *uuid.UUID `json:"history_id"`
			}
			if json.NewDecoder(resp.Body).Decode(&out) == nil && out.HistoryID != nil {
				atomic.AddUint64(&historyRows, 1)
			}
		case http.StatusNotFound:
			atomic.AddUint64(&fail404, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

// pickTarget sends 90% of hotspot traffic to the first decision, which
// maximizes contention on its row lock.
func pickTarget(targets []uuid.UUID) uuid.UUID {
	if workload == "hotspot" && rand.Float32() < 0.90 {
		return targets[0]
	}
	return targets[rand.Intn(len(targets))]
}

func parseIDs(raw string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range bytes.Split([]byte(raw), []byte(",")) {
		part = bytes.TrimSpace(part)
		if len(part) == 0 {
			continue
		}
		id, err := uuid.ParseBytes(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	ok := atomic.LoadUint64(&success200)
	rows := atomic.LoadUint64(&historyRows)
	f404 := atomic.LoadUint64(&fail404)
	fErr := atomic.LoadUint64(&failOther)

	results := map[string]any{
		"workload":       workload,
		"duration_sec":   d.Seconds(),
		"total_requests": total,
		"throughput_tps": float64(total) / d.Seconds(),
		"success":        ok,
		"history_rows":   rows,
		"not_found":      f404,
		"errors":         fErr,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	filename := fmt.Sprintf("results_%s.json", workload)
	file, err := os.Create(filename)
	if err != nil {
		log.WithError(err).Warn("results file not written")
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
