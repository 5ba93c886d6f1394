package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// The simulator drives concurrent claim traffic against a running API server
// and checks at the end that no slot was claimed successfully more than once.

type SimConfig struct {
	APIBaseURL string
	Workers    int
	Attempts   int
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, status int) {
	om.mu.Lock()
	defer om.mu.Unlock()

	om.Total++
	switch {
	case status == http.StatusCreated:
		om.Success++
	case status == http.StatusConflict:
		om.Conflict++
	default:
		om.Error++
	}
	om.Latencies = append(om.Latencies, latency)
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)/2]
	p95 = latencies[len(latencies)*95/100]
	return avg, p50, p95
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := SimConfig{
		APIBaseURL: getenv("API_BASE_URL", "http://127.0.0.1:8080"),
		Workers:    getint("SIM_WORKERS", 16),
		Attempts:   getint("SIM_ATTEMPTS", 200),
	}

	gofakeit.Seed(time.Now().UnixNano())
	client := &http.Client{Timeout: 10 * time.Second}

	log.Printf("registering %d simulated patients", cfg.Workers)
	tokens := make([]string, cfg.Workers)
	for i := range tokens {
		token, err := registerPatient(client, cfg.APIBaseURL)
		if err != nil {
			log.Fatalf("register patient: %v", err)
		}
		tokens[i] = token
	}

	slots, err := fetchSlots(client, cfg.APIBaseURL)
	if err != nil {
		log.Fatalf("fetch slots: %v", err)
	}
	if len(slots) == 0 {
		log.Fatal("no available slots, run the seed first")
	}
	log.Printf("found %d available slots, starting %d workers for %d attempts", len(slots), cfg.Workers, cfg.Attempts)

	var (
		om       OperationMetrics
		claimsMu sync.Mutex
		claims   = map[string]int{} // slot id -> successful claims
		wg       sync.WaitGroup
		work     = make(chan struct{})
	)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			for range work {
				slotID := slots[rand.Intn(len(slots))]
				start := time.Now()
				status, err := attemptClaim(client, cfg.APIBaseURL, token, slotID)
				if err != nil {
					om.Record(time.Since(start), 0)
					continue
				}
				om.Record(time.Since(start), status)
				if status == http.StatusCreated {
					claimsMu.Lock()
					claims[slotID]++
					claimsMu.Unlock()
				}
			}
		}(tokens[i])
	}

	for i := 0; i < cfg.Attempts; i++ {
		work <- struct{}{}
	}
	close(work)
	wg.Wait()

	avg, p50, p95 := om.Stats()
	fmt.Printf("attempts=%d success=%d conflict=%d error=%d\n", om.Total, om.Success, om.Conflict, om.Error)
	fmt.Printf("latency avg=%s p50=%s p95=%s\n", avg, p50, p95)

	doubles := 0
	for slotID, n := range claims {
		if n > 1 {
			doubles++
			fmt.Printf("INVARIANT VIOLATION: slot %s claimed %d times\n", slotID, n)
		}
	}
	if doubles == 0 {
		fmt.Println("invariant held: no slot claimed more than once")
	} else {
		os.Exit(1)
	}
}

func registerPatient(client *http.Client, baseURL string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"name":     gofakeit.Name(),
		"email":    fmt.Sprintf("sim-%d-%s", time.Now().UnixNano(), gofakeit.Email()),
		"password": gofakeit.Password(true, true, true, false, false, 12),
	})

	for {
		resp, err := client.Post(baseURL+"/api/register", "application/json", bytes.NewReader(body))
		if err != nil {
			return "", err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			// The auth endpoints are rate limited per IP; back off and retry.
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			time.Sleep(5 * time.Second)
			continue
		}

		if resp.StatusCode != http.StatusCreated {
			data, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, data)
		}

		var parsed struct {
			Token string `json:"token"`
		}
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		_ = resp.Body.Close()
		if err != nil {
			return "", err
		}
		return parsed.Token, nil
	}
}

func fetchSlots(client *http.Client, baseURL string) ([]string, error) {
	resp, err := client.Get(baseURL + "/api/slots/next-week")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var parsed struct {
		Slots []struct {
			ID string `json:"id"`
		} `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(parsed.Slots))
	for _, s := range parsed.Slots {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func attemptClaim(client *http.Client, baseURL, token, slotID string) (int, error) {
	body, _ := json.Marshal(map[string]string{"slot_id": slotID})

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/book", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
