// Command smoke probes a deployed API instance and verifies that each
// configured endpoint answers with the expected status and, for JSON
// endpoints, the standard response envelope. Intended for post-deploy
// checks in CI; exits non-zero when a critical probe fails.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type probe struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	ExpectStatus int    `json:"expectStatus"`
	Envelope     bool   `json:"envelope"`
	Auth         bool   `json:"auth"`
	Critical     bool   `json:"critical"`
}

type config struct {
	Probes []probe `json:"probes"`
}

type result struct {
	Probe    probe
	Status   int
	Pass     bool
	Error    error
	Duration time.Duration
}

func main() {
	var (
		baseURL    string
		probesPath string
		token      string
		timeout    time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&probesPath, "probes", filepath.Join("scripts", "smoke", "probes.json"), "Path to JSON probes file")
	flag.StringVar(&token, "token", os.Getenv("SMOKE_TOKEN"), "Bearer token for authenticated probes")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	probes, err := loadProbes(probesPath)
	if err != nil {
		log.Fatalf("failed to load probes: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results  []result
		breaking int
		warnings int
	)

	for _, p := range probes {
		res := runProbe(client, baseURL, token, p)
		if !res.Pass {
			if p.Critical {
				breaking++
			} else {
				warnings++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Critical failures: %d, Warnings: %d\n", breaking, warnings)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadProbes(path string) ([]probe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Probes) == 0 {
		return nil, fmt.Errorf("no probes defined in %s", path)
	}
	return cfg.Probes, nil
}

func runProbe(client *http.Client, base, token string, p probe) result {
	res := result{Probe: p}

	method := strings.ToUpper(strings.TrimSpace(p.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := p.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		res.Error = err
		return res
	}
	if p.Auth {
		if token == "" {
			res.Error = fmt.Errorf("probe requires auth but no token provided")
			return res
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	expect := p.ExpectStatus
	if expect == 0 {
		expect = http.StatusOK
	}
	if res.Status != expect {
		res.Error = fmt.Errorf("expected status %d, got %d", expect, res.Status)
		return res
	}

	if p.Envelope {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			res.Error = fmt.Errorf("read body: %w", err)
			return res
		}
		if err := checkEnvelope(body); err != nil {
			res.Error = err
			return res
		}
	}

	res.Pass = true
	return res
}

// checkEnvelope verifies the standard {"success": bool, ...} response shape.
func checkEnvelope(body []byte) error {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("body is not a JSON object: %w", err)
	}
	raw, ok := payload["success"]
	if !ok {
		return fmt.Errorf("envelope missing success field")
	}
	var success bool
	if err := json.Unmarshal(raw, &success); err != nil {
		return fmt.Errorf("envelope success field is not boolean: %w", err)
	}
	return nil
}

func printReport(results []result) {
	fmt.Println("Smoke Check Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "OK"
		if !res.Pass {
			if res.Probe.Critical {
				status = "FAIL"
			} else {
				status = "WARN"
			}
		}
		fmt.Printf("[%s] %s %s (%s)\n", status, res.Probe.Method, res.Probe.Path, res.Duration)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		}
	}
}
