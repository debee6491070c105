// Command shadow_audit compares the records the live API serves with the
// flat-file shadow copies on disk. Run it against a healthy primary: any
// drift it reports is data the fallback tier would serve stale after an
// outage.
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

type entity struct {
	name     string
	path     string
	file     string
	critical bool
}

type record struct {
	ID int64 `json:"id"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type drift struct {
	Entity      string
	MissingInFS []int64
	StaleInFS   []int64
	Err         error
}

func main() {
	var (
		apiBase string
		dataDir string
		timeout time.Duration
	)

	flag.StringVar(&apiBase, "api-base", "http://localhost:8080/api", "API base URL")
	flag.StringVar(&dataDir, "data-dir", "data", "Directory holding the flat-file shadow stores")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	entities := []entity{
		{name: "enrollments", path: "/enrollments", file: "enrollments.json", critical: true},
		{name: "courses", path: "/courses", file: "courses.json"},
		{name: "categories", path: "/categories", file: "categories.json"},
	}

	client := &http.Client{Timeout: timeout}
	var breaking, optional int

	for _, e := range entities {
		d := auditEntity(client, apiBase, dataDir, e)
		printDrift(d)
		if d.Err != nil || len(d.MissingInFS) > 0 || len(d.StaleInFS) > 0 {
			if e.critical {
				breaking++
			} else {
				optional++
			}
		}
	}

	fmt.Printf("Breaking drifts: %d, Optional drifts: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func auditEntity(client *http.Client, apiBase, dataDir string, e entity) drift {
	d := drift{Entity: e.name}

	served, err := fetchIDs(client, strings.TrimRight(apiBase, "/")+e.path)
	if err != nil {
		d.Err = fmt.Errorf("api fetch failed: %w", err)
		return d
	}
	shadow, err := readShadowIDs(filepath.Join(dataDir, e.file))
	if err != nil {
		d.Err = fmt.Errorf("shadow read failed: %w", err)
		return d
	}

	for id := range served {
		if !shadow[id] {
			d.MissingInFS = append(d.MissingInFS, id)
		}
	}
	for id := range shadow {
		if !served[id] {
			d.StaleInFS = append(d.StaleInFS, id)
		}
	}
	return d
}

func fetchIDs(client *http.Client, url string) (map[int64]bool, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	var records []record
	if err := json.Unmarshal(env.Data, &records); err != nil {
		return nil, err
	}

	ids := make(map[int64]bool, len(records))
	for _, r := range records {
		ids[r.ID] = true
	}
	return ids, nil
}

func readShadowIDs(path string) (map[int64]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No shadow file yet means nothing has been written through
			// the fallback path; treat as empty rather than broken.
			return map[int64]bool{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return map[int64]bool{}, nil
	}
	var items []record
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	ids := make(map[int64]bool, len(items))
	for _, r := range items {
		ids[r.ID] = true
	}
	return ids, nil
}

func printDrift(d drift) {
	if d.Err != nil {
		log.Printf("[%s] audit error: %v", d.Entity, d.Err)
		return
	}
	if len(d.MissingInFS) == 0 && len(d.StaleInFS) == 0 {
		fmt.Printf("[%s] in sync\n", d.Entity)
		return
	}
	fmt.Printf("[%s] missing in shadow: %v, stale in shadow: %v\n", d.Entity, d.MissingInFS, d.StaleInFS)
}
