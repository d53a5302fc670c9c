// Command tripreport prints the trip report for a list of crossings.
//
//	tripreport -subject SUBJ-0001            # embedded demo dataset
//	tripreport -file crossings.json -sort    # JSON array of crossings
//	tripreport -file dataset.yaml -subject X # YAML dataset
//	tripreport -api http://localhost:8080 -subject SUBJ-0001
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"intelhub.dev/internal/client"
	"intelhub.dev/internal/seed"
	"intelhub.dev/internal/travel"
)

func main() {
	log.SetFlags(0)
	var (
		file    = flag.String("file", "", "JSON array of crossings or YAML dataset (default: embedded demo)")
		subject = flag.String("subject", "SUBJ-0001", "Subject to report when reading a dataset")
		sortIn  = flag.Bool("sort", false, "Sort records by date instead of rejecting out-of-order input")
		format  = flag.String("format", "json", "Output format: json or yaml")
		api     = flag.String("api", "", "Base URL of a running API; the report is computed server side")
		token   = flag.String("token", os.Getenv("INTELHUB_TOKEN"), "Bearer token for -api")
		probe   = flag.String("grpc", "", "gRPC address to health-check before querying -api")
	)
	flag.Parse()

	if *api != "" {
		report, err := remote(*api, *token, *probe, *file, *subject, *sortIn)
		if err != nil {
			log.Fatalf("api: %v", err)
		}
		if err := write(report, *format); err != nil {
			log.Fatalf("write: %v", err)
		}
		return
	}

	records, err := load(*file, *subject)
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	for i, c := range records {
		if err := c.Validate(); err != nil {
			log.Fatalf("record %d: %v", i, err)
		}
	}
	if err := travel.CheckChronological(records); err != nil {
		if !*sortIn {
			log.Fatalf("%v (rerun with -sort to pair a sorted copy)", err)
		}
		records = travel.SortChronological(records)
	}

	report := travel.Analyze(records)
	if err := write(report, *format); err != nil {
		log.Fatalf("write: %v", err)
	}
}

// remote asks the API for the report. With -file the records are sent for
// ad-hoc analysis; otherwise the subject's stored crossings are used.
func remote(base, token, probe, file, subject string, sortIn bool) (travel.Report, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if probe != "" {
		status, err := client.CheckHealth(ctx, probe)
		if err != nil {
			return travel.Report{}, fmt.Errorf("health check: %w", err)
		}
		log.Printf("grpc health: %s", status)
	}
	c := client.New(base, client.WithToken(token))
	if file == "" {
		return c.SubjectTrips(ctx, subject)
	}
	records, err := load(file, subject)
	if err != nil {
		return travel.Report{}, err
	}
	return c.AnalyzeTrips(ctx, records, sortIn)
}

func load(file, subject string) ([]travel.Crossing, error) {
	if file == "" {
		ds, err := seed.Demo()
		if err != nil {
			return nil, err
		}
		return subjectCrossings(ds, subject)
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		var records []travel.Crossing
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode %s: %w", file, err)
		}
		return records, nil
	case ".yaml", ".yml":
		ds, err := seed.ReadFile(file)
		if err != nil {
			return nil, err
		}
		return subjectCrossings(ds, subject)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(file))
	}
}

func subjectCrossings(ds seed.Dataset, id string) ([]travel.Crossing, error) {
	s, ok := ds.Subject(id)
	if !ok {
		return nil, fmt.Errorf("subject %q not found", id)
	}
	return s.Crossings, nil
}

// write emits the report. YAML goes through JSON so field names and null
// metrics match the API output.
func write(report travel.Report, format string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case "json":
		_, err = fmt.Println(string(data))
		return err
	case "yaml":
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
