// Command genmock generates a synthetic raw precipitation observation file in
// the wide calendar layout the ingestion path expects: one row per
// (station, year, month, hour), one column per day of month. It is used to
// produce reproducible fixtures for tests and demos.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/stations.csv -stations 3 -years 10
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output CSV path")
	stations := flag.Int("stations", 2, "number of synthetic stations")
	years := flag.Int("years", 10, "number of calendar years starting at -start-year")
	startYear := flag.Int("start-year", 2000, "first calendar year")
	seed := flag.Uint64("seed", 1, "random seed for reproducible output")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"Name", "Year", "Month", "Time"}
	for d := 1; d <= 31; d++ {
		header = append(header, strconv.Itoa(d))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(*seed, *seed+1))

	rows := 0
	for s := range *stations {
		name := fmt.Sprintf("Station-%c", 'A'+s)
		for y := *startYear; y < *startYear+*years; y++ {
			for m := 1; m <= 12; m++ {
				for h := range 24 {
					row := []string{name, strconv.Itoa(y), strconv.Itoa(m), fmt.Sprintf("%02d:00", h)}
					for d := 1; d <= 31; d++ {
						row = append(row, formatDepth(rng))
					}
					if err := w.Write(row); err != nil {
						return err
					}
					rows++
				}
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	fmt.Printf("wrote %d rows to %s\n", rows, *out)
	return nil
}

// formatDepth draws an hourly precipitation depth: mostly dry hours with
// exponentially distributed wet-hour depths, roughly matching the sparsity of
// real hourly gauge data.
func formatDepth(rng *rand.Rand) string {
	if rng.Float64() < 0.9 {
		return "0"
	}
	depth := rng.ExpFloat64() * 4 // mean 4 mm for wet hours
	return strconv.FormatFloat(math.Round(depth*10)/10, 'f', -1, 64)
}
