package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pallagj/behave-backend/internal/parser"
	"github.com/pallagj/behave-backend/pkg/logging"
)

// DemoPageParsing demonstrates the page parsing without a store
func main() {
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("BEHAVE BACKEND - PAGE PARSING DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	// Initialize logger
	logger := logging.NewStructuredLogger("demo", "1.0.0", logging.InfoLevel)
	ctx := context.Background()

	// Parse a saved copy of the monitoring page
	pagePath := "./merleg.html"
	if len(os.Args) > 1 {
		pagePath = os.Args[1]
	}

	content, err := os.ReadFile(pagePath)
	if err != nil {
		fmt.Printf("Error reading page: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Parsing page: %s (%d bytes)\n\n", pagePath, len(content))

	records, skipped := parser.Parse(string(content))
	if len(records) == 0 && len(skipped) == 0 {
		logger.Warn(ctx, "No measurement table found on page", logging.Fields{
			"page": pagePath,
		})
	}

	fmt.Printf("─────────────────────────────────────────────────────────────\n")
	fmt.Printf("Parsed Measurements\n")
	fmt.Printf("─────────────────────────────────────────────────────────────\n")

	for i, rec := range records {
		// Print first 5 records and the final one
		if i < 5 || i == len(records)-1 {
			fmt.Printf("  [%d] ID: %s | Date: %s | Weight: %.2f kg | Battery: %.2f V | Temp: %.1f°C\n",
				i+1, rec.ID, rec.Date, rec.Weight, rec.Battery, rec.Temp)
		} else if i == 5 {
			fmt.Printf("  ... %d more rows ...\n", len(records)-6)
		}
	}

	if len(skipped) > 0 {
		fmt.Printf("\n  Skipped Rows:\n")
		for _, s := range skipped {
			fmt.Printf("    [row %d] %s: %q\n", s.Index, s.Reason, s.Raw)
		}
	}

	fmt.Println()
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("PARSING SUMMARY")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Printf("Rows parsed:            %d\n", len(records))
	fmt.Printf("Rows skipped:           %d\n", len(skipped))
	if total := len(records) + len(skipped); total > 0 {
		fmt.Printf("Success rate:           %.2f%%\n", float64(len(records))/float64(total)*100)
	}
	fmt.Println()

	// Demonstrate statistics calculation
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("STATISTICS CALCULATION DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")

	if len(records) > 0 {
		var weights []float64
		var batteries []float64
		var temps []float64
		for _, rec := range records {
			weights = append(weights, rec.Weight)
			batteries = append(batteries, rec.Battery)
			temps = append(temps, rec.Temp)
		}

		fmt.Printf("Hive Weight:   min %.2f kg | max %.2f kg | avg %.2f kg\n",
			minOf(weights), maxOf(weights), average(weights))
		fmt.Printf("Battery:       min %.2f V  | max %.2f V  | avg %.2f V\n",
			minOf(batteries), maxOf(batteries), average(batteries))
		fmt.Printf("Temperature:   min %.1f°C  | max %.1f°C  | avg %.1f°C\n",
			minOf(temps), maxOf(temps), average(temps))
		fmt.Printf("Weight change: %+.2f kg across the page\n",
			records[len(records)-1].Weight-records[0].Weight)
	}

	fmt.Println()
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("✅ PAGE PARSING DEMONSTRATION COMPLETE")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Println("The system successfully:")
	fmt.Println("  ✓ Located the measurement table on the monitoring page")
	fmt.Println("  ✓ Skipped the header rows")
	fmt.Println("  ✓ Converted comma decimals (25,4 → 25.4)")
	fmt.Println("  ✓ Derived epoch-millisecond ids from timestamps")
	fmt.Println("  ✓ Isolated malformed rows without aborting the run")
	fmt.Println()
	fmt.Println("With a store configured, this would:")
	fmt.Println("  • Merge the records into the beehive_data document tree")
	fmt.Println("  • Serve measurements and summaries via REST endpoints")
	fmt.Println("  • Export Prometheus metrics for every sync run")
	fmt.Println()
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
