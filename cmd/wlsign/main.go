// Command wlsign prints the signing text, signature and request URLs the
// collector would use for one polling cycle. With -fetch it also performs
// both calls and prints the merged record.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/i474232898/station-health/internal/collector"
	"github.com/i474232898/station-health/internal/weatherlink"
)

func main() {
	_ = godotenv.Load()

	stationID := flag.String("station", os.Getenv("WEATHERLINK_STATION_ID"), "station id")
	apiKey := flag.String("key", os.Getenv("WEATHERLINK_API_KEY"), "API key")
	secret := flag.String("secret", os.Getenv("WEATHERLINK_API_SECRET"), "API secret")
	baseURL := flag.String("base", os.Getenv("WEATHERLINK_BASE_URL"), "API base URL")
	ts := flag.Int64("t", time.Now().Unix(), "request timestamp (unix seconds)")
	span := flag.Duration("span", time.Minute, "historic query span")
	fetch := flag.Bool("fetch", false, "perform both calls and print the merged record")
	flag.Parse()

	if *stationID == "" || *apiKey == "" || *secret == "" {
		log.Fatal("station, key and secret are required")
	}

	params := weatherlink.NewParams(*stationID, *apiKey, *ts)
	historic := params.WithRange(*ts-int64(span.Seconds()), *ts)
	urls := weatherlink.NewURLBuilder(*baseURL, *secret)

	fmt.Println("historic signing text:", weatherlink.Canonical(historic))
	fmt.Println("historic signature:   ", weatherlink.Sign(historic, *secret))
	fmt.Println("historic URL:         ", urls.Historic(historic))
	fmt.Println("current signing text: ", weatherlink.Canonical(params))
	fmt.Println("current signature:    ", weatherlink.Sign(params, *secret))
	fmt.Println("current URL:          ", urls.Current(params))

	if !*fetch {
		return
	}

	l, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer l.Sync()

	creds := collector.Credentials{APIKey: *apiKey, APISecret: *secret, StationID: *stationID}
	client := weatherlink.NewClient(&http.Client{Timeout: 15 * time.Second})
	col := collector.New(creds, *baseURL, *span, client, l)

	rec := col.Poll(context.Background(), time.Unix(*ts, 0))
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode record: %v", err)
	}
	fmt.Println(string(out))
}
