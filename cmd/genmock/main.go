// Command genmock drives scripted hazard reports through the real report
// wizard and submission service, then writes the accepted submissions as a
// JSON fixture. Point LEDGER_SEED_PATH at the output to start the service
// with populated dashboards and map markers.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/submissions.json -count 60
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/shore-hazard-service/internal/dashboard"
	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/submit"
	"github.com/couchcryptid/shore-hazard-service/internal/wizard"
	"github.com/jonboulle/clockwork"
)

var baseTime = time.Date(2026, time.June, 1, 4, 30, 0, 0, time.UTC)

type site struct {
	name     string
	lat, lon float64
}

var sites = []site{
	{"Marina Beach, Chennai, Tamil Nadu", 13.0500, 80.2824},
	{"Kovalam, Thiruvananthapuram, Kerala", 8.4004, 76.9787},
	{"Fort Kochi, Kochi, Kerala", 9.9658, 76.2421},
	{"Puri Beach, Puri, Odisha", 19.7983, 85.8249},
	{"Digha, Purba Medinipur, West Bengal", 21.6266, 87.5074},
	{"Juhu Beach, Mumbai, Maharashtra", 19.0988, 72.8267},
	{"RK Beach, Visakhapatnam, Andhra Pradesh", 17.7145, 83.3237},
	{"Kanyakumari, Tamil Nadu", 8.0780, 77.5410},
	{"Mangaluru, Karnataka", 12.8700, 74.8420},
	{"Sundarbans, West Bengal", 21.9497, 88.9000},
}

var descriptions = map[domain.HazardType]string{
	domain.HazardTsunamiWarning:  "Sea receded unusually far, people moving to higher ground",
	domain.HazardCoastalFlooding: "Water over the promenade and into the first row of houses",
	domain.HazardStormSurge:      "Surge overtopping the sea wall during high winds",
	domain.HazardHurricane:       "Cyclone bands arriving, heavy rain and gusts",
	domain.HazardRipCurrent:      "Strong rip pulling swimmers away from the shore",
	domain.HazardKingTide:        "Highest tide of the month flooding the fish market",
	domain.HazardCoastalErosion:  "Beach cut back several metres since last week",
	domain.HazardRedTide:         "Discoloured water and dead fish along the tide line",
	domain.HazardOther:           "Unusual wave activity reported by fishermen",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the submissions fixture")
	count := flag.Int("count", 50, "number of reports to submit")
	reporters := flag.Int("reporters", 8, "number of distinct citizen reporters")
	seed := flag.Uint64("seed", 20260601, "random seed for reproducible fixtures")
	flag.Parse()

	if *out == "" || *count <= 0 || *reporters <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, and positive -count and -reporters")
	}

	// Set a fixed clock for reproducible report IDs and timestamps.
	fc := clockwork.NewFakeClockAt(baseTime)
	domain.SetClock(fc)
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := &collector{}
	ledger := dashboard.NewLedger(*count, nil)
	svc := submit.New(submit.NewSimulatedSink(0, fc, logger), logger, nil,
		submit.WithRecorder(multiRecorder{rec, ledger}),
		submit.WithClock(fc),
	)

	rng := rand.New(rand.NewPCG(*seed, *seed>>1))
	ids := make([]domain.Identity, *reporters)
	for i := range ids {
		email := fmt.Sprintf("reporter.%02d@example.com", i+1)
		ids[i] = domain.NewIdentity(fmt.Sprintf("genmock-%02d", i+1), email, nil)
	}

	ctx := context.Background()
	for i := 0; i < *count; i++ {
		owner := ids[rng.IntN(len(ids))]
		h := domain.HazardTypes[rng.IntN(len(domain.HazardTypes))]
		sev := domain.Severities[rng.IntN(len(domain.Severities))]
		at := sites[rng.IntN(len(sites))]

		if err := fileReport(ctx, owner, svc, fc, logger, h, sev, at, rng); err != nil {
			return fmt.Errorf("report %d: %w", i+1, err)
		}
		fc.Advance(time.Duration(5+rng.IntN(90))*time.Minute + time.Duration(rng.IntN(60_000))*time.Millisecond)
	}

	if err := writeJSON(*out, rec.subs); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d submissions: %s", len(rec.subs), *out)

	printStats(ledger)
	return nil
}

// fileReport walks one report through every wizard step.
func fileReport(ctx context.Context, owner domain.Identity, svc *submit.Service, fc clockwork.Clock, logger *slog.Logger,
	h domain.HazardType, sev domain.Severity, at site, rng *rand.Rand) error {
	w := wizard.New(owner, svc, logger, wizard.WithClock(fc))
	defer w.Close()

	steps := []func() (wizard.Snapshot, error){
		func() (wizard.Snapshot, error) { return w.SetField(wizard.FieldType, string(h)) },
		func() (wizard.Snapshot, error) { return w.SetField(wizard.FieldSeverity, string(sev)) },
		func() (wizard.Snapshot, error) { return w.SetField(wizard.FieldDescription, descriptions[h]) },
		w.Next,
		func() (wizard.Snapshot, error) {
			// Scatter fixes a little around the site.
			jitter := func() float64 { return (rng.Float64() - 0.5) * 0.02 }
			fix := domain.Coordinates{Latitude: at.lat + jitter(), Longitude: at.lon + jitter()}
			return w.RequestDeviceLocation(ctx, domain.LocatorFunc(func(context.Context) (domain.Coordinates, error) {
				return fix, nil
			}))
		},
		func() (wizard.Snapshot, error) { return w.SetField(wizard.FieldAddress, at.name) },
		w.Next,
		func() (wizard.Snapshot, error) {
			return w.SetField(wizard.FieldContactPhone, fmt.Sprintf("+91 9%09d", rng.IntN(1_000_000_000)))
		},
	}
	if rng.IntN(3) == 0 {
		steps = append(steps, func() (wizard.Snapshot, error) {
			return w.AttachMedia(domain.MediaRef{Name: "photo.jpg", ContentType: "image/jpeg", Size: int64(200_000 + rng.IntN(3_000_000))})
		})
	}
	steps = append(steps, func() (wizard.Snapshot, error) { return w.Submit(ctx) })

	for _, step := range steps {
		if _, err := step(); err != nil {
			return err
		}
	}
	return nil
}

type collector struct {
	mu   sync.Mutex
	subs []domain.Submission
}

func (c *collector) Record(s domain.Submission) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, s)
}

type multiRecorder []submit.Recorder

func (m multiRecorder) Record(s domain.Submission) {
	for _, r := range m {
		r.Record(s)
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type typeCount struct {
	name  string
	count int
}

func printStats(ledger *dashboard.Ledger) {
	stats := ledger.Analytics()

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", stats.Total)
	fmt.Printf("By severity: low=%d, medium=%d, high=%d, critical=%d\n",
		stats.BySeverity[domain.SeverityLow], stats.BySeverity[domain.SeverityMedium],
		stats.BySeverity[domain.SeverityHigh], stats.BySeverity[domain.SeverityCritical])
	fmt.Printf("Urgent under review: %d\n", stats.UrgentUnderReview)

	tc := make([]typeCount, 0, len(stats.ByType))
	for h, c := range stats.ByType {
		tc = append(tc, typeCount{string(h), c})
	}
	sort.Slice(tc, func(i, j int) bool {
		if tc[i].count != tc[j].count {
			return tc[i].count > tc[j].count
		}
		return tc[i].name < tc[j].name
	})
	fmt.Println("By type:")
	for _, t := range tc {
		fmt.Printf("  %s=%d\n", t.name, t.count)
	}
	fmt.Printf("Map markers: %d\n", len(ledger.Markers()))
}
