package stealth

import (
	"context"
	"sync"
)

// DefaultScanWorkers is the worker count used when ScanOptions leaves
// Workers unset.
const DefaultScanWorkers = 4

// ScanOptions configures a batch announcement scan.
type ScanOptions struct {
	// Workers is the number of concurrent verifications. Each
	// announcement check is independent (one registry read plus CPU
	// work), so this can safely match available parallelism.
	Workers int
}

// ScanAnnouncements checks a batch of announcements for payments to the
// user holding viewingPrivateKey, registered as recipient. Results are
// returned in input order; per-announcement failures surface as
// non-match results, never as errors.
//
// Cancelling the context stops dispatching new work; announcements not
// yet checked are reported as non-matches with a cancellation reason.
func (c *Client) ScanAnnouncements(ctx context.Context, anns []*Announcement, viewingPrivateKey, recipient string, opts ScanOptions) []ScanResult {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultScanWorkers
	}
	if workers > len(anns) {
		workers = len(anns)
	}

	results := make([]ScanResult, len(anns))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.VerifyAnnouncement(ctx, anns[i], viewingPrivateKey, recipient)
			}
		}()
	}

	dispatched := 0
dispatch:
	for i := range anns {
		select {
		case jobs <- i:
			dispatched++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	for i := dispatched; i < len(anns); i++ {
		results[i] = ScanResult{
			Match:            false,
			Reason:           "scan canceled: " + ctx.Err().Error(),
			TokenAddress:     anns[i].TokenAddress,
			AmountOrID:       anns[i].AmountOrID,
			EphemeralPubKeyX: anns[i].EphemeralPubKeyX,
		}
	}

	return results
}

// Matches filters scan results down to the announcements that paid the
// scanning user.
func Matches(results []ScanResult) []ScanResult {
	var out []ScanResult
	for _, r := range results {
		if r.Match {
			out = append(out, r)
		}
	}
	return out
}
