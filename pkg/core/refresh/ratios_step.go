package refresh

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"filingsync/pkg/core/ratio"
)

// runRatiosStep recomputes valuation multiples for every company with
// stored fundamentals, priced at the latest close on or before today.
// Companies without a usable price or share count are data gaps, not
// failures.
func (o *Orchestrator) runRatiosStep(ctx context.Context) (stepOutcome, error) {
	log := zerolog.Ctx(ctx)

	fundamentals, err := o.ratios.LatestFundamentals(ctx)
	if err != nil {
		return stepOutcome{}, fmt.Errorf("read fundamentals: %w", err)
	}

	today := o.now().UTC().Format("2006-01-02")

	var out stepOutcome
	for _, f := range fundamentals {
		price, err := o.market.CloseOnOrBefore(ctx, f.CompanyID, today)
		if err != nil {
			out.failures = append(out.failures, CompanyError{Symbol: f.Symbol, Err: err.Error()})
			continue
		}
		if price == nil {
			log.Debug().Str("symbol", f.Symbol).Msg("no price bars, skipping ratios")
			continue
		}

		computed, err := ratio.Compute(f, *price, today)
		if err != nil {
			if errors.Is(err, ratio.ErrNoShares) {
				log.Debug().Str("symbol", f.Symbol).Msg("no share count, skipping ratios")
				continue
			}
			out.failures = append(out.failures, CompanyError{Symbol: f.Symbol, Err: err.Error()})
			continue
		}

		if err := o.ratios.UpsertRatio(ctx, f.CompanyID, computed); err != nil {
			out.failures = append(out.failures, CompanyError{Symbol: f.Symbol, Err: err.Error()})
			continue
		}
		out.records++
		if computed.Date > out.latestDate {
			out.latestDate = computed.Date
		}
	}
	return out, nil
}
