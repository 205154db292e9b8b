package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rshade/needle/internal/engine/cache"
	"github.com/rshade/needle/internal/transcript"
)

// FilterInput holds raw filter values as typed by a user.
type FilterInput struct {
	Company string
	Quarter string
	Section string
}

// ResolveFilters validates raw filter input and returns canonical filters.
//
// Quarter and section are validated locally. A company is resolved against
// the vocabulary when loader is non-nil; if the vocabulary cannot be fetched
// the input is used as a ticker and a warning is logged.
func ResolveFilters(ctx context.Context, loader *MetadataLoader, in FilterInput) (cache.Filters, error) {
	var f cache.Filters

	if s := strings.TrimSpace(in.Section); s != "" {
		section, err := transcript.ParseSection(s)
		if err != nil {
			return cache.Filters{}, err
		}
		f.Section = string(section)
	}

	if q := strings.TrimSpace(in.Quarter); q != "" {
		quarter, err := transcript.ParseQuarter(q)
		if err != nil {
			return cache.Filters{}, err
		}
		f.Quarter = quarter.String()
	}

	company := strings.TrimSpace(in.Company)
	if company == "" {
		return f.Canonical(), nil
	}
	if loader == nil {
		f.Ticker = company
		return f.Canonical(), nil
	}

	vocab, err := loader.Load(ctx)
	if err != nil {
		loader.logger.Warn().Err(err).Str("company", company).
			Msg("metadata unavailable, using company filter as ticker")
		f.Ticker = company
		return f.Canonical(), nil
	}
	ticker, ok := vocab.ResolveCompany(company)
	if !ok {
		return cache.Filters{}, fmt.Errorf("%w: %q", ErrUnknownCompany, company)
	}
	f.Ticker = ticker
	return f.Canonical(), nil
}
