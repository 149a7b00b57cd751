package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/hannajonsd/unsafe-census/census"
	"github.com/hannajonsd/unsafe-census/logger"
	"github.com/hannajonsd/unsafe-census/osv"
)

// lookupAdvisories queries OSV for the crate and cross-references the
// symbols each advisory mentions with the crate's unsafe functions
func (ca *CensusAnalyzer) lookupAdvisories(ctx context.Context, cr *CrateReport) error {
	if cr.Version == "" {
		logger.Debugf("%s has no literal version, checking all known advisories", cr.Name)
	}

	advisories, err := ca.osv.Query(ctx, cr.Name, cr.Version, osv.CratesIO)
	if err != nil {
		return fmt.Errorf("OSV query failed: %w", err)
	}
	logger.Debugf("Found %d advisories for %s", len(advisories), cr.Name)

	var unsafeFns []census.Finding
	for _, f := range cr.Files {
		unsafeFns = append(unsafeFns, f.UnsafeFunctions()...)
	}

	for _, adv := range advisories {
		symbols := append(adv.AffectedFunctions(), osv.ExtractPossibleSymbols(cr.Name, adv.Summary, adv.Details)...)
		symbols = normalizeSymbols(cr.Name, symbols)

		matches := matchUnsafeFunctions(unsafeFns, symbols)
		if len(matches) > 0 {
			logger.Infof("%s: %s mentions %d unsafe functions", cr.Name, adv.ID, len(matches))
		}

		cr.Advisories = append(cr.Advisories, Advisory{
			ID:            adv.ID,
			Summary:       adv.Summary,
			Aliases:       adv.Aliases,
			FixedVersions: adv.FixedVersions(),
			Symbols:       symbols,
			UnsafeMatches: matches,
		})
	}
	return nil
}

// normalizeSymbols strips the crate prefix advisories use
// ("smallvec::SmallVec::insert_many") so symbols line up with census names
func normalizeSymbols(crateName string, symbols []string) []string {
	prefixes := []string{
		strings.ReplaceAll(crateName, "-", "_") + "::",
		"crate::",
	}

	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		for _, p := range prefixes {
			s = strings.TrimPrefix(s, p)
		}
		out = append(out, s)
	}
	return osv.DeduplicateSlice(out)
}

// matchUnsafeFunctions returns the findings whose qualified name is, or ends
// with, one of the symbols
func matchUnsafeFunctions(findings []census.Finding, symbols []string) []census.Finding {
	var matches []census.Finding
	for _, f := range findings {
		for _, s := range symbols {
			if f.Name == s || strings.HasSuffix(f.Name, "::"+s) {
				matches = append(matches, f)
				break
			}
		}
	}
	return matches
}
