package analyzer

import (
	"fmt"
	"io"
	"strings"

	"github.com/hannajonsd/unsafe-census/census"
)

// writeText renders the report in the human readable layout
func writeText(w io.Writer, report *RepositoryReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Repository: %s\n", report.Root)
	fmt.Fprintln(&b, strings.Repeat("-", 60))
	fmt.Fprintln(&b, "UNSAFE CENSUS BY CRATE")

	if report.Totals.Files == 0 {
		fmt.Fprintln(&b, "  No source files found to analyze")
	}

	for _, cr := range report.Crates {
		if len(cr.Files) == 0 && len(cr.Advisories) == 0 {
			continue
		}
		fmt.Fprintln(&b)
		displayCrateHeader(&b, cr)

		for _, f := range cr.Files {
			displayFile(&b, f)
		}

		if len(cr.Advisories) > 0 {
			displayAdvisories(&b, cr.Advisories)
		}
	}

	fmt.Fprintln(&b)
	displaySummary(&b, report)

	_, err := io.WriteString(w, b.String())
	return err
}

func displayCrateHeader(b *strings.Builder, cr CrateReport) {
	switch {
	case cr.Name == "":
		fmt.Fprintln(b, " (no crate)")
	case cr.Version == "":
		fmt.Fprintf(b, " %s@unknown (%s)\n", cr.Name, cr.Dir)
	default:
		fmt.Fprintf(b, " %s@%s (%s)\n", cr.Name, cr.Version, cr.Dir)
	}
}

func displayFile(b *strings.Builder, f FileReport) {
	if f.ParseErrors {
		fmt.Fprintf(b, "   %s (syntax errors, census may be incomplete)\n", f.Path)
	} else {
		fmt.Fprintf(b, "   %s\n", f.Path)
	}

	for _, fn := range f.Functions {
		if fn.IsSafe {
			fmt.Fprintf(b, "     ✅ fn %s (%s)\n", fn.Name, fn.Location)
		} else {
			fmt.Fprintf(b, "     ❌ unsafe fn %s (%s)\n", fn.Name, fn.Location)
		}
	}
	displayFindings(b, "unsafe trait", f.UnsafeTraits)
	displayFindings(b, "unsafe impl", f.UnsafeTraitImpls)
	fmt.Fprintf(b, "     blocks: %d unsafe, %d safe\n", f.UnsafeBlocks, f.SafeBlocks)
}

func displayFindings(b *strings.Builder, label string, findings []census.Finding) {
	for _, f := range findings {
		fmt.Fprintf(b, "     ❌ %s %s (%s)\n", label, f.Name, f.Location)
	}
}

func displayAdvisories(b *strings.Builder, advisories []Advisory) {
	fmt.Fprintln(b, "   Advisories:")
	for _, adv := range advisories {
		fmt.Fprintf(b, "     - %s: \"%s\"\n", adv.ID, adv.Summary)
		fmt.Fprintf(b, "       https://osv.dev/vulnerability/%s\n", adv.ID)
		if len(adv.FixedVersions) > 0 {
			fmt.Fprintf(b, "       fixed in: %s\n", strings.Join(adv.FixedVersions, ", "))
		}
		for _, m := range adv.UnsafeMatches {
			fmt.Fprintf(b, "       unsafe match: %s (%s)\n", m.Name, m.Location)
		}
	}
}

func displaySummary(b *strings.Builder, report *RepositoryReport) {
	t := report.Totals

	fmt.Fprintln(b, strings.Repeat("-", 60))
	fmt.Fprintln(b, "SUMMARY")
	fmt.Fprintf(b, "Files analyzed: %d\n", t.Files)
	fmt.Fprintf(b, "  - With syntax errors: %d\n", t.FilesWithErrors)
	fmt.Fprintf(b, "Unsafe functions: %d\n", t.UnsafeFunctions)
	fmt.Fprintf(b, "Safe functions: %d\n", t.SafeFunctions)
	fmt.Fprintf(b, "Unsafe traits: %d\n", t.UnsafeTraits)
	fmt.Fprintf(b, "Unsafe trait impls: %d\n", t.UnsafeTraitImpls)
	fmt.Fprintf(b, "Unsafe blocks: %d\n", t.UnsafeBlocks)
	fmt.Fprintf(b, "Safe blocks: %d\n", t.SafeBlocks)
	if t.Advisories > 0 {
		fmt.Fprintf(b, "Advisories: %d\n", t.Advisories)
	}

	if !report.HasUnsafe() && t.Files > 0 {
		fmt.Fprintln(b, "✅ No unsafe code found!")
	}
}
