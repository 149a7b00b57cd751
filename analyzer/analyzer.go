package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hannajonsd/unsafe-census/census"
	"github.com/hannajonsd/unsafe-census/logger"
	"github.com/hannajonsd/unsafe-census/manifest"
	"github.com/hannajonsd/unsafe-census/osv"
	"github.com/hannajonsd/unsafe-census/parser"
)

// CensusAnalyzer takes the unsafe census of Rust repositories
type CensusAnalyzer struct {
	opts Options
	osv  *osv.Client
}

// New creates a new census analyzer instance
func New(opts Options) *CensusAnalyzer {
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}

	ca := &CensusAnalyzer{opts: opts}
	if opts.Advisories {
		ca.osv = osv.NewClient(opts.OSVEndpoint, opts.Timeout)
	}
	return ca
}

// AnalyzeRepository takes the census of every Rust file under root
func (ca *CensusAnalyzer) AnalyzeRepository(ctx context.Context, root string) (*RepositoryReport, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(rootAbs)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	logger.Infof("Analyzing repository: %s", root)

	filter := newSourceFilter(rootAbs, ca.opts.Exclude)
	sourceFiles, err := filter.findSourceFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to find source files: %w", err)
	}
	logger.Infof("Found %d source files for analysis", len(sourceFiles))

	crates, err := manifest.FindCrates(rootAbs, filter.skipDir)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Found %d crates", len(crates))

	owners := make([]*manifest.Crate, len(sourceFiles))
	for i, path := range sourceFiles {
		owners[i] = manifest.CrateFor(crates, path)
	}

	fileReports, err := ca.analyzeFiles(ctx, rootAbs, sourceFiles, owners)
	if err != nil {
		return nil, err
	}

	report := assemble(root, rootAbs, crates, owners, fileReports)

	if ca.osv == nil {
		logger.Debug("Advisory lookup disabled")
	} else {
		logger.Info("Looking up OSV advisories")
		for i := range report.Crates {
			if report.Crates[i].Name == "" {
				continue
			}
			if err := ca.lookupAdvisories(ctx, &report.Crates[i]); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				logger.Warnf("Failed to look up advisories for %s: %v", report.Crates[i].Name, err)
			}
			report.Totals.Advisories += len(report.Crates[i].Advisories)
		}
	}

	return report, nil
}

// analyzeFiles runs the per-file census on a bounded worker pool. The result
// slice is indexed like sourceFiles; files that could not be read are nil.
func (ca *CensusAnalyzer) analyzeFiles(ctx context.Context, root string, sourceFiles []string, owners []*manifest.Crate) ([]*FileReport, error) {
	reports := make([]*FileReport, len(sourceFiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ca.opts.Workers)

	for i, path := range sourceFiles {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			report, err := ca.analyzeFile(gctx, root, path, owners[i])
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warnf("Skipping %s: %v", path, err)
				return nil
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("census interrupted: %w", err)
	}
	return reports, nil
}

// analyzeFile parses one file and takes its census
func (ca *CensusAnalyzer) analyzeFile(ctx context.Context, root, path string, crate *manifest.Crate) (*FileReport, error) {
	fileParser, err := parser.CreateParser(path)
	if err != nil {
		return nil, err
	}
	defer fileParser.Close()

	parseResult, err := fileParser.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}

	var modulePath []string
	if crate != nil {
		modulePath = parser.ModulePath(crate.Dir, path)
	}

	unit := parser.NewUnit(parseResult, displayPath(root, path), modulePath)
	defer unit.Close()

	if unit.HasErrors() {
		logger.Warnf("%s has syntax errors, census may be incomplete", unit.Path())
	}

	report := census.Run(unit.Root(), unit)
	logger.Get().Debug().
		Str("file", unit.Path()).
		Int("functions", len(report.Functions)).
		Int("unsafe_blocks", report.UnsafeBlocks).
		Int("safe_blocks", report.SafeBlocks).
		Msg("Census taken")

	return &FileReport{
		Path:        unit.Path(),
		ParseErrors: unit.HasErrors(),
		Report:      report,
	}, nil
}

// assemble groups file reports by crate in crate order, keeping discovery
// order within each crate
func assemble(root, rootAbs string, crates []manifest.Crate, owners []*manifest.Crate, fileReports []*FileReport) *RepositoryReport {
	report := &RepositoryReport{
		Root:   root,
		Crates: make([]CrateReport, 0, len(crates)+1),
	}

	index := make(map[string]int, len(crates))
	for _, c := range crates {
		index[c.Dir] = len(report.Crates)
		cr := CrateReport{Crate: c, Files: []FileReport{}}
		cr.Dir = displayPath(rootAbs, c.Dir)
		report.Crates = append(report.Crates, cr)
	}

	loose := -1
	for i, fr := range fileReports {
		if fr == nil {
			continue
		}

		pos := loose
		if owners[i] != nil {
			pos = index[owners[i].Dir]
		} else if loose < 0 {
			loose = len(report.Crates)
			pos = loose
			report.Crates = append(report.Crates, CrateReport{
				Crate: manifest.Crate{Dir: "."},
				Files: []FileReport{},
			})
		}

		report.Crates[pos].Files = append(report.Crates[pos].Files, *fr)
		report.Totals.add(*fr)
	}
	return report
}
