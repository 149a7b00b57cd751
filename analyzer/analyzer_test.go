package analyzer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hannajonsd/unsafe-census/analyzer"
	"github.com/hannajonsd/unsafe-census/census"
	"github.com/hannajonsd/unsafe-census/config"
	"github.com/hannajonsd/unsafe-census/manifest"
	"github.com/hannajonsd/unsafe-census/osv"
)

const workspace = "testdata/workspace"

var (
	fromRaw = census.Finding{Name: "ffi::Buffer::from_raw", IsSafe: false, Location: "alloc-utils/src/ffi/mod.rs:13"}
	lookup  = census.Finding{Name: "ffi::raw::lookup", IsSafe: false, Location: "alloc-utils/src/ffi/raw.rs:17"}
)

func expectWorkspaceCensus(report *analyzer.RepositoryReport) {
	Expect(report.Root).To(Equal(workspace))
	Expect(report.Crates).To(HaveLen(3))

	By("Attributing files to their crates")
	allocUtils := report.Crates[0]
	Expect(allocUtils.Crate).To(Equal(manifest.Crate{Name: "alloc-utils", Version: "0.3.1", Edition: "2021", Dir: "alloc-utils"}))
	Expect(allocUtils.Files).To(HaveLen(3))

	Expect(allocUtils.Files[0].Path).To(Equal("alloc-utils/src/ffi/mod.rs"))
	Expect(allocUtils.Files[0].Report).To(Equal(census.Report{
		UnsafeTraitImpls: []census.Finding{{Name: "ffi::impl Send for Buffer", Location: "alloc-utils/src/ffi/mod.rs:10"}},
		UnsafeTraits:     []census.Finding{{Name: "ffi::Zeroable", Location: "alloc-utils/src/ffi/mod.rs:3"}},
		Functions: []census.Finding{
			fromRaw,
			{Name: "ffi::Buffer::len", IsSafe: true, Location: "alloc-utils/src/ffi/mod.rs:17"},
		},
		UnsafeBlocks: 0,
		SafeBlocks:   2,
	}))

	Expect(allocUtils.Files[1].Path).To(Equal("alloc-utils/src/ffi/raw.rs"))
	Expect(allocUtils.Files[1].Report).To(Equal(census.Report{
		UnsafeTraitImpls: []census.Finding{},
		UnsafeTraits:     []census.Finding{},
		Functions: []census.Finding{
			{Name: "ffi::raw::<Buffer as Drop>::drop", IsSafe: false, Location: "alloc-utils/src/ffi/raw.rs:5"},
			lookup,
		},
		UnsafeBlocks: 2,
		SafeBlocks:   3,
	}))

	Expect(allocUtils.Files[2].Path).To(Equal("alloc-utils/src/lib.rs"))
	Expect(allocUtils.Files[2].Functions).To(Equal([]census.Finding{
		{Name: "first", IsSafe: false, Location: "alloc-utils/src/lib.rs:8"},
		{Name: "checksum", IsSafe: true, Location: "alloc-utils/src/lib.rs:3"},
	}))
	Expect(allocUtils.Files[2].UnsafeBlocks).To(Equal(1))
	Expect(allocUtils.Files[2].SafeBlocks).To(Equal(2))

	app := report.Crates[1]
	Expect(app.Crate).To(Equal(manifest.Crate{Name: "app", Version: "0.3.1", Edition: "2021", Dir: "app"}))
	Expect(app.Files).To(HaveLen(1))
	Expect(app.Files[0].Path).To(Equal("app/src/main.rs"))
	Expect(app.Files[0].Functions).To(Equal([]census.Finding{
		{Name: "main", IsSafe: true, Location: "app/src/main.rs:1"},
	}))

	By("Collecting files outside any crate")
	loose := report.Crates[2]
	Expect(loose.Name).To(BeEmpty())
	Expect(loose.Files).To(HaveLen(1))
	Expect(loose.Files[0].Path).To(Equal("scripts/loose.rs"))
	Expect(loose.Files[0].Functions).To(Equal([]census.Finding{
		{Name: "poke", IsSafe: false, Location: "scripts/loose.rs:1"},
	}))

	Expect(report.Totals).To(Equal(analyzer.Totals{
		Files:            5,
		UnsafeFunctions:  5,
		SafeFunctions:    3,
		UnsafeTraits:     1,
		UnsafeTraitImpls: 1,
		UnsafeBlocks:     3,
		SafeBlocks:       9,
	}))
	Expect(report.HasUnsafe()).To(BeTrue())
}

var _ = Describe("CensusAnalyzer", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	DescribeTable("Takes the census of a workspace",
		func(workers int) {
			report, err := analyzer.New(analyzer.Options{Workers: workers}).AnalyzeRepository(ctx, workspace)
			Expect(err).NotTo(HaveOccurred())
			expectWorkspaceCensus(report)
		},
		Entry("One worker", 1),
		Entry("Four workers", 4),
		Entry("Default workers", 0),
	)

	It("honours configured excludes", func() {
		report, err := analyzer.New(analyzer.Options{Exclude: []string{"scripts/"}}).AnalyzeRepository(ctx, workspace)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Crates).To(HaveLen(2))
		Expect(report.Totals.Files).To(Equal(4))
		Expect(report.Totals.UnsafeFunctions).To(Equal(4))
	})

	It("never reports gitignored files", func() {
		report, err := analyzer.New(analyzer.Options{}).AnalyzeRepository(ctx, workspace)
		Expect(err).NotTo(HaveOccurred())
		for _, cr := range report.Crates {
			for _, f := range cr.Files {
				Expect(f.Path).NotTo(ContainSubstring("generated"))
			}
		}
	})

	It("fails on a missing root", func() {
		_, err := analyzer.New(analyzer.Options{}).AnalyzeRepository(ctx, "testdata/missing")
		Expect(err).To(MatchError(ContainSubstring("failed to access testdata/missing")))
	})

	It("fails on a file root", func() {
		_, err := analyzer.New(analyzer.Options{}).AnalyzeRepository(ctx, workspace+"/Cargo.toml")
		Expect(err).To(MatchError(HaveSuffix("is not a directory")))
	})

	It("stops when the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := analyzer.New(analyzer.Options{Workers: 2}).AnalyzeRepository(cancelled, workspace)
		Expect(err).To(MatchError(context.Canceled))
	})

	Describe("Advisories", func() {
		var requests atomic.Int32

		serve := func(handler http.HandlerFunc) string {
			requests.Store(0)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				requests.Add(1)
				Expect(r.URL.Path).To(Equal("/v1/query"))
				handler(w, r)
			}))
			DeferCleanup(server.Close)
			return server.URL + "/v1/query"
		}

		It("cross-references advisories with unsafe functions", func() {
			endpoint := serve(func(w http.ResponseWriter, r *http.Request) {
				var req osv.OSVRequest
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				Expect(req.Package.Ecosystem).To(Equal(osv.CratesIO))
				Expect(req.Version).To(Equal("0.3.1"))

				if req.Package.Name != "alloc-utils" {
					_, _ = w.Write([]byte(`{}`))
					return
				}
				_, _ = w.Write([]byte(`{"vulns": [{
					"id": "RUSTSEC-2024-0001",
					"summary": "Unsound ` + "`Buffer::from_raw()`" + ` accepts dangling pointers",
					"aliases": ["CVE-2024-0001"],
					"affected": [{
						"package": {"name": "alloc-utils", "ecosystem": "crates.io"},
						"ranges": [{"type": "SEMVER", "events": [{"introduced": "0.0.0-0"}, {"fixed": "0.3.2"}]}],
						"ecosystem_specific": {"affects": {"functions": ["alloc_utils::ffi::raw::lookup"]}}
					}]
				}]}`))
			})

			report, err := analyzer.New(analyzer.Options{
				Advisories:  true,
				OSVEndpoint: endpoint,
			}).AnalyzeRepository(ctx, workspace)
			Expect(err).NotTo(HaveOccurred())

			Expect(requests.Load()).To(BeEquivalentTo(2))
			Expect(report.Totals.Advisories).To(Equal(1))
			Expect(report.Crates[1].Advisories).To(BeEmpty())
			Expect(report.Crates[0].Advisories).To(Equal([]analyzer.Advisory{{
				ID:            "RUSTSEC-2024-0001",
				Summary:       "Unsound `Buffer::from_raw()` accepts dangling pointers",
				Aliases:       []string{"CVE-2024-0001"},
				FixedVersions: []string{"0.3.2"},
				Symbols:       []string{"ffi::raw::lookup", "Buffer::from_raw"},
				UnsafeMatches: []census.Finding{fromRaw, lookup},
			}}))
		})

		It("keeps the census when the lookup fails", func() {
			endpoint := serve(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "down", http.StatusServiceUnavailable)
			})

			report, err := analyzer.New(analyzer.Options{
				Advisories:  true,
				OSVEndpoint: endpoint,
			}).AnalyzeRepository(ctx, workspace)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Totals.Advisories).To(BeZero())
			expectWorkspaceCensus(report)
		})
	})

	Describe("WriteReport", func() {
		var (
			report *analyzer.RepositoryReport
			out    *bytes.Buffer
		)

		BeforeEach(func() {
			var err error
			report, err = analyzer.New(analyzer.Options{}).AnalyzeRepository(ctx, workspace)
			Expect(err).NotTo(HaveOccurred())
			out = bytes.NewBuffer(nil)
		})

		It("writes text", func() {
			Expect(analyzer.WriteReport(out, report, config.FormatText)).To(Succeed())
			text := out.String()
			Expect(text).To(ContainSubstring(" alloc-utils@0.3.1 (alloc-utils)\n"))
			Expect(text).To(ContainSubstring("     ❌ unsafe fn ffi::Buffer::from_raw (alloc-utils/src/ffi/mod.rs:13)\n"))
			Expect(text).To(ContainSubstring("     ✅ fn checksum (alloc-utils/src/lib.rs:3)\n"))
			Expect(text).To(ContainSubstring("     ❌ unsafe trait ffi::Zeroable (alloc-utils/src/ffi/mod.rs:3)\n"))
			Expect(text).To(ContainSubstring("     ❌ unsafe impl ffi::impl Send for Buffer (alloc-utils/src/ffi/mod.rs:10)\n"))
			Expect(text).To(ContainSubstring(" app@0.3.1 (app)\n"))
			Expect(text).To(ContainSubstring(" (no crate)\n"))
			Expect(text).To(ContainSubstring("Unsafe blocks: 3\nSafe blocks: 9\n"))
			Expect(text).NotTo(ContainSubstring("No unsafe code found"))
		})

		It("writes JSON", func() {
			Expect(analyzer.WriteReport(out, report, config.FormatJSON)).To(Succeed())

			var decoded map[string]any
			Expect(json.Unmarshal(out.Bytes(), &decoded)).To(Succeed())
			Expect(decoded).To(HaveKeyWithValue("root", workspace))
			Expect(decoded["totals"]).To(HaveKeyWithValue("unsafe_functions", BeNumerically("==", 5)))

			crates := decoded["crates"].([]any)
			first := crates[0].(map[string]any)
			Expect(first).To(HaveKeyWithValue("name", "alloc-utils"))
			file := first["files"].([]any)[0].(map[string]any)
			Expect(file).To(HaveKeyWithValue("path", "alloc-utils/src/ffi/mod.rs"))
			Expect(file["unsafe_traits"]).To(HaveLen(1))
			Expect(file).NotTo(HaveKey("parse_errors"))
		})

		It("writes YAML", func() {
			Expect(analyzer.WriteReport(out, report, config.FormatYAML)).To(Succeed())
			Expect(out.String()).To(ContainSubstring("name: alloc-utils"))
			Expect(out.String()).To(ContainSubstring("unsafe_trait_impls:"))
			Expect(out.String()).To(ContainSubstring("safe_blocks: 9"))
		})

		It("rejects unknown formats", func() {
			Expect(analyzer.WriteReport(out, report, config.Format(7))).To(
				MatchError("unsupported output format: format-invalid(7)"))
		})
	})
})
