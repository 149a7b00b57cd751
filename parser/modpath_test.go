package parser_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hannajonsd/unsafe-census/parser"
)

func TestModulePath(t *testing.T) {
	crate := filepath.FromSlash("/work/crate")

	tests := []struct {
		file string
		want []string
	}{
		{file: "src/lib.rs", want: nil},
		{file: "src/main.rs", want: nil},
		{file: "src/ffi.rs", want: []string{"ffi"}},
		{file: "src/ffi/mod.rs", want: []string{"ffi"}},
		{file: "src/ffi/raw.rs", want: []string{"ffi", "raw"}},
		{file: "src/bin/tool.rs", want: nil},
		{file: "src/bin/tool/main.rs", want: nil},
		{file: "tests/smoke.rs", want: nil},
		{file: "tests/common/mod.rs", want: []string{"common"}},
		{file: "examples/demo/main.rs", want: nil},
		{file: "build.rs", want: nil},
		{file: "../other/src/lib.rs", want: nil},
		{file: "vendor/x/src/lib.rs", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got := parser.ModulePath(crate, filepath.Join(crate, filepath.FromSlash(tt.file)))
			assert.Equal(t, tt.want, got)
		})
	}
}
