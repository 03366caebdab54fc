package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func memFsWithImages(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	for name, size := range map[string]int{"base.png": 16, "mark.png": 4} {
		img := image.NewNRGBA(image.Rect(0, 0, size, size))
		for y := range size {
			for x := range size {
				img.SetNRGBA(x, y, color.NRGBA{R: uint8(size * 10), G: 50, B: 90, A: 255})
			}
		}
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))
		require.NoError(t, afero.WriteFile(fs, name, buf.Bytes(), 0o644))
	}
	return fs
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		stdin    string
		wantCode int
		wantOut  string
		wantFile string
	}{
		{
			name:     "version",
			args:     []string{"--version"},
			wantCode: 0,
			wantOut:  "watermark v" + version,
		},
		{
			name:     "flags",
			args:     []string{"-i", "base.png", "-w", "mark.png", "-p", "40", "--position", "grid", "-o", "out.png"},
			wantCode: 0,
			wantOut:  "The watermarked image out.png has been created.",
			wantFile: "out.png",
		},
		{
			name:     "interactive",
			stdin:    "base.png\nmark.png\nno\n70\nsingle\n12 0\nres.jpg\n",
			wantCode: 0,
			wantOut:  "The watermarked image res.jpg has been created.",
			wantFile: "res.jpg",
		},
		{
			name:     "invalid answer",
			stdin:    "base.png\nmark.png\nno\n170\n",
			wantCode: 1,
			wantOut:  "The transparency percentage is out of range.",
		},
		{
			name:     "unknown flag",
			args:     []string{"--nope"},
			wantCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memFsWithImages(t)
			var out bytes.Buffer

			code := run(tt.args, strings.NewReader(tt.stdin), &out, fs)
			require.Equal(t, tt.wantCode, code)
			require.Contains(t, out.String(), tt.wantOut)

			if tt.wantFile != "" {
				ok, err := afero.Exists(fs, tt.wantFile)
				require.NoError(t, err)
				require.True(t, ok)
			}
		})
	}
}
