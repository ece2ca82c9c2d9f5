package utils

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

// gutter returns the text between the last pair of '|' in a row.
func gutter(t *testing.T, row string) string {
	t.Helper()
	end := strings.LastIndexByte(row, '|')
	start := strings.LastIndexByte(row[:end], '|')
	require.True(t, start >= 0 && end > start, "row has no gutter: %q", row)
	return row[start+1 : end]
}

func TestHexDumpRows(t *testing.T) {
	tests := []struct {
		name string
		base uint64
		data []byte
		want []string
	}{
		{
			name: "empty",
			base: 0x1000,
			data: nil,
			want: []string{},
		},
		{
			name: "full row",
			base: 0x1000,
			data: []byte("Hello, World!!!!"),
			want: []string{
				"0x1000\t\t48 65 6c 6c 6f 2c 20 57 \t6f 72 6c 64 21 21 21 21 \t|Hello, World!!!!|",
			},
		},
		{
			name: "short final row",
			base: 0x100003f40,
			data: append([]byte("0123456789abcdef"), 'x', 0x00, 0x7f),
			want: []string{
				"0x100003f40\t\t30 31 32 33 34 35 36 37 \t38 39 61 62 63 64 65 66 \t|0123456789abcdef|",
				"0x100003f50\t\t78 00 7f |x..|",
			},
		},
		{
			name: "tilde and del render as dots",
			base: 0x10,
			data: []byte{0x7d, 0x7e, 0x7f},
			want: []string{
				"0x10\t\t7d 7e 7f |}..|",
			},
		},
		{
			name: "eight byte row keeps the half separator",
			base: 0,
			data: []byte("ABCDEFGH"),
			want: []string{
				"0x0\t\t41 42 43 44 45 46 47 48 \t|ABCDEFGH|",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HexDumpRows(tt.base, tt.data, DefaultRowWidth)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHexDumpRowsProperties(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 15, 16, 17, 31, 32, 33, 255, 256} {
		for _, base := range []uint64{0, 0x1, 0x1000, 0x100000000} {
			t.Run(fmt.Sprintf("len=%d/base=%#x", n, base), func(t *testing.T) {
				data := make([]byte, n)
				for i := range data {
					data[i] = byte(i * 7)
				}
				rows := HexDumpRows(base, data, 16)
				require.Len(t, rows, (n+15)/16)
				for i, row := range rows {
					assert.True(t, strings.HasPrefix(row, fmt.Sprintf("%#x\t\t", base+uint64(16*i))), "row %d: %q", i, row)

					chunk := data[16*i : min(16*(i+1), n)]
					g := gutter(t, row)
					require.Len(t, g, len(chunk))
					for j, b := range chunk {
						if b < 0x20 || b >= 0x7e {
							assert.Equal(t, byte('.'), g[j], "byte %#x", b)
						} else {
							assert.Equal(t, b, g[j])
						}
					}
				}
			})
		}
	}
}

func TestHexDumpRowsCustomWidth(t *testing.T) {
	rows := HexDumpRows(0x2000, seq(20), 10)
	require.Len(t, rows, 2)
	assert.True(t, strings.HasPrefix(rows[1], "0x200a\t\t"))
	// the separator is placed after every 8th byte of the row, not globally
	assert.Equal(t, "0x200a\t\t0a 0b 0c 0d 0e 0f 10 11 \t12 13 |..........|", rows[1])
}

func TestHexDumpZeroToThirtyOne(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()
	color.NoColor = true

	var buf bytes.Buffer
	d := Dumper(&buf, 0x1000)
	_, err := d.Write(seq(32))
	require.NoError(t, err)
	require.NoError(t, d.Close())
	rows := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, rows, 2)
	assert.True(t, strings.HasPrefix(rows[0], "0x1000\t\t00 01"))
	assert.True(t, strings.HasPrefix(rows[1], "0x1010\t\t10 11"))
	for _, row := range rows {
		assert.Equal(t, strings.Repeat(".", 16), gutter(t, row))
	}
}

func TestDumperMatchesRows(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()
	color.NoColor = true

	data := seq(70)
	var buf bytes.Buffer
	d := Dumper(&buf, 0x4000)
	// feed in uneven chunks
	for _, chunk := range [][]byte{data[:3], data[3:20], data[20:21], data[21:]} {
		n, err := d.Write(chunk)
		require.NoError(t, err)
		require.Equal(t, len(chunk), n)
	}
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	want := strings.Join(HexDumpRows(0x4000, data, DefaultRowWidth), "\n") + "\n"
	assert.Equal(t, want, buf.String())

	_, err := d.Write([]byte{1})
	assert.Error(t, err)
}

func TestDumperDimsZerosWithColor(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	color.NoColor = false
	var buf bytes.Buffer
	d := Dumper(&buf, 0x1000)
	_, err := d.Write(make([]byte, 16))
	require.NoError(t, err)
	require.NoError(t, d.Close())
	assert.Contains(t, buf.String(), "\x1b[")

	color.NoColor = true
	buf.Reset()
	d = Dumper(&buf, 0x1000)
	_, err = d.Write(make([]byte, 16))
	require.NoError(t, err)
	require.NoError(t, d.Close())
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Equal(t, HexDumpRows(0x1000, make([]byte, 16), DefaultRowWidth)[0]+"\n", buf.String())
}
