/*
 *  juicer_test.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/17/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf_test

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/kshedden/gonpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/hicscaf"
)

func TestWritePre(t *testing.T) {
	layout := hicscaf.NewLayoutFromDict(newDict(t,
		hicscaf.Sequence{Name: "A", Length: 1000},
		hicscaf.Sequence{Name: "B", Length: 500}))
	links := hicscaf.LinkPairs{
		{Seq0: 0, Pos0: 100, Seq1: 1, Pos1: 50},
		{Seq0: 1, Pos0: 10, Seq1: 0, Pos1: 20},
		{Seq0: 1, Pos0: 10, Seq1: 2, Pos1: 20},
	}
	assert.Equal(t, uint(0), hicscaf.ScaleShift(layout))

	var buf bytes.Buffer
	stats, err := hicscaf.WritePre(&buf, links, layout, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Unmapped)
	assert.Equal(t, "0\tA\t100\t0\t1\tB\t50\t1\n0\tA\t20\t1\t1\tB\t10\t0\n", buf.String())

	buf.Reset()
	_, err = hicscaf.WritePre(&buf, links[:1], layout, 2)
	require.NoError(t, err)
	assert.Equal(t, "0\tA\t25\t0\t1\tB\t12\t1\n", buf.String())
}

func TestScaleShift(t *testing.T) {
	layout := hicscaf.NewLayoutFromDict(newDict(t,
		hicscaf.Sequence{Name: "A", Length: 3 << 30}))
	assert.Equal(t, uint(1), hicscaf.ScaleShift(layout))
}

func TestContactMap(t *testing.T) {
	layout := hicscaf.NewLayoutFromDict(newDict(t,
		hicscaf.Sequence{Name: "A", Length: 1000},
		hicscaf.Sequence{Name: "B", Length: 500}))
	links := hicscaf.LinkPairs{
		{Seq0: 0, Pos0: 100, Seq1: 1, Pos1: 50},
		{Seq0: 0, Pos0: 600, Seq1: 0, Pos1: 700},
	}
	m, n, err := hicscaf.ContactMap(links, layout, 500)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	assert.Equal(t, []float64{
		0, 0, 1,
		0, 1, 0,
		1, 0, 0,
	}, m)

	npyfile := filepath.Join(t.TempDir(), "map.npy")
	require.NoError(t, hicscaf.WriteContactMap(npyfile, links, layout, 500))
	r, err := gonpy.NewFileReader(npyfile)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3}, r.Shape)
	data, err := r.GetFloat64()
	require.NoError(t, err)
	assert.Equal(t, m, data)

	assert.Error(t, hicscaf.WriteContactMap(npyfile, links, layout, 0))
}

func TestJuicerRun(t *testing.T) {
	dir := t.TempDir()
	linkfile := filepath.Join(dir, "links.bin")
	_, err := hicscaf.WriteLinkFile(linkfile, func(w *hicscaf.LinkWriter) error {
		return w.Write(hicscaf.LinkPair{Seq0: 0, Pos0: 100, Seq1: 1, Pos1: 50})
	})
	require.NoError(t, err)
	agp := "scaffold_1\t1\t500\t1\tW\tB\t1\t500\t-\n" +
		"scaffold_1\t501\t600\t2\tN\t100\tscaffold\tyes\tproximity_ligation\n" +
		"scaffold_1\t601\t1600\t3\tW\tA\t1\t1000\t+\n"

	juicer := hicscaf.Juicer{
		Linkfile: linkfile,
		AGPfile:  writeFile(t, dir, "scaffolds.agp", agp),
		Faifile:  writeFile(t, dir, "contigs.fa.fai", "A\t1000\t3\t60\t61\nB\t500\t1023\t60\t61\n"),
	}
	require.NoError(t, juicer.Run())
	out, err := ioutil.ReadFile(filepath.Join(dir, "links.pre.txt"))
	require.NoError(t, err)
	assert.Equal(t, "0\tscaffold_1\t700\t0\t1\tscaffold_1\t449\t1\n", string(out))
}
