/*
 *  dot.go
 *  hicscaf
 *
 *  Created by Haibao Tang on 10/17/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package hicscaf

import (
	"fmt"
	"io"
	"strconv"

	"github.com/awalterschulze/gographviz"
)

// nodeName labels a node by scaffold name and orientation
func nodeName(layout *Layout, v int) string {
	o := '+'
	if v&1 == 1 {
		o = '-'
	}
	return strconv.Quote(fmt.Sprintf("%s%c", layout.Scaffolds[v>>1].Name, o))
}

// GraphDOT renders the live arcs of the graph in DOT
func GraphDOT(g *Graph, layout *Layout) (string, error) {
	dot := gographviz.NewGraph()
	if err := dot.SetName("G"); err != nil {
		return "", err
	}
	if err := dot.SetDir(true); err != nil {
		return "", err
	}
	for v := 0; v < g.NNodes(); v++ {
		if g.OutDegree(v) == 0 && g.InDegree(v) == 0 {
			continue
		}
		attr := map[string]string{
			"shape": "box",
		}
		if v&1 == 1 {
			attr["color"] = "Red"
		} else {
			attr["color"] = "Green"
		}
		if err := dot.AddNode("G", nodeName(layout, v), attr); err != nil {
			return "", err
		}
	}
	for _, a := range g.liveArcs() {
		arc := &g.Arcs[a]
		attr := map[string]string{
			"label": strconv.Quote(fmt.Sprintf("%.3f (%d)", arc.Weight, arc.Count)),
		}
		if err := dot.AddEdge(nodeName(layout, arc.V), nodeName(layout, arc.W), true, attr); err != nil {
			return "", err
		}
	}
	return dot.String(), nil
}

// WriteGraphDOT writes the graph to a DOT file
func WriteGraphDOT(filename string, g *Graph, layout *Layout) error {
	s, err := GraphDOT(g, layout)
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(filename, func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}); err != nil {
		return err
	}
	log.Noticef("Graph with %d arcs written to `%s`", g.NArcs(), filename)
	return nil
}
