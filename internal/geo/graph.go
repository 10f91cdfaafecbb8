// Package geo holds the static area reference data: the adjacency graph of
// municipalities and their coordinates, plus great-circle distance. The
// graph is loaded once at startup and read-only afterwards.
package geo

import (
	"fmt"
	"os"
	"strings"

	"github.com/aliceryden/portalen/internal/models"
	"gopkg.in/yaml.v2"
)

// Graph answers "which areas count as near X". Lookups are
// case-insensitive and return canonical area names.
type Graph struct {
	areas     []models.Area
	canonical map[string]string             // lower-cased name -> canonical name
	coords    map[string]models.Coordinates // canonical name -> coordinates
	adjacency map[string][]string           // canonical name -> canonical neighbors
}

// NewGraph builds a graph from reference data. Neighbor names that refer to
// areas absent from the area list are kept verbatim; the graph does not
// enforce a bounded vocabulary.
func NewGraph(cfg models.AreaConfig) *Graph {
	g := &Graph{
		areas:     cfg.Areas,
		canonical: make(map[string]string, len(cfg.Areas)),
		coords:    make(map[string]models.Coordinates, len(cfg.Areas)),
		adjacency: make(map[string][]string, len(cfg.Adjacency)),
	}
	for _, a := range cfg.Areas {
		g.canonical[strings.ToLower(a.Name)] = a.Name
		g.coords[a.Name] = models.Coordinates{Latitude: a.Latitude, Longitude: a.Longitude}
	}
	for name, neighbors := range cfg.Adjacency {
		canon := g.Canonical(name)
		list := make([]string, 0, len(neighbors))
		for _, n := range neighbors {
			list = append(list, g.Canonical(n))
		}
		g.adjacency[canon] = list
	}
	return g
}

// Canonical returns the canonical casing for an area name, or the input
// unchanged when the area is unknown.
func (g *Graph) Canonical(name string) string {
	if canon, ok := g.canonical[strings.ToLower(name)]; ok {
		return canon
	}
	return name
}

// Neighbors returns the area itself followed by its directly configured
// neighbors, one hop only. Unknown areas yield just the singleton list.
func (g *Graph) Neighbors(area string) []string {
	canon := g.Canonical(area)
	neighbors := g.adjacency[canon]
	out := make([]string, 0, len(neighbors)+1)
	out = append(out, canon)
	for _, n := range neighbors {
		if n != canon {
			out = append(out, n)
		}
	}
	return out
}

// Coordinates returns the coordinates for a known area.
func (g *Graph) Coordinates(area string) (models.Coordinates, bool) {
	c, ok := g.coords[g.Canonical(area)]
	return c, ok
}

// Areas returns the reference area list in configuration order.
func (g *Graph) Areas() []models.Area {
	return g.areas
}

// Adjacency returns the configured adjacency table.
func (g *Graph) Adjacency() map[string][]string {
	return g.adjacency
}

// LoadFile reads the areas reference file.
func LoadFile(path string) (models.AreaConfig, error) {
	var cfg models.AreaConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read areas file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse areas file: %w", err)
	}
	return cfg, nil
}
