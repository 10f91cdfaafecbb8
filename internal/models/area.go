package models

// Area is a named geographic zone (city or municipality) with coordinates.
// Areas and their adjacency are immutable reference data loaded at startup.
type Area struct {
	Name      string  `yaml:"name" json:"name"`
	Latitude  float64 `yaml:"lat" json:"lat"`
	Longitude float64 `yaml:"lng" json:"lng"`
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// AreaConfig is the on-disk shape of the areas reference file.
type AreaConfig struct {
	Areas     []Area              `yaml:"areas"`
	Adjacency map[string][]string `yaml:"adjacency"`
}
