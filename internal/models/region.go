package models

import "fmt"

type Point struct {
	Lat float64
	Lon float64
}

// BoundingBox uses the west,south,east,north convention shared by the
// HERE and TomTom incident APIs.
type BoundingBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.West, b.South, b.East, b.North)
}

// Region describes the area for an incidents request: a bounding box when
// BBox is set, otherwise a circle around Center with RadiusMeters.
type Region struct {
	BBox         *BoundingBox
	Center       *Point
	RadiusMeters int
}
