package domain

import "strings"

// Point is a residue collection location.
type Point struct {
	ID        int64
	Image     string
	Name      string
	Email     string
	Whatsapp  string
	Latitude  float64
	Longitude float64
	City      string
	State     string
}

// Item is a category of material a point can accept.
type Item struct {
	ID    int64
	Title string
	Image string
}

// PointItem links a point to an item it accepts.
type PointItem struct {
	ID      int64
	PointID int64
	ItemID  int64
}

// PointFilter narrows a point listing. Zero-valued fields do not constrain
// the result; a non-empty ItemIDs matches points accepting any of the ids.
type PointFilter struct {
	City    string
	State   string
	ItemIDs []int64
}

// HasUploadedImage reports whether Image is a key in the image store rather
// than an absolute URL.
func (p *Point) HasUploadedImage() bool {
	return p.Image != "" && !strings.Contains(p.Image, "://")
}
