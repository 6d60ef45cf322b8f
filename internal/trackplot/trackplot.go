// Package trackplot renders a track layout, its hard-turn borders and car
// positions to an image file with gonum/plot.
package trackplot

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/circuit/internal/track"
)

var (
	roadColor   = color.RGBA{R: 102, G: 102, B: 102, A: 255}
	centerColor = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	redBorder   = color.RGBA{R: 255, A: 255}
	whiteBorder = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	carColor    = color.RGBA{B: 220, A: 255}
)

// Options controls the rendered image.
type Options struct {
	Title string
	Size  vg.Length // square image side, defaults to 8 inches
}

// Render draws t and the given car positions and saves the image to path.
// The format follows the file extension (png, svg, pdf, ...).
func Render(t *track.Track, cars []r2.Vec, path string, opts Options) error {
	if t.Len() < 2 {
		return fmt.Errorf("render track: need at least 2 samples, got %d", t.Len())
	}
	if opts.Size <= 0 {
		opts.Size = 8 * vg.Inch
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.BackgroundColor = color.RGBA{R: 102, G: 204, B: 102, A: 255}

	left, right := edges(t)
	for _, edge := range []plotter.XYs{left, right} {
		line, err := plotter.NewLine(edge)
		if err != nil {
			return fmt.Errorf("road edge: %w", err)
		}
		line.Color = roadColor
		line.Width = vg.Points(2)
		p.Add(line)
	}

	center, err := plotter.NewLine(loop(t.Path))
	if err != nil {
		return fmt.Errorf("centerline: %w", err)
	}
	center.Color = centerColor
	center.Width = vg.Points(0.5)
	center.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	p.Add(center)
	p.Legend.Add("centerline", center)

	for _, bq := range t.BorderQuads() {
		c := bq.Corners
		// Corners are ordered inner/outer at the start then at the end.
		poly, err := plotter.NewPolygon(plotter.XYs{
			{X: c[0].X, Y: c[0].Y}, {X: c[1].X, Y: c[1].Y},
			{X: c[3].X, Y: c[3].Y}, {X: c[2].X, Y: c[2].Y},
		})
		if err != nil {
			return fmt.Errorf("border %d: %w", bq.Index, err)
		}
		poly.Color = whiteBorder
		if bq.Red {
			poly.Color = redBorder
		}
		poly.LineStyle.Width = 0
		p.Add(poly)
	}

	start := plotter.XYs{{X: t.Path[0].X, Y: t.Path[0].Y}}
	startMark, err := plotter.NewScatter(start)
	if err != nil {
		return fmt.Errorf("start marker: %w", err)
	}
	startMark.GlyphStyle.Shape = draw.BoxGlyph{}
	startMark.GlyphStyle.Radius = vg.Points(4)
	p.Add(startMark)
	p.Legend.Add("start", startMark)

	if len(cars) > 0 {
		pts := make(plotter.XYs, len(cars))
		for i, c := range cars {
			pts[i] = plotter.XY{X: c.X, Y: c.Y}
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("cars: %w", err)
		}
		scatter.GlyphStyle.Color = carColor
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("cars", scatter)
	}

	squareAxes(p, t)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := p.Save(opts.Size, opts.Size, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// loop returns the points closed back onto the first one.
func loop(pts []r2.Vec) plotter.XYs {
	xys := make(plotter.XYs, 0, len(pts)+1)
	for _, p := range pts {
		xys = append(xys, plotter.XY{X: p.X, Y: p.Y})
	}
	return append(xys, xys[0])
}

// edges returns the two road edges as closed polylines.
func edges(t *track.Track) (left, right plotter.XYs) {
	tiles := t.Tiles()
	l := make([]r2.Vec, len(tiles))
	r := make([]r2.Vec, len(tiles))
	for i, q := range tiles {
		l[i], r[i] = q[0], q[1]
	}
	return loop(l), loop(r)
}

// squareAxes gives both axes the same range so the layout is not stretched.
func squareAxes(p *plot.Plot, t *track.Track) {
	extent := 0.0
	for _, q := range t.Tiles() {
		for _, c := range q {
			extent = math.Max(extent, math.Max(math.Abs(c.X), math.Abs(c.Y)))
		}
	}
	extent += t.HalfWidth + t.BorderWidth
	p.X.Min, p.X.Max = -extent, extent
	p.Y.Min, p.Y.Max = -extent, extent
}
