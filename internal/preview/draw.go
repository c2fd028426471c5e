// Package preview annotates camera frames with the detected hand skeleton
// and keeps the latest annotated frame for streaming.
package preview

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/pinchcursor/internal/detector"
)

// Skeleton styling.
var (
	ConnectorColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	LandmarkColor  = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

const (
	ConnectorThickness = 2
	LandmarkThickness  = 1
	LandmarkRadius     = 3
)

// toPixel maps a normalized landmark onto the frame.
func toPixel(p detector.Point3D, cols, rows int) image.Point {
	return image.Pt(int(p.X*float64(cols)), int(p.Y*float64(rows)))
}

// Draw paints every hand's connectors and then its landmarks onto frame.
func Draw(frame *gocv.Mat, hands []detector.HandLandmarks) {
	if frame == nil || frame.Empty() {
		return
	}
	cols, rows := frame.Cols(), frame.Rows()

	for i := range hands {
		pts := hands[i].Points

		for _, c := range detector.Connections {
			gocv.Line(frame, toPixel(pts[c[0]], cols, rows), toPixel(pts[c[1]], cols, rows), ConnectorColor, ConnectorThickness)
		}
		for _, p := range pts {
			gocv.Circle(frame, toPixel(p, cols, rows), LandmarkRadius, LandmarkColor, LandmarkThickness)
		}
	}
}
