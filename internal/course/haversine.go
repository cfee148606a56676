package course

import "math"

// WGS84 axes in metres.
const (
	axisA        = 6378137.0
	axisB        = 6356752.314245
	earthRadius  = 6378137.0
	flattening   = (axisA - axisB) / axisA
	degToRadians = math.Pi / 180
)

// Haversine returns the great-circle distance in metres between two
// coordinates, using reduced latitudes to account for the flattening of
// the WGS84 ellipsoid.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := math.Atan((1 - flattening) * math.Tan(lat1*degToRadians))
	phi2 := math.Atan((1 - flattening) * math.Tan(lat2*degToRadians))
	lambda1 := lon1 * degToRadians
	lambda2 := lon2 * degToRadians

	sinPhi := math.Sin((phi2 - phi1) / 2)
	sinLambda := math.Sin((lambda2 - lambda1) / 2)

	h := math.Sqrt(sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda)
	return 2 * earthRadius * math.Asin(h)
}
