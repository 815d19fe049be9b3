package validation

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kjstillabower/forecast-gateway/internal/models"
)

// ResourcePath is the only path the gateway serves.
const ResourcePath = "/weather"

// Kyiv is used when the caller omits a coordinate.
const (
	DefaultLatitude  = "50.4375"
	DefaultLongitude = "30.5"
)

// ErrUnsupportedRoute is returned for any path/method pair other than GET /weather.
var ErrUnsupportedRoute = errors.New("unsupported route")

// ValidateRoute enforces the single-route allow-list. The returned error message
// is suitable for the 400 response body and echoes path and method verbatim.
func ValidateRoute(path, method string) error {
	if path == ResourcePath && method == http.MethodGet {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedRoute, RejectionMessage(path, method))
}

// RejectionMessage formats the human-readable 400 message for path and method.
func RejectionMessage(path, method string) string {
	return fmt.Sprintf("Bad request syntax or unsupported method. Request path: %s. HTTP method: %s", path, method)
}

// CoordinatesFrom reads lat/lon from the request query. Absent or empty values
// fall back to the defaults; no numeric or range checks are applied.
func CoordinatesFrom(req models.InboundRequest) models.Coordinates {
	coords := models.Coordinates{
		Latitude:  req.QueryParam("lat"),
		Longitude: req.QueryParam("lon"),
	}
	if coords.Latitude == "" {
		coords.Latitude = DefaultLatitude
	}
	if coords.Longitude == "" {
		coords.Longitude = DefaultLongitude
	}
	return coords
}
