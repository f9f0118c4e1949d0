package api

import "errors"

var (
	errInvalidCoords = errors.New("invalid lat/lon parameters")
	errInvalidBBox   = errors.New("invalid bbox parameter")
)
