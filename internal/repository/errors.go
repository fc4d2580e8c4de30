package repository

import "errors"

// ErrInvalidRasterURL indicates an invalid raster URL
var ErrInvalidRasterURL = errors.New("invalid raster URL")
