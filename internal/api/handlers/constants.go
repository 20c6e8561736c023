package handlers

const (
	// Query flag that makes POST /generations block until the generation settles
	waitQueryParam = "wait"

	contentTypePNG = "image/png"
)
