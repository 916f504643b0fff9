// Package formdata decodes HTTP request bodies encoded as multipart/form-data
// into a structured dataset of params, uploaded files, headers and cookies.
//
// Hosts that only decode multipart bodies for POST requests, or that run
// behind servers which consume the body before the application sees it, can
// hand the raw request to a [Parser] and receive a [Dataset] for any method.
// Uploaded files are written to temporary files which the caller owns.
//
// The dataset can be bound into Go values with [Dataset.Unmarshal], and Go
// values can be written as multipart bodies with an [Encoder].
package formdata
