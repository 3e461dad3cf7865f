// Package openapi embeds the request contract of the public HTTP API.
package openapi

import _ "embed"

//go:embed openapi.yaml
var Spec []byte
