package gpu

import _ "embed"

// Embedded WGSL shader sources for the two render pipelines.

//go:embed shaders/color.wgsl
var colorShaderSource string

//go:embed shaders/texture.wgsl
var textureShaderSource string
