// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface ties ink's pieces into render targets. A Surface owns a
// target (an owned or borrowed pixmap, or a GPU framebuffer), an embedded
// recorder, and the canvas that writes into it.
//
// The frame lifecycle is BeginFrame, draw through Canvas, EndFrame,
// Flush. Flush builds a DrawPass over the sealed recording, hands it to
// the backend, and resets the recorder for the next frame. MakeSnapshot
// returns an immutable Image of the current contents: raster surfaces
// copy pixels, GPU surfaces blit into a separate texture.
//
// Surfaces are not safe for concurrent use.
package surface
