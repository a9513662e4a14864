//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ink"
)

// HAL device errors.
var (
	// ErrNoAdapter is returned when adapter enumeration finds no GPU.
	ErrNoAdapter = errors.New("gpu: no GPU adapters found")

	// ErrNoBackend is returned when no wgpu backend is registered.
	ErrNoBackend = errors.New("gpu: no wgpu backend available")
)

// gpuTimeout is not applied to any wait: submitted work is awaited with
// WaitIdle, which takes no timeout.
const gpuTimeout = 5 * time.Second

// readbackRowAlignment is the buffer row alignment required by texture
// readback copies.
const readbackRowAlignment = 256

// Compile-time interface check.
var _ Device = (*HALDevice)(nil)

// HALDevice implements Device over gogpu/wgpu's hardware abstraction
// layer. Pass state is recorded CPU-side and encoded into a single render
// pass at EndPass, because vertex uploads go through fresh buffers that
// must all exist before submission.
//
// The device must be used from the thread on which it was created.
type HALDevice struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	samplerLinear  hal.Sampler
	samplerNearest hal.Sampler

	framebuffers map[FramebufferID]*halFramebuffer
	textures     map[TextureID]*halTexture
	buffers      map[BufferID]*halDynamicBuffer
	pipelines    map[PipelineID]*halPipeline
	nextID       uint64

	// Target format pinned by the first framebuffer; pipelines compile
	// against it.
	targetFormat gputypes.TextureFormat

	// Uniform buffer holding the projection matrix. The projection is
	// invariant within a frame, so a single last-write-wins buffer is
	// sufficient for all draws of a pass.
	uniformBuf hal.Buffer
	projection [16]float32

	// Recorded pass state.
	passFB    *halFramebuffer
	passClear *ink.Color
	cmds      []halCmd
}

type halFramebuffer struct {
	tex    hal.Texture
	view   hal.TextureView
	width  int
	height int
	format gputypes.TextureFormat
	texID  TextureID
}

type halTexture struct {
	tex     hal.Texture
	view    hal.TextureView
	width   int
	height  int
	format  gputypes.TextureFormat
	nearest bool
}

type halDynamicBuffer struct {
	current hal.Buffer
	size    uint64
	retired []hal.Buffer
}

type halPipeline struct {
	pipeline   hal.RenderPipeline
	layout     VertexLayout
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	shader     hal.ShaderModule
}

// halCmd is one recorded pass command.
type halCmd struct {
	kind halCmdKind

	pipeline PipelineID
	buffer   hal.Buffer
	texture  TextureID
	first    int
	count    int
	rect     [4]int
	enabled  bool
}

type halCmdKind uint8

const (
	cmdBindPipeline halCmdKind = iota
	cmdBindVertexBuffer
	cmdBindTexture
	cmdDraw
	cmdScissor
	cmdScissorEnable
)

// NewHALDevice opens the most capable registered wgpu backend, preferring
// discrete and integrated GPUs, and prepares the shared samplers.
func NewHALDevice() (*HALDevice, error) {
	backend, err := hal.SelectBestBackend()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoBackend, err)
	}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}

	d := &HALDevice{
		instance:     instance,
		device:       openDev.Device,
		queue:        openDev.Queue,
		framebuffers: make(map[FramebufferID]*halFramebuffer),
		textures:     make(map[TextureID]*halTexture),
		buffers:      make(map[BufferID]*halDynamicBuffer),
		pipelines:    make(map[PipelineID]*halPipeline),
		targetFormat: gputypes.TextureFormatRGBA8Unorm,
	}
	if err := d.createSamplers(); err != nil {
		d.device.Destroy()
		instance.Destroy()
		return nil, err
	}

	ink.Logger().Info("gpu: adapter selected", "adapter", selected.Info.Name)
	return d, nil
}

func (d *HALDevice) createSamplers() error {
	linear, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "ink_sampler_linear",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("gpu: create linear sampler: %w", err)
	}
	nearest, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "ink_sampler_nearest",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		d.device.DestroySampler(linear)
		return fmt.Errorf("gpu: create nearest sampler: %w", err)
	}
	d.samplerLinear = linear
	d.samplerNearest = nearest
	return nil
}

func (d *HALDevice) nextHandle() uint64 {
	d.nextID++
	return d.nextID
}

// textureFormat maps an ink pixel format onto the wgpu texture format.
func textureFormat(f ink.PixelFormat) gputypes.TextureFormat {
	if f == ink.FormatBGRA8888 {
		return gputypes.TextureFormatBGRA8Unorm
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// --------------------------------------------------------------------------
// Targets and textures
// --------------------------------------------------------------------------

// CreateFramebuffer allocates an offscreen color attachment that can also
// be sampled and copied, so snapshots of it can feed other surfaces.
func (d *HALDevice) CreateFramebuffer(width, height int, format ink.PixelFormat) (FramebufferID, TextureID, error) {
	if width <= 0 || height <= 0 {
		return 0, 0, ErrInvalidTarget
	}
	gf := textureFormat(format)
	if len(d.framebuffers) == 0 {
		d.targetFormat = gf
	}

	tex, view, err := d.createTexture2D("ink_target", width, height, gf,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc|
			gputypes.TextureUsageCopyDst|gputypes.TextureUsageTextureBinding)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrTextureAlloc, err)
	}

	texID := TextureID(d.nextHandle())
	d.textures[texID] = &halTexture{tex: tex, view: view, width: width, height: height, format: gf}

	fbID := FramebufferID(d.nextHandle())
	d.framebuffers[fbID] = &halFramebuffer{
		tex: tex, view: view, width: width, height: height, format: gf, texID: texID,
	}
	return fbID, texID, nil
}

// ResizeFramebuffer re-creates the attachment storage; contents are
// discarded.
func (d *HALDevice) ResizeFramebuffer(fb FramebufferID, width, height int) error {
	f, ok := d.framebuffers[fb]
	if !ok || width <= 0 || height <= 0 {
		return ErrInvalidTarget
	}
	tex, view, err := d.createTexture2D("ink_target", width, height, f.format,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc|
			gputypes.TextureUsageCopyDst|gputypes.TextureUsageTextureBinding)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTextureAlloc, err)
	}
	d.device.DestroyTextureView(f.view)
	d.device.DestroyTexture(f.tex)
	f.tex = tex
	f.view = view
	f.width = width
	f.height = height
	if t := d.textures[f.texID]; t != nil {
		t.tex = tex
		t.view = view
		t.width = width
		t.height = height
	}
	return nil
}

// DestroyFramebuffer releases a framebuffer and its color attachment.
func (d *HALDevice) DestroyFramebuffer(fb FramebufferID) {
	f, ok := d.framebuffers[fb]
	if !ok {
		return
	}
	d.device.DestroyTextureView(f.view)
	d.device.DestroyTexture(f.tex)
	delete(d.textures, f.texID)
	delete(d.framebuffers, fb)
}

// createTexture2D creates a single-sample 2D texture and its default
// view.
func (d *HALDevice) createTexture2D(label string, width, height int, format gputypes.TextureFormat, usage gputypes.TextureUsage) (hal.Texture, hal.TextureView, error) {
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, err
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, nil, err
	}
	return tex, view, nil
}

// CreateTexture allocates a sampled texture, optionally uploading initial
// contents.
func (d *HALDevice) CreateTexture(width, height int, format ink.PixelFormat, pixels []byte, filter TextureFilter) (TextureID, error) {
	if width <= 0 || height <= 0 {
		return 0, ErrTextureAlloc
	}
	gf := textureFormat(format)
	tex, view, err := d.createTexture2D("ink_texture", width, height, gf,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTextureAlloc, err)
	}
	id := TextureID(d.nextHandle())
	d.textures[id] = &halTexture{
		tex: tex, view: view, width: width, height: height, format: gf,
		nearest: filter == FilterNearest,
	}
	if pixels != nil {
		d.WriteTexture(id, width, height, pixels)
	}
	return id, nil
}

// WriteTexture replaces the full contents of a texture from tightly
// packed rows.
func (d *HALDevice) WriteTexture(tex TextureID, width, height int, pixels []byte) {
	t := d.textures[tex]
	if t == nil || t.width != width || t.height != height {
		return
	}
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		pixels,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(4 * width), RowsPerImage: uint32(height)},
		&hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
	)
}

// DeleteTexture releases a texture.
func (d *HALDevice) DeleteTexture(tex TextureID) {
	t, ok := d.textures[tex]
	if !ok {
		return
	}
	d.device.DestroyTextureView(t.view)
	d.device.DestroyTexture(t.tex)
	delete(d.textures, tex)
}

// --------------------------------------------------------------------------
// Pipelines and buffers
// --------------------------------------------------------------------------

// CompilePipeline compiles WGSL through naga to SPIR-V and builds a
// render pipeline with straight-alpha blending against the pinned target
// format. The vertex and fragment sources may be the same module.
func (d *HALDevice) CompilePipeline(layout VertexLayout, vertexSrc, fragmentSrc string) (PipelineID, error) {
	vsModule, err := d.compileShader("ink_vs", vertexSrc)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrPipelineLink, err)
	}
	fsModule := vsModule
	if fragmentSrc != vertexSrc {
		fsModule, err = d.compileShader("ink_fs", fragmentSrc)
		if err != nil {
			d.device.DestroyShaderModule(vsModule)
			return 0, fmt.Errorf("%w: %w", ErrPipelineLink, err)
		}
	}

	bindLayout, err := d.createBindLayout(layout)
	if err != nil {
		d.device.DestroyShaderModule(vsModule)
		return 0, fmt.Errorf("%w: %w", ErrPipelineLink, err)
	}
	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "ink_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		d.device.DestroyBindGroupLayout(bindLayout)
		d.device.DestroyShaderModule(vsModule)
		return 0, fmt.Errorf("%w: %w", ErrPipelineLink, err)
	}

	blend := gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
	pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "ink_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     vsModule,
			EntryPoint: "vs_main",
			Buffers:    vertexBufferLayout(layout),
		},
		Fragment: &hal.FragmentState{
			Module:     fsModule,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    d.targetFormat,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		d.device.DestroyPipelineLayout(pipeLayout)
		d.device.DestroyBindGroupLayout(bindLayout)
		d.device.DestroyShaderModule(vsModule)
		return 0, fmt.Errorf("%w: %w", ErrPipelineLink, err)
	}

	id := PipelineID(d.nextHandle())
	d.pipelines[id] = &halPipeline{
		pipeline:   pipeline,
		layout:     layout,
		bindLayout: bindLayout,
		pipeLayout: pipeLayout,
		shader:     vsModule,
	}
	return id, nil
}

// compileShader compiles WGSL source to SPIR-V and wraps it in a shader
// module.
func (d *HALDevice) compileShader(label, source string) (hal.ShaderModule, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	// SPIR-V is little-endian 32-bit words.
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
}

// createBindLayout builds the bind group layout for a pipeline kind:
// binding 0 is the projection uniform; the texture pipeline adds a
// sampled texture and sampler.
func (d *HALDevice) createBindLayout(layout VertexLayout) (hal.BindGroupLayout, error) {
	entries := []gputypes.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}}
	if layout == LayoutTexture {
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		)
	}
	return d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "ink_bind_layout",
		Entries: entries,
	})
}

// vertexBufferLayout describes the interleaved vertex stream for a
// pipeline kind.
func vertexBufferLayout(layout VertexLayout) []gputypes.VertexBufferLayout {
	if layout == LayoutTexture {
		return []gputypes.VertexBufferLayout{{
			ArrayStride: uint64(LayoutTexture.Stride()),
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // uv
			},
		}}
	}
	return []gputypes.VertexBufferLayout{{
		ArrayStride: uint64(LayoutColor.Stride()),
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
			{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1}, // color
		},
	}}
}

// CreateVertexBuffer allocates a dynamic buffer slot. The backing wgpu
// buffer is created per upload, because every upload within a pass must
// stay alive until submission.
func (d *HALDevice) CreateVertexBuffer() BufferID {
	id := BufferID(d.nextHandle())
	d.buffers[id] = &halDynamicBuffer{}
	return id
}

// UploadBuffer creates a fresh vertex buffer for this batch and fills it.
// The previous backing buffer retires until the pass is submitted.
func (d *HALDevice) UploadBuffer(buf BufferID, data []byte) {
	b := d.buffers[buf]
	if b == nil || len(data) == 0 {
		return
	}
	halBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "ink_vertices",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		ink.Logger().Warn("gpu: vertex buffer allocation failed", "error", err)
		return
	}
	d.queue.WriteBuffer(halBuf, 0, data)
	if b.current != nil {
		b.retired = append(b.retired, b.current)
	}
	b.current = halBuf
	b.size = uint64(len(data))
}

// SetProjection writes the projection matrix into the shared uniform
// buffer. The projection is expected to be invariant within a pass.
func (d *HALDevice) SetProjection(m [16]float32) {
	if d.uniformBuf == nil {
		buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "ink_projection",
			Size:  64,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			ink.Logger().Warn("gpu: uniform buffer allocation failed", "error", err)
			return
		}
		d.uniformBuf = buf
	} else if m == d.projection {
		return
	}
	d.projection = m
	d.queue.WriteBuffer(d.uniformBuf, 0, matrixBytes(m))
}

// matrixBytes encodes a column-major matrix for a uniform upload.
func matrixBytes(m [16]float32) []byte {
	return vertexBytes(m[:])
}

// --------------------------------------------------------------------------
// Pass recording and submission
// --------------------------------------------------------------------------

// BeginPass starts recording a pass over fb.
func (d *HALDevice) BeginPass(fb FramebufferID, clear *ink.Color) {
	d.passFB = d.framebuffers[fb]
	d.passClear = clear
	d.cmds = d.cmds[:0]
}

// BindPipeline records a pipeline switch.
func (d *HALDevice) BindPipeline(p PipelineID) {
	d.cmds = append(d.cmds, halCmd{kind: cmdBindPipeline, pipeline: p})
}

// BindVertexBuffer records a vertex stream bind, snapshotting the current
// backing buffer so later uploads do not disturb this batch.
func (d *HALDevice) BindVertexBuffer(buf BufferID) {
	b := d.buffers[buf]
	if b == nil || b.current == nil {
		return
	}
	d.cmds = append(d.cmds, halCmd{kind: cmdBindVertexBuffer, buffer: b.current})
}

// BindTexture records a texture bind for the next draws.
func (d *HALDevice) BindTexture(_ int, tex TextureID) {
	d.cmds = append(d.cmds, halCmd{kind: cmdBindTexture, texture: tex})
}

// DrawTriangles records a triangle-list draw.
func (d *HALDevice) DrawTriangles(first, count int) {
	d.cmds = append(d.cmds, halCmd{kind: cmdDraw, first: first, count: count})
}

// SetScissor records the scissor rectangle in top-down coordinates.
func (d *HALDevice) SetScissor(x, y, width, height int) {
	d.cmds = append(d.cmds, halCmd{kind: cmdScissor, rect: [4]int{x, y, width, height}})
}

// EnableScissor records toggling the scissor. wgpu has no disable, so
// "off" encodes as a full-target scissor rectangle.
func (d *HALDevice) EnableScissor(enabled bool) {
	d.cmds = append(d.cmds, halCmd{kind: cmdScissorEnable, enabled: enabled})
}

// EndPass encodes the recorded commands into one render pass, submits
// them, and blocks until the GPU finishes.
func (d *HALDevice) EndPass() {
	fb := d.passFB
	d.passFB = nil
	if fb == nil {
		return
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ink_frame"})
	if err != nil {
		ink.Logger().Warn("gpu: create command encoder failed", "error", err)
		return
	}
	if err := encoder.BeginEncoding("ink_frame"); err != nil {
		ink.Logger().Warn("gpu: begin encoding failed", "error", err)
		return
	}

	attachment := hal.RenderPassColorAttachment{
		View:    fb.view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if d.passClear != nil {
		c := *d.passClear
		attachment.LoadOp = gputypes.LoadOpClear
		attachment.ClearValue = gputypes.Color{
			R: float64(c.R) / 255,
			G: float64(c.G) / 255,
			B: float64(c.B) / 255,
			A: float64(c.A) / 255,
		}
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "ink_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{attachment},
	})

	var bindGroups []hal.BindGroup
	var curPipe *halPipeline
	var curTex TextureID
	bindGroupDirty := true

	for _, cmd := range d.cmds {
		switch cmd.kind {
		case cmdBindPipeline:
			curPipe = d.pipelines[cmd.pipeline]
			if curPipe != nil {
				rp.SetPipeline(curPipe.pipeline)
			}
			bindGroupDirty = true
		case cmdBindVertexBuffer:
			rp.SetVertexBuffer(0, cmd.buffer, 0)
		case cmdBindTexture:
			curTex = cmd.texture
			bindGroupDirty = true
		case cmdDraw:
			if curPipe == nil {
				continue
			}
			if bindGroupDirty {
				bg, err := d.createBindGroup(curPipe, curTex)
				if err != nil {
					ink.Logger().Warn("gpu: bind group creation failed", "error", err)
					continue
				}
				bindGroups = append(bindGroups, bg)
				rp.SetBindGroup(0, bg, nil)
				bindGroupDirty = false
			}
			rp.Draw(uint32(cmd.count), 1, uint32(cmd.first), 0)
		case cmdScissor:
			rp.SetScissorRect(uint32(cmd.rect[0]), uint32(cmd.rect[1]), uint32(cmd.rect[2]), uint32(cmd.rect[3]))
		case cmdScissorEnable:
			if !cmd.enabled {
				rp.SetScissorRect(0, 0, uint32(fb.width), uint32(fb.height))
			}
		}
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		ink.Logger().Warn("gpu: end encoding failed", "error", err)
		return
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	d.submitAndWait([]hal.CommandBuffer{cmdBuf})

	for _, bg := range bindGroups {
		d.device.DestroyBindGroup(bg)
	}
	d.retireBuffers()
}

// createBindGroup builds the bind group for the active pipeline, adding
// the bound texture and its sampler on the texture pipeline.
func (d *HALDevice) createBindGroup(pipe *halPipeline, tex TextureID) (hal.BindGroup, error) {
	if d.uniformBuf == nil {
		return nil, errors.New("gpu: no projection set before draw")
	}
	entries := []gputypes.BindGroupEntry{{
		Binding:  0,
		Resource: gputypes.BufferBinding{Buffer: d.uniformBuf.NativeHandle(), Offset: 0, Size: 64},
	}}
	if pipe.layout == LayoutTexture {
		t := d.textures[tex]
		if t == nil {
			return nil, ErrTextureAlloc
		}
		sampler := d.samplerLinear
		if t.nearest {
			sampler = d.samplerNearest
		}
		entries = append(entries,
			gputypes.BindGroupEntry{
				Binding:  1,
				Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()},
			},
			gputypes.BindGroupEntry{
				Binding:  2,
				Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()},
			},
		)
	}
	return d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "ink_bind",
		Layout:  pipe.bindLayout,
		Entries: entries,
	})
}

// submitAndWait submits command buffers and blocks until the GPU signals
// completion.
func (d *HALDevice) submitAndWait(cmdBufs []hal.CommandBuffer) {
	if _, err := d.queue.Submit(cmdBufs); err != nil {
		ink.Logger().Warn("gpu: submit failed", "error", err)
		return
	}
	if err := d.device.WaitIdle(); err != nil {
		ink.Logger().Warn("gpu: wait for GPU failed", "error", err)
	}
}

// retireBuffers destroys per-batch vertex buffers from the submitted
// pass.
func (d *HALDevice) retireBuffers() {
	for _, b := range d.buffers {
		for _, old := range b.retired {
			d.device.DestroyBuffer(old)
		}
		b.retired = b.retired[:0]
	}
}

// --------------------------------------------------------------------------
// Blit and readback
// --------------------------------------------------------------------------

// Blit copies src's color attachment into dst's with a one-off encoder.
// Must not be called between BeginPass and EndPass.
func (d *HALDevice) Blit(src, dst FramebufferID, width, height int) {
	s, t := d.framebuffers[src], d.framebuffers[dst]
	if s == nil || t == nil {
		return
	}
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ink_blit"})
	if err != nil {
		ink.Logger().Warn("gpu: blit encoder failed", "error", err)
		return
	}
	if err := encoder.BeginEncoding("ink_blit"); err != nil {
		ink.Logger().Warn("gpu: blit encoding failed", "error", err)
		return
	}
	encoder.CopyTextureToTexture(s.tex, t.tex, []hal.TextureCopy{{
		SrcBase: hal.ImageCopyTexture{Texture: s.tex, MipLevel: 0},
		DstBase: hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:    hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		ink.Logger().Warn("gpu: blit end encoding failed", "error", err)
		return
	}
	defer d.device.FreeCommandBuffer(cmdBuf)
	d.submitAndWait([]hal.CommandBuffer{cmdBuf})
}

// ReadPixels copies a rectangle of the color attachment through a staging
// buffer. Rows come back top-down, 4 bytes per pixel in the attachment's
// format.
func (d *HALDevice) ReadPixels(fb FramebufferID, x, y, width, height int, dst []byte) error {
	f := d.framebuffers[fb]
	if f == nil {
		return ErrInvalidTarget
	}

	bytesPerRow := uint32(4 * width)
	alignedBytesPerRow := (bytesPerRow + readbackRowAlignment - 1) &^ uint32(readbackRowAlignment-1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(height)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "ink_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ink_readback"})
	if err != nil {
		return fmt.Errorf("gpu: create readback encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ink_readback"); err != nil {
		return fmt.Errorf("gpu: begin readback encoding: %w", err)
	}

	// Transition the attachment for transfer; a no-op on backends that
	// track layouts implicitly.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: f.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(f.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: uint32(height)},
		TextureBase:  hal.ImageCopyTexture{Texture: f.tex, MipLevel: 0, Origin: hal.Origin3D{X: uint32(x), Y: uint32(y)}},
		Size:         hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: f.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end readback encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)
	d.submitAndWait([]hal.CommandBuffer{cmdBuf})

	mapping, err := d.device.MapBuffer(staging, 0, stagingSize)
	if err != nil {
		return fmt.Errorf("gpu: readback: %w", err)
	}
	readback := unsafe.Slice((*byte)(mapping.Ptr), int(stagingSize))
	defer d.device.UnmapBuffer(staging)

	// Strip per-row padding.
	for row := 0; row < height; row++ {
		srcOff := row * int(alignedBytesPerRow)
		dstOff := row * int(bytesPerRow)
		copy(dst[dstOff:dstOff+int(bytesPerRow)], readback[srcOff:srcOff+int(bytesPerRow)])
	}
	return nil
}

// RowOrder reports top-down rows; WebGPU texture copies are top-down.
func (d *HALDevice) RowOrder() RowOrder {
	return RowOrderTopDown
}

// Flush is a no-op: every submission already waits on its fence.
func (d *HALDevice) Flush() {}

// Close releases all device resources. Using the device afterwards is
// undefined.
func (d *HALDevice) Close() {
	for id := range d.framebuffers {
		d.DestroyFramebuffer(id)
	}
	for id := range d.textures {
		d.DeleteTexture(id)
	}
	for _, b := range d.buffers {
		if b.current != nil {
			d.device.DestroyBuffer(b.current)
		}
		for _, old := range b.retired {
			d.device.DestroyBuffer(old)
		}
	}
	for _, p := range d.pipelines {
		d.device.DestroyRenderPipeline(p.pipeline)
		d.device.DestroyPipelineLayout(p.pipeLayout)
		d.device.DestroyBindGroupLayout(p.bindLayout)
		d.device.DestroyShaderModule(p.shader)
	}
	if d.uniformBuf != nil {
		d.device.DestroyBuffer(d.uniformBuf)
	}
	d.device.DestroySampler(d.samplerLinear)
	d.device.DestroySampler(d.samplerNearest)
	d.device.Destroy()
	d.instance.Destroy()
}
