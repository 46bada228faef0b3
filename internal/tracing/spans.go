package tracing

// Span attribute keys.
const (
	AttrRunID      = "run.id"
	AttrOutputDir  = "run.output_dir"
	AttrImageCount = "run.image_count"
	AttrFixedIndex = "run.fixed_index"
	AttrParallel   = "run.parallel"

	AttrChainSide = "chain.side"
	AttrChainLen  = "chain.length"

	AttrJobStep   = "job.step"
	AttrJobFixed  = "job.fixed"
	AttrJobMoving = "job.moving"
	AttrJobOutput = "job.output"
)

// Span names.
const (
	SpanRun       = "regkit.run"
	SpanChain     = "regkit.chain"
	SpanJob       = "regkit.job"
	SpanCompare   = "regkit.compare"
	SpanGrayscale = "regkit.grayscale"
)
