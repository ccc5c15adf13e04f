package telemetry

// SamplerDescription exposes the sampler chosen for a ratio.
func SamplerDescription(ratio float64) string {
	return sampler(ratio).Description()
}
