package otel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "localhost:4317", normalizeEndpoint("localhost:4317"))
	assert.Equal(t, "collector:4317", normalizeEndpoint("http://collector:4317"))
	assert.Equal(t, "collector:4317", normalizeEndpoint("https://collector:4317/"))
	assert.Equal(t, "collector:4317", normalizeEndpoint("  collector:4317 "))
}

func TestConfigNormalized(t *testing.T) {
	dev := Config{OTLPEndpoint: "http://collector:4317", SampleRatio: 0.2}.normalized()
	assert.Equal(t, "development", dev.Environment)
	assert.Equal(t, 1.0, dev.SampleRatio)
	assert.Equal(t, "collector:4317", dev.OTLPEndpoint)

	prod := Config{Environment: "production", SampleRatio: 0.25}.normalized()
	assert.Equal(t, 0.25, prod.SampleRatio)

	unset := Config{Environment: "production"}.normalized()
	assert.Equal(t, defaultSampleRatio, unset.SampleRatio)

	tooLarge := Config{Environment: "staging", SampleRatio: 3}.normalized()
	assert.Equal(t, defaultSampleRatio, tooLarge.SampleRatio)
}
