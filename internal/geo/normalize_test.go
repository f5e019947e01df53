package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Port-Harcourt!! ":    "port harcourt",
		"IKEJA,  Lagos":         "ikeja lagos",
		"Ọ̀yọ́ State":           "oyo state",
		"Victoria\tIsland\n":    "victoria island",
		"...":                   "",
		"PH":                    "ph",
		"12 Allen Avenue/Ikeja": "12 allen avenue ikeja",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestGazetteer_Lookup(t *testing.T) {
	p, ok := DefaultGazetteer.Lookup(Normalize("ph"))
	assert.True(t, ok)
	assert.Equal(t, "Port Harcourt", p.Name)
	assert.Equal(t, 4.8156, p.Point.Latitude)

	p, ok = DefaultGazetteer.Lookup(Normalize("Allen Avenue, Ikeja, Lagos"))
	assert.True(t, ok)
	assert.Equal(t, "Ikeja", p.Name, "neighbourhood is listed before its city")

	_, ok = DefaultGazetteer.Lookup(Normalize("phone repair shop"))
	assert.False(t, ok, "keys match whole words only")

	_, ok = DefaultGazetteer.Lookup("")
	assert.False(t, ok)
}

func TestDefaultGazetteer_KeysNormalized(t *testing.T) {
	assert.GreaterOrEqual(t, len(DefaultGazetteer), 30)
	for _, p := range DefaultGazetteer {
		assert.Equal(t, Normalize(p.Key), p.Key)
	}
}
