package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		name string
		out  string
	}{
		{name: "", out: ""},
		{name: "Sakuya", out: "sakuya"},
		{name: "S.a.k.u.y.a", out: "sakuya"},
		{name: "Sákuyá", out: "sakuya"},
		{name: "Gdańsk", out: "gdansk"},
		{name: "~ hourai bot ~", out: "houraibot"},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, NormalizeName(fix.name))
	}
}

func TestTokenizeName(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		name string
		out  []string
	}{
		{name: "", out: []string{}},
		{name: "Deleted User 0a1b2c3d", out: []string{"deleted", "user", "0a1b2c3d"}},
		{name: "@a-b-c", out: []string{}},
		{name: "Gdańsk_fan", out: []string{"gdansk", "fan"}},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, TokenizeName(fix.name))
	}
}
