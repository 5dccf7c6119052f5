package jssource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClosing(t *testing.T) {
	src := `new Plugin([{ a: ')', b: /(x)/ }]) + 1`

	assert.Equal(t, 33, Closing(src, len("new Plugin("), '(', ')'))
	assert.Equal(t, -1, Closing("foo(bar", 4, '(', ')'))
}

func TestImportsEnd(t *testing.T) {
	src := "import a from 'a';\nimport {\n  b,\n  c,\n} from \"b\"\nimport './side-effect';\n\nconst x = 1;\n"

	assert.Equal(t, len(src)-len("\nconst x = 1;\n"), ImportsEnd(src))
	assert.Equal(t, -1, ImportsEnd("const important = true;\n"))
}

func TestInsertAfterImports(t *testing.T) {
	assert.Equal(t,
		"import a from 'a';\nimport b from 'b';\n\nrun();\n",
		InsertAfterImports("import a from 'a';\n\nrun();\n", "import b from 'b';\n"))
	assert.Equal(t,
		"import b from 'b';\nrun();\n",
		InsertAfterImports("run();\n", "import b from 'b';\n"))
	assert.Equal(t,
		"import a from 'a';\nimport b from 'b';\n",
		InsertAfterImports("import a from 'a';", "import b from 'b';\n"))
}

func TestAppendToArray(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"inline", `x = ['react', 'react-dom'];`, `x = ['react', 'react-dom', 'i18next'];`},
		{"inline trailing comma", `x = ['react',];`, `x = ['react', 'i18next'];`},
		{"empty", `x = [];`, `x = ['i18next'];`},
		{
			"multiline",
			"x = [\n  'react',\n  'react-dom'\n];",
			"x = [\n  'react',\n  'react-dom',\n  'i18next',\n];",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AppendToArray(tt.src, 4, "'i18next'")
			assert.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestHasString(t *testing.T) {
	assert.True(t, HasString(`['react', "i18next"]`, "i18next"))
	assert.False(t, HasString(`['react', i18next]`, "i18next"))
}
