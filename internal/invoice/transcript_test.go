package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTranscript(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"crlf and tabs", "Total:\t\t$  1.000,00\r\nFin", "Total: $ 1.000,00\nFin"},
		{"blank runs", "A\n\n\n\n\nB", "A\n\nB"},
		{"ruler lines", "Cabecera\n-----------\nCuerpo\n  ______  \nPie", "Cabecera\n\nCuerpo\n\nPie"},
		{"trailing spaces", "Linea   \n  Otra", "Linea\n Otra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanTranscript(tt.in))
		})
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "descripcion", fold("Descripción"))
	assert.Equal(t, "percepcion iibb", fold("PERCEPCIÓN IIBB"))
	assert.Equal(t, "cantidad", fold("cantidad"))
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"uno", "dos"}, splitLines("  uno \n\n\t\ndos\n"))
	assert.Empty(t, splitLines(" \n "))
}
