package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	payload, err := exporter.Render(Dataset{
		Headers: []string{"Name", "Situation"},
		Rows: []map[string]string{
			{"Name": "Ana Souza", "Situation": "current"},
			{"Name": "Bia, Lima", "Situation": "delinquent"},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Situation", lines[0])
	assert.Equal(t, "Ana Souza,current", lines[1])
	assert.Equal(t, `"Bia, Lima",delinquent`, lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	payload, err := exporter.Render(Dataset{
		Headers: []string{"Name", "Situation"},
		Rows: []map[string]string{
			{"Name": "Ana Souza", "Situation": "current"},
		},
	}, "Finance Report")
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	assert.Equal(t, "%PDF", string(payload[:4]))
}
